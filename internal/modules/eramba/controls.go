package eramba

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	types "github.com/complyline/compliance-backend/internal/domain"
	"github.com/complyline/compliance-backend/internal/modules/reconcile"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
)

type servicesFetcher interface {
	FetchSecurityServices(ctx context.Context) (*SecurityServicesDocument, error)
}

// ControlSyncer ingests security services as controls (keyed on
// display name, the Eramba lookup path) and links each to the
// policies it implements.
type ControlSyncer struct {
	db       *gorm.DB
	fetcher  servicesFetcher
	engine   *reconcile.Engine
	resolver *reconcile.Resolver
	linker   *reconcile.Linker
	log      *logger.Logger
}

func NewControlSyncer(db *gorm.DB, fetcher servicesFetcher, engine *reconcile.Engine, resolver *reconcile.Resolver, linker *reconcile.Linker, baseLog *logger.Logger) *ControlSyncer {
	return &ControlSyncer{
		db:       db,
		fetcher:  fetcher,
		engine:   engine,
		resolver: resolver,
		linker:   linker,
		log:      baseLog.With("syncer", "ErambaControls"),
	}
}

func (s *ControlSyncer) Run(ctx context.Context) (*reconcile.Summary, error) {
	sum := reconcile.NewSummary()

	doc, err := s.fetcher.FetchSecurityServices(ctx)
	if err != nil {
		sum.Status = reconcile.StatusError
		return sum, fmt.Errorf("fetch security services: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, svc := range doc.Data {
			if err := s.ingestService(ctx, tx, svc, sum); err != nil {
				sum.RecordErrorf("eramba_controls", svc.Name, "%v", err)
			}
		}
		return nil
	})
	if err != nil {
		sum.Status = reconcile.StatusError
		return sum, fmt.Errorf("control pass transaction: %w", err)
	}
	return sum.Finalize(), nil
}

func (s *ControlSyncer) ingestService(ctx context.Context, tx *gorm.DB, svc SecurityService, sum *reconcile.Summary) error {
	control, _, err := s.engine.ControlByName(ctx, tx, reconcile.ControlRecord{
		ShortName:    fmt.Sprintf("ERS-%d", svc.ID),
		Name:         svc.Name,
		Description:  serviceDescription(svc),
		GatheredFrom: types.GatheredFromEramba,
	}, "controls", sum)
	if err != nil {
		return err
	}
	if control == nil {
		return nil
	}

	for _, ref := range svc.SecurityPolicies {
		policy, err := s.resolver.Policy(ctx, tx, reconcile.SourceEramba, reconcile.PolicyKey{Title: ref.Index})
		if err != nil {
			return fmt.Errorf("resolve policy %q: %w", ref.Index, err)
		}
		if policy == nil {
			sum.Warnf("control %q references unknown policy title %q", svc.Name, ref.Index)
			continue
		}
		if err := s.linker.PolicyControl(ctx, tx, policy.ID, control.ID, "policy_control_links", sum); err != nil {
			return err
		}
	}
	return nil
}

// serviceDescription folds the service's objective and audit fields
// into one description block.
func serviceDescription(svc SecurityService) string {
	parts := make([]string, 0, 3)
	if svc.Objective != "" {
		parts = append(parts, svc.Objective)
	}
	if svc.AuditMetricDescription != "" {
		parts = append(parts, "Audit metric: "+svc.AuditMetricDescription)
	}
	if svc.AuditSuccessCriteria != "" {
		parts = append(parts, "Success criteria: "+svc.AuditSuccessCriteria)
	}
	return strings.Join(parts, "\n\n")
}

package eramba

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	types "github.com/complyline/compliance-backend/internal/domain"
	"github.com/complyline/compliance-backend/internal/modules/reconcile"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
)

// ClauseSyncer ingests compliance-package items as clauses under
// their regulator's certification and links them to already-known
// policies (by title) and controls (by name). Unresolvable
// cross-references are warnings, not failures.
type ClauseSyncer struct {
	db       *gorm.DB
	fetcher  regulatorsFetcher
	engine   *reconcile.Engine
	resolver *reconcile.Resolver
	linker   *reconcile.Linker
	log      *logger.Logger
}

func NewClauseSyncer(db *gorm.DB, fetcher regulatorsFetcher, engine *reconcile.Engine, resolver *reconcile.Resolver, linker *reconcile.Linker, baseLog *logger.Logger) *ClauseSyncer {
	return &ClauseSyncer{
		db:       db,
		fetcher:  fetcher,
		engine:   engine,
		resolver: resolver,
		linker:   linker,
		log:      baseLog.With("syncer", "ErambaClauses"),
	}
}

func (s *ClauseSyncer) Run(ctx context.Context) (*reconcile.Summary, error) {
	sum := reconcile.NewSummary()

	doc, err := s.fetcher.FetchRegulators(ctx)
	if err != nil {
		sum.Status = reconcile.StatusError
		return sum, fmt.Errorf("fetch regulators: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, regulator := range doc.Data {
			if err := s.ingestRegulator(ctx, tx, regulator, sum); err != nil {
				sum.RecordErrorf("eramba_clauses", regulator.Name, "%v", err)
			}
		}
		return nil
	})
	if err != nil {
		sum.Status = reconcile.StatusError
		return sum, fmt.Errorf("clause pass transaction: %w", err)
	}
	return sum.Finalize(), nil
}

func (s *ClauseSyncer) ingestRegulator(ctx context.Context, tx *gorm.DB, regulator Regulator, sum *reconcile.Summary) error {
	cert, _, err := s.engine.Certification(ctx, tx, reconcile.CertificationRecord{
		Name:           regulator.Name,
		Description:    regulator.Description,
		SourceURL:      regulator.URL,
		Version:        regulator.Version,
		RegulationName: regulator.RegulationName,
	}, reconcile.CreateOnly, "certifications", sum)
	if err != nil || cert == nil {
		return err
	}

	for _, pkg := range regulator.CompliancePackages {
		for _, item := range pkg.CompliancePackageItems {
			if err := s.ingestItem(ctx, tx, cert, item, sum); err != nil {
				sum.RecordErrorf("eramba_clauses", regulator.Name+"/"+item.ItemID, "%v", err)
			}
		}
	}
	return nil
}

func (s *ClauseSyncer) ingestItem(ctx context.Context, tx *gorm.DB, cert *types.Certification, item PackageItem, sum *reconcile.Summary) error {
	clause, _, err := s.engine.Clause(ctx, tx, cert.ID, reconcile.ClauseRecord{
		ReferenceID:       item.ItemID,
		DisplayIdentifier: item.ItemID,
		Title:             item.Name,
		Description:       item.Description,
		OriginalID:        item.ID,
	}, "clauses", sum)
	if err != nil {
		return err
	}
	if clause == nil {
		return nil
	}

	for _, ref := range item.ComplianceManagement.SecurityPolicies {
		policy, err := s.resolver.Policy(ctx, tx, reconcile.SourceEramba, reconcile.PolicyKey{Title: ref.Index})
		if err != nil {
			return fmt.Errorf("resolve policy %q: %w", ref.Index, err)
		}
		if policy == nil {
			sum.Warnf("clause %q references unknown policy title %q", item.ItemID, ref.Index)
			continue
		}
		if err := s.linker.ClausePolicy(ctx, tx, clause.ID, policy.ID, "policy_clause_links", sum); err != nil {
			return err
		}
	}

	for _, ref := range item.ComplianceManagement.SecurityServices {
		control, err := s.resolver.ControlByName(ctx, tx, ref.Name)
		if err != nil {
			return fmt.Errorf("resolve control %q: %w", ref.Name, err)
		}
		if control == nil {
			sum.Warnf("clause %q references unknown control name %q", item.ItemID, ref.Name)
			continue
		}
		if err := s.linker.ClauseControl(ctx, tx, clause.ID, control.ID, "control_clause_links", sum); err != nil {
			return err
		}
	}
	return nil
}

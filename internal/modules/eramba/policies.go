package eramba

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/complyline/compliance-backend/internal/modules/reconcile"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
)

type policyFetcher interface {
	FetchPolicyRange(ctx context.Context, fromID, toID int) ([]SecurityPolicy, error)
}

// PolicySyncer fetches security policies across the id range (the
// fetch fans out; reconciliation runs single-threaded afterwards) and
// upserts them by title. A re-ingested title only refreshes
// policy_template; policy_id and policy_reference never change.
type PolicySyncer struct {
	db      *gorm.DB
	fetcher policyFetcher
	engine  *reconcile.Engine
	fromID  int
	toID    int
	log     *logger.Logger
}

func NewPolicySyncer(db *gorm.DB, fetcher policyFetcher, engine *reconcile.Engine, fromID, toID int, baseLog *logger.Logger) *PolicySyncer {
	return &PolicySyncer{
		db:      db,
		fetcher: fetcher,
		engine:  engine,
		fromID:  fromID,
		toID:    toID,
		log:     baseLog.With("syncer", "ErambaPolicies"),
	}
}

func (s *PolicySyncer) Run(ctx context.Context) (*reconcile.Summary, error) {
	sum := reconcile.NewSummary()

	records, err := s.fetcher.FetchPolicyRange(ctx, s.fromID, s.toID)
	if err != nil {
		sum.Status = reconcile.StatusError
		return sum, fmt.Errorf("fetch policy range [%d, %d]: %w", s.fromID, s.toID, err)
	}
	sum.Add("policies_fetched", len(records))

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range records {
			_, _, err := s.engine.ErambaPolicy(ctx, tx, reconcile.ErambaPolicyRecord{
				Index:       rec.Index,
				Description: rec.Description,
				ExternalID:  rec.ID,
				Version:     rec.Version,
			}, "policies", sum)
			if err != nil {
				sum.RecordErrorf("eramba_policies", rec.Index, "%v", err)
			}
		}
		return nil
	})
	if err != nil {
		sum.Status = reconcile.StatusError
		return sum, fmt.Errorf("policy pass transaction: %w", err)
	}
	return sum.Finalize(), nil
}

package reconcile

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/complyline/compliance-backend/internal/data/repos"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
)

// Linker establishes many-to-many edges. Every edge kind is additive
// and idempotent: an edge that already exists is a no-op and does not
// increment the caller's counter. ReplaceControlsForPolicy is the one
// deliberate exception to the additive rule.
type Linker struct {
	links repos.LinkRepo
	log   *logger.Logger
}

func NewLinker(links repos.LinkRepo, baseLog *logger.Logger) *Linker {
	return &Linker{links: links, log: baseLog.With("component", "Linker")}
}

func (l *Linker) ClausePolicy(ctx context.Context, tx *gorm.DB, clauseID, policyID uuid.UUID, bucket string, sum *Summary) error {
	exists, err := l.links.ClausePolicyExists(ctx, tx, clauseID, policyID)
	if err != nil {
		return fmt.Errorf("check clause-policy edge: %w", err)
	}
	if exists {
		return nil
	}
	if err := l.links.LinkClausePolicy(ctx, tx, clauseID, policyID); err != nil {
		return fmt.Errorf("link clause-policy: %w", err)
	}
	sum.Add(bucket, 1)
	return nil
}

func (l *Linker) ClauseControl(ctx context.Context, tx *gorm.DB, clauseID, controlID uuid.UUID, bucket string, sum *Summary) error {
	exists, err := l.links.ClauseControlExists(ctx, tx, clauseID, controlID)
	if err != nil {
		return fmt.Errorf("check clause-control edge: %w", err)
	}
	if exists {
		return nil
	}
	if err := l.links.LinkClauseControl(ctx, tx, clauseID, controlID); err != nil {
		return fmt.Errorf("link clause-control: %w", err)
	}
	sum.Add(bucket, 1)
	return nil
}

func (l *Linker) PolicyControl(ctx context.Context, tx *gorm.DB, policyID, controlID uuid.UUID, bucket string, sum *Summary) error {
	exists, err := l.links.PolicyControlExists(ctx, tx, policyID, controlID)
	if err != nil {
		return fmt.Errorf("check policy-control edge: %w", err)
	}
	if exists {
		return nil
	}
	if err := l.links.LinkPolicyControl(ctx, tx, policyID, controlID); err != nil {
		return fmt.Errorf("link policy-control: %w", err)
	}
	sum.Add(bucket, 1)
	return nil
}

// ReplaceControlsForPolicy swaps the policy's control edge set for
// exactly the given set. The TrustCloud policy-capability pass is
// authoritative for this edge kind, so an empty set unlinks the
// policy from every control rather than leaving stale edges.
func (l *Linker) ReplaceControlsForPolicy(ctx context.Context, tx *gorm.DB, policyID uuid.UUID, controlIDs []uuid.UUID) error {
	if err := l.links.ReplacePolicyControls(ctx, tx, policyID, controlIDs); err != nil {
		return fmt.Errorf("replace policy-control set: %w", err)
	}
	return nil
}

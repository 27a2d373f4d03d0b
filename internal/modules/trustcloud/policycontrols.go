package trustcloud

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/complyline/compliance-backend/internal/data/repos"
	"github.com/complyline/compliance-backend/internal/modules/reconcile"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
	"github.com/complyline/compliance-backend/internal/platform/captures"
)

// PolicyControlSyncer reconciles the policies capability capture:
// for each captured policy it replaces the policy's control edge set
// (this capture is authoritative for that edge kind) and overwrites
// the security group. Unmatched policies and control ids become
// warnings, never failures.
type PolicyControlSyncer struct {
	db       *gorm.DB
	store    captures.Store
	resolver *reconcile.Resolver
	linker   *reconcile.Linker
	policies repos.PolicyRepo
	log      *logger.Logger
}

func NewPolicyControlSyncer(db *gorm.DB, store captures.Store, resolver *reconcile.Resolver, linker *reconcile.Linker, policies repos.PolicyRepo, baseLog *logger.Logger) *PolicyControlSyncer {
	return &PolicyControlSyncer{
		db:       db,
		store:    store,
		resolver: resolver,
		linker:   linker,
		policies: policies,
		log:      baseLog.With("syncer", "TrustCloudPolicyControls"),
	}
}

func (s *PolicyControlSyncer) Run(ctx context.Context) (*reconcile.Summary, error) {
	sum := reconcile.NewSummary()

	docs, err := s.store.List(ctx, captures.SourceTrustCloudPolicies)
	if err != nil {
		sum.Status = reconcile.StatusError
		return sum, fmt.Errorf("list policy captures: %w", err)
	}
	if len(docs) == 0 {
		sum.Status = reconcile.StatusError
		return sum, fmt.Errorf("no policy captures stored under source %q", captures.SourceTrustCloudPolicies)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, doc := range docs {
			var items []PolicyCapability
			if err := json.Unmarshal(doc.Payload, &items); err != nil {
				sum.RecordErrorf("trustcloud_policies", doc.Key, "parse policy capture: %v", err)
				continue
			}
			for _, item := range items {
				if err := s.reconcileItem(ctx, tx, item, sum); err != nil {
					sum.RecordErrorf("trustcloud_policies", item.ID, "%v", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		sum.Status = reconcile.StatusError
		return sum, fmt.Errorf("policy-control pass transaction: %w", err)
	}
	return sum.Finalize(), nil
}

func (s *PolicyControlSyncer) reconcileItem(ctx context.Context, tx *gorm.DB, item PolicyCapability, sum *reconcile.Summary) error {
	if item.ID == "" {
		sum.Warnf("policy capability skipped: missing policy reference")
		return nil
	}

	policy, err := s.resolver.Policy(ctx, tx, reconcile.SourceTrustCloud, reconcile.PolicyKey{Reference: item.ID})
	if err != nil {
		return fmt.Errorf("resolve policy %q: %w", item.ID, err)
	}
	if policy == nil {
		sum.Warnf("unmatched policy reference %q", item.ID)
		sum.Add("unmatched_policies", 1)
		return nil
	}

	controls, err := s.resolver.ControlsByOriginalIDs(ctx, tx, item.RelatedControlIDs)
	if err != nil {
		return fmt.Errorf("resolve controls for policy %q: %w", item.ID, err)
	}
	matched := make(map[string]uuid.UUID, len(controls))
	controlIDs := make([]uuid.UUID, 0, len(controls))
	for _, c := range controls {
		if c.OriginalID == nil {
			continue
		}
		if _, ok := matched[*c.OriginalID]; ok {
			continue
		}
		matched[*c.OriginalID] = c.ID
		controlIDs = append(controlIDs, c.ID)
	}
	for _, cid := range item.RelatedControlIDs {
		if _, ok := matched[cid]; !ok {
			sum.Warnf("policy %q references unknown control id %q", item.ID, cid)
			sum.Add("unmatched_controls", 1)
		}
	}

	// Authoritative replace, including the downgrade to an empty set.
	if err := s.linker.ReplaceControlsForPolicy(ctx, tx, policy.ID, controlIDs); err != nil {
		return err
	}
	sum.Add("policies_linked", 1)

	var group *string
	if item.SecurityGroup != "" {
		group = &item.SecurityGroup
	}
	if err := s.policies.UpdateSecurityGroup(ctx, tx, policy.ID, group); err != nil {
		return fmt.Errorf("update security group for %q: %w", item.ID, err)
	}
	return nil
}

package reconcile

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/complyline/compliance-backend/internal/data/repos"
	types "github.com/complyline/compliance-backend/internal/domain"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
)

// Source names an upstream system. The resolver picks its natural key
// per (source, kind); absence is a nil row, never an error.
type Source string

const (
	SourceTrustCloud Source = "trustcloud"
	SourceEramba     Source = "eramba"
)

// PolicyKey carries every natural key a policy record may expose.
// Which field is consulted depends on the record's source.
type PolicyKey struct {
	Reference string
	PolicyID  string
	Title     string
}

type Resolver struct {
	certifications repos.CertificationRepo
	clauses        repos.ClauseRepo
	controls       repos.ControlRepo
	policies       repos.PolicyRepo
	log            *logger.Logger
}

func NewResolver(
	certifications repos.CertificationRepo,
	clauses repos.ClauseRepo,
	controls repos.ControlRepo,
	policies repos.PolicyRepo,
	baseLog *logger.Logger,
) *Resolver {
	return &Resolver{
		certifications: certifications,
		clauses:        clauses,
		controls:       controls,
		policies:       policies,
		log:            baseLog.With("component", "Resolver"),
	}
}

func (r *Resolver) Certification(ctx context.Context, tx *gorm.DB, name string) (*types.Certification, error) {
	return r.certifications.GetByName(ctx, tx, name)
}

func (r *Resolver) Clause(ctx context.Context, tx *gorm.DB, certificationID uuid.UUID, referenceID string) (*types.Clause, error) {
	return r.clauses.GetByCertificationAndRef(ctx, tx, certificationID, referenceID)
}

// ControlByShortName is the TrustCloud lookup path for controls.
func (r *Resolver) ControlByShortName(ctx context.Context, tx *gorm.DB, shortName string) (*types.Control, error) {
	return r.controls.GetByShortName(ctx, tx, shortName)
}

// ControlByName is the Eramba security-service lookup path. It is a
// separate key space from ControlByShortName: a control first seen
// through one path is not deduplicated against the other.
func (r *Resolver) ControlByName(ctx context.Context, tx *gorm.DB, name string) (*types.Control, error) {
	return r.controls.GetByName(ctx, tx, name)
}

func (r *Resolver) ControlsByOriginalIDs(ctx context.Context, tx *gorm.DB, originalIDs []string) ([]*types.Control, error) {
	return r.controls.GetByOriginalIDs(ctx, tx, originalIDs)
}

// Policy resolves a policy record through its source-specific key:
// TrustCloud keys on policy_reference (falling back to policy_id when
// the capture carried no reference), Eramba keys on title.
func (r *Resolver) Policy(ctx context.Context, tx *gorm.DB, source Source, key PolicyKey) (*types.Policy, error) {
	switch source {
	case SourceEramba:
		return r.policies.GetByTitle(ctx, tx, key.Title)
	default:
		if key.Reference != "" {
			return r.policies.GetByReference(ctx, tx, key.Reference)
		}
		return r.policies.GetByPolicyID(ctx, tx, key.PolicyID)
	}
}

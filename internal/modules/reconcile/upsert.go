package reconcile

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/complyline/compliance-backend/internal/data/repos"
	types "github.com/complyline/compliance-backend/internal/domain"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
	"github.com/complyline/compliance-backend/internal/utils"
)

// FieldPolicy declares what an upsert may do to an existing row.
// CreateOnly leaves matched rows untouched; Overwrite lists the exact
// columns a re-sync is authoritative for. The three overwrite paths
// in this system are declared once, here, not at call sites.
type FieldPolicy struct {
	Overwrite []string
}

var (
	CreateOnly = FieldPolicy{}

	// CertificationSyncPolicy: framework re-syncs own everything but
	// identity (name/slug stay immutable).
	CertificationSyncPolicy = FieldPolicy{Overwrite: []string{"version", "description", "source_url", "regulation_name"}}

	// PolicyTemplatePolicy: Eramba policy re-ingestion owns only the
	// template text.
	PolicyTemplatePolicy = FieldPolicy{Overwrite: []string{"policy_template"}}
)

// CertificationRecord is the normalized scalar payload for a
// certification upsert, whichever source produced it.
type CertificationRecord struct {
	Name           string
	Description    string
	SourceURL      string
	Version        string
	RegulationName string
}

type ClauseRecord struct {
	ReferenceID       string
	DisplayIdentifier string
	Title             string
	Description       string
	OriginalID        string
}

type ControlRecord struct {
	ShortName       string
	CustomShortName string
	Name            string
	Description     string
	OriginalID      string
	Category        string
	GatheredFrom    string
}

type PolicyRecord struct {
	PolicyID     string
	Reference    string
	Title        string
	Doc          string
	Version      string
	Template     string
	GatheredFrom string
}

// Engine creates or touches single entities from source records. A
// record missing its natural key is skipped with a warning on the
// summary so one bad record never halts a batch. Every create
// increments the caller's bucket; updates increment bucket+"_updated".
type Engine struct {
	resolver       *Resolver
	certifications repos.CertificationRepo
	clauses        repos.ClauseRepo
	controls       repos.ControlRepo
	policies       repos.PolicyRepo
	log            *logger.Logger
}

func NewEngine(
	resolver *Resolver,
	certifications repos.CertificationRepo,
	clauses repos.ClauseRepo,
	controls repos.ControlRepo,
	policies repos.PolicyRepo,
	baseLog *logger.Logger,
) *Engine {
	return &Engine{
		resolver:       resolver,
		certifications: certifications,
		clauses:        clauses,
		controls:       controls,
		policies:       policies,
		log:            baseLog.With("component", "UpsertEngine"),
	}
}

func updatedBucket(bucket string) string { return bucket + "_updated" }

// Certification upserts by name. With CertificationSyncPolicy the
// matched row's sync fields are overwritten; with CreateOnly a match
// is returned untouched.
func (e *Engine) Certification(ctx context.Context, tx *gorm.DB, rec CertificationRecord, pol FieldPolicy, bucket string, sum *Summary) (*types.Certification, bool, error) {
	if rec.Name == "" {
		sum.Warnf("certification record skipped: missing name")
		return nil, false, nil
	}
	existing, err := e.resolver.Certification(ctx, tx, rec.Name)
	if err != nil {
		return nil, false, fmt.Errorf("resolve certification %q: %w", rec.Name, err)
	}
	if existing == nil {
		row := &types.Certification{
			Name:           rec.Name,
			Slug:           utils.Slugify(rec.Name),
			Description:    rec.Description,
			SourceURL:      rec.SourceURL,
			Version:        rec.Version,
			RegulationName: rec.RegulationName,
		}
		if err := e.certifications.Create(ctx, tx, row); err != nil {
			return nil, false, fmt.Errorf("create certification %q: %w", rec.Name, err)
		}
		sum.Add(bucket, 1)
		return row, true, nil
	}
	if len(pol.Overwrite) > 0 {
		if err := e.certifications.UpdateSyncFields(ctx, tx, existing.ID, rec.Version, rec.Description, rec.SourceURL, rec.RegulationName); err != nil {
			return nil, false, fmt.Errorf("update certification %q: %w", rec.Name, err)
		}
		existing.Version = rec.Version
		existing.Description = rec.Description
		existing.SourceURL = rec.SourceURL
		existing.RegulationName = rec.RegulationName
		sum.Add(updatedBucket(bucket), 1)
	}
	return existing, false, nil
}

// Clause is strict get-or-create on (certification, reference_id).
func (e *Engine) Clause(ctx context.Context, tx *gorm.DB, certificationID uuid.UUID, rec ClauseRecord, bucket string, sum *Summary) (*types.Clause, bool, error) {
	if rec.ReferenceID == "" {
		sum.Warnf("clause record skipped: missing reference_id")
		return nil, false, nil
	}
	existing, err := e.resolver.Clause(ctx, tx, certificationID, rec.ReferenceID)
	if err != nil {
		return nil, false, fmt.Errorf("resolve clause %q: %w", rec.ReferenceID, err)
	}
	if existing != nil {
		return existing, false, nil
	}
	row := &types.Clause{
		CertificationID:   certificationID,
		ReferenceID:       rec.ReferenceID,
		DisplayIdentifier: rec.DisplayIdentifier,
		Title:             rec.Title,
		Description:       rec.Description,
		OriginalID:        optional(rec.OriginalID),
	}
	if err := e.clauses.Create(ctx, tx, row); err != nil {
		return nil, false, fmt.Errorf("create clause %q: %w", rec.ReferenceID, err)
	}
	sum.Add(bucket, 1)
	return row, true, nil
}

// ControlByShortName is strict get-or-create on short_name (the
// TrustCloud identity path).
func (e *Engine) ControlByShortName(ctx context.Context, tx *gorm.DB, rec ControlRecord, bucket string, sum *Summary) (*types.Control, bool, error) {
	if rec.ShortName == "" {
		sum.Warnf("control record skipped: missing short_name")
		return nil, false, nil
	}
	existing, err := e.resolver.ControlByShortName(ctx, tx, rec.ShortName)
	if err != nil {
		return nil, false, fmt.Errorf("resolve control %q: %w", rec.ShortName, err)
	}
	if existing != nil {
		return existing, false, nil
	}
	return e.createControl(ctx, tx, rec, bucket, sum)
}

// ControlByName is strict get-or-create keyed on display name (the
// Eramba security-service identity path).
func (e *Engine) ControlByName(ctx context.Context, tx *gorm.DB, rec ControlRecord, bucket string, sum *Summary) (*types.Control, bool, error) {
	if rec.Name == "" {
		sum.Warnf("control record skipped: missing name")
		return nil, false, nil
	}
	existing, err := e.resolver.ControlByName(ctx, tx, rec.Name)
	if err != nil {
		return nil, false, fmt.Errorf("resolve control by name %q: %w", rec.Name, err)
	}
	if existing != nil {
		return existing, false, nil
	}
	if rec.ShortName == "" {
		sum.Warnf("control record %q skipped: missing short_name", rec.Name)
		return nil, false, nil
	}
	return e.createControl(ctx, tx, rec, bucket, sum)
}

func (e *Engine) createControl(ctx context.Context, tx *gorm.DB, rec ControlRecord, bucket string, sum *Summary) (*types.Control, bool, error) {
	row := &types.Control{
		ShortName:           rec.ShortName,
		CustomShortName:     optional(rec.CustomShortName),
		Name:                rec.Name,
		Description:         rec.Description,
		OriginalID:          optional(rec.OriginalID),
		Category:            optional(rec.Category),
		ControlGatheredFrom: optional(rec.GatheredFrom),
	}
	if err := e.controls.Create(ctx, tx, row); err != nil {
		return nil, false, fmt.Errorf("create control %q: %w", rec.ShortName, err)
	}
	sum.Add(bucket, 1)
	return row, true, nil
}

// TrustCloudPolicy is strict get-or-create keyed on policy_reference
// (falling back to policy_id when the capture has no reference).
func (e *Engine) TrustCloudPolicy(ctx context.Context, tx *gorm.DB, rec PolicyRecord, bucket string, sum *Summary) (*types.Policy, bool, error) {
	if rec.PolicyID == "" && rec.Reference == "" {
		sum.Warnf("policy record skipped: missing policy_id and reference")
		return nil, false, nil
	}
	existing, err := e.resolver.Policy(ctx, tx, SourceTrustCloud, PolicyKey{Reference: rec.Reference, PolicyID: rec.PolicyID})
	if err != nil {
		return nil, false, fmt.Errorf("resolve policy %q: %w", rec.PolicyID, err)
	}
	if existing != nil {
		return existing, false, nil
	}
	reference := rec.Reference
	if reference == "" {
		reference = rec.PolicyID
	}
	row := &types.Policy{
		PolicyID:           rec.PolicyID,
		PolicyReference:    reference,
		Title:              rec.Title,
		PolicyDoc:          rec.Doc,
		PolicyVersion:      rec.Version,
		PolicyGatheredFrom: optional(types.GatheredFromTrustCloud),
	}
	if err := e.policies.Create(ctx, tx, row); err != nil {
		return nil, false, fmt.Errorf("create policy %q: %w", rec.PolicyID, err)
	}
	sum.Add(bucket, 1)
	return row, true, nil
}

// ErambaPolicyRecord is one security-policy item from the Eramba
// proxy. Index is the policy title and the identity key; ExternalID
// and Version seed the synthetic policy_id/policy_reference.
type ErambaPolicyRecord struct {
	Index       string
	Description string
	ExternalID  int
	Version     string
}

// ErambaPolicy upserts by title. On create it synthesizes
// policy_id "ER-<id>" and policy_reference "ER-<id>-<version>"; when
// the upstream record carries no id it falls back to the title slug
// plus a random suffix so uniqueness still holds. On match only the
// template text is overwritten (PolicyTemplatePolicy).
func (e *Engine) ErambaPolicy(ctx context.Context, tx *gorm.DB, rec ErambaPolicyRecord, bucket string, sum *Summary) (*types.Policy, bool, error) {
	if rec.Index == "" {
		sum.Warnf("eramba policy record skipped: missing index")
		return nil, false, nil
	}
	existing, err := e.resolver.Policy(ctx, tx, SourceEramba, PolicyKey{Title: rec.Index})
	if err != nil {
		return nil, false, fmt.Errorf("resolve eramba policy %q: %w", rec.Index, err)
	}
	if existing != nil {
		if err := e.policies.UpdateTemplate(ctx, tx, existing.ID, rec.Description); err != nil {
			return nil, false, fmt.Errorf("update eramba policy %q: %w", rec.Index, err)
		}
		existing.PolicyTemplate = rec.Description
		sum.Add(updatedBucket(bucket), 1)
		return existing, false, nil
	}

	policyID := fmt.Sprintf("ER-%d", rec.ExternalID)
	reference := fmt.Sprintf("ER-%d-%s", rec.ExternalID, rec.Version)
	if rec.ExternalID == 0 {
		base := utils.Slugify(rec.Index)
		policyID = base + "-" + utils.RandomSuffix(4)
		reference = policyID + "-" + rec.Version
	}
	row := &types.Policy{
		PolicyID:           policyID,
		PolicyReference:    reference,
		Title:              rec.Index,
		PolicyTemplate:     rec.Description,
		PolicyVersion:      rec.Version,
		PolicyGatheredFrom: optional(types.GatheredFromEramba),
	}
	if err := e.policies.Create(ctx, tx, row); err != nil {
		return nil, false, fmt.Errorf("create eramba policy %q: %w", rec.Index, err)
	}
	sum.Add(bucket, 1)
	return row, true, nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

package trustcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"

	types "github.com/complyline/compliance-backend/internal/domain"
	"github.com/complyline/compliance-backend/internal/modules/reconcile"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
	"github.com/complyline/compliance-backend/internal/platform/captures"
)

// SectionSyncer drives one full ingestion pass over the captured
// TrustCloud section documents: certification → clauses → nested
// policy/control mappings and their clause edges. Per-record errors
// are recorded on the summary and skipped; only infrastructure
// failures abort the pass.
type SectionSyncer struct {
	db     *gorm.DB
	store  captures.Store
	engine *reconcile.Engine
	linker *reconcile.Linker
	log    *logger.Logger
}

func NewSectionSyncer(db *gorm.DB, store captures.Store, engine *reconcile.Engine, linker *reconcile.Linker, baseLog *logger.Logger) *SectionSyncer {
	return &SectionSyncer{
		db:     db,
		store:  store,
		engine: engine,
		linker: linker,
		log:    baseLog.With("syncer", "TrustCloudSections"),
	}
}

func (s *SectionSyncer) Run(ctx context.Context) (*reconcile.Summary, error) {
	sum := reconcile.NewSummary()

	docs, err := s.store.List(ctx, captures.SourceTrustCloudSections)
	if err != nil {
		sum.Status = reconcile.StatusError
		return sum, fmt.Errorf("list section captures: %w", err)
	}
	if len(docs) == 0 {
		sum.Status = reconcile.StatusError
		return sum, fmt.Errorf("no section captures stored under source %q", captures.SourceTrustCloudSections)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, doc := range docs {
			sum.Add("files_processed", 1)
			if err := s.ingestDocument(ctx, tx, doc, sum); err != nil {
				sum.RecordErrorf("trustcloud_sections", doc.Key, "%v", err)
			}
		}
		return nil
	})
	if err != nil {
		sum.Status = reconcile.StatusError
		return sum, fmt.Errorf("section pass transaction: %w", err)
	}
	return sum.Finalize(), nil
}

func (s *SectionSyncer) ingestDocument(ctx context.Context, tx *gorm.DB, doc *types.CaptureDocument, sum *reconcile.Summary) error {
	var sections []Section
	if err := json.Unmarshal(doc.Payload, &sections); err != nil {
		return fmt.Errorf("parse section document: %w", err)
	}

	cert, _, err := s.engine.Certification(ctx, tx, reconcile.CertificationRecord{
		Name: CertificationNameFromKey(doc.Key),
	}, reconcile.CreateOnly, "certifications", sum)
	if err != nil || cert == nil {
		return err
	}

	for _, section := range sections {
		if err := s.ingestSection(ctx, tx, cert, section, sum); err != nil {
			sum.RecordErrorf("trustcloud_sections", doc.Key+"/"+section.ReferenceID, "%v", err)
		}
	}
	return nil
}

func (s *SectionSyncer) ingestSection(ctx context.Context, tx *gorm.DB, cert *types.Certification, section Section, sum *reconcile.Summary) error {
	clause, _, err := s.engine.Clause(ctx, tx, cert.ID, reconcile.ClauseRecord{
		ReferenceID:       section.ReferenceID,
		DisplayIdentifier: section.DisplayIdentifier,
		Title:             section.Title,
		Description:       section.Description,
		OriginalID:        section.ID,
	}, "clauses", sum)
	if err != nil {
		return err
	}
	if clause == nil {
		return nil
	}

	for _, pm := range section.ProgramPolicyMapping {
		policy, _, err := s.engine.TrustCloudPolicy(ctx, tx, reconcile.PolicyRecord{
			PolicyID:  pm.ShortName,
			Reference: pm.ID,
			Title:     pm.Title,
			Doc:       pm.Description,
		}, "policies", sum)
		if err != nil {
			return err
		}
		if policy == nil {
			continue
		}
		if err := s.linker.ClausePolicy(ctx, tx, clause.ID, policy.ID, "policy_clause_links", sum); err != nil {
			return err
		}
	}

	for _, sub := range section.Subsections {
		for _, cm := range sub.ProgramControlMapping {
			control, _, err := s.engine.ControlByShortName(ctx, tx, reconcile.ControlRecord{
				ShortName:       cm.ShortName,
				CustomShortName: cm.CustomShortName,
				Name:            cm.Name,
				Description:     cm.Description,
				OriginalID:      cm.ID,
				GatheredFrom:    types.GatheredFromTrustCloud,
			}, "controls", sum)
			if err != nil {
				return err
			}
			if control == nil {
				continue
			}
			if err := s.linker.ClauseControl(ctx, tx, clause.ID, control.ID, "control_clause_links", sum); err != nil {
				return err
			}
		}
	}
	return nil
}

// CertificationNameFromKey derives the display name from a capture
// key: underscore-separated parts uppercased and joined with spaces
// ("iso_27001" -> "ISO 27001").
func CertificationNameFromKey(key string) string {
	key = strings.TrimSuffix(key, ".json")
	parts := strings.Split(key, "_")
	for i, p := range parts {
		parts[i] = strings.ToUpper(p)
	}
	return strings.Join(parts, " ")
}

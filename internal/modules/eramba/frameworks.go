package eramba

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/complyline/compliance-backend/internal/modules/reconcile"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
)

type regulatorsFetcher interface {
	FetchRegulators(ctx context.Context) (*RegulatorsDocument, error)
}

// FrameworkSyncer upserts certifications from the Eramba regulators
// document. Matched certifications get version/description/url/
// regulation_name overwritten; name and slug stay immutable.
type FrameworkSyncer struct {
	db      *gorm.DB
	fetcher regulatorsFetcher
	engine  *reconcile.Engine
	log     *logger.Logger
}

func NewFrameworkSyncer(db *gorm.DB, fetcher regulatorsFetcher, engine *reconcile.Engine, baseLog *logger.Logger) *FrameworkSyncer {
	return &FrameworkSyncer{
		db:      db,
		fetcher: fetcher,
		engine:  engine,
		log:     baseLog.With("syncer", "ErambaFrameworks"),
	}
}

func (s *FrameworkSyncer) Run(ctx context.Context) (*reconcile.Summary, error) {
	sum := reconcile.NewSummary()

	doc, err := s.fetcher.FetchRegulators(ctx)
	if err != nil {
		sum.Status = reconcile.StatusError
		return sum, fmt.Errorf("fetch regulators: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range doc.Data {
			_, _, err := s.engine.Certification(ctx, tx, reconcile.CertificationRecord{
				Name:           item.Name,
				Description:    item.Description,
				SourceURL:      item.URL,
				Version:        item.Version,
				RegulationName: item.RegulationName,
			}, reconcile.CertificationSyncPolicy, "certifications", sum)
			if err != nil {
				sum.RecordErrorf("eramba_frameworks", item.Name, "%v", err)
			}
		}
		return nil
	})
	if err != nil {
		sum.Status = reconcile.StatusError
		return sum, fmt.Errorf("framework pass transaction: %w", err)
	}
	return sum.Finalize(), nil
}

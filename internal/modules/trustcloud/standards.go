package trustcloud

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/complyline/compliance-backend/internal/modules/reconcile"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
	"github.com/complyline/compliance-backend/internal/platform/captures"
)

// StandardsSyncer flattens the control-to-standard capability capture
// into tuples and hands them to the standard-mapping batcher.
type StandardsSyncer struct {
	db      *gorm.DB
	store   captures.Store
	batcher *reconcile.StandardBatcher
	log     *logger.Logger
}

func NewStandardsSyncer(db *gorm.DB, store captures.Store, batcher *reconcile.StandardBatcher, baseLog *logger.Logger) *StandardsSyncer {
	return &StandardsSyncer{
		db:      db,
		store:   store,
		batcher: batcher,
		log:     baseLog.With("syncer", "TrustCloudStandards"),
	}
}

func (s *StandardsSyncer) Run(ctx context.Context) (*reconcile.Summary, error) {
	sum := reconcile.NewSummary()

	docs, err := s.store.List(ctx, captures.SourceTrustCloudStandards)
	if err != nil {
		sum.Status = reconcile.StatusError
		return sum, fmt.Errorf("list standards captures: %w", err)
	}
	if len(docs) == 0 {
		sum.Status = reconcile.StatusError
		return sum, fmt.Errorf("no standards captures stored under source %q", captures.SourceTrustCloudStandards)
	}

	var tuples []reconcile.StandardTuple
	for _, doc := range docs {
		var items []StandardsCapability
		if err := json.Unmarshal(doc.Payload, &items); err != nil {
			sum.RecordErrorf("trustcloud_standards", doc.Key, "parse standards capture: %v", err)
			continue
		}
		tuples = append(tuples, Flatten(items)...)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.batcher.Run(ctx, tx, tuples, sum)
	})
	if err != nil {
		sum.Status = reconcile.StatusError
		return sum, fmt.Errorf("standards pass transaction: %w", err)
	}
	return sum.Finalize(), nil
}

// Flatten turns capability rows into one tuple per mapped standard
// entry, in document order.
func Flatten(items []StandardsCapability) []reconcile.StandardTuple {
	var out []reconcile.StandardTuple
	for _, item := range items {
		for _, frameworkKey := range item.ComplianceMapping.MappedStandards {
			mapping, ok := item.ComplianceMapping.Mappings[frameworkKey]
			if !ok {
				continue
			}
			for _, ctrl := range mapping.Controls {
				out = append(out, reconcile.StandardTuple{
					ControlShortName: item.ShortName,
					FrameworkKey:     frameworkKey,
					StandardID:       ctrl.ControlID,
					Name:             ctrl.Name,
					Description:      ctrl.Description,
					Section:          ctrl.Section,
				})
			}
		}
	}
	return out
}

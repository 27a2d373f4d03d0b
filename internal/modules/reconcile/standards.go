package reconcile

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/complyline/compliance-backend/internal/data/repos"
	types "github.com/complyline/compliance-backend/internal/domain"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
)

// standardBatchSize bounds the cost of one existence-check query.
const standardBatchSize = 500

// StandardTuple is one flattened control-to-framework mapping from
// the capability capture.
type StandardTuple struct {
	ControlShortName string
	FrameworkKey     string
	StandardID       string
	Name             string
	Description      string
	Section          string
}

// StandardBatcher bulk-reconciles FrameworkStandard rows. Tuples with
// an unmapped framework key or an unknown control are dropped
// silently (expected steady state, not errors). Surviving tuples are
// processed in input order in fixed-size batches: one existence
// pre-fetch, then split create/update writes. Running it twice over
// identical input yields zero writes on the second run.
//
// Batch boundaries follow input order, not key grouping, so the same
// logical key appearing in two batches with different payloads ends
// up with whichever batch ran last. Known hazard, kept as-is.
type StandardBatcher struct {
	controls  repos.ControlRepo
	standards repos.FrameworkStandardRepo
	table     FrameworkTable
	log       *logger.Logger
}

func NewStandardBatcher(controls repos.ControlRepo, standards repos.FrameworkStandardRepo, table FrameworkTable, baseLog *logger.Logger) *StandardBatcher {
	return &StandardBatcher{
		controls:  controls,
		standards: standards,
		table:     table,
		log:       baseLog.With("component", "StandardBatcher"),
	}
}

type resolvedTuple struct {
	controlID  uuid.UUID
	framework  string
	standardID string
	name       *string
	desc       string
	section    *string
}

func (b *StandardBatcher) Run(ctx context.Context, tx *gorm.DB, tuples []StandardTuple, sum *Summary) error {
	resolved, err := b.resolve(ctx, tx, tuples, sum)
	if err != nil {
		return err
	}

	for start := 0; start < len(resolved); start += standardBatchSize {
		end := start + standardBatchSize
		if end > len(resolved) {
			end = len(resolved)
		}
		if err := b.reconcileBatch(ctx, tx, resolved[start:end], sum); err != nil {
			return err
		}
	}
	return nil
}

// resolve translates framework keys and resolves control short names,
// dropping tuples that fail either step.
func (b *StandardBatcher) resolve(ctx context.Context, tx *gorm.DB, tuples []StandardTuple, sum *Summary) ([]resolvedTuple, error) {
	shortNames := make([]string, 0, len(tuples))
	seen := map[string]struct{}{}
	for _, t := range tuples {
		if t.ControlShortName == "" {
			continue
		}
		if _, ok := seen[t.ControlShortName]; ok {
			continue
		}
		seen[t.ControlShortName] = struct{}{}
		shortNames = append(shortNames, t.ControlShortName)
	}

	controls, err := b.controls.GetByShortNames(ctx, tx, shortNames)
	if err != nil {
		return nil, fmt.Errorf("resolve controls for standard mappings: %w", err)
	}
	byShortName := make(map[string]uuid.UUID, len(controls))
	for _, c := range controls {
		byShortName[c.ShortName] = c.ID
	}

	out := make([]resolvedTuple, 0, len(tuples))
	for _, t := range tuples {
		canonical := b.table.Resolve(t.FrameworkKey)
		if canonical == "" {
			sum.Add("standards_unmapped_framework", 1)
			continue
		}
		controlID, ok := byShortName[t.ControlShortName]
		if !ok {
			sum.Add("standards_unknown_control", 1)
			continue
		}
		if t.StandardID == "" {
			sum.Warnf("standard mapping for control %q in %q skipped: missing standard_id", t.ControlShortName, canonical)
			continue
		}
		out = append(out, resolvedTuple{
			controlID:  controlID,
			framework:  canonical,
			standardID: t.StandardID,
			name:       optional(t.Name),
			desc:       t.Description,
			section:    optional(t.Section),
		})
	}
	return out, nil
}

func (b *StandardBatcher) reconcileBatch(ctx context.Context, tx *gorm.DB, batch []resolvedTuple, sum *Summary) error {
	controlIDs := make([]uuid.UUID, 0, len(batch))
	frameworks := make([]string, 0, len(batch))
	standardIDs := make([]string, 0, len(batch))
	for _, t := range batch {
		controlIDs = append(controlIDs, t.controlID)
		frameworks = append(frameworks, t.framework)
		standardIDs = append(standardIDs, t.standardID)
	}

	existing, err := b.standards.GetByKeySuperset(ctx, tx, controlIDs, frameworks, standardIDs)
	if err != nil {
		return fmt.Errorf("fetch existing standard mappings: %w", err)
	}
	byKey := make(map[string]*types.FrameworkStandard, len(existing))
	for _, row := range existing {
		byKey[standardKey(row.ControlID, row.Framework, row.StandardID)] = row
	}

	var toCreate []*types.FrameworkStandard
	for _, t := range batch {
		key := standardKey(t.controlID, t.framework, t.standardID)
		row, ok := byKey[key]
		if !ok {
			created := &types.FrameworkStandard{
				ControlID:   t.controlID,
				Framework:   t.framework,
				StandardID:  t.standardID,
				Name:        t.name,
				Description: t.desc,
				Section:     t.section,
			}
			toCreate = append(toCreate, created)
			// Later tuples with the same key in this batch become
			// updates against the row we are about to create.
			byKey[key] = created
			sum.Add("standards_created", 1)
			continue
		}
		if !standardFieldsEqual(row, t) {
			if row.ID != uuid.Nil {
				if err := b.standards.UpdateMappedFields(ctx, tx, row.ID, t.name, t.desc, t.section); err != nil {
					return fmt.Errorf("update standard mapping %s/%s: %w", t.framework, t.standardID, err)
				}
				sum.Add("standards_updated", 1)
			}
			row.Name = t.name
			row.Description = t.desc
			row.Section = t.section
		}
	}

	if err := b.standards.CreateBatch(ctx, tx, toCreate); err != nil {
		return fmt.Errorf("bulk-create standard mappings: %w", err)
	}
	return nil
}

func standardKey(controlID uuid.UUID, framework, standardID string) string {
	return controlID.String() + "|" + framework + "|" + standardID
}

func standardFieldsEqual(row *types.FrameworkStandard, t resolvedTuple) bool {
	return strPtrEqual(row.Name, t.name) &&
		row.Description == t.desc &&
		strPtrEqual(row.Section, t.section)
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

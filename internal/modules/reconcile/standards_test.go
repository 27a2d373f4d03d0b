package reconcile

import (
	"context"
	"fmt"
	"testing"

	"github.com/complyline/compliance-backend/internal/data/repos"
	"github.com/complyline/compliance-backend/internal/data/repos/testutil"
	types "github.com/complyline/compliance-backend/internal/domain"
)

func newTestBatcher(t *testing.T) (*StandardBatcher, repos.FrameworkStandardRepo) {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	controls := repos.NewControlRepo(gdb, log)
	standards := repos.NewFrameworkStandardRepo(gdb, log)
	return NewStandardBatcher(controls, standards, DefaultFrameworkTable(), log), standards
}

func TestStandardBatcherCreatesAndIsIdempotent(t *testing.T) {
	batcher, standards := newTestBatcher(t)
	tx := testutil.Tx(t, testutil.DB(t))
	ctx := context.Background()

	control := testutil.SeedControl(t, ctx, tx, "STD-CTL-1")
	tuples := []StandardTuple{
		{ControlShortName: "STD-CTL-1", FrameworkKey: "soc2", StandardID: "CC6.1", Name: "Logical access", Section: "CC6"},
		{ControlShortName: "STD-CTL-1", FrameworkKey: "ISO27001", StandardID: "A.9.2", Description: "Access management"},
	}

	sum := NewSummary()
	if err := batcher.Run(ctx, tx, tuples, sum); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if sum.Counts["standards_created"] != 2 {
		t.Fatalf("standards_created = %d, want 2", sum.Counts["standards_created"])
	}

	rows, err := standards.GetByControl(ctx, tx, control.ID)
	if err != nil || len(rows) != 2 {
		t.Fatalf("rows = %d (err %v), want 2", len(rows), err)
	}
	for _, row := range rows {
		// Framework keys resolve case-insensitively to canonical names.
		if row.Framework != "SOC 2" && row.Framework != "ISO 27001" {
			t.Fatalf("unexpected framework %q", row.Framework)
		}
	}

	second := NewSummary()
	if err := batcher.Run(ctx, tx, tuples, second); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Counts["standards_created"] != 0 || second.Counts["standards_updated"] != 0 {
		t.Fatalf("second run wrote: %v", second.Counts)
	}
}

func TestStandardBatcherUpdatesChangedFields(t *testing.T) {
	batcher, standards := newTestBatcher(t)
	tx := testutil.Tx(t, testutil.DB(t))
	ctx := context.Background()

	control := testutil.SeedControl(t, ctx, tx, "STD-CTL-2")

	sum := NewSummary()
	base := StandardTuple{ControlShortName: "STD-CTL-2", FrameworkKey: "gdpr", StandardID: "Art.32", Name: "Security of processing"}
	if err := batcher.Run(ctx, tx, []StandardTuple{base}, sum); err != nil {
		t.Fatalf("seed run: %v", err)
	}

	changed := base
	changed.Name = "Security of processing (updated)"
	changed.Section = "Ch. IV"
	update := NewSummary()
	if err := batcher.Run(ctx, tx, []StandardTuple{changed}, update); err != nil {
		t.Fatalf("update run: %v", err)
	}
	if update.Counts["standards_updated"] != 1 || update.Counts["standards_created"] != 0 {
		t.Fatalf("update counts = %v", update.Counts)
	}

	rows, err := standards.GetByControl(ctx, tx, control.ID)
	if err != nil || len(rows) != 1 {
		t.Fatalf("rows = %d (err %v), want 1", len(rows), err)
	}
	if rows[0].Name == nil || *rows[0].Name != changed.Name {
		t.Fatalf("name = %v, want %q", rows[0].Name, changed.Name)
	}
	if rows[0].Section == nil || *rows[0].Section != "Ch. IV" {
		t.Fatalf("section = %v, want Ch. IV", rows[0].Section)
	}
}

func TestStandardBatcherDropsUnmappedAndUnknown(t *testing.T) {
	batcher, _ := newTestBatcher(t)
	tx := testutil.Tx(t, testutil.DB(t))
	ctx := context.Background()

	testutil.SeedControl(t, ctx, tx, "STD-CTL-3")
	tuples := []StandardTuple{
		// cmmc_l1 is allow-listed out by the default table.
		{ControlShortName: "STD-CTL-3", FrameworkKey: "cmmc_l1", StandardID: "AC.1.001"},
		// Unknown framework key.
		{ControlShortName: "STD-CTL-3", FrameworkKey: "made_up", StandardID: "X.1"},
		// Known framework, control never ingested.
		{ControlShortName: "NO-SUCH-CTL", FrameworkKey: "soc2", StandardID: "CC1.1"},
	}

	sum := NewSummary()
	if err := batcher.Run(ctx, tx, tuples, sum); err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Counts["standards_unmapped_framework"] != 2 {
		t.Fatalf("standards_unmapped_framework = %d, want 2", sum.Counts["standards_unmapped_framework"])
	}
	if sum.Counts["standards_unknown_control"] != 1 {
		t.Fatalf("standards_unknown_control = %d, want 1", sum.Counts["standards_unknown_control"])
	}
	if sum.Counts["standards_created"] != 0 {
		t.Fatalf("standards_created = %d, want 0", sum.Counts["standards_created"])
	}
}

func TestStandardBatcherDuplicateKeyAcrossBatches(t *testing.T) {
	batcher, standards := newTestBatcher(t)
	tx := testutil.Tx(t, testutil.DB(t))
	ctx := context.Background()

	control := testutil.SeedControl(t, ctx, tx, "STD-CTL-4")

	// Enough tuples that the duplicated key lands in two different
	// batches. The second occurrence must update the row the first
	// batch created, not insert a twin.
	var tuples []StandardTuple
	tuples = append(tuples, StandardTuple{
		ControlShortName: "STD-CTL-4", FrameworkKey: "hipaa", StandardID: "DUP-1", Name: "first payload",
	})
	for i := 0; i < standardBatchSize; i++ {
		tuples = append(tuples, StandardTuple{
			ControlShortName: "STD-CTL-4", FrameworkKey: "hipaa", StandardID: fmt.Sprintf("F-%04d", i),
		})
	}
	tuples = append(tuples, StandardTuple{
		ControlShortName: "STD-CTL-4", FrameworkKey: "hipaa", StandardID: "DUP-1", Name: "second payload",
	})

	sum := NewSummary()
	if err := batcher.Run(ctx, tx, tuples, sum); err != nil {
		t.Fatalf("run: %v", err)
	}

	rows, err := standards.GetByControl(ctx, tx, control.ID)
	if err != nil {
		t.Fatalf("fetch rows: %v", err)
	}
	var dup []*types.FrameworkStandard
	for _, row := range rows {
		if row.StandardID == "DUP-1" {
			dup = append(dup, row)
		}
	}
	if len(dup) != 1 {
		t.Fatalf("DUP-1 rows = %d, want exactly 1", len(dup))
	}
	if dup[0].Name == nil || *dup[0].Name != "second payload" {
		t.Fatalf("DUP-1 name = %v, want the last payload", dup[0].Name)
	}
	if len(rows) != standardBatchSize+1 {
		t.Fatalf("total rows = %d, want %d", len(rows), standardBatchSize+1)
	}
}

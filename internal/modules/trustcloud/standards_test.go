package trustcloud

import (
	"context"
	"testing"

	"github.com/complyline/compliance-backend/internal/data/repos"
	"github.com/complyline/compliance-backend/internal/data/repos/testutil"
	"github.com/complyline/compliance-backend/internal/modules/reconcile"
	"github.com/complyline/compliance-backend/internal/platform/captures"
)

func TestFlattenPreservesDocumentOrder(t *testing.T) {
	items := []StandardsCapability{
		{
			ShortName: "CTL-F1",
			ComplianceMapping: ComplianceMapping{
				MappedStandards: []string{"soc2", "gdpr", "no_mapping_entry"},
				Mappings: map[string]FrameworkMapping{
					"soc2": {Controls: []MappedControl{
						{ControlID: "CC6.1", Name: "Logical access"},
						{ControlID: "CC6.2"},
					}},
					"gdpr": {Controls: []MappedControl{
						{ControlID: "Art.32", Section: "Ch. IV"},
					}},
				},
			},
		},
	}

	tuples := Flatten(items)
	if len(tuples) != 3 {
		t.Fatalf("tuples = %d, want 3", len(tuples))
	}
	wantIDs := []string{"CC6.1", "CC6.2", "Art.32"}
	for i, want := range wantIDs {
		if tuples[i].StandardID != want {
			t.Fatalf("tuple %d standard = %q, want %q", i, tuples[i].StandardID, want)
		}
		if tuples[i].ControlShortName != "CTL-F1" {
			t.Fatalf("tuple %d short name = %q", i, tuples[i].ControlShortName)
		}
	}
	if tuples[0].FrameworkKey != "soc2" || tuples[2].FrameworkKey != "gdpr" {
		t.Fatalf("framework keys out of order: %+v", tuples)
	}
}

func TestStandardsSyncerEndToEnd(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	log := testutil.Logger(t)
	deps := newSyncDeps(t, gdb)

	control := testutil.SeedControl(t, ctx, tx, "STD-E2E-1")

	standards := repos.NewFrameworkStandardRepo(gdb, log)
	batcher := reconcile.NewStandardBatcher(deps.controls, standards, reconcile.DefaultFrameworkTable(), log)

	store := captures.NewMemoryStore()
	doc := `[{
		"shortName": "STD-E2E-1",
		"complianceMapping": {
			"mappedStandards": ["soc2", "cmmc_l1"],
			"mappings": {
				"soc2": {"controls": [{"controlId": "CC1.1", "name": "Control environment"}]},
				"cmmc_l1": {"controls": [{"controlId": "AC.1.001"}]}
			}
		}
	}]`
	if err := store.Put(ctx, "standards.json", captures.SourceTrustCloudStandards, []byte(doc)); err != nil {
		t.Fatalf("seed capture: %v", err)
	}

	syncer := NewStandardsSyncer(tx, store, batcher, log)
	sum, err := syncer.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Counts["standards_created"] != 1 {
		t.Fatalf("standards_created = %d, want 1 (cmmc_l1 dropped)", sum.Counts["standards_created"])
	}
	if sum.Counts["standards_unmapped_framework"] != 1 {
		t.Fatalf("standards_unmapped_framework = %d, want 1", sum.Counts["standards_unmapped_framework"])
	}

	rows, err := standards.GetByControl(ctx, tx, control.ID)
	if err != nil || len(rows) != 1 {
		t.Fatalf("rows = %d (err %v), want 1", len(rows), err)
	}
	if rows[0].Framework != "SOC 2" || rows[0].StandardID != "CC1.1" {
		t.Fatalf("row = %s/%s, want SOC 2/CC1.1", rows[0].Framework, rows[0].StandardID)
	}
}

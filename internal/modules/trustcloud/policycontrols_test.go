package trustcloud

import (
	"context"
	"testing"

	"github.com/complyline/compliance-backend/internal/data/repos/testutil"
	types "github.com/complyline/compliance-backend/internal/domain"
	"github.com/complyline/compliance-backend/internal/modules/reconcile"
	"github.com/complyline/compliance-backend/internal/platform/captures"
)

func TestPolicyControlSyncerReplacesEdgeSet(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	deps := newSyncDeps(t, gdb)

	policy := testutil.SeedPolicy(t, ctx, tx, "PC-POL", "pc-ref-1")
	c1 := testutil.SeedControl(t, ctx, tx, "PC-CTL-1")
	c2 := testutil.SeedControl(t, ctx, tx, "PC-CTL-2")
	stale := testutil.SeedControl(t, ctx, tx, "PC-CTL-STALE")

	for _, pair := range []struct {
		short, orig string
	}{
		{c1.ShortName, "orig-1"},
		{c2.ShortName, "orig-2"},
	} {
		if err := tx.Model(&types.Control{}).Where("short_name = ?", pair.short).Update("original_id", pair.orig).Error; err != nil {
			t.Fatalf("set original id: %v", err)
		}
	}

	// A stale edge the authoritative capture no longer mentions.
	sum := reconcile.NewSummary()
	if err := deps.linker.PolicyControl(ctx, tx, policy.ID, stale.ID, "policy_control_links", sum); err != nil {
		t.Fatalf("seed stale edge: %v", err)
	}

	store := captures.NewMemoryStore()
	doc := `[{"id": "pc-ref-1", "relatedControlIds": ["orig-1", "orig-2", "orig-2", "orig-missing"], "securityGroup": "Engineering"}]`
	if err := store.Put(ctx, "policies.json", captures.SourceTrustCloudPolicies, []byte(doc)); err != nil {
		t.Fatalf("seed capture: %v", err)
	}

	syncer := NewPolicyControlSyncer(tx, store, deps.resolver, deps.linker, deps.policies, testutil.Logger(t))
	result, err := syncer.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Counts["policies_linked"] != 1 {
		t.Fatalf("policies_linked = %d, want 1", result.Counts["policies_linked"])
	}
	if result.Counts["unmatched_controls"] != 1 {
		t.Fatalf("unmatched_controls = %d, want 1 (counts %v)", result.Counts["unmatched_controls"], result.Counts)
	}

	got, err := deps.links.ControlIDsForPolicy(ctx, tx, policy.ID)
	if err != nil {
		t.Fatalf("fetch edges: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("edge set size = %d, want 2 (stale edge dropped, dupes collapsed)", len(got))
	}
	for _, id := range got {
		if id == stale.ID {
			t.Fatal("stale edge survived authoritative replace")
		}
	}

	refreshed, err := deps.policies.GetByReference(ctx, tx, "pc-ref-1")
	if err != nil || refreshed == nil {
		t.Fatalf("reload policy: %v %v", refreshed, err)
	}
	if refreshed.SecurityGroup == nil || *refreshed.SecurityGroup != "Engineering" {
		t.Fatalf("security group = %v, want Engineering", refreshed.SecurityGroup)
	}
}

func TestPolicyControlSyncerEmptySetUnlinks(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	deps := newSyncDeps(t, gdb)

	policy := testutil.SeedPolicy(t, ctx, tx, "PC-POL-2", "pc-ref-2")
	ctl := testutil.SeedControl(t, ctx, tx, "PC-CTL-3")
	sum := reconcile.NewSummary()
	if err := deps.linker.PolicyControl(ctx, tx, policy.ID, ctl.ID, "policy_control_links", sum); err != nil {
		t.Fatalf("seed edge: %v", err)
	}

	store := captures.NewMemoryStore()
	doc := `[{"id": "pc-ref-2", "relatedControlIds": [], "securityGroup": ""}]`
	if err := store.Put(ctx, "policies.json", captures.SourceTrustCloudPolicies, []byte(doc)); err != nil {
		t.Fatalf("seed capture: %v", err)
	}

	syncer := NewPolicyControlSyncer(tx, store, deps.resolver, deps.linker, deps.policies, testutil.Logger(t))
	if _, err := syncer.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	got, err := deps.links.ControlIDsForPolicy(ctx, tx, policy.ID)
	if err != nil || len(got) != 0 {
		t.Fatalf("edge set = %v (err %v), want empty", got, err)
	}
}

func TestPolicyControlSyncerUnmatchedPolicyWarns(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	deps := newSyncDeps(t, gdb)

	store := captures.NewMemoryStore()
	doc := `[{"id": "never-ingested", "relatedControlIds": ["x"], "securityGroup": ""}]`
	if err := store.Put(ctx, "policies.json", captures.SourceTrustCloudPolicies, []byte(doc)); err != nil {
		t.Fatalf("seed capture: %v", err)
	}

	syncer := NewPolicyControlSyncer(tx, store, deps.resolver, deps.linker, deps.policies, testutil.Logger(t))
	sum, err := syncer.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Status != reconcile.StatusSuccess {
		t.Fatalf("status = %q, unmatched policies are warnings not errors", sum.Status)
	}
	if sum.Counts["unmatched_policies"] != 1 {
		t.Fatalf("unmatched_policies = %d, want 1", sum.Counts["unmatched_policies"])
	}
	if len(sum.Warnings) == 0 {
		t.Fatal("expected an unmatched-policy warning")
	}
}

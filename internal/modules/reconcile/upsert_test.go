package reconcile

import (
	"context"
	"strings"
	"testing"

	"github.com/complyline/compliance-backend/internal/data/repos"
	"github.com/complyline/compliance-backend/internal/data/repos/testutil"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	certifications := repos.NewCertificationRepo(gdb, log)
	clauses := repos.NewClauseRepo(gdb, log)
	controls := repos.NewControlRepo(gdb, log)
	policies := repos.NewPolicyRepo(gdb, log)
	resolver := NewResolver(certifications, clauses, controls, policies, log)
	return NewEngine(resolver, certifications, clauses, controls, policies, log)
}

func TestCertificationGetOrCreate(t *testing.T) {
	engine := newTestEngine(t)
	tx := testutil.Tx(t, testutil.DB(t))
	ctx := context.Background()

	sum := NewSummary()
	first, created, err := engine.Certification(ctx, tx, CertificationRecord{
		Name:        "ISO 27001",
		Description: "original",
		Version:     "2013",
	}, CreateOnly, "certifications", sum)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !created || first == nil {
		t.Fatalf("expected create, got created=%v row=%v", created, first)
	}
	if first.Slug != "iso-27001" {
		t.Fatalf("slug = %q, want iso-27001", first.Slug)
	}
	if sum.Counts["certifications"] != 1 {
		t.Fatalf("certifications count = %d, want 1", sum.Counts["certifications"])
	}

	second, created, err := engine.Certification(ctx, tx, CertificationRecord{
		Name:        "ISO 27001",
		Description: "changed",
		Version:     "2022",
	}, CreateOnly, "certifications", sum)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Fatal("expected match, got create")
	}
	if second.ID != first.ID {
		t.Fatalf("matched different row: %s vs %s", second.ID, first.ID)
	}
	if second.Description != "original" || second.Version != "2013" {
		t.Fatalf("create-only upsert mutated fields: %+v", second)
	}
	if sum.Counts["certifications"] != 1 {
		t.Fatalf("certifications count = %d after match, want 1", sum.Counts["certifications"])
	}
}

func TestCertificationSyncOverwritesFields(t *testing.T) {
	engine := newTestEngine(t)
	tx := testutil.Tx(t, testutil.DB(t))
	ctx := context.Background()

	sum := NewSummary()
	first, _, err := engine.Certification(ctx, tx, CertificationRecord{
		Name:    "GDPR",
		Version: "1.0",
	}, CertificationSyncPolicy, "certifications", sum)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second, created, err := engine.Certification(ctx, tx, CertificationRecord{
		Name:           "GDPR",
		Description:    "refreshed",
		SourceURL:      "https://example.test/gdpr",
		Version:        "2.0",
		RegulationName: "EU 2016/679",
	}, CertificationSyncPolicy, "certifications", sum)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Fatal("expected match, got create")
	}
	if second.ID != first.ID {
		t.Fatal("re-sync created a second row")
	}
	if second.Version != "2.0" || second.Description != "refreshed" ||
		second.SourceURL != "https://example.test/gdpr" || second.RegulationName != "EU 2016/679" {
		t.Fatalf("sync fields not overwritten: %+v", second)
	}
	if second.Slug != first.Slug {
		t.Fatal("slug changed on re-sync")
	}
	if sum.Counts["certifications_updated"] != 1 {
		t.Fatalf("certifications_updated = %d, want 1", sum.Counts["certifications_updated"])
	}
}

func TestClauseGetOrCreateScopedToCertification(t *testing.T) {
	engine := newTestEngine(t)
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()

	certA := testutil.SeedCertification(t, ctx, tx, "CERT A")
	certB := testutil.SeedCertification(t, ctx, tx, "CERT B")

	sum := NewSummary()
	a1, created, err := engine.Clause(ctx, tx, certA.ID, ClauseRecord{ReferenceID: "4.1", Title: "Context"}, "clauses", sum)
	if err != nil || !created {
		t.Fatalf("create under cert A: created=%v err=%v", created, err)
	}
	// Same reference under another certification is a distinct clause.
	b1, created, err := engine.Clause(ctx, tx, certB.ID, ClauseRecord{ReferenceID: "4.1", Title: "Context"}, "clauses", sum)
	if err != nil || !created {
		t.Fatalf("create under cert B: created=%v err=%v", created, err)
	}
	if a1.ID == b1.ID {
		t.Fatal("clauses with the same reference in different certifications collapsed")
	}

	again, created, err := engine.Clause(ctx, tx, certA.ID, ClauseRecord{ReferenceID: "4.1", Title: "renamed"}, "clauses", sum)
	if err != nil {
		t.Fatalf("repeat upsert: %v", err)
	}
	if created || again.ID != a1.ID {
		t.Fatal("repeat upsert did not match the existing clause")
	}
	if again.Title != "Context" {
		t.Fatalf("get-or-create mutated title: %q", again.Title)
	}
	if sum.Counts["clauses"] != 2 {
		t.Fatalf("clauses count = %d, want 2", sum.Counts["clauses"])
	}
}

func TestTrustCloudPolicyIdentity(t *testing.T) {
	engine := newTestEngine(t)
	tx := testutil.Tx(t, testutil.DB(t))
	ctx := context.Background()

	sum := NewSummary()
	first, created, err := engine.TrustCloudPolicy(ctx, tx, PolicyRecord{
		PolicyID:  "AC-POL",
		Reference: "rec-123",
		Title:     "Access Control Policy",
	}, "policies", sum)
	if err != nil || !created {
		t.Fatalf("create: created=%v err=%v", created, err)
	}
	if first.PolicyReference != "rec-123" {
		t.Fatalf("policy_reference = %q, want rec-123", first.PolicyReference)
	}
	if first.PolicyGatheredFrom == nil || *first.PolicyGatheredFrom != "trustcloud" {
		t.Fatalf("policy_gathered_from = %v", first.PolicyGatheredFrom)
	}

	// Same reference, different scalar payload: match, no mutation.
	second, created, err := engine.TrustCloudPolicy(ctx, tx, PolicyRecord{
		PolicyID:  "AC-POL",
		Reference: "rec-123",
		Title:     "Renamed",
	}, "policies", sum)
	if err != nil {
		t.Fatalf("repeat: %v", err)
	}
	if created || second.ID != first.ID {
		t.Fatal("repeat upsert did not match by reference")
	}
	if second.Title != "Access Control Policy" {
		t.Fatalf("get-or-create mutated title: %q", second.Title)
	}

	// Missing reference falls back to policy_id for both lookup and
	// the stored reference.
	third, created, err := engine.TrustCloudPolicy(ctx, tx, PolicyRecord{
		PolicyID: "IR-POL",
		Title:    "Incident Response Policy",
	}, "policies", sum)
	if err != nil || !created {
		t.Fatalf("fallback create: created=%v err=%v", created, err)
	}
	if third.PolicyReference != "IR-POL" {
		t.Fatalf("fallback reference = %q, want IR-POL", third.PolicyReference)
	}
	if sum.Counts["policies"] != 2 {
		t.Fatalf("policies count = %d, want 2", sum.Counts["policies"])
	}
}

func TestErambaPolicyCreateAndTemplateOverwrite(t *testing.T) {
	engine := newTestEngine(t)
	tx := testutil.Tx(t, testutil.DB(t))
	ctx := context.Background()

	sum := NewSummary()
	first, created, err := engine.ErambaPolicy(ctx, tx, ErambaPolicyRecord{
		Index:       "Data Retention Policy",
		Description: "v2 template",
		ExternalID:  7,
		Version:     "2",
	}, "policies", sum)
	if err != nil || !created {
		t.Fatalf("create: created=%v err=%v", created, err)
	}
	if first.PolicyID != "ER-7" || first.PolicyReference != "ER-7-2" {
		t.Fatalf("synthetic keys = %q/%q, want ER-7/ER-7-2", first.PolicyID, first.PolicyReference)
	}

	// Re-ingest under the same title: only the template moves.
	second, created, err := engine.ErambaPolicy(ctx, tx, ErambaPolicyRecord{
		Index:       "Data Retention Policy",
		Description: "v3 template",
		ExternalID:  7,
		Version:     "3",
	}, "policies", sum)
	if err != nil {
		t.Fatalf("re-ingest: %v", err)
	}
	if created || second.ID != first.ID {
		t.Fatal("re-ingest did not match by title")
	}
	if second.PolicyTemplate != "v3 template" {
		t.Fatalf("template = %q, want v3 template", second.PolicyTemplate)
	}
	if second.PolicyID != "ER-7" || second.PolicyReference != "ER-7-2" {
		t.Fatalf("identity fields changed on re-ingest: %q/%q", second.PolicyID, second.PolicyReference)
	}
	if sum.Counts["policies"] != 1 || sum.Counts["policies_updated"] != 1 {
		t.Fatalf("counts = %v", sum.Counts)
	}
}

func TestErambaPolicyWithoutIDFallsBackToSlug(t *testing.T) {
	engine := newTestEngine(t)
	tx := testutil.Tx(t, testutil.DB(t))
	ctx := context.Background()

	sum := NewSummary()
	row, created, err := engine.ErambaPolicy(ctx, tx, ErambaPolicyRecord{
		Index:   "Unnumbered Policy",
		Version: "1",
	}, "policies", sum)
	if err != nil || !created {
		t.Fatalf("create: created=%v err=%v", created, err)
	}
	if !strings.HasPrefix(row.PolicyID, "unnumbered-policy-") {
		t.Fatalf("policy_id = %q, want slug prefix", row.PolicyID)
	}
	if !strings.HasPrefix(row.PolicyReference, row.PolicyID) {
		t.Fatalf("reference %q does not extend policy_id %q", row.PolicyReference, row.PolicyID)
	}
}

func TestMissingKeysSkipWithWarning(t *testing.T) {
	engine := newTestEngine(t)
	tx := testutil.Tx(t, testutil.DB(t))
	ctx := context.Background()

	sum := NewSummary()
	row, created, err := engine.Certification(ctx, tx, CertificationRecord{}, CreateOnly, "certifications", sum)
	if err != nil || created || row != nil {
		t.Fatalf("missing name: row=%v created=%v err=%v", row, created, err)
	}
	ctrl, created, err := engine.ControlByShortName(ctx, tx, ControlRecord{Name: "no short name"}, "controls", sum)
	if err != nil || created || ctrl != nil {
		t.Fatalf("missing short_name: row=%v created=%v err=%v", ctrl, created, err)
	}
	pol, created, err := engine.TrustCloudPolicy(ctx, tx, PolicyRecord{Title: "no keys"}, "policies", sum)
	if err != nil || created || pol != nil {
		t.Fatalf("missing policy keys: row=%v created=%v err=%v", pol, created, err)
	}
	if len(sum.Warnings) != 3 {
		t.Fatalf("warnings = %v, want 3 entries", sum.Warnings)
	}
	if len(sum.Counts) != 0 {
		t.Fatalf("counts = %v, want empty", sum.Counts)
	}
}

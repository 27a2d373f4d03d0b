package eramba

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/complyline/compliance-backend/internal/data/repos"
	"github.com/complyline/compliance-backend/internal/data/repos/testutil"
	"github.com/complyline/compliance-backend/internal/modules/reconcile"
)

type fakeProxy struct {
	regulators *RegulatorsDocument
	services   *SecurityServicesDocument
	policies   []SecurityPolicy
	err        error
}

func (f *fakeProxy) FetchRegulators(ctx context.Context) (*RegulatorsDocument, error) {
	return f.regulators, f.err
}

func (f *fakeProxy) FetchSecurityServices(ctx context.Context) (*SecurityServicesDocument, error) {
	return f.services, f.err
}

func (f *fakeProxy) FetchPolicyRange(ctx context.Context, fromID, toID int) ([]SecurityPolicy, error) {
	return f.policies, f.err
}

type erambaDeps struct {
	engine   *reconcile.Engine
	resolver *reconcile.Resolver
	linker   *reconcile.Linker
	links    repos.LinkRepo
	certs    repos.CertificationRepo
	clauses  repos.ClauseRepo
	policies repos.PolicyRepo
	controls repos.ControlRepo
}

func newErambaDeps(t *testing.T, gdb *gorm.DB) erambaDeps {
	t.Helper()
	log := testutil.Logger(t)
	certs := repos.NewCertificationRepo(gdb, log)
	clauses := repos.NewClauseRepo(gdb, log)
	controls := repos.NewControlRepo(gdb, log)
	policies := repos.NewPolicyRepo(gdb, log)
	links := repos.NewLinkRepo(gdb, log)
	resolver := reconcile.NewResolver(certs, clauses, controls, policies, log)
	return erambaDeps{
		engine:   reconcile.NewEngine(resolver, certs, clauses, controls, policies, log),
		resolver: resolver,
		linker:   reconcile.NewLinker(links, log),
		links:    links,
		certs:    certs,
		clauses:  clauses,
		policies: policies,
		controls: controls,
	}
}

func TestFrameworkSyncerOverwritesOnResync(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	deps := newErambaDeps(t, gdb)

	proxy := &fakeProxy{regulators: &RegulatorsDocument{Data: []Regulator{
		{Name: "NIST CSF", Description: "first", Version: "1.1", URL: "https://example.test/csf"},
	}}}
	syncer := NewFrameworkSyncer(tx, proxy, deps.engine, testutil.Logger(t))

	sum, err := syncer.Run(ctx)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if sum.Counts["certifications"] != 1 {
		t.Fatalf("certifications = %d, want 1", sum.Counts["certifications"])
	}

	proxy.regulators.Data[0].Version = "2.0"
	proxy.regulators.Data[0].Description = "second"
	sum, err = syncer.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if sum.Counts["certifications_updated"] != 1 || sum.Counts["certifications"] != 0 {
		t.Fatalf("second run counts = %v", sum.Counts)
	}

	cert, err := deps.certs.GetByName(ctx, tx, "NIST CSF")
	if err != nil || cert == nil {
		t.Fatalf("reload: %v %v", cert, err)
	}
	if cert.Version != "2.0" || cert.Description != "second" {
		t.Fatalf("re-sync did not overwrite: %+v", cert)
	}
}

func TestFrameworkSyncerFetchFailureIsError(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	deps := newErambaDeps(t, gdb)

	proxy := &fakeProxy{err: errors.New("proxy down")}
	syncer := NewFrameworkSyncer(tx, proxy, deps.engine, testutil.Logger(t))
	sum, err := syncer.Run(context.Background())
	if err == nil {
		t.Fatal("expected fetch error to surface")
	}
	if sum.Status != reconcile.StatusError {
		t.Fatalf("status = %q, want error", sum.Status)
	}
}

func TestClauseSyncerLinksKnownEntities(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	deps := newErambaDeps(t, gdb)

	// Policies and controls land in earlier passes; the clause pass
	// only links what already exists.
	sum := reconcile.NewSummary()
	policy, _, err := deps.engine.ErambaPolicy(ctx, tx, reconcile.ErambaPolicyRecord{
		Index: "Backup Policy", ExternalID: 4, Version: "1",
	}, "policies", sum)
	if err != nil {
		t.Fatalf("seed policy: %v", err)
	}
	control, _, err := deps.engine.ControlByName(ctx, tx, reconcile.ControlRecord{
		ShortName: "ERS-9", Name: "Backup verification",
	}, "controls", sum)
	if err != nil {
		t.Fatalf("seed control: %v", err)
	}

	proxy := &fakeProxy{regulators: &RegulatorsDocument{Data: []Regulator{{
		Name: "PCI DSS",
		CompliancePackages: []CompliancePackage{{
			CompliancePackageItems: []PackageItem{{
				ItemID: "3.1",
				Name:   "Retention",
				ComplianceManagement: ComplianceManagement{
					SecurityPolicies: []PolicyRef{{Index: "Backup Policy"}, {Index: "Ghost Policy"}},
					SecurityServices: []ServiceRef{{Name: "Backup verification"}},
				},
			}},
		}},
	}}}}

	syncer := NewClauseSyncer(tx, proxy, deps.engine, deps.resolver, deps.linker, testutil.Logger(t))
	result, err := syncer.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Counts["clauses"] != 1 || result.Counts["certifications"] != 1 {
		t.Fatalf("counts = %v", result.Counts)
	}
	if result.Counts["policy_clause_links"] != 1 || result.Counts["control_clause_links"] != 1 {
		t.Fatalf("link counts = %v", result.Counts)
	}
	// The reference to a never-ingested policy is a warning.
	if len(result.Warnings) != 1 {
		t.Fatalf("warnings = %v, want 1", result.Warnings)
	}

	cert, err := deps.certs.GetByName(ctx, tx, "PCI DSS")
	if err != nil || cert == nil {
		t.Fatalf("certification missing: %v %v", cert, err)
	}
	clause, err := deps.clauses.GetByCertificationAndRef(ctx, tx, cert.ID, "3.1")
	if err != nil || clause == nil {
		t.Fatalf("clause missing: %v %v", clause, err)
	}
	policyIDs, err := deps.links.PolicyIDsForClause(ctx, tx, clause.ID)
	if err != nil || len(policyIDs) != 1 || policyIDs[0] != policy.ID {
		t.Fatalf("policy edges = %v (err %v)", policyIDs, err)
	}
	controlIDs, err := deps.links.ControlIDsForClause(ctx, tx, clause.ID)
	if err != nil || len(controlIDs) != 1 || controlIDs[0] != control.ID {
		t.Fatalf("control edges = %v (err %v)", controlIDs, err)
	}
}

func TestControlSyncerIngestsServices(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	deps := newErambaDeps(t, gdb)

	sum := reconcile.NewSummary()
	if _, _, err := deps.engine.ErambaPolicy(ctx, tx, reconcile.ErambaPolicyRecord{
		Index: "Encryption Policy", ExternalID: 11, Version: "1",
	}, "policies", sum); err != nil {
		t.Fatalf("seed policy: %v", err)
	}

	proxy := &fakeProxy{services: &SecurityServicesDocument{Data: []SecurityService{{
		ID:                     42,
		Name:                   "Disk encryption check",
		Objective:              "Verify disks are encrypted",
		AuditMetricDescription: "Percentage of encrypted volumes",
		SecurityPolicies:       []PolicyRef{{Index: "Encryption Policy"}},
	}}}}

	syncer := NewControlSyncer(tx, proxy, deps.engine, deps.resolver, deps.linker, testutil.Logger(t))
	result, err := syncer.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Counts["controls"] != 1 || result.Counts["policy_control_links"] != 1 {
		t.Fatalf("counts = %v", result.Counts)
	}

	control, err := deps.controls.GetByName(ctx, tx, "Disk encryption check")
	if err != nil || control == nil {
		t.Fatalf("control missing: %v %v", control, err)
	}
	if control.ShortName != "ERS-42" {
		t.Fatalf("short name = %q, want ERS-42", control.ShortName)
	}
	if control.Description == "" {
		t.Fatal("description not folded from objective/audit fields")
	}

	// Re-running matches by name and adds nothing.
	again, err := syncer.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if again.Counts["controls"] != 0 || again.Counts["policy_control_links"] != 0 {
		t.Fatalf("second run counts = %v", again.Counts)
	}
}

func TestPolicySyncerPass(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	ctx := context.Background()
	deps := newErambaDeps(t, gdb)

	proxy := &fakeProxy{policies: []SecurityPolicy{
		{Index: "Data Retention Policy", Description: "v2 text", ID: 7, Version: "2"},
		{Index: "Access Policy", Description: "v1 text", ID: 9, Version: "1"},
	}}

	syncer := NewPolicySyncer(tx, proxy, deps.engine, 1, 50, testutil.Logger(t))
	sum, err := syncer.Run(ctx)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if sum.Counts["policies"] != 2 || sum.Counts["policies_fetched"] != 2 {
		t.Fatalf("counts = %v", sum.Counts)
	}

	row, err := deps.policies.GetByTitle(ctx, tx, "Data Retention Policy")
	if err != nil || row == nil {
		t.Fatalf("policy missing: %v %v", row, err)
	}
	if row.PolicyID != "ER-7" || row.PolicyReference != "ER-7-2" {
		t.Fatalf("keys = %q/%q", row.PolicyID, row.PolicyReference)
	}

	// Next pass carries a new version; only the template moves.
	proxy.policies[0].Description = "v3 text"
	proxy.policies[0].Version = "3"
	sum, err = syncer.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if sum.Counts["policies_updated"] != 2 || sum.Counts["policies"] != 0 {
		t.Fatalf("second run counts = %v", sum.Counts)
	}
	row, err = deps.policies.GetByTitle(ctx, tx, "Data Retention Policy")
	if err != nil || row == nil {
		t.Fatalf("reload: %v %v", row, err)
	}
	if row.PolicyTemplate != "v3 text" {
		t.Fatalf("template = %q, want v3 text", row.PolicyTemplate)
	}
	if row.PolicyReference != "ER-7-2" {
		t.Fatalf("reference changed on re-ingest: %q", row.PolicyReference)
	}
}

func TestPolicySyncerFetchFailure(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	deps := newErambaDeps(t, gdb)

	proxy := &fakeProxy{err: errors.New("proxy down")}
	syncer := NewPolicySyncer(tx, proxy, deps.engine, 1, 10, testutil.Logger(t))
	sum, err := syncer.Run(context.Background())
	if err == nil {
		t.Fatal("expected fetch error to surface")
	}
	if sum.Status != reconcile.StatusError {
		t.Fatalf("status = %q, want error", sum.Status)
	}
}

package reconcile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFrameworkTableResolve(t *testing.T) {
	table := DefaultFrameworkTable()

	cases := []struct {
		raw  string
		want string
	}{
		{"soc2", "SOC 2"},
		{"SOC2", "SOC 2"},
		{" Iso_27001 ", "ISO 27001"},
		{"cmmc_l1", ""},
		{"unknown_framework", ""},
	}
	for _, tc := range cases {
		if got := table.Resolve(tc.raw); got != tc.want {
			t.Errorf("Resolve(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestLoadFrameworkTableMergesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frameworks.yaml")
	payload := "Soc2: SOC 2 Type II\ncustom_fw: Custom Framework\n"
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write override file: %v", err)
	}

	table, err := LoadFrameworkTable(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := table.Resolve("soc2"); got != "SOC 2 Type II" {
		t.Fatalf("override not applied: %q", got)
	}
	if got := table.Resolve("CUSTOM_FW"); got != "Custom Framework" {
		t.Fatalf("new key not merged: %q", got)
	}
	// Untouched defaults survive the merge.
	if got := table.Resolve("gdpr"); got != "GDPR" {
		t.Fatalf("default lost: %q", got)
	}
}

func TestLoadFrameworkTableMissingFile(t *testing.T) {
	if _, err := LoadFrameworkTable(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

package reconcile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FrameworkTable translates raw source framework keys into canonical
// display names. Keys are matched case-insensitively; a key mapped to
// the empty string is allow-listed out (its tuples are dropped, never
// stored with an empty framework name).
type FrameworkTable map[string]string

// DefaultFrameworkTable covers the framework keys the TrustCloud
// capability capture is known to emit. cmmc_l1 is intentionally
// mapped to "" to exclude it from the canonical graph.
func DefaultFrameworkTable() FrameworkTable {
	return FrameworkTable{
		"soc2":         "SOC 2",
		"soc_2":        "SOC 2",
		"iso27001":     "ISO 27001",
		"iso_27001":    "ISO 27001",
		"iso27701":     "ISO 27701",
		"hipaa":        "HIPAA",
		"gdpr":         "GDPR",
		"ccpa":         "CCPA",
		"pci_dss":      "PCI DSS",
		"nist_csf":     "NIST CSF",
		"nist_800_53":  "NIST 800-53",
		"nist_800_171": "NIST 800-171",
		"cmmc_l1":      "",
		"cmmc_l2":      "CMMC Level 2",
		"fedramp":      "FedRAMP",
		"hitrust":      "HITRUST",
		"cis_v8":       "CIS Controls v8",
	}
}

// LoadFrameworkTable reads translation overrides from a YAML file of
// raw-key: canonical-name pairs and merges them over the defaults.
// The result is handed to the batcher at construction and never
// mutated afterwards.
func LoadFrameworkTable(path string) (FrameworkTable, error) {
	table := DefaultFrameworkTable()
	if path == "" {
		return table, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read framework table %q: %w", path, err)
	}
	overrides := map[string]string{}
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("parse framework table %q: %w", path, err)
	}
	for k, v := range overrides {
		table[normalizeFrameworkKey(k)] = v
	}
	return table, nil
}

// Resolve returns the canonical name for a raw key, or "" when the
// key is unknown or allow-listed out.
func (t FrameworkTable) Resolve(rawKey string) string {
	return t[normalizeFrameworkKey(rawKey)]
}

func normalizeFrameworkKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

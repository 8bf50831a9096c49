package analytics

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRulesEmbedded(t *testing.T) {
	rs := DefaultRules()
	if rs.Version != 2 {
		t.Fatalf("expected rule set version 2, got %d", rs.Version)
	}
	if rs.WindowDays != 3 {
		t.Fatalf("expected 3-day window, got %d", rs.WindowDays)
	}
	if rs.Thresholds.NoConnectionRate != 0.8 {
		t.Fatalf("expected 0.8 cutoff, got %v", rs.Thresholds.NoConnectionRate)
	}
	if rs.Thresholds.WindowNoConnectionRate != 1.0 {
		t.Fatalf("expected 1.0 window cutoff, got %v", rs.Thresholds.WindowNoConnectionRate)
	}
	if len(rs.Keywords.DeepCommunication) == 0 || len(rs.Keywords.InvalidData) == 0 || len(rs.Keywords.NoConnection) == 0 {
		t.Fatalf("embedded keyword lists must be non-empty: %+v", rs.Keywords)
	}
}

func TestLoadRulesOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	raw := []byte(`version: 3
window_days: 5
thresholds:
  no_connection_rate: 0.5
  window_no_connection_rate: 1.0
keywords:
  deep_communication: ["到店"]
  invalid_data: ["有对象"]
  no_connection: ["未接"]
`)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write temp rules: %v", err)
	}
	rs, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if rs.Version != 3 || rs.WindowDays != 5 || rs.Thresholds.NoConnectionRate != 0.5 {
		t.Fatalf("override not applied: %+v", rs)
	}
}

func TestLoadRulesRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	raw := []byte(`version: 3
window_days: 0
thresholds:
  no_connection_rate: 0.5
  window_no_connection_rate: 1.0
keywords:
  deep_communication: ["到店"]
  invalid_data: ["有对象"]
  no_connection: ["未接"]
`)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write temp rules: %v", err)
	}
	if _, err := LoadRules(path); err == nil {
		t.Fatalf("expected validation error for zero window_days")
	}
	if _, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fieldmetrics-dashboard/internal/daterange"
	"fieldmetrics-dashboard/internal/source"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.HTTPAddr != ":8086" {
		t.Errorf("HTTPAddr = %s", cfg.HTTPAddr)
	}
	if cfg.WeekMode != daterange.WeekToDate {
		t.Errorf("WeekMode = %s", cfg.WeekMode)
	}
	if cfg.DiagnosticFeeCap != 150 {
		t.Errorf("DiagnosticFeeCap = %v", cfg.DiagnosticFeeCap)
	}
	if cfg.FetchTimeout != 15*time.Second {
		t.Errorf("FetchTimeout = %v", cfg.FetchTimeout)
	}
}

func TestRulesFromConfig(t *testing.T) {
	cfg := Config{Department: "Plumbing", InstallRevenueFloor: 5000, DiagnosticFeeCap: 99}
	rules := cfg.Rules()
	if rules.Department != "Plumbing" {
		t.Errorf("department = %s", rules.Department)
	}
	if rules.InstallRevenueFloor != 5000 || rules.DiagnosticFeeCap != 99 {
		t.Errorf("thresholds = %v/%v", rules.InstallRevenueFloor, rules.DiagnosticFeeCap)
	}

	// Zero-value thresholds keep the defaults instead of disabling metrics.
	rules = Config{}.Rules()
	if rules.InstallRevenueFloor != 10000 || rules.DiagnosticFeeCap != 150 {
		t.Errorf("default thresholds = %v/%v", rules.InstallRevenueFloor, rules.DiagnosticFeeCap)
	}
}

func TestLoadSourcesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.json")
	payload := `[
		{"id": "calls", "name": "Call Sheet", "active": true, "role": "kpi", "workbookKey": "calls.xlsx", "range": "Calls!A1:K500"},
		{"id": "invoices", "name": "Invoices", "active": true, "role": "bogus", "table": "invoices", "dateColumn": "invoice_date"}
	]`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := Config{SourcesPath: path}
	sources, err := cfg.LoadSources()
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 2 {
		t.Fatalf("sources = %d", len(sources))
	}
	if sources[0].WorkbookKey != "calls.xlsx" {
		t.Errorf("workbook key = %s", sources[0].WorkbookKey)
	}
	// Unknown roles normalize to kpi.
	if sources[1].Role != source.RoleKPI {
		t.Errorf("role = %s", sources[1].Role)
	}
}

func TestLoadSourcesMissingID(t *testing.T) {
	t.Setenv("SOURCES_JSON", `[{"name": "anonymous"}]`)
	if _, err := (Config{}).LoadSources(); err == nil {
		t.Fatal("expected error for source without id")
	}
}

func TestLoadSourcesUnconfigured(t *testing.T) {
	sources, err := (Config{}).LoadSources()
	if err != nil || sources != nil {
		t.Fatalf("got %v, %v; want nil, nil", sources, err)
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleYAML = `geometry:
  input_projection: "+proj=longlat"
partition:
  padding_factor: 3.0
market:
  consumption_rule: "sum"
  criticality_medium_kw: 500
solar:
  panel:
    performance_ratio: 0.8
    temp_coefficient: 0.004
    reference_temp_c: 25
    cloud_attenuation: 0.6
simulation:
  history_days: 14
  forecast_days: 2
meteo:
  timeout_seconds: 3
metrics:
  sinks:
    - type: "nop"
journal:
  backend: "sqlite"
  path: "runs.db"
telemetry:
  enabled: false
`

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"geometry.input_projection", cfg.Geometry.InputProjection, "+proj=longlat"},
		{"geometry.work_projection defaulted", cfg.Geometry.WorkProjection != "", true},
		{"partition.padding_factor", cfg.Partition.PaddingFactor, 3.0},
		{"partition.area_tolerance defaulted", cfg.Partition.AreaToleranceM2, 1.0},
		{"market.rule", cfg.Market.ConsumptionRule, "sum"},
		{"market.medium_kw", cfg.Market.CriticalityMediumKW, 500.0},
		{"market.class_map defaulted", cfg.Market.ClassMap["RE"], "residential"},
		{"solar.panel.pr", cfg.Solar.Panel.PerformanceRatio, 0.8},
		{"solar.workers defaulted", cfg.Solar.Workers, 4},
		{"simulation.history_days", cfg.Simulation.HistoryDays, 14},
		{"simulation.forecast_days", cfg.Simulation.ForecastDays, 2},
		{"meteo.timeout", cfg.Meteo.TimeoutSeconds, 3},
		{"meteo.archive defaulted", strings.Contains(cfg.Meteo.ArchiveURL, "archive-api"), true},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"journal.backend", cfg.Journal.Backend, "sqlite"},
		{"journal.path", cfg.Journal.Path, "runs.db"},
		{"telemetry.enabled", cfg.Telemetry.Enabled, false},
		{"telemetry.prefix defaulted", cfg.Telemetry.TopicPrefix, "gridscope"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("K_JOURNAL__PATH", "/var/log/gridscope/runs.jsonl")
	cfg, err := Load(writeConfig(t, "config.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Journal.Path != "/var/log/gridscope/runs.jsonl" {
		t.Fatalf("env override ignored: %s", cfg.Journal.Path)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(writeConfig(t, "config.toml", "x = 1")); err == nil {
		t.Fatal("expected error for unsupported extension")
	}

	noPanel := strings.ReplaceAll(sampleYAML, "performance_ratio: 0.8", "performance_ratio: 0")
	if _, err := Load(writeConfig(t, "config.yaml", noPanel)); err == nil {
		t.Fatal("expected validation error for unset panel model")
	} else if !strings.Contains(err.Error(), "solar") {
		t.Fatalf("error should name the failing section: %v", err)
	}

	badJournal := strings.ReplaceAll(sampleYAML, `backend: "sqlite"`, `backend: "csv"`)
	if _, err := Load(writeConfig(t, "config.yaml", badJournal)); err == nil {
		t.Fatal("expected validation error for unknown journal backend")
	}
}

func TestLoadJSON(t *testing.T) {
	data := `{
  "solar": {"panel": {"performance_ratio": 0.75, "temp_coefficient": 0.004, "reference_temp_c": 25, "cloud_attenuation": 0.5}},
  "metrics": {"sinks": [{"type": "nop"}]}
}`
	cfg, err := Load(writeConfig(t, "config.json", data))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Solar.Panel.PerformanceRatio != 0.75 {
		t.Fatalf("unexpected panel ratio %v", cfg.Solar.Panel.PerformanceRatio)
	}
	if cfg.Journal.Backend != "jsonl" {
		t.Fatalf("journal backend not defaulted: %s", cfg.Journal.Backend)
	}
}

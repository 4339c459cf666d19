package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/gridscope/gridscope/core/market"
	"github.com/gridscope/gridscope/core/metrics"
	"github.com/gridscope/gridscope/core/partition"
	"github.com/gridscope/gridscope/core/solar"
	"github.com/gridscope/gridscope/infra/meteo"
	"github.com/gridscope/gridscope/infra/telemetry"
)

type Config struct {
	Geometry   GeometryConfig   `json:"geometry"`
	Partition  partition.Config `json:"partition"`
	Market     market.Config    `json:"market"`
	Solar      solar.Config     `json:"solar"`
	Simulation SimulationConfig `json:"simulation"`
	Meteo      meteo.Config     `json:"meteo"`
	Metrics    metrics.Config   `json:"metrics"`
	Journal    JournalConfig    `json:"journal"`
	Sentry     SentryConfig     `json:"sentry"`
	Telemetry  telemetry.Config `json:"telemetry"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Geometry.SetDefaults()
	cfg.Partition.SetDefaults()
	cfg.Market.SetDefaults()
	cfg.Solar.SetDefaults()
	cfg.Simulation.SetDefaults()
	cfg.Meteo.SetDefaults()
	cfg.Journal.SetDefaults()
	cfg.Telemetry.SetDefaults()
	sections := []struct {
		name string
		v    interface{ Validate() error }
	}{
		{"geometry", cfg.Geometry},
		{"partition", cfg.Partition},
		{"market", cfg.Market},
		{"solar", cfg.Solar},
		{"simulation", cfg.Simulation},
		{"meteo", cfg.Meteo},
		{"journal", cfg.Journal},
		{"telemetry", cfg.Telemetry},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return &cfg, nil
}

package solar

import (
	"fmt"

	"github.com/gridscope/gridscope/core/model"
)

// ImpactThresholds drives the grid-impact label of each daily estimate.
type ImpactThresholds struct {
	// CriticalIrradiance with a maximum temperature below CriticalTempMaxC
	// marks a critical injection peak: strong sun without the thermal
	// derating that would soften it.
	CriticalIrradiance float64 `json:"critical_irradiance"`
	CriticalTempMaxC   float64 `json:"critical_temp_max_c"`
	// HighIrradiance alone marks a high-injection day.
	HighIrradiance float64 `json:"high_irradiance"`
	// LowIrradiance marks a low-generation day.
	LowIrradiance float64 `json:"low_irradiance"`
}

// Classify labels one day's weather.
func (t ImpactThresholds) Classify(irradianceKWhM2, tempC float64) model.ImpactLevel {
	switch {
	case irradianceKWhM2 > t.CriticalIrradiance && tempC < t.CriticalTempMaxC:
		return model.ImpactCriticalInjection
	case irradianceKWhM2 > t.HighIrradiance:
		return model.ImpactHighInjection
	case irradianceKWhM2 < t.LowIrradiance:
		return model.ImpactLowGeneration
	default:
		return model.ImpactNormal
	}
}

// Config holds the simulator parameters. Panel carries no defaults on
// purpose; thresholds and worker count do.
type Config struct {
	Panel      PanelModel       `json:"panel"`
	Thresholds ImpactThresholds `json:"thresholds"`
	// Workers bounds the per-territory fan-out of batch simulation.
	Workers int `json:"workers"`
}

// SetDefaults fills the threshold and worker defaults.
func (c *Config) SetDefaults() {
	if c.Thresholds.CriticalIrradiance == 0 {
		c.Thresholds.CriticalIrradiance = 5.5
	}
	if c.Thresholds.CriticalTempMaxC == 0 {
		c.Thresholds.CriticalTempMaxC = 30
	}
	if c.Thresholds.HighIrradiance == 0 {
		c.Thresholds.HighIrradiance = 5.0
	}
	if c.Thresholds.LowIrradiance == 0 {
		c.Thresholds.LowIrradiance = 2.0
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
}

// Validate checks the configuration, panel model included.
func (c Config) Validate() error {
	if err := c.Panel.Validate(); err != nil {
		return fmt.Errorf("panel: %w", err)
	}
	t := c.Thresholds
	if t.LowIrradiance < 0 || t.HighIrradiance < 0 || t.CriticalIrradiance < 0 {
		return fmt.Errorf("impact thresholds must not be negative")
	}
	if t.HighIrradiance < t.LowIrradiance {
		return fmt.Errorf("high_irradiance must not be below low_irradiance")
	}
	if t.CriticalIrradiance < t.HighIrradiance {
		return fmt.Errorf("critical_irradiance must not be below high_irradiance")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	return nil
}

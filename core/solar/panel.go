// Package solar estimates per-territory photovoltaic generation from
// weather series and the territory's installed capacity.
package solar

import (
	"fmt"
	"math"
)

// PanelModel is the explicit PV conversion parameter set. There are no
// implicit process-wide defaults: an unset model fails validation, and the
// shipped configuration spells the production values out.
type PanelModel struct {
	// PerformanceRatio is the system's base performance ratio in (0,1].
	PerformanceRatio float64 `json:"performance_ratio"`
	// TempCoefficient derates the ratio per °C above ReferenceTempC,
	// as a fraction (0.004 means 0.4%/°C).
	TempCoefficient float64 `json:"temp_coefficient"`
	// ReferenceTempC is the cell reference temperature.
	ReferenceTempC float64 `json:"reference_temp_c"`
	// CloudAttenuation scales output down with cloud cover: 1 removes all
	// output under full cover, 0 disables the term.
	CloudAttenuation float64 `json:"cloud_attenuation"`
}

// Validate checks the model.
func (m PanelModel) Validate() error {
	if m.PerformanceRatio <= 0 || m.PerformanceRatio > 1 {
		return fmt.Errorf("performance_ratio must be in (0,1], got %v", m.PerformanceRatio)
	}
	if m.TempCoefficient < 0 || m.TempCoefficient >= 1 {
		return fmt.Errorf("temp_coefficient must be in [0,1), got %v", m.TempCoefficient)
	}
	if math.IsNaN(m.ReferenceTempC) || math.IsInf(m.ReferenceTempC, 0) {
		return fmt.Errorf("reference_temp_c must be finite")
	}
	if m.CloudAttenuation < 0 || m.CloudAttenuation > 1 {
		return fmt.Errorf("cloud_attenuation must be in [0,1], got %v", m.CloudAttenuation)
	}
	return nil
}

// Derate returns the effective performance ratio for one day's weather:
// thermal derating above the reference temperature, then cloud attenuation,
// clamped at zero.
func (m PanelModel) Derate(tempC, cloudPct float64) float64 {
	ratio := m.PerformanceRatio
	if over := tempC - m.ReferenceTempC; over > 0 {
		ratio *= 1 - over*m.TempCoefficient
	}
	ratio *= 1 - cloudPct/100*m.CloudAttenuation
	if ratio < 0 {
		ratio = 0
	}
	return ratio
}

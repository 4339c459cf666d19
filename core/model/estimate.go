package model

import "time"

// ImpactLevel classifies the expected grid impact of one day's distributed
// generation in a territory.
type ImpactLevel int

const (
	ImpactNormal ImpactLevel = iota
	ImpactLowGeneration
	ImpactHighInjection
	ImpactCriticalInjection
)

// String returns the label used in exports and telemetry.
func (l ImpactLevel) String() string {
	switch l {
	case ImpactLowGeneration:
		return "low_generation"
	case ImpactHighInjection:
		return "high_injection"
	case ImpactCriticalInjection:
		return "critical_injection"
	default:
		return "normal"
	}
}

// GenerationEstimate is the simulated PV output of one territory for one
// daily step.
type GenerationEstimate struct {
	SubstationID string
	Time         time.Time
	EnergyKWh    float64
	Ratio        float64 // performance ratio after derating, 0..1
	Impact       ImpactLevel

	// FromGap marks estimates computed from a neighboring day's weather
	// because the step itself had no upstream data.
	FromGap bool
}

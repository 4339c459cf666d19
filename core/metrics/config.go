package metrics

import "github.com/gridscope/gridscope/core/factory"

// Config defines settings for metrics sinks.
// EmissionFactor is the grams of CO2 avoided per generated kWh, used by the
// ecological KPI sink.
type Config struct {
	Sinks          []factory.ModuleConfig `json:"sinks"`
	EmissionFactor float64                `json:"emission_factor"`
}

package config

import "fmt"

// SimulationConfig frames the default weather window of a simulation run,
// relative to the run date.
type SimulationConfig struct {
	// HistoryDays is the number of past days fetched from the archive,
	// ending yesterday.
	HistoryDays int `json:"history_days"`
	// ForecastDays is the number of days fetched from the forecast,
	// starting today.
	ForecastDays int `json:"forecast_days"`
}

// SetDefaults applies sane defaults.
func (c *SimulationConfig) SetDefaults() {
	if c.HistoryDays == 0 && c.ForecastDays == 0 {
		c.HistoryDays = 7
		c.ForecastDays = 3
	}
}

// Validate checks the window.
func (c SimulationConfig) Validate() error {
	if c.HistoryDays < 0 || c.ForecastDays < 0 {
		return fmt.Errorf("window days must not be negative")
	}
	if c.HistoryDays == 0 && c.ForecastDays == 0 {
		return fmt.Errorf("window is empty")
	}
	return nil
}

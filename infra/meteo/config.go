package meteo

import (
	"fmt"
	"net/url"
)

const (
	defaultArchiveURL  = "https://archive-api.open-meteo.com/v1/archive"
	defaultForecastURL = "https://api.open-meteo.com/v1/forecast"
)

// Config holds the Open-Meteo endpoints and the request timeout. The URLs
// are injectable so tests can point the client at a local server.
type Config struct {
	ArchiveURL     string `json:"archive_url"`
	ForecastURL    string `json:"forecast_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SetDefaults fills unset values.
func (c *Config) SetDefaults() {
	if c.ArchiveURL == "" {
		c.ArchiveURL = defaultArchiveURL
	}
	if c.ForecastURL == "" {
		c.ForecastURL = defaultForecastURL
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 5
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	for name, raw := range map[string]string{"archive_url": c.ArchiveURL, "forecast_url": c.ForecastURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s is not a valid URL: %q", name, raw)
		}
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive")
	}
	return nil
}

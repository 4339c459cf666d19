package partition

import "fmt"

// Config tunes the partition engine.
type Config struct {
	// PaddingFactor grows the working extent beyond the combined bounds of
	// sites and boundary, as a multiple of the larger bound span. The padded
	// extent must dominate the municipal extent so that clipping, not the
	// extent, shapes every territory.
	PaddingFactor float64 `json:"padding_factor"`
	// AreaToleranceM2 is the area below which a clipped cell counts as
	// degenerate.
	AreaToleranceM2 float64 `json:"area_tolerance_m2"`
}

// SetDefaults fills unset values.
func (c *Config) SetDefaults() {
	if c.PaddingFactor == 0 {
		c.PaddingFactor = 2.0
	}
	if c.AreaToleranceM2 == 0 {
		c.AreaToleranceM2 = 1.0
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.PaddingFactor <= 0 {
		return fmt.Errorf("padding_factor must be positive")
	}
	if c.AreaToleranceM2 < 0 {
		return fmt.Errorf("area_tolerance_m2 must not be negative")
	}
	return nil
}

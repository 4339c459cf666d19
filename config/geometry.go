package config

import "fmt"

// defaultWorkProjection is spherical web mercator, a planar CRS with metric
// units that any deployment can fall back on. Production configs point this
// at the projected zone of their service area instead.
const defaultWorkProjection = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs"

// GeometryConfig selects the coordinate reference systems, as proj4
// definitions.
type GeometryConfig struct {
	// InputProjection is the CRS of incoming substation and boundary
	// records, normally geographic degrees.
	InputProjection string `json:"input_projection"`
	// WorkProjection is the planar CRS all geometric computation runs in.
	// Units must be meters.
	WorkProjection string `json:"work_projection"`
}

// SetDefaults applies sane defaults.
func (c *GeometryConfig) SetDefaults() {
	if c.InputProjection == "" {
		c.InputProjection = "+proj=longlat"
	}
	if c.WorkProjection == "" {
		c.WorkProjection = defaultWorkProjection
	}
}

// Validate checks mandatory fields.
func (c GeometryConfig) Validate() error {
	if c.InputProjection == "" {
		return fmt.Errorf("input_projection is required")
	}
	if c.WorkProjection == "" {
		return fmt.Errorf("work_projection is required")
	}
	return nil
}

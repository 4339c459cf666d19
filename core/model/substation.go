package model

import (
	"fmt"
	"math"
)

// Substation represents a distribution substation feeding one service
// territory.
type Substation struct {
	ID          string
	Name        string
	Lon         float64 // longitude in decimal degrees
	Lat         float64 // latitude in decimal degrees
	CapacityMVA float64 // installed transformer capacity, informational

	// Metadata carries source attributes that are not interpreted by the
	// engine (feeder codes, municipality, data vintage).
	Metadata map[string]string
}

// Validate checks that the record can be used as a partition site.
func (s Substation) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("substation id is empty")
	}
	if math.IsNaN(s.Lon) || math.IsInf(s.Lon, 0) || math.IsNaN(s.Lat) || math.IsInf(s.Lat, 0) {
		return fmt.Errorf("substation %s: coordinates must be finite", s.ID)
	}
	if s.Lat < -90 || s.Lat > 90 {
		return fmt.Errorf("substation %s: latitude %v out of range", s.ID, s.Lat)
	}
	if s.Lon < -180 || s.Lon > 180 {
		return fmt.Errorf("substation %s: longitude %v out of range", s.ID, s.Lon)
	}
	return nil
}

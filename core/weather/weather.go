// Package weather defines the upstream-agnostic weather contract: requests,
// the provider interface and the per-territory series store.
package weather

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gridscope/gridscope/core/model"
)

// Request identifies one daily weather window at a territory's
// representative point. Coordinates are geographic degrees.
type Request struct {
	TerritoryID string
	Lon         float64
	Lat         float64
	Start       time.Time // first day, inclusive
	End         time.Time // last day, inclusive
	Kind        model.WindowKind
}

// Validate checks the request.
func (r Request) Validate() error {
	if r.TerritoryID == "" {
		return fmt.Errorf("weather request: territory id is empty")
	}
	if math.IsNaN(r.Lon) || math.IsInf(r.Lon, 0) || math.IsNaN(r.Lat) || math.IsInf(r.Lat, 0) {
		return fmt.Errorf("weather request %s: coordinates must be finite", r.TerritoryID)
	}
	if r.Lat < -90 || r.Lat > 90 || r.Lon < -180 || r.Lon > 180 {
		return fmt.Errorf("weather request %s: coordinates out of range", r.TerritoryID)
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("weather request %s: window is not set", r.TerritoryID)
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("weather request %s: window end before start", r.TerritoryID)
	}
	return nil
}

// Days returns the number of daily steps in the window.
func (r Request) Days() int {
	start := r.Start.UTC().Truncate(24 * time.Hour)
	end := r.End.UTC().Truncate(24 * time.Hour)
	return int(end.Sub(start)/(24*time.Hour)) + 1
}

// Provider fetches one series per request. Implementations must mark missing
// days and null values as gap samples rather than inventing data, and must
// not hold locks across the network call.
type Provider interface {
	Fetch(ctx context.Context, req Request) (model.WeatherSeries, error)
}

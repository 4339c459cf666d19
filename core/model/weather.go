package model

import (
	"fmt"
	"math"
	"time"
)

// WindowKind selects the weather source for a time window.
type WindowKind int

const (
	WindowHistorical WindowKind = iota
	WindowForecast
)

// String returns the label used in requests, logs and journals.
func (k WindowKind) String() string {
	if k == WindowForecast {
		return "forecast"
	}
	return "historical"
}

// WeatherSample is one daily observation at a territory's representative
// point. A Gap sample carries no values: the upstream had no data for that
// day and the engine never invents any.
type WeatherSample struct {
	Time            time.Time
	IrradianceKWhM2 float64 // daily shortwave radiation sum, kWh/m²
	TemperatureC    float64 // daily maximum air temperature
	CloudCoverPct   float64 // mean cloud cover, 0..100
	Gap             bool
}

// WeatherSeries is the ordered sample set returned for one territory and
// window. Historical series are immutable once fetched; forecast series are
// replaced wholesale on refresh.
type WeatherSeries struct {
	TerritoryID string
	Kind        WindowKind
	Lon         float64 // query point, decimal degrees
	Lat         float64
	Samples     []WeatherSample
}

// Validate checks ordering and, for non-gap samples, that values are finite
// and within physical range. Gap samples are exempt: they carry no data.
func (s WeatherSeries) Validate() error {
	var prev time.Time
	for i, smp := range s.Samples {
		if i > 0 && !smp.Time.After(prev) {
			return fmt.Errorf("series %s: samples out of order at index %d", s.TerritoryID, i)
		}
		prev = smp.Time
		if smp.Gap {
			continue
		}
		if !finite(smp.IrradianceKWhM2) || smp.IrradianceKWhM2 < 0 {
			return fmt.Errorf("series %s: invalid irradiance %v at %s", s.TerritoryID, smp.IrradianceKWhM2, smp.Time.Format(time.DateOnly))
		}
		if !finite(smp.TemperatureC) {
			return fmt.Errorf("series %s: invalid temperature at %s", s.TerritoryID, smp.Time.Format(time.DateOnly))
		}
		if !finite(smp.CloudCoverPct) || smp.CloudCoverPct < 0 || smp.CloudCoverPct > 100 {
			return fmt.Errorf("series %s: invalid cloud cover %v at %s", s.TerritoryID, smp.CloudCoverPct, smp.Time.Format(time.DateOnly))
		}
	}
	return nil
}

// Gaps returns the indexes of gap samples.
func (s WeatherSeries) Gaps() []int {
	var idx []int
	for i, smp := range s.Samples {
		if smp.Gap {
			idx = append(idx, i)
		}
	}
	return idx
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

package weather

import (
	"sync"
	"time"

	"github.com/gridscope/gridscope/core/model"
)

type histKey struct {
	id         string
	start, end int64
}

// Store caches fetched series per territory. Historical windows are
// immutable: the first stored series for a window is the one every later
// reader sees. A forecast refresh replaces the territory's previous
// forecast wholesale.
type Store struct {
	mu   sync.RWMutex
	hist map[histKey]model.WeatherSeries
	fcst map[string]model.WeatherSeries
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		hist: make(map[histKey]model.WeatherSeries),
		fcst: make(map[string]model.WeatherSeries),
	}
}

// Put stores the series and returns the canonical stored value: for an
// already-known historical window that is the original series, not the
// argument.
func (s *Store) Put(series model.WeatherSeries) model.WeatherSeries {
	s.mu.Lock()
	defer s.mu.Unlock()
	if series.Kind == model.WindowForecast {
		s.fcst[series.TerritoryID] = series
		return series
	}
	k := keyOf(series)
	if existing, ok := s.hist[k]; ok {
		return existing
	}
	s.hist[k] = series
	return series
}

// Historical returns the cached series for the exact window, if any.
func (s *Store) Historical(territoryID string, start, end time.Time) (model.WeatherSeries, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	series, ok := s.hist[histKey{territoryID, day(start), day(end)}]
	return series, ok
}

// Forecast returns the territory's current forecast series, if any.
func (s *Store) Forecast(territoryID string) (model.WeatherSeries, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	series, ok := s.fcst[territoryID]
	return series, ok
}

func keyOf(series model.WeatherSeries) histKey {
	k := histKey{id: series.TerritoryID}
	if n := len(series.Samples); n > 0 {
		k.start = day(series.Samples[0].Time)
		k.end = day(series.Samples[n-1].Time)
	}
	return k
}

func day(t time.Time) int64 {
	return t.UTC().Truncate(24 * time.Hour).Unix()
}

package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridscope/gridscope/config"
	"github.com/gridscope/gridscope/core/geo"
	"github.com/gridscope/gridscope/core/journal"
	"github.com/gridscope/gridscope/core/market"
	coremetrics "github.com/gridscope/gridscope/core/metrics"
	"github.com/gridscope/gridscope/core/model"
	"github.com/gridscope/gridscope/core/partition"
	"github.com/gridscope/gridscope/core/solar"
	"github.com/gridscope/gridscope/core/weather"
	"github.com/gridscope/gridscope/infra/geomops"
	"github.com/gridscope/gridscope/infra/logger"
	"github.com/gridscope/gridscope/infra/telemetry"
	"github.com/gridscope/gridscope/internal/eventbus"
)

const (
	testInputProj = "+proj=longlat"
	testWorkProj  = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs"
)

// fakeProvider returns one clear-sky sample per requested day.
type fakeProvider struct {
	mu    sync.Mutex
	calls []weather.Request
	fail  map[model.WindowKind]bool
}

func (f *fakeProvider) Fetch(_ context.Context, req weather.Request) (model.WeatherSeries, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.fail[req.Kind] {
		return model.WeatherSeries{}, fmt.Errorf("fetch %s: %w", req.TerritoryID, model.ErrUpstreamUnavailable)
	}
	series := model.WeatherSeries{
		TerritoryID: req.TerritoryID,
		Kind:        req.Kind,
		Lon:         req.Lon,
		Lat:         req.Lat,
	}
	for d := req.Start; !d.After(req.End); d = d.AddDate(0, 0, 1) {
		series.Samples = append(series.Samples, model.WeatherSample{
			Time:            d,
			IrradianceKWhM2: 4.2,
			TemperatureC:    24,
			CloudCoverPct:   10,
		})
	}
	return series, nil
}

func (f *fakeProvider) fetches() []weather.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]weather.Request(nil), f.calls...)
}

func newTestService(t *testing.T, provider weather.Provider) (*Service, *telemetry.MockPublisher) {
	t.Helper()
	cfg := &config.Config{
		Simulation: config.SimulationConfig{HistoryDays: 2, ForecastDays: 1},
		Solar: solar.Config{
			Panel: solar.PanelModel{
				PerformanceRatio: 0.8,
				TempCoefficient:  0.004,
				ReferenceTempC:   25,
				CloudAttenuation: 0.6,
			},
		},
	}
	cfg.Solar.SetDefaults()

	norm, err := geo.NewNormalizer(testInputProj, testWorkProj)
	require.NoError(t, err)
	engine, err := partition.New(geomops.New(), partition.Config{}, logger.NopLogger{})
	require.NoError(t, err)
	assigner, err := market.NewAssigner(market.Config{}, logger.NopLogger{})
	require.NoError(t, err)
	simulator, err := solar.New(cfg.Solar, logger.NopLogger{})
	require.NoError(t, err)
	store, err := journal.NewJSONLStore(filepath.Join(t.TempDir(), "journal.jsonl"))
	require.NoError(t, err)

	pub := &telemetry.MockPublisher{}
	bus := eventbus.New()
	svc := &Service{
		cfg:       cfg,
		log:       logger.NopLogger{},
		norm:      norm,
		engine:    engine,
		assigner:  assigner,
		simulator: simulator,
		provider:  provider,
		weather:   weather.NewStore(),
		sink:      coremetrics.NopSink{},
		journal:   store,
		publisher: pub,
		bus:       bus,
	}
	t.Cleanup(func() {
		bus.Close()
		if err := store.Close(); err != nil {
			t.Errorf("journal close: %v", err)
		}
	})
	return svc, pub
}

func serviceInput() *Input {
	return &Input{
		Substations: []model.Substation{
			{ID: "SE01", Name: "Nord", Lon: 0.025, Lat: 0.05, CapacityMVA: 10},
			{ID: "SE02", Name: "Sul", Lon: 0.075, Lat: 0.05, CapacityMVA: 15},
		},
		Boundary: model.Boundary{
			Name: "district",
			Geometry: geom.Polygon{{
				{X: 0, Y: 0}, {X: 0.1, Y: 0}, {X: 0.1, Y: 0.1}, {X: 0, Y: 0.1},
			}},
		},
		Market: []MarketInput{
			{ID: "M-1", Kind: "consumer", Class: "RE", Lon: 0.02, Lat: 0.04, AnnualKWh: 3200},
			{ID: "M-2", Kind: "generation", Lon: 0.03, Lat: 0.06, InstalledKW: 12},
			{ID: "M-3", Kind: "consumer", Class: "CO", Lon: 0.08, Lat: 0.05, AnnualKWh: 9100},
		},
	}
}

func TestServicePartition(t *testing.T) {
	svc, pub := newTestService(t, &fakeProvider{})
	ctx := context.Background()

	out, err := svc.Partition(ctx, serviceInput())
	require.NoError(t, err)
	assert.NotEmpty(t, out.RunID)
	assert.Len(t, out.Territories, 2)
	assert.Empty(t, out.Anomalies)
	assert.Greater(t, out.BoundaryAreaM2, 0.0)

	require.Len(t, out.Profiles, 2)
	byID := make(map[string]model.MarketProfile, len(out.Profiles))
	for _, p := range out.Profiles {
		byID[p.SubstationID] = p
	}
	assert.Equal(t, 1, byID["SE01"].Customers)
	assert.Equal(t, 1, byID["SE01"].DGUnits)
	assert.InDelta(t, 12, byID["SE01"].InstalledKW, 1e-9)
	assert.Equal(t, 1, byID["SE02"].Customers)
	assert.Zero(t, byID["SE02"].InstalledKW)

	recs, err := svc.History(ctx, journal.Query{Kind: journal.RunPartition})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, out.RunID, recs[0].RunID)
	assert.Equal(t, 2, recs[0].TerritoryCount)
	assert.Empty(t, recs[0].Anomalies)

	_, anomalies := pub.Published()
	assert.Empty(t, anomalies)
}

func TestServicePartitionPublishesAnomalies(t *testing.T) {
	svc, pub := newTestService(t, &fakeProvider{})
	in := serviceInput()
	in.Market = append(in.Market, MarketInput{
		ID: "M-9", Kind: "consumer", Lon: 3, Lat: 3, AnnualKWh: 100,
	})

	out, err := svc.Partition(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, out.Anomalies, 1)
	assert.Equal(t, model.AnomalyUnassignedRecord, out.Anomalies[0].Kind)
	assert.Equal(t, "M-9", out.Anomalies[0].Subject)

	_, anomalies := pub.Published()
	require.Len(t, anomalies, 1)
	assert.Equal(t, "M-9", anomalies[0].Subject)

	recs, err := svc.History(context.Background(), journal.Query{Kind: journal.RunPartition})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Len(t, recs[0].Anomalies, 1)
	assert.Equal(t, "unassigned_record", recs[0].Anomalies[0].Kind)
}

func TestServiceSimulate(t *testing.T) {
	provider := &fakeProvider{}
	svc, pub := newTestService(t, provider)
	ctx := context.Background()
	now := time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)

	out, err := svc.Simulate(ctx, serviceInput(), now)
	require.NoError(t, err)
	assert.NotEmpty(t, out.RunID)
	assert.Empty(t, out.Failures)

	// Two territories, 2 history days plus 1 forecast day each.
	require.Len(t, out.Estimates, 6)
	assert.Equal(t, "SE01", out.Estimates[0].SubstationID)
	assert.Equal(t, time.Date(2024, 7, 13, 0, 0, 0, 0, time.UTC), out.Estimates[0].Time)
	assert.Equal(t, "SE02", out.Estimates[3].SubstationID)

	// ratio = 0.8 * (1 - 0.6*0.10), no thermal derate below reference.
	assert.InDelta(t, 0.752, out.Estimates[0].Ratio, 1e-9)
	assert.InDelta(t, 12*4.2*0.752, out.Estimates[0].EnergyKWh, 1e-9)
	assert.Equal(t, model.ImpactNormal, out.Estimates[0].Impact)
	for _, est := range out.Estimates[3:] {
		assert.Zero(t, est.EnergyKWh, "SE02 has no installed capacity")
	}

	require.Len(t, provider.fetches(), 4)

	ests, _ := pub.Published()
	assert.Len(t, ests, 6)

	recs, err := svc.History(ctx, journal.Query{Kind: journal.RunSimulation})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, out.RunID, recs[0].RunID)
	assert.Len(t, recs[0].Estimates, 6)
	assert.Empty(t, recs[0].Errors)

	// A second run reuses the cached historical windows; only the forecast
	// is fetched again.
	_, err = svc.Simulate(ctx, serviceInput(), now)
	require.NoError(t, err)
	calls := provider.fetches()
	require.Len(t, calls, 6)
	for _, req := range calls[4:] {
		assert.Equal(t, model.WindowForecast, req.Kind)
	}
}

func TestServiceSimulateForecastDegrades(t *testing.T) {
	provider := &fakeProvider{fail: map[model.WindowKind]bool{model.WindowForecast: true}}
	svc, _ := newTestService(t, provider)
	now := time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)

	out, err := svc.Simulate(context.Background(), serviceInput(), now)
	require.NoError(t, err)
	assert.Empty(t, out.Failures)
	// Historical days survive a missing forecast.
	assert.Len(t, out.Estimates, 4)
}

func TestServiceSimulateUpstreamDown(t *testing.T) {
	provider := &fakeProvider{fail: map[model.WindowKind]bool{
		model.WindowHistorical: true,
		model.WindowForecast:   true,
	}}
	svc, _ := newTestService(t, provider)
	now := time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)

	out, err := svc.Simulate(context.Background(), serviceInput(), now)
	require.NoError(t, err)
	assert.Empty(t, out.Estimates)
	require.Len(t, out.Failures, 2)
	assert.True(t, errors.Is(out.Failures["SE01"], model.ErrUpstreamUnavailable))
	assert.True(t, errors.Is(out.Failures["SE02"], model.ErrUpstreamUnavailable))

	recs, err := svc.History(context.Background(), journal.Query{Kind: journal.RunSimulation})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Len(t, recs[0].Errors, 2)
}

func TestSplitWindow(t *testing.T) {
	now := time.Date(2024, 7, 15, 10, 30, 0, 0, time.UTC)

	w := splitWindow(config.SimulationConfig{HistoryDays: 7, ForecastDays: 3}, now)
	assert.True(t, w.hasHist)
	assert.Equal(t, time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC), w.histStart)
	assert.Equal(t, time.Date(2024, 7, 14, 0, 0, 0, 0, time.UTC), w.histEnd)
	assert.True(t, w.hasFc)
	assert.Equal(t, time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC), w.fcStart)
	assert.Equal(t, time.Date(2024, 7, 17, 0, 0, 0, 0, time.UTC), w.fcEnd)

	w = splitWindow(config.SimulationConfig{ForecastDays: 3}, now)
	assert.False(t, w.hasHist)
	assert.True(t, w.hasFc)

	w = splitWindow(config.SimulationConfig{HistoryDays: 1}, now)
	assert.True(t, w.hasHist)
	assert.Equal(t, w.histStart, w.histEnd)
	assert.False(t, w.hasFc)
}

func TestOpenJournalBackends(t *testing.T) {
	dir := t.TempDir()

	s, err := OpenJournal(config.JournalConfig{Backend: "sqlite", Path: filepath.Join(dir, "runs.db")})
	require.NoError(t, err)
	assert.IsType(t, &journal.SQLiteStore{}, s)
	require.NoError(t, s.Close())

	s, err = OpenJournal(config.JournalConfig{Backend: "jsonl", Path: filepath.Join(dir, "runs.jsonl")})
	require.NoError(t, err)
	assert.IsType(t, &journal.JSONLStore{}, s)
	require.NoError(t, s.Close())

	s, err = OpenJournal(config.JournalConfig{Backend: "jsonl", Path: filepath.Join(dir, "rot.jsonl"), MaxSizeMB: 5})
	require.NoError(t, err)
	assert.IsType(t, &journal.RotatingJSONLStore{}, s)
	require.NoError(t, s.Close())
}

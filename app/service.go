// Package app assembles the engine components from configuration and runs
// the partition and simulation pipelines.
package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ctessum/geom"
	"github.com/google/uuid"

	"github.com/gridscope/gridscope/config"
	"github.com/gridscope/gridscope/core/events"
	"github.com/gridscope/gridscope/core/geo"
	"github.com/gridscope/gridscope/core/journal"
	"github.com/gridscope/gridscope/core/market"
	coremetrics "github.com/gridscope/gridscope/core/metrics"
	"github.com/gridscope/gridscope/core/model"
	"github.com/gridscope/gridscope/core/monitoring"
	"github.com/gridscope/gridscope/core/partition"
	"github.com/gridscope/gridscope/core/solar"
	coretelemetry "github.com/gridscope/gridscope/core/telemetry"
	"github.com/gridscope/gridscope/core/weather"
	"github.com/gridscope/gridscope/infra/geomops"
	"github.com/gridscope/gridscope/infra/logger"
	"github.com/gridscope/gridscope/infra/meteo"
	inframetrics "github.com/gridscope/gridscope/infra/metrics"
	infmonitoring "github.com/gridscope/gridscope/infra/monitoring"
	"github.com/gridscope/gridscope/infra/telemetry"
	"github.com/gridscope/gridscope/internal/eventbus"
)

// Service wires the partition engine, market assigner, weather client and
// solar simulator behind the two pipeline operations.
type Service struct {
	cfg       *config.Config
	log       logger.Logger
	norm      *geo.Normalizer
	engine    *partition.Engine
	assigner  *market.Assigner
	simulator *solar.Simulator
	provider  weather.Provider
	weather   *weather.Store
	sink      coremetrics.MetricsSink
	journal   journal.Store
	publisher coretelemetry.Publisher
	bus       eventbus.EventBus
}

// PartitionOutcome is the result of one partition operation: territories and
// profiles in ascending substation ID order plus every anomaly found.
type PartitionOutcome struct {
	RunID          string
	Territories    []model.Territory
	Profiles       []model.MarketProfile
	Anomalies      []model.Anomaly
	BoundaryAreaM2 float64
	Elapsed        time.Duration
}

// SimulationOutcome is the result of one simulation operation. Failures maps
// territory IDs to the error that excluded them; surviving territories are
// unaffected.
type SimulationOutcome struct {
	RunID     string
	Partition *PartitionOutcome
	Estimates []model.GenerationEstimate
	Failures  map[string]error
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	mon, err := infmonitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("monitoring: %w", err)
	}
	monitoring.Init(mon)

	norm, err := geo.NewNormalizer(cfg.Geometry.InputProjection, cfg.Geometry.WorkProjection)
	if err != nil {
		return nil, fmt.Errorf("normalizer: %w", err)
	}
	engine, err := partition.New(geomops.New(), cfg.Partition, logger.New("partition"))
	if err != nil {
		return nil, err
	}
	assigner, err := market.NewAssigner(cfg.Market, logger.New("market"))
	if err != nil {
		return nil, err
	}
	simulator, err := solar.New(cfg.Solar, logger.New("solar"))
	if err != nil {
		return nil, err
	}
	provider, err := meteo.New(cfg.Meteo, logger.New("meteo"))
	if err != nil {
		return nil, fmt.Errorf("weather client: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	store, err := OpenJournal(cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}

	var publisher coretelemetry.Publisher = coretelemetry.NopPublisher{}
	if cfg.Telemetry.Enabled {
		p, err := telemetry.NewPahoPublisher(cfg.Telemetry)
		if err != nil {
			return nil, fmt.Errorf("telemetry: %w", err)
		}
		publisher = p
	}

	return &Service{
		cfg:       cfg,
		log:       logg,
		norm:      norm,
		engine:    engine,
		assigner:  assigner,
		simulator: simulator,
		provider:  provider,
		weather:   weather.NewStore(),
		sink:      sink,
		journal:   store,
		publisher: publisher,
		bus:       eventbus.New(),
	}, nil
}

// OpenJournal builds the run journal store the configuration selects.
func OpenJournal(cfg config.JournalConfig) (journal.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return journal.NewSQLiteStore(cfg.Path)
	default:
		if cfg.MaxSizeMB > 0 {
			return journal.NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
		}
		return journal.NewJSONLStore(cfg.Path)
	}
}

// Start launches the metrics event collector and, when a prometheus sink is
// configured, the exposition server. Both stop with the context.
func (s *Service) Start(ctx context.Context) {
	inframetrics.StartEventCollector(ctx, s.bus, s.sink)
	for _, mc := range s.cfg.Metrics.Sinks {
		if mc.Type != "prometheus" {
			continue
		}
		addr, _ := mc.Conf["listen_addr"].(string)
		if addr == "" {
			addr = ":9090"
		}
		go func() {
			if err := inframetrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
}

// Close releases resources held by the service.
func (s *Service) Close() {
	s.publisher.Close()
	if err := s.journal.Close(); err != nil {
		s.log.Errorf("journal close: %v", err)
	}
	s.bus.Close()
	monitoring.Flush(2 * time.Second)
}

// History queries the run journal.
func (s *Service) History(ctx context.Context, q journal.Query) ([]journal.RunRecord, error) {
	return s.journal.Query(ctx, q)
}

// Normalizer exposes the CRS normalizer for exporters that need to project
// results back to geographic coordinates.
func (s *Service) Normalizer() *geo.Normalizer {
	return s.norm
}

// Run starts the observers and executes one simulation cycle per interval,
// beginning immediately, until the context is cancelled.
func (s *Service) Run(ctx context.Context, in *Input, interval time.Duration) error {
	s.Start(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.Simulate(ctx, in, time.Now()); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Errorf("simulation cycle: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Partition derives territories and market profiles from the input and
// journals the run.
func (s *Service) Partition(ctx context.Context, in *Input) (*PartitionOutcome, error) {
	out, err := s.partition(ctx, in)
	if err != nil {
		monitoring.CaptureException(err, map[string]string{"operation": "partition"})
		return nil, err
	}
	rec := journal.RunRecord{
		Timestamp:      time.Now().UTC(),
		RunID:          out.RunID,
		Kind:           journal.RunPartition,
		TerritoryCount: len(out.Territories),
		BoundaryAreaM2: out.BoundaryAreaM2,
		Anomalies:      anomalyEntries(out.Anomalies),
	}
	if err := s.journal.Append(ctx, rec); err != nil {
		s.log.Errorf("journal append: %v", err)
	}
	return out, nil
}

func (s *Service) partition(ctx context.Context, in *Input) (*PartitionOutcome, error) {
	start := time.Now()
	scene, err := geo.NewScene(in.Substations, in.Boundary, s.norm)
	if err != nil {
		return nil, err
	}
	records, err := s.projectRecords(in.Market)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.Partition(ctx, scene.Sites, scene.Boundary)
	if err != nil {
		return nil, err
	}
	anomalies := append([]model.Anomaly(nil), res.Anomalies...)

	var profiles []model.MarketProfile
	if len(records) > 0 {
		ares, err := s.assigner.Assign(ctx, res.Territories, records)
		if err != nil {
			return nil, err
		}
		profiles = ares.Profiles
		anomalies = append(anomalies, ares.Unassigned...)
		s.recordAssignments(profiles)
	}

	elapsed := time.Since(start)
	s.bus.Publish(events.PartitionCompleted{
		RunID:          res.RunID,
		Territories:    len(res.Territories),
		Anomalies:      anomalies,
		BoundaryAreaM2: res.BoundaryAreaM2,
		Elapsed:        elapsed,
	})
	for _, a := range anomalies {
		s.bus.Publish(events.AnomalyDetected{Anomaly: a})
		if err := s.publisher.PublishAnomaly(a); err != nil {
			s.log.Errorf("publish anomaly: %v", err)
		}
	}
	s.log.Infof("partition run %s: %d territories, %d anomalies in %s",
		res.RunID, len(res.Territories), len(anomalies), elapsed)

	return &PartitionOutcome{
		RunID:          res.RunID,
		Territories:    res.Territories,
		Profiles:       profiles,
		Anomalies:      anomalies,
		BoundaryAreaM2: res.BoundaryAreaM2,
		Elapsed:        elapsed,
	}, nil
}

func (s *Service) projectRecords(raw []MarketInput) ([]model.MarketRecord, error) {
	records := make([]model.MarketRecord, 0, len(raw))
	for _, m := range raw {
		pt, err := s.norm.ToPlane(geom.Point{X: m.Lon, Y: m.Lat})
		if err != nil {
			return nil, fmt.Errorf("market record %s: %w", m.ID, err)
		}
		records = append(records, model.MarketRecord{
			ID:          m.ID,
			Kind:        parseMarketKind(m.Kind),
			ClassCode:   m.Class,
			Point:       pt,
			AnnualKWh:   m.AnnualKWh,
			InstalledKW: m.InstalledKW,
		})
	}
	return records, nil
}

func (s *Service) recordAssignments(profiles []model.MarketProfile) {
	rec, ok := s.sink.(coremetrics.AssignmentRecorder)
	if !ok {
		return
	}
	now := time.Now()
	for _, p := range profiles {
		ev := coremetrics.AssignmentEvent{
			SubstationID: p.SubstationID,
			Customers:    p.Customers,
			AnnualMWh:    p.AnnualMWh,
			InstalledKW:  p.InstalledKW,
			Criticality:  p.Criticality,
			Time:         now,
		}
		if err := rec.RecordAssignment(ev); err != nil {
			s.log.Errorf("record assignment: %v", err)
		}
	}
}

// Simulate partitions the input, fetches each territory's weather window and
// produces daily generation estimates. A territory whose weather cannot be
// fetched fails alone; its siblings still simulate.
func (s *Service) Simulate(ctx context.Context, in *Input, now time.Time) (*SimulationOutcome, error) {
	p, err := s.partition(ctx, in)
	if err != nil {
		monitoring.CaptureException(err, map[string]string{"operation": "simulate"})
		return nil, err
	}

	w := splitWindow(s.cfg.Simulation, now)
	installed := make(map[string]float64, len(p.Profiles))
	for _, prof := range p.Profiles {
		installed[prof.SubstationID] = prof.InstalledKW
	}

	units, failures := s.fetchUnits(ctx, p.Territories, installed, w)
	batch := s.simulator.SimulateBatch(ctx, units)
	for id, uerr := range batch.Errors {
		failures[id] = uerr
	}

	for _, est := range batch.Estimates {
		s.bus.Publish(events.EstimateProduced{Estimate: est})
		if err := s.publisher.PublishEstimate(est); err != nil {
			s.log.Errorf("publish estimate: %v", err)
		}
	}

	runID := uuid.NewString()
	rec := journal.RunRecord{
		Timestamp:      time.Now().UTC(),
		RunID:          runID,
		Kind:           journal.RunSimulation,
		TerritoryCount: len(p.Territories),
		BoundaryAreaM2: p.BoundaryAreaM2,
		Anomalies:      anomalyEntries(p.Anomalies),
		Estimates:      estimateEntries(batch.Estimates),
		Errors:         errorStrings(failures),
	}
	if err := s.journal.Append(ctx, rec); err != nil {
		s.log.Errorf("journal append: %v", err)
	}
	s.log.Infof("simulation run %s: %d estimates, %d failed territories",
		runID, len(batch.Estimates), len(failures))

	return &SimulationOutcome{
		RunID:     runID,
		Partition: p,
		Estimates: batch.Estimates,
		Failures:  failures,
	}, nil
}

// fetchUnits resolves each territory's weather concurrently, bounded by the
// simulator worker count. Units come back sorted by territory ID so estimate
// order is deterministic.
func (s *Service) fetchUnits(ctx context.Context, territories []model.Territory, installed map[string]float64, w windowSpec) ([]solar.Unit, map[string]error) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		units    []solar.Unit
		failures = make(map[string]error)
	)
	sem := make(chan struct{}, s.cfg.Solar.Workers)
	for _, t := range territories {
		if t.Empty() {
			continue
		}
		wg.Add(1)
		go func(t model.Territory) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			series, err := s.territorySeries(ctx, t, w)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[t.SubstationID] = err
				return
			}
			units = append(units, solar.Unit{
				TerritoryID: t.SubstationID,
				InstalledKW: installed[t.SubstationID],
				Series:      series,
			})
		}(t)
	}
	wg.Wait()
	sort.Slice(units, func(i, j int) bool { return units[i].TerritoryID < units[j].TerritoryID })
	return units, failures
}

// territorySeries assembles the territory's window: cached or fetched
// historical days first, then the forecast. A missing forecast degrades to
// the historical part; a missing historical window fails the territory.
func (s *Service) territorySeries(ctx context.Context, t model.Territory, w windowSpec) (model.WeatherSeries, error) {
	c, err := s.norm.ToGeographic(t.Centroid)
	if err != nil {
		return model.WeatherSeries{}, fmt.Errorf("territory %s: %w", t.SubstationID, err)
	}
	merged := model.WeatherSeries{
		TerritoryID: t.SubstationID,
		Kind:        model.WindowHistorical,
		Lon:         c.X,
		Lat:         c.Y,
	}
	if w.hasHist {
		series, ok := s.weather.Historical(t.SubstationID, w.histStart, w.histEnd)
		if !ok {
			series, err = s.fetch(ctx, weather.Request{
				TerritoryID: t.SubstationID,
				Lon:         c.X,
				Lat:         c.Y,
				Start:       w.histStart,
				End:         w.histEnd,
				Kind:        model.WindowHistorical,
			})
			if err != nil {
				return model.WeatherSeries{}, err
			}
			series = s.weather.Put(series)
		}
		merged.Samples = append(merged.Samples, series.Samples...)
	}
	if w.hasFc {
		series, err := s.fetch(ctx, weather.Request{
			TerritoryID: t.SubstationID,
			Lon:         c.X,
			Lat:         c.Y,
			Start:       w.fcStart,
			End:         w.fcEnd,
			Kind:        model.WindowForecast,
		})
		switch {
		case err != nil && w.hasHist:
			s.log.Warnf("territory %s: forecast unavailable, continuing with historical window: %v", t.SubstationID, err)
		case err != nil:
			return model.WeatherSeries{}, err
		default:
			series = s.weather.Put(series)
			merged.Samples = append(merged.Samples, series.Samples...)
		}
	}
	return merged, nil
}

func (s *Service) fetch(ctx context.Context, req weather.Request) (model.WeatherSeries, error) {
	start := time.Now()
	series, err := s.provider.Fetch(ctx, req)
	ev := events.FetchCompleted{
		TerritoryID: req.TerritoryID,
		Kind:        req.Kind,
		Latency:     time.Since(start),
		Err:         err,
	}
	if err == nil {
		ev.Days = len(series.Samples)
		ev.Gaps = len(series.Gaps())
	}
	s.bus.Publish(ev)
	return series, err
}

// windowSpec is the concrete fetch window of one simulation run.
type windowSpec struct {
	histStart, histEnd time.Time
	fcStart, fcEnd     time.Time
	hasHist, hasFc     bool
}

// splitWindow turns the configured relative window into absolute daily
// bounds: history ends yesterday, forecast starts today.
func splitWindow(cfg config.SimulationConfig, now time.Time) windowSpec {
	today := now.UTC().Truncate(24 * time.Hour)
	var w windowSpec
	if cfg.HistoryDays > 0 {
		w.hasHist = true
		w.histEnd = today.AddDate(0, 0, -1)
		w.histStart = today.AddDate(0, 0, -cfg.HistoryDays)
	}
	if cfg.ForecastDays > 0 {
		w.hasFc = true
		w.fcStart = today
		w.fcEnd = today.AddDate(0, 0, cfg.ForecastDays-1)
	}
	return w
}

func anomalyEntries(anomalies []model.Anomaly) []journal.AnomalyEntry {
	if len(anomalies) == 0 {
		return nil
	}
	entries := make([]journal.AnomalyEntry, len(anomalies))
	for i, a := range anomalies {
		entries[i] = journal.AnomalyEntry{Kind: a.Kind.String(), Subject: a.Subject, Detail: a.Detail}
	}
	return entries
}

func estimateEntries(estimates []model.GenerationEstimate) []journal.EstimateEntry {
	if len(estimates) == 0 {
		return nil
	}
	entries := make([]journal.EstimateEntry, len(estimates))
	for i, e := range estimates {
		entries[i] = journal.EstimateEntry{
			SubstationID: e.SubstationID,
			Time:         e.Time,
			EnergyKWh:    e.EnergyKWh,
			Ratio:        e.Ratio,
			Impact:       e.Impact.String(),
			FromGap:      e.FromGap,
		}
	}
	return entries
}

func errorStrings(failures map[string]error) map[string]string {
	if len(failures) == 0 {
		return nil
	}
	out := make(map[string]string, len(failures))
	for id, err := range failures {
		out[id] = err.Error()
	}
	return out
}

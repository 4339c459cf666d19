package metrics

import (
	"time"

	"github.com/gridscope/gridscope/core/model"
)

// GenerationEvent represents one estimated generation sample to be recorded.
type GenerationEvent struct {
	SubstationID string
	Time         time.Time
	EnergyKWh    float64
	Ratio        float64
	Impact       model.ImpactLevel
	FromGap      bool
}

// MetricsSink records generation estimates for observability purposes.
type MetricsSink interface {
	RecordGeneration(estimates []GenerationEvent) error
}

// PartitionEvent captures the outcome of one partition run.
type PartitionEvent struct {
	RunID          string
	Territories    int
	EmptyCells     int
	Anomalies      int
	BoundaryAreaM2 float64
	Elapsed        time.Duration
	Time           time.Time
}

// PartitionRecorder records partition run outcomes.
type PartitionRecorder interface {
	RecordPartition(ev PartitionEvent) error
}

// AnomalyEvent describes a single detected anomaly.
type AnomalyEvent struct {
	Kind    model.AnomalyKind
	Subject string
	Detail  string
	Time    time.Time
}

// AnomalyRecorder records detected anomalies.
type AnomalyRecorder interface {
	RecordAnomaly(ev AnomalyEvent) error
}

// AssignmentEvent summarizes the market profile built for one territory.
type AssignmentEvent struct {
	SubstationID string
	Customers    int
	AnnualMWh    float64
	InstalledKW  float64
	Criticality  model.Criticality
	Time         time.Time
}

// AssignmentRecorder records market assignment summaries.
type AssignmentRecorder interface {
	RecordAssignment(ev AssignmentEvent) error
}

// WeatherFetchEvent captures one upstream weather request.
type WeatherFetchEvent struct {
	TerritoryID string
	Kind        model.WindowKind
	Days        int
	Gaps        int
	Latency     time.Duration
	Error       string
	Time        time.Time
}

// WeatherFetchRecorder records weather fetch outcomes.
type WeatherFetchRecorder interface {
	RecordWeatherFetch(ev WeatherFetchEvent) error
}

// NopSink implements MetricsSink and every optional recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordGeneration([]GenerationEvent) error { return nil }

func (NopSink) RecordPartition(PartitionEvent) error { return nil }

func (NopSink) RecordAnomaly(AnomalyEvent) error { return nil }

func (NopSink) RecordAssignment(AssignmentEvent) error { return nil }

func (NopSink) RecordWeatherFetch(WeatherFetchEvent) error { return nil }

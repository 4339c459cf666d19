// Package journal persists pipeline run records for audit and replay. Three
// backends are provided: plain JSONL, JSONL with size-based rotation, and
// SQLite.
package journal

import (
	"context"
	"time"
)

// RunKind distinguishes the pipeline stage a record belongs to.
type RunKind string

const (
	RunPartition  RunKind = "partition"
	RunSimulation RunKind = "simulation"
)

// AnomalyEntry is the journaled form of a detected anomaly.
type AnomalyEntry struct {
	Kind    string `json:"kind"`
	Subject string `json:"subject"`
	Detail  string `json:"detail,omitempty"`
}

// EstimateEntry is the journaled form of a generation estimate.
type EstimateEntry struct {
	SubstationID string    `json:"substation_id"`
	Time         time.Time `json:"time"`
	EnergyKWh    float64   `json:"energy_kwh"`
	Ratio        float64   `json:"ratio"`
	Impact       string    `json:"impact"`
	FromGap      bool      `json:"from_gap,omitempty"`
}

// RunRecord captures one pipeline run and its outputs.
type RunRecord struct {
	Timestamp      time.Time         `json:"timestamp"`
	RunID          string            `json:"run_id"`
	Kind           RunKind           `json:"kind"`
	TerritoryCount int               `json:"territory_count,omitempty"`
	BoundaryAreaM2 float64           `json:"boundary_area_m2,omitempty"`
	Anomalies      []AnomalyEntry    `json:"anomalies,omitempty"`
	Estimates      []EstimateEntry   `json:"estimates,omitempty"`
	Errors         map[string]string `json:"errors,omitempty"`
}

// Query defines filters for retrieving records.
type Query struct {
	Start        time.Time
	End          time.Time
	RunID        string
	Kind         RunKind
	SubstationID string
}

// Store persists RunRecords and supports querying.
type Store interface {
	Append(ctx context.Context, rec RunRecord) error
	Query(ctx context.Context, q Query) ([]RunRecord, error)
	Close() error
}

// matches reports whether rec satisfies every filter set on q.
func matches(rec RunRecord, q Query) bool {
	if !q.Start.IsZero() && rec.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && rec.Timestamp.After(q.End) {
		return false
	}
	if q.RunID != "" && rec.RunID != q.RunID {
		return false
	}
	if q.Kind != "" && rec.Kind != q.Kind {
		return false
	}
	if q.SubstationID != "" && !touchesSubstation(rec, q.SubstationID) {
		return false
	}
	return true
}

func touchesSubstation(rec RunRecord, id string) bool {
	for _, e := range rec.Estimates {
		if e.SubstationID == id {
			return true
		}
	}
	for _, a := range rec.Anomalies {
		if a.Subject == id {
			return true
		}
	}
	return false
}

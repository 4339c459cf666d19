package events

import (
	"time"

	"github.com/gridscope/gridscope/core/model"
)

// PartitionCompleted is published when a partition run finishes.
type PartitionCompleted struct {
	RunID          string
	Territories    int
	Anomalies      []model.Anomaly
	BoundaryAreaM2 float64
	Elapsed        time.Duration
}

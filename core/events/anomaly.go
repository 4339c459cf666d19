package events

import "github.com/gridscope/gridscope/core/model"

// AnomalyDetected is published for each anomaly found during partitioning or
// market assignment.
type AnomalyDetected struct {
	Anomaly model.Anomaly
}

// Package events defines the pipeline events emitted on the event bus.
//
// Available event types:
//   - PartitionCompleted: a partition run finished
//   - AnomalyDetected: a territory or assignment anomaly was found
//   - EstimateProduced: a generation estimate was computed
//   - FetchCompleted: an upstream weather request returned
package events

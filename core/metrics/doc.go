// Package metrics defines interfaces and implementations for collecting
// monitoring events. Sinks record generation estimates, partition run
// outcomes, anomalies and upstream fetch results, and can be combined with
// NewMultiSink. The factory helpers return a MultiSink automatically when
// multiple sinks are configured.
package metrics

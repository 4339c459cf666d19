// Package telemetry defines the outbound publishing interface for pipeline
// results. Implementations push generation estimates and anomalies to
// downstream consumers such as SCADA bridges or dashboards.
package telemetry

import "github.com/gridscope/gridscope/core/model"

// Publisher pushes pipeline results to external consumers.
type Publisher interface {
	// PublishEstimate sends one generation estimate.
	PublishEstimate(est model.GenerationEstimate) error

	// PublishAnomaly sends one detected anomaly.
	PublishAnomaly(a model.Anomaly) error

	// Close releases the underlying connection.
	Close()
}

// NopPublisher discards everything. It is used when telemetry is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishEstimate(model.GenerationEstimate) error { return nil }

func (NopPublisher) PublishAnomaly(model.Anomaly) error { return nil }

func (NopPublisher) Close() {}

package metrics

import (
	"context"
	"time"

	"github.com/gridscope/gridscope/core/events"
	coremetrics "github.com/gridscope/gridscope/core/metrics"
	"github.com/gridscope/gridscope/core/model"
	"github.com/gridscope/gridscope/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for events.
// It stops when the context is canceled.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.EstimateProduced:
					est := e.Estimate
					_ = sink.RecordGeneration([]coremetrics.GenerationEvent{{
						SubstationID: est.SubstationID,
						Time:         est.Time,
						EnergyKWh:    est.EnergyKWh,
						Ratio:        est.Ratio,
						Impact:       est.Impact,
						FromGap:      est.FromGap,
					}})
				case events.PartitionCompleted:
					if r, ok := sink.(coremetrics.PartitionRecorder); ok {
						empty := 0
						for _, a := range e.Anomalies {
							if a.Kind == model.AnomalyEmptyCell {
								empty++
							}
						}
						_ = r.RecordPartition(coremetrics.PartitionEvent{
							RunID:          e.RunID,
							Territories:    e.Territories,
							EmptyCells:     empty,
							Anomalies:      len(e.Anomalies),
							BoundaryAreaM2: e.BoundaryAreaM2,
							Elapsed:        e.Elapsed,
							Time:           time.Now(),
						})
					}
				case events.AnomalyDetected:
					if r, ok := sink.(coremetrics.AnomalyRecorder); ok {
						_ = r.RecordAnomaly(coremetrics.AnomalyEvent{
							Kind:    e.Anomaly.Kind,
							Subject: e.Anomaly.Subject,
							Detail:  e.Anomaly.Detail,
							Time:    time.Now(),
						})
					}
				case events.FetchCompleted:
					if r, ok := sink.(coremetrics.WeatherFetchRecorder); ok {
						errStr := ""
						if e.Err != nil {
							errStr = e.Err.Error()
						}
						_ = r.RecordWeatherFetch(coremetrics.WeatherFetchEvent{
							TerritoryID: e.TerritoryID,
							Kind:        e.Kind,
							Days:        e.Days,
							Gaps:        e.Gaps,
							Latency:     e.Latency,
							Error:       errStr,
							Time:        time.Now(),
						})
					}
				}
			}
		}
	}()
}

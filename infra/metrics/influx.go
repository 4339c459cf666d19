package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/gridscope/gridscope/core/metrics"
	"github.com/gridscope/gridscope/infra/logger"
)

// InfluxSink writes pipeline events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordGeneration writes the generation estimates as line protocol events.
func (s *InfluxSink) RecordGeneration(estimates []coremetrics.GenerationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, ev := range estimates {
		p := write.NewPointWithMeasurement("generation_estimate").
			AddTag("substation_id", ev.SubstationID).
			AddTag("impact", ev.Impact.String()).
			AddTag("from_gap", strconv.FormatBool(ev.FromGap)).
			AddTag("component", "solar_simulator").
			AddField("energy_kwh", round3(ev.EnergyKWh)).
			AddField("ratio", round3(ev.Ratio)).
			SetTime(ev.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordPartition persists the outcome of a partition run.
func (s *InfluxSink) RecordPartition(ev coremetrics.PartitionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("partition_run").
		AddTag("run_id", ev.RunID).
		AddTag("component", "partition_engine").
		AddField("territories", ev.Territories).
		AddField("empty_cells", ev.EmptyCells).
		AddField("anomalies", ev.Anomalies).
		AddField("boundary_area_m2", round3(ev.BoundaryAreaM2)).
		AddField("elapsed_ms", round3(ev.Elapsed.Seconds()*1000)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordAnomaly writes a detected anomaly.
func (s *InfluxSink) RecordAnomaly(ev coremetrics.AnomalyEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("territory_anomaly").
		AddTag("kind", ev.Kind.String()).
		AddTag("subject", ev.Subject).
		AddField("detail", ev.Detail).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordAssignment writes the market profile summary for a territory.
func (s *InfluxSink) RecordAssignment(ev coremetrics.AssignmentEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("market_profile").
		AddTag("substation_id", ev.SubstationID).
		AddTag("criticality", ev.Criticality.String()).
		AddTag("component", "market_assigner").
		AddField("customers", ev.Customers).
		AddField("annual_mwh", round3(ev.AnnualMWh)).
		AddField("installed_kw", round3(ev.InstalledKW)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordWeatherFetch writes the outcome of an upstream weather request.
func (s *InfluxSink) RecordWeatherFetch(ev coremetrics.WeatherFetchEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("weather_fetch").
		AddTag("territory_id", ev.TerritoryID).
		AddTag("kind", ev.Kind.String()).
		AddTag("component", "meteo_client").
		AddField("days", ev.Days).
		AddField("gaps", ev.Gaps).
		AddField("latency_ms", round3(ev.Latency.Seconds()*1000)).
		AddField("errors", ev.Error).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

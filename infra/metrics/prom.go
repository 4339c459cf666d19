package metrics

import (
	"strconv"

	coremetrics "github.com/gridscope/gridscope/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records pipeline events in Prometheus metrics.
type PromSink struct {
	estimates   *prometheus.CounterVec
	energy      *prometheus.CounterVec
	territories prometheus.Gauge
	anomalies   *prometheus.CounterVec
	fetches     *prometheus.HistogramVec
}

// NewPromSink registers pipeline metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using StartPromServer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	estimates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "generation_estimates_total",
		Help: "Total number of generation estimates produced",
	}, []string{"substation_id", "impact", "from_gap"})
	energy := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "generation_energy_kwh_total",
		Help: "Total estimated generation energy per substation territory",
	}, []string{"substation_id"})
	territories := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "partition_territories",
		Help: "Number of territories produced by the last partition run",
	})
	anomalies := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "territory_anomalies_total",
		Help: "Total number of anomalies detected",
	}, []string{"kind"})
	fetches := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "weather_fetch_duration_seconds",
		Help:    "Latency of upstream weather requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind", "failed"})

	if err := reg.Register(estimates); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			estimates = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(energy); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			energy = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(territories); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			territories = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(anomalies); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			anomalies = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(fetches); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			fetches = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		estimates:   estimates,
		energy:      energy,
		territories: territories,
		anomalies:   anomalies,
		fetches:     fetches,
	}, nil
}

// RecordGeneration increments the estimate counters.
func (s *PromSink) RecordGeneration(estimates []coremetrics.GenerationEvent) error {
	for _, ev := range estimates {
		s.estimates.WithLabelValues(ev.SubstationID, ev.Impact.String(), strconv.FormatBool(ev.FromGap)).Inc()
		s.energy.WithLabelValues(ev.SubstationID).Add(ev.EnergyKWh)
	}
	return nil
}

// RecordPartition sets the territory gauge for the run.
func (s *PromSink) RecordPartition(ev coremetrics.PartitionEvent) error {
	s.territories.Set(float64(ev.Territories))
	return nil
}

// RecordAnomaly increments the anomaly counter by kind.
func (s *PromSink) RecordAnomaly(ev coremetrics.AnomalyEvent) error {
	s.anomalies.WithLabelValues(ev.Kind.String()).Inc()
	return nil
}

// RecordWeatherFetch observes the fetch latency histogram.
func (s *PromSink) RecordWeatherFetch(ev coremetrics.WeatherFetchEvent) error {
	s.fetches.WithLabelValues(ev.Kind.String(), strconv.FormatBool(ev.Error != "")).Observe(ev.Latency.Seconds())
	return nil
}

package metrics

import (
	"time"

	core "github.com/gridscope/gridscope/core/metrics"
	eco "github.com/gridscope/gridscope/core/metrics/eco"
	"github.com/prometheus/client_golang/prometheus"
)

// EcoSink records generation estimates as ecological KPIs.
type EcoSink struct {
	store     eco.Store
	factor    float64
	generated *prometheus.GaugeVec
	ratio     *prometheus.GaugeVec
	co2       *prometheus.GaugeVec
}

// NewEcoSink creates a sink with Prometheus gauges registered on reg.
func NewEcoSink(store eco.Store, factor float64, reg prometheus.Registerer) *EcoSink {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gen := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "territory_generated_energy_kwh",
		Help: "Daily estimated generation per substation territory",
	}, []string{"substation_id", "day"})
	ratio := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "territory_self_supply_ratio",
		Help: "Daily ratio of generated to consumed energy",
	}, []string{"substation_id", "day"})
	co2 := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "territory_co2_avoided_grams",
		Help: "Daily CO2 avoided per substation territory",
	}, []string{"substation_id", "day"})
	reg.MustRegister(gen, ratio, co2)
	return &EcoSink{store: store, factor: factor, generated: gen, ratio: ratio, co2: co2}
}

// RecordGeneration processes generation estimates to update KPIs.
func (s *EcoSink) RecordGeneration(estimates []core.GenerationEvent) error {
	for _, ev := range estimates {
		rec := eco.Record{SubstationID: ev.SubstationID, Date: ev.Time, GeneratedKWh: ev.EnergyKWh}
		if err := s.store.Add(rec); err != nil {
			return err
		}
		s.refresh(ev.SubstationID, rec.Date)
	}
	return nil
}

// RecordAssignment feeds the daily consumption estimate derived from the
// territory's annual consumption.
func (s *EcoSink) RecordAssignment(ev core.AssignmentEvent) error {
	rec := eco.Record{
		SubstationID: ev.SubstationID,
		Date:         ev.Time,
		ConsumedKWh:  ev.AnnualMWh * 1000 / 365,
	}
	if err := s.store.Add(rec); err != nil {
		return err
	}
	s.refresh(ev.SubstationID, rec.Date)
	return nil
}

func (s *EcoSink) refresh(substationID string, date time.Time) {
	records, _ := s.store.Query(substationID, date, date)
	if len(records) == 0 {
		return
	}
	r := records[0]
	dayStr := eco.Day(date).Format("2006-01-02")
	s.generated.WithLabelValues(substationID, dayStr).Set(r.GeneratedKWh)
	s.ratio.WithLabelValues(substationID, dayStr).Set(r.SelfSupplyRatio())
	s.co2.WithLabelValues(substationID, dayStr).Set(r.CO2Avoided(s.factor))
}

package eco

import "time"

// Record aggregates ecological metrics for a substation territory and day.
type Record struct {
	SubstationID string
	Date         time.Time
	GeneratedKWh float64
	ConsumedKWh  float64
}

// CO2Avoided returns the grams of CO2 avoided using the emission factor.
func (r Record) CO2Avoided(factor float64) float64 {
	return r.GeneratedKWh * factor
}

// SelfSupplyRatio returns the ratio of generated to consumed energy.
func (r Record) SelfSupplyRatio() float64 {
	if r.ConsumedKWh == 0 {
		if r.GeneratedKWh == 0 {
			return 0
		}
		return r.GeneratedKWh
	}
	return r.GeneratedKWh / r.ConsumedKWh
}

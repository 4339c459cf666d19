package solar

import (
	"context"
	"fmt"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/gridscope/gridscope/core/logger"
	"github.com/gridscope/gridscope/core/model"
	infralogger "github.com/gridscope/gridscope/infra/logger"
)

// Unit is one simulation input: a territory's installed capacity plus its
// weather window.
type Unit struct {
	TerritoryID string
	InstalledKW float64
	Series      model.WeatherSeries
}

// BatchResult collects per-territory outcomes. Estimates concatenate in unit
// input order; failed units appear in Errors and never abort their siblings.
type BatchResult struct {
	Estimates []model.GenerationEstimate
	Errors    map[string]error
}

// Simulator converts weather series into generation estimates.
type Simulator struct {
	cfg Config
	log logger.Logger
}

// New builds a Simulator. The panel model must be fully specified.
func New(cfg Config, log logger.Logger) (*Simulator, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("solar: %w", err)
	}
	if log == nil {
		log = infralogger.NopLogger{}
	}
	return &Simulator{cfg: cfg, log: log}, nil
}

// Simulate produces one estimate per sample of the unit's series. Gap steps
// copy the nearest valid sample's weather and are marked FromGap; when both
// neighbors are equally close the earlier one wins. A window that is all
// gaps fails with a CoverageError; a series with invalid non-gap values
// fails validation before any estimate is produced.
func (s *Simulator) Simulate(unit Unit) ([]model.GenerationEstimate, error) {
	const op = "solar.simulate"
	if unit.TerritoryID == "" {
		return nil, model.NewInputValidationError(op, fmt.Errorf("territory id is empty"))
	}
	if unit.InstalledKW < 0 {
		return nil, model.NewInputValidationError(op, fmt.Errorf("territory %s: negative installed capacity", unit.TerritoryID))
	}
	if len(unit.Series.Samples) == 0 {
		return nil, model.NewInputValidationError(op, fmt.Errorf("territory %s: empty weather series", unit.TerritoryID))
	}
	if err := unit.Series.Validate(); err != nil {
		return nil, model.NewInputValidationError(op, err)
	}
	samples := unit.Series.Samples
	if len(unit.Series.Gaps()) == len(samples) {
		return nil, &model.CoverageError{TerritoryID: unit.TerritoryID}
	}

	estimates := make([]model.GenerationEstimate, 0, len(samples))
	for i, smp := range samples {
		eff := smp
		fromGap := false
		if smp.Gap {
			eff = samples[nearestValid(samples, i)]
			fromGap = true
		}
		ratio := s.cfg.Panel.Derate(eff.TemperatureC, eff.CloudCoverPct)
		energy := unit.InstalledKW * eff.IrradianceKWhM2 * ratio
		if energy < 0 {
			energy = 0
		}
		estimates = append(estimates, model.GenerationEstimate{
			SubstationID: unit.TerritoryID,
			Time:         smp.Time,
			EnergyKWh:    energy,
			Ratio:        ratio,
			Impact:       s.cfg.Thresholds.Classify(eff.IrradianceKWhM2, eff.TemperatureC),
			FromGap:      fromGap,
		})
	}
	return estimates, nil
}

// SimulateBatch fans units out over a bounded worker pool. Results are
// written into per-unit slots, so the concatenation order is the input order
// no matter how the workers interleave.
func (s *Simulator) SimulateBatch(ctx context.Context, units []Unit) *BatchResult {
	out := make([][]model.GenerationEstimate, len(units))
	errs := make([]error, len(units))

	workers := s.cfg.Workers
	if workers > len(units) {
		workers = len(units)
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					errs[idx] = err
					continue
				}
				out[idx], errs[idx] = s.Simulate(units[idx])
			}
		}()
	}
	for i := range units {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	res := &BatchResult{Errors: make(map[string]error)}
	for i, u := range units {
		if errs[i] != nil {
			res.Errors[u.TerritoryID] = errs[i]
			continue
		}
		res.Estimates = append(res.Estimates, out[i]...)
	}
	if len(res.Errors) > 0 {
		s.log.Warnf("solar: %d of %d territories failed simulation", len(res.Errors), len(units))
	}
	return res
}

// TotalEnergyKWh sums the energy of a set of estimates.
func TotalEnergyKWh(estimates []model.GenerationEstimate) float64 {
	values := make([]float64, len(estimates))
	for i, e := range estimates {
		values[i] = e.EnergyKWh
	}
	return floats.Sum(values)
}

// nearestValid returns the index of the closest non-gap sample to i,
// preferring the earlier side on ties. Callers guarantee at least one
// non-gap sample exists.
func nearestValid(samples []model.WeatherSample, i int) int {
	for d := 1; ; d++ {
		if j := i - d; j >= 0 && !samples[j].Gap {
			return j
		}
		if j := i + d; j < len(samples) && !samples[j].Gap {
			return j
		}
	}
}

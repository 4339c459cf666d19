// Package market joins georeferenced consumer and distributed-generation
// records onto territories and aggregates them into per-territory market
// profiles.
package market

import (
	"context"
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/gridscope/gridscope/core/logger"
	"github.com/gridscope/gridscope/core/model"
	infralogger "github.com/gridscope/gridscope/infra/logger"
)

// Result carries the aggregated profiles, ordered like the input
// territories, plus one anomaly per record that no territory contains.
type Result struct {
	Profiles   []model.MarketProfile
	Unassigned []model.Anomaly
}

// Assigner resolves record-territory containment through an R-tree index.
type Assigner struct {
	cfg Config
	log logger.Logger
}

// NewAssigner builds an Assigner.
func NewAssigner(cfg Config, log logger.Logger) (*Assigner, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("market: %w", err)
	}
	if log == nil {
		log = infralogger.NopLogger{}
	}
	return &Assigner{cfg: cfg, log: log}, nil
}

type territoryEntry struct {
	geom.Polygonal
	idx int
}

// Assign joins records onto territories and aggregates profiles. A record
// exactly on a shared edge goes to the territory with the lexicographically
// smaller substation ID; records outside every territory are reported as
// unassigned anomalies, never dropped silently.
func (a *Assigner) Assign(ctx context.Context, territories []model.Territory, records []model.MarketRecord) (*Result, error) {
	const op = "market.assign"
	if len(territories) == 0 {
		return nil, model.NewInputValidationError(op, fmt.Errorf("no territories"))
	}
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return nil, model.NewInputValidationError(op, err)
		}
	}

	index := rtree.NewTree(25, 50)
	for i, t := range territories {
		if t.Empty() {
			continue
		}
		index.Insert(territoryEntry{Polygonal: t.Geometry, idx: i})
	}

	agg := make([]*accumulator, len(territories))
	for i := range agg {
		agg[i] = newAccumulator()
	}

	res := &Result{}
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("market: %w", err)
		}
		idx, ok := a.locate(index, territories, r.Point)
		if !ok {
			res.Unassigned = append(res.Unassigned, model.Anomaly{
				Kind:    model.AnomalyUnassignedRecord,
				Subject: r.ID,
				Detail:  "record falls outside every territory",
			})
			continue
		}
		agg[idx].add(a.classFor(r.ClassCode), r)
	}

	res.Profiles = make([]model.MarketProfile, len(territories))
	for i, t := range territories {
		res.Profiles[i] = agg[i].profile(t.SubstationID, a.cfg)
	}
	a.log.Infof("market: assigned %d records to %d territories, %d unassigned",
		len(records)-len(res.Unassigned), len(territories), len(res.Unassigned))
	return res, nil
}

// locate returns the index of the territory containing p. When several
// territories touch p (shared edges), the lexicographically smallest
// substation ID wins, independent of index iteration order.
func (a *Assigner) locate(index *rtree.Rtree, territories []model.Territory, p geom.Point) (int, bool) {
	best := -1
	for _, raw := range index.SearchIntersect(p.Bounds()) {
		entry := raw.(territoryEntry)
		if p.Within(entry.Polygonal) == geom.Outside {
			continue
		}
		if best < 0 || territories[entry.idx].SubstationID < territories[best].SubstationID {
			best = entry.idx
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

func (a *Assigner) classFor(code string) model.MarketClass {
	switch a.cfg.ClassMap[code] {
	case "residential":
		return model.ClassResidential
	case "commercial":
		return model.ClassCommercial
	case "industrial":
		return model.ClassIndustrial
	case "rural":
		return model.ClassRural
	case "public":
		return model.ClassPublic
	default:
		return model.ClassOther
	}
}

// accumulator gathers raw values for one territory until profile build.
type accumulator struct {
	consumptionKWh []float64
	capacityKW     []float64
	customers      int
	dgUnits        int

	classCustomers map[model.MarketClass]int
	classKWh       map[model.MarketClass][]float64
}

func newAccumulator() *accumulator {
	return &accumulator{
		classCustomers: make(map[model.MarketClass]int),
		classKWh:       make(map[model.MarketClass][]float64),
	}
}

func (ac *accumulator) add(class model.MarketClass, r model.MarketRecord) {
	switch r.Kind {
	case model.RecordGeneration:
		ac.dgUnits++
		ac.capacityKW = append(ac.capacityKW, r.InstalledKW)
	default:
		ac.customers++
		ac.consumptionKWh = append(ac.consumptionKWh, r.AnnualKWh)
		ac.classCustomers[class]++
		ac.classKWh[class] = append(ac.classKWh[class], r.AnnualKWh)
	}
}

func (ac *accumulator) profile(substationID string, cfg Config) model.MarketProfile {
	p := model.MarketProfile{
		SubstationID: substationID,
		Customers:    ac.customers,
		DGUnits:      ac.dgUnits,
		Classes:      make(map[model.MarketClass]model.ClassProfile, len(ac.classCustomers)),
	}
	p.AnnualMWh = aggregate(cfg.ConsumptionRule, ac.consumptionKWh) / 1000
	p.InstalledKW = aggregate(cfg.CapacityRule, ac.capacityKW)
	for class, n := range ac.classCustomers {
		share := 0.0
		if ac.customers > 0 {
			share = float64(n) / float64(ac.customers)
		}
		p.Classes[class] = model.ClassProfile{
			Customers: n,
			AnnualMWh: floats.Sum(ac.classKWh[class]) / 1000,
			Share:     share,
		}
	}
	p.Criticality = criticalityFor(p.InstalledKW, cfg)
	return p
}

func aggregate(rule string, values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if rule == RuleMean {
		return stat.Mean(values, nil)
	}
	return floats.Sum(values)
}

func criticalityFor(installedKW float64, cfg Config) model.Criticality {
	switch {
	case installedKW > cfg.CriticalityHighKW:
		return model.CriticalityHigh
	case installedKW > cfg.CriticalityMediumKW:
		return model.CriticalityMedium
	default:
		return model.CriticalityLow
	}
}

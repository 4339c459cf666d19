package scenarios

import (
	"os"

	"github.com/ctessum/geom"
	"gopkg.in/yaml.v3"

	"github.com/gridscope/gridscope/core/geo"
	"github.com/gridscope/gridscope/core/model"
)

// SiteDef places one substation in the working plane.
type SiteDef struct {
	ID string  `yaml:"id"`
	X  float64 `yaml:"x"`
	Y  float64 `yaml:"y"`
}

func (s SiteDef) ToSite() geo.Site {
	return geo.Site{ID: s.ID, Point: geom.Point{X: s.X, Y: s.Y}}
}

// RecordDef places one market record in the working plane.
type RecordDef struct {
	ID          string  `yaml:"id"`
	Kind        string  `yaml:"kind"`
	Class       string  `yaml:"class,omitempty"`
	X           float64 `yaml:"x"`
	Y           float64 `yaml:"y"`
	AnnualKWh   float64 `yaml:"annual_kwh,omitempty"`
	InstalledKW float64 `yaml:"installed_kw,omitempty"`
}

func (r RecordDef) ToModel() model.MarketRecord {
	return model.MarketRecord{
		ID:          r.ID,
		Kind:        parseRecordKind(r.Kind),
		ClassCode:   r.Class,
		Point:       geom.Point{X: r.X, Y: r.Y},
		AnnualKWh:   r.AnnualKWh,
		InstalledKW: r.InstalledKW,
	}
}

// BoundaryDef is a single-ring boundary polygon.
type BoundaryDef struct {
	Name string       `yaml:"name"`
	Ring [][2]float64 `yaml:"ring"`
}

func (b BoundaryDef) ToModel() model.Boundary {
	ring := make([]geom.Point, len(b.Ring))
	for i, v := range b.Ring {
		ring[i] = geom.Point{X: v[0], Y: v[1]}
	}
	return model.Boundary{Name: b.Name, Geometry: geom.Polygon{ring}}
}

// Expected states the assertions of one scenario.
type Expected struct {
	Territories int                `yaml:"territories"` // non-empty territories
	Anomalies   int                `yaml:"anomalies"`
	Unassigned  int                `yaml:"unassigned"`
	Customers   map[string]int     `yaml:"customers,omitempty"`
	InstalledKW map[string]float64 `yaml:"installed_kw,omitempty"`
}

type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Boundary    BoundaryDef `yaml:"boundary"`
	Sites       []SiteDef   `yaml:"sites"`
	Records     []RecordDef `yaml:"records,omitempty"`
	Expected    Expected    `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func parseRecordKind(t string) model.MarketRecordKind {
	if t == "generation" {
		return model.RecordGeneration
	}
	return model.RecordConsumer
}

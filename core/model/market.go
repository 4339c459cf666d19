package model

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

// MarketClass groups consumer units by tariff class.
type MarketClass int

const (
	ClassResidential MarketClass = iota
	ClassCommercial
	ClassIndustrial
	ClassRural
	ClassPublic
	ClassOther
)

// String returns the class label used in profiles and exports.
func (c MarketClass) String() string {
	switch c {
	case ClassResidential:
		return "residential"
	case ClassCommercial:
		return "commercial"
	case ClassIndustrial:
		return "industrial"
	case ClassRural:
		return "rural"
	case ClassPublic:
		return "public"
	default:
		return "other"
	}
}

// MarketRecordKind separates consumer units from distributed generation
// installations.
type MarketRecordKind int

const (
	RecordConsumer MarketRecordKind = iota
	RecordGeneration
)

// MarketRecord is a georeferenced market data point: a consumer unit with its
// annual consumption, or a distributed generation installation with its
// installed capacity.
type MarketRecord struct {
	ID        string
	Kind      MarketRecordKind
	ClassCode string     // source tariff class code, e.g. RE, CO, IN
	Point     geom.Point // working planar CRS

	AnnualKWh   float64 // consumer records: consumption over the last year
	InstalledKW float64 // generation records: installed PV capacity
}

// Validate checks that the record can participate in the spatial join.
func (r MarketRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("market record id is empty")
	}
	if math.IsNaN(r.Point.X) || math.IsInf(r.Point.X, 0) || math.IsNaN(r.Point.Y) || math.IsInf(r.Point.Y, 0) {
		return fmt.Errorf("market record %s: coordinates must be finite", r.ID)
	}
	if r.AnnualKWh < 0 {
		return fmt.Errorf("market record %s: negative consumption", r.ID)
	}
	if r.InstalledKW < 0 {
		return fmt.Errorf("market record %s: negative installed capacity", r.ID)
	}
	return nil
}

// ClassProfile aggregates one tariff class inside a territory.
type ClassProfile struct {
	Customers int
	AnnualMWh float64
	Share     float64 // fraction of the territory's customers, 0..1
}

// Criticality ranks a territory by its distributed generation exposure.
type Criticality int

const (
	CriticalityLow Criticality = iota
	CriticalityMedium
	CriticalityHigh
)

// String returns the level label used in profiles and exports.
func (c Criticality) String() string {
	switch c {
	case CriticalityMedium:
		return "medium"
	case CriticalityHigh:
		return "high"
	default:
		return "low"
	}
}

// MarketProfile carries the aggregated market attributes of one territory.
type MarketProfile struct {
	SubstationID string

	Customers int
	AnnualMWh float64
	Classes   map[MarketClass]ClassProfile

	DGUnits     int
	InstalledKW float64
	Criticality Criticality
}

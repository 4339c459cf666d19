package model

import (
	"github.com/ctessum/geom"
)

// Territory is the service area owned by one substation: its Voronoi cell
// clipped to the municipal boundary. Geometry is expressed in the working
// planar CRS and may be empty when the cell degenerated during clipping.
type Territory struct {
	SubstationID string
	Geometry     geom.Polygonal // nil for an empty territory
	AreaM2       float64
	Centroid     geom.Point // zero value when the territory is empty
}

// Empty reports whether the territory carries no usable geometry.
func (t Territory) Empty() bool {
	return t.Geometry == nil || t.AreaM2 <= 0
}

// AnomalyKind classifies partition anomalies.
type AnomalyKind int

const (
	// AnomalyEmptyCell marks a substation whose clipped cell collapsed below
	// the area tolerance.
	AnomalyEmptyCell AnomalyKind = iota
	// AnomalySiteOutsideBoundary marks a substation located outside the
	// municipal polygon. Its cell may still clip to a sliver or to nothing.
	AnomalySiteOutsideBoundary
	// AnomalyUnassignedRecord marks a market record that falls outside every
	// territory.
	AnomalyUnassignedRecord
)

// String returns a stable label used in logs, journals and telemetry.
func (k AnomalyKind) String() string {
	switch k {
	case AnomalyEmptyCell:
		return "empty_cell"
	case AnomalySiteOutsideBoundary:
		return "site_outside_boundary"
	case AnomalyUnassignedRecord:
		return "unassigned_record"
	default:
		return "unknown"
	}
}

// Anomaly is a data-level irregularity produced alongside valid results.
// Anomalies are values, not errors: the run that produced them succeeded.
type Anomaly struct {
	Kind    AnomalyKind
	Subject string // substation ID or market record ID
	Detail  string
}

// Package geo defines the geometric capability surface of the partition
// engine and normalizes raw substation and boundary input into the working
// planar reference system.
package geo

import (
	"github.com/ctessum/geom"
)

// Site is one partition seed: a substation projected into the working CRS.
type Site struct {
	ID    string
	Point geom.Point
}

// Ops is the geometric capability the partition engine depends on. The
// engine never manipulates vertices itself, so a different geometry backend
// can be swapped in behind this interface.
type Ops interface {
	// VoronoiCells returns one cell per site, in site order, jointly
	// covering extent. Cells share edges but do not overlap.
	VoronoiCells(sites []geom.Point, extent *geom.Bounds) ([]geom.Polygon, error)
	// Clip returns the intersection of subject and mask. Empty results may
	// be nil or zero-area.
	Clip(subject, mask geom.Polygonal) (geom.Polygonal, error)
}

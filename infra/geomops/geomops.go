// Package geomops implements the core/geo capability interface on
// github.com/ctessum/geom primitives.
package geomops

import (
	"fmt"

	"github.com/ctessum/geom"

	coregeo "github.com/gridscope/gridscope/core/geo"
)

// Geometry implements geo.Ops.
type Geometry struct{}

var _ coregeo.Ops = Geometry{}

// New returns the default geometry backend.
func New() Geometry { return Geometry{} }

// VoronoiCells builds one cell per site by clipping extent against the
// perpendicular-bisector half-plane of every other site. The result is the
// nearest-site decomposition of extent: cells share edges and never overlap,
// and adding a site can only shrink the cells of the others.
func (Geometry) VoronoiCells(sites []geom.Point, extent *geom.Bounds) ([]geom.Polygon, error) {
	if len(sites) == 0 {
		return nil, fmt.Errorf("no sites")
	}
	if extent == nil || extent.Max.X <= extent.Min.X || extent.Max.Y <= extent.Min.Y {
		return nil, fmt.Errorf("degenerate extent")
	}
	base := []geom.Point{
		{X: extent.Min.X, Y: extent.Min.Y},
		{X: extent.Max.X, Y: extent.Min.Y},
		{X: extent.Max.X, Y: extent.Max.Y},
		{X: extent.Min.X, Y: extent.Max.Y},
	}
	cells := make([]geom.Polygon, len(sites))
	for i, p := range sites {
		ring := append([]geom.Point(nil), base...)
		for j, q := range sites {
			if i == j {
				continue
			}
			ring = clipHalfPlane(ring, p, q)
			if len(ring) == 0 {
				break
			}
		}
		cells[i] = geom.Polygon{ring}
	}
	return cells, nil
}

// Clip intersects subject with mask. An empty intersection comes back as nil
// or as a polygon with zero area, depending on the inputs.
func (Geometry) Clip(subject, mask geom.Polygonal) (geom.Polygonal, error) {
	if subject == nil || mask == nil {
		return nil, nil
	}
	return subject.Intersection(mask), nil
}

// clipHalfPlane keeps the part of ring at least as close to p as to q,
// Sutherland-Hodgman style. Points exactly on the bisector are kept, so the
// shared edge belongs to both adjacent cells.
func clipHalfPlane(ring []geom.Point, p, q geom.Point) []geom.Point {
	nx := q.X - p.X
	ny := q.Y - p.Y
	mx := (p.X + q.X) / 2
	my := (p.Y + q.Y) / 2
	d := nx*mx + ny*my

	out := make([]geom.Point, 0, len(ring)+4)
	for i := range ring {
		a := ring[i]
		b := ring[(i+1)%len(ring)]
		da := nx*a.X + ny*a.Y - d
		db := nx*b.X + ny*b.Y - d
		if da <= 0 {
			out = append(out, a)
		}
		if (da < 0 && db > 0) || (da > 0 && db < 0) {
			t := da / (da - db)
			out = append(out, geom.Point{X: a.X + t*(b.X-a.X), Y: a.Y + t*(b.Y-a.Y)})
		}
	}
	if len(out) < 3 {
		return nil
	}
	return out
}

package geo

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

// ValidateSites rejects coincident or non-finite planar coordinates. Exact
// coordinate duplicates would produce degenerate bisectors downstream.
func ValidateSites(sites []Site) error {
	type key struct{ x, y float64 }
	seen := make(map[key]string, len(sites))
	for _, s := range sites {
		if !finite(s.Point.X) || !finite(s.Point.Y) {
			return fmt.Errorf("site %s: non-finite projected coordinates", s.ID)
		}
		k := key{s.Point.X, s.Point.Y}
		if prev, ok := seen[k]; ok {
			return fmt.Errorf("sites %s and %s share identical coordinates", prev, s.ID)
		}
		seen[k] = s.ID
	}
	return nil
}

// ValidateBoundary rejects boundaries that are not simple polygons: every
// ring needs at least three vertices, finite coordinates and no
// self-intersection.
func ValidateBoundary(b geom.Polygonal) error {
	if b == nil {
		return fmt.Errorf("boundary is empty")
	}
	polys := b.Polygons()
	if len(polys) == 0 {
		return fmt.Errorf("boundary is empty")
	}
	for pi, poly := range polys {
		for ri, ring := range poly {
			if len(ring) < 3 {
				return fmt.Errorf("boundary polygon %d ring %d: fewer than 3 vertices", pi, ri)
			}
			for _, pt := range ring {
				if !finite(pt.X) || !finite(pt.Y) {
					return fmt.Errorf("boundary polygon %d ring %d: non-finite vertex", pi, ri)
				}
			}
			if selfIntersects(ring) {
				return fmt.Errorf("boundary polygon %d ring %d: ring self-intersects", pi, ri)
			}
		}
	}
	return nil
}

// selfIntersects reports whether any two non-adjacent edges of the ring
// properly cross.
func selfIntersects(ring []geom.Point) bool {
	n := len(ring)
	edge := func(i int) (geom.Point, geom.Point) {
		return ring[i], ring[(i+1)%n]
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			// Skip adjacent edges, including the wrap-around pair.
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			a1, a2 := edge(i)
			b1, b2 := edge(j)
			if segmentsCross(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

// segmentsCross reports a proper crossing: the segments intersect at a point
// interior to both.
func segmentsCross(p1, p2, q1, q2 geom.Point) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func cross(o, a, b geom.Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

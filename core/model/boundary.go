package model

import "github.com/ctessum/geom"

// Boundary is the municipal polygon territories are clipped to. It may be
// multi-part for municipalities with islands. The CRS depends on where the
// value lives: geographic on input, working planar once normalized.
type Boundary struct {
	Name     string
	Geometry geom.Polygonal
}

package geo

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
)

// Normalizer converts geometries between the geographic input CRS and the
// planar working CRS used for all geometric computation.
type Normalizer struct {
	fwd proj.Transformer
	inv proj.Transformer
}

// NewNormalizer builds a Normalizer from proj4 definitions, e.g. geographic
// SIRGAS 2000 in and UTM zone 24S out.
func NewNormalizer(inputProj, workProj string) (*Normalizer, error) {
	src, err := proj.Parse(inputProj)
	if err != nil {
		return nil, fmt.Errorf("parse input projection: %w", err)
	}
	dst, err := proj.Parse(workProj)
	if err != nil {
		return nil, fmt.Errorf("parse working projection: %w", err)
	}
	fwd, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("build forward transform: %w", err)
	}
	inv, err := dst.NewTransform(src)
	if err != nil {
		return nil, fmt.Errorf("build inverse transform: %w", err)
	}
	return &Normalizer{fwd: fwd, inv: inv}, nil
}

// ToPlane projects a geographic point into the working CRS.
func (n *Normalizer) ToPlane(p geom.Point) (geom.Point, error) {
	g, err := p.Transform(n.fwd)
	if err != nil {
		return geom.Point{}, fmt.Errorf("project point: %w", err)
	}
	return g.(geom.Point), nil
}

// ToGeographic converts a working-CRS point back to the input CRS.
func (n *Normalizer) ToGeographic(p geom.Point) (geom.Point, error) {
	g, err := p.Transform(n.inv)
	if err != nil {
		return geom.Point{}, fmt.Errorf("unproject point: %w", err)
	}
	return g.(geom.Point), nil
}

// PolygonalToPlane projects a geographic polygon or multipolygon into the
// working CRS.
func (n *Normalizer) PolygonalToPlane(p geom.Polygonal) (geom.Polygonal, error) {
	g, err := p.Transform(n.fwd)
	if err != nil {
		return nil, fmt.Errorf("project polygon: %w", err)
	}
	out, ok := g.(geom.Polygonal)
	if !ok {
		return nil, fmt.Errorf("projection produced %T, not a polygonal geometry", g)
	}
	return out, nil
}

// PolygonalToGeographic converts a working-CRS polygonal back to the input
// CRS, typically for export.
func (n *Normalizer) PolygonalToGeographic(p geom.Polygonal) (geom.Polygonal, error) {
	g, err := p.Transform(n.inv)
	if err != nil {
		return nil, fmt.Errorf("unproject polygon: %w", err)
	}
	out, ok := g.(geom.Polygonal)
	if !ok {
		return nil, fmt.Errorf("projection produced %T, not a polygonal geometry", g)
	}
	return out, nil
}

package geo

import (
	"fmt"
	"sort"

	"github.com/ctessum/geom"

	"github.com/gridscope/gridscope/core/model"
)

// Scene is the normalized geometric input of one partition run: validated
// sites in ascending ID order plus the boundary, all in the working CRS.
type Scene struct {
	Sites    []Site
	Boundary model.Boundary
}

// NewScene validates the raw geographic records, projects them through the
// normalizer and assembles the scene. Substation IDs must be unique.
func NewScene(subs []model.Substation, boundary model.Boundary, n *Normalizer) (*Scene, error) {
	const op = "geometry.load"
	if len(subs) == 0 {
		return nil, model.NewInputValidationError(op, fmt.Errorf("no substation records"))
	}
	seen := make(map[string]bool, len(subs))
	sites := make([]Site, 0, len(subs))
	for _, s := range subs {
		if err := s.Validate(); err != nil {
			return nil, model.NewInputValidationError(op, err)
		}
		if seen[s.ID] {
			return nil, model.NewInputValidationError(op, fmt.Errorf("duplicate substation id %s", s.ID))
		}
		seen[s.ID] = true
		pt, err := n.ToPlane(geom.Point{X: s.Lon, Y: s.Lat})
		if err != nil {
			return nil, fmt.Errorf("substation %s: %w", s.ID, err)
		}
		sites = append(sites, Site{ID: s.ID, Point: pt})
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i].ID < sites[j].ID })
	if err := ValidateSites(sites); err != nil {
		return nil, model.NewInputValidationError(op, err)
	}

	if boundary.Geometry == nil {
		return nil, model.NewInputValidationError(op, fmt.Errorf("boundary geometry is empty"))
	}
	planar, err := n.PolygonalToPlane(boundary.Geometry)
	if err != nil {
		return nil, fmt.Errorf("boundary %s: %w", boundary.Name, err)
	}
	if err := ValidateBoundary(planar); err != nil {
		return nil, model.NewInputValidationError(op, err)
	}
	return &Scene{
		Sites:    sites,
		Boundary: model.Boundary{Name: boundary.Name, Geometry: planar},
	}, nil
}

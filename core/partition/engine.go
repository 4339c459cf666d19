// Package partition computes substation service territories: the Voronoi
// cell of each substation clipped to the municipal boundary.
package partition

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/ctessum/geom"
	"github.com/google/uuid"

	"github.com/gridscope/gridscope/core/geo"
	"github.com/gridscope/gridscope/core/logger"
	"github.com/gridscope/gridscope/core/model"
	infralogger "github.com/gridscope/gridscope/infra/logger"
)

// Result is the outcome of one partition run. Territories follow the site
// order of the input scene (ascending substation ID) and the whole value is
// treated as immutable by callers.
type Result struct {
	RunID          string
	Territories    []model.Territory
	Anomalies      []model.Anomaly
	BoundaryAreaM2 float64
}

// Engine derives territories from sites and a boundary. It is a pure
// function of its input: reruns over identical input return the identical
// result, served from a single-entry memo.
type Engine struct {
	ops geo.Ops
	cfg Config
	log logger.Logger

	mu      sync.Mutex
	lastKey string
	last    *Result
}

// New builds an Engine. A nil logger falls back to the no-op logger.
func New(ops geo.Ops, cfg Config, log logger.Logger) (*Engine, error) {
	if ops == nil {
		return nil, fmt.Errorf("partition: geometry backend is nil")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("partition: %w", err)
	}
	if log == nil {
		log = infralogger.NopLogger{}
	}
	return &Engine{ops: ops, cfg: cfg, log: log}, nil
}

// Partition computes one territory per site. Sites must carry unique finite
// working-CRS coordinates; the boundary must be a simple polygon with
// non-zero area. Degenerate clip results keep their substation with an empty
// territory and an anomaly record.
func (e *Engine) Partition(ctx context.Context, sites []geo.Site, boundary model.Boundary) (*Result, error) {
	const op = "partition"
	if len(sites) == 0 {
		return nil, model.NewInputValidationError(op, fmt.Errorf("no sites"))
	}
	if err := geo.ValidateSites(sites); err != nil {
		return nil, model.NewInputValidationError(op, err)
	}
	if boundary.Geometry == nil {
		return nil, model.NewInputValidationError(op, fmt.Errorf("boundary geometry is empty"))
	}
	if err := geo.ValidateBoundary(boundary.Geometry); err != nil {
		return nil, model.NewInputValidationError(op, err)
	}
	boundaryArea := math.Abs(boundary.Geometry.Area())
	if boundaryArea <= 0 {
		return nil, model.NewInputValidationError(op, fmt.Errorf("boundary has no area"))
	}

	key := fingerprint(sites, boundary.Geometry)
	e.mu.Lock()
	if e.last != nil && e.lastKey == key {
		res := e.last
		e.mu.Unlock()
		e.log.Debugf("partition: memo hit for run %s", res.RunID)
		return res, nil
	}
	e.mu.Unlock()

	res, err := e.compute(ctx, sites, boundary, boundaryArea)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.lastKey = key
	e.last = res
	e.mu.Unlock()
	return res, nil
}

func (e *Engine) compute(ctx context.Context, sites []geo.Site, boundary model.Boundary, boundaryArea float64) (*Result, error) {
	points := make([]geom.Point, len(sites))
	for i, s := range sites {
		points[i] = s.Point
	}
	ext := paddedExtent(points, boundary.Geometry.Bounds(), e.cfg.PaddingFactor)

	cells, err := e.ops.VoronoiCells(points, ext)
	if err != nil {
		return nil, fmt.Errorf("partition: build cells: %w", err)
	}
	if len(cells) != len(sites) {
		return nil, fmt.Errorf("partition: backend returned %d cells for %d sites", len(cells), len(sites))
	}

	res := &Result{
		RunID:          uuid.NewString(),
		Territories:    make([]model.Territory, 0, len(sites)),
		BoundaryAreaM2: boundaryArea,
	}
	for i, s := range sites {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("partition: %w", err)
		}
		if s.Point.Within(boundary.Geometry) == geom.Outside {
			res.Anomalies = append(res.Anomalies, model.Anomaly{
				Kind:    model.AnomalySiteOutsideBoundary,
				Subject: s.ID,
				Detail:  "substation lies outside the municipal boundary",
			})
		}
		clipped, err := e.ops.Clip(cells[i], boundary.Geometry)
		if err != nil {
			return nil, fmt.Errorf("partition: clip cell %s: %w", s.ID, err)
		}
		area := 0.0
		if clipped != nil {
			area = math.Abs(clipped.Area())
		}
		if clipped == nil || area < e.cfg.AreaToleranceM2 {
			res.Territories = append(res.Territories, model.Territory{SubstationID: s.ID})
			res.Anomalies = append(res.Anomalies, model.Anomaly{
				Kind:    model.AnomalyEmptyCell,
				Subject: s.ID,
				Detail:  fmt.Sprintf("clipped cell area %.3f m² below tolerance", area),
			})
			continue
		}
		res.Territories = append(res.Territories, model.Territory{
			SubstationID: s.ID,
			Geometry:     clipped,
			AreaM2:       area,
			Centroid:     clipped.Centroid(),
		})
	}

	e.log.Infof("partition: run %s produced %d territories, %d anomalies",
		res.RunID, len(res.Territories), len(res.Anomalies))
	return res, nil
}

// Locate returns the substation owning the territory containing p, resolved
// by nearest site. Exact equidistance goes to the lexicographically smaller
// substation ID. The second return is false for an empty site list.
func (e *Engine) Locate(sites []geo.Site, p geom.Point) (string, bool) {
	bestID := ""
	bestD := math.Inf(1)
	for _, s := range sites {
		dx := s.Point.X - p.X
		dy := s.Point.Y - p.Y
		d := dx*dx + dy*dy
		if d < bestD || (d == bestD && s.ID < bestID) {
			bestD = d
			bestID = s.ID
		}
	}
	return bestID, bestID != ""
}

// paddedExtent combines the site and boundary bounds and grows them so the
// extent dominates the municipal extent on every side.
func paddedExtent(points []geom.Point, b *geom.Bounds, pad float64) *geom.Bounds {
	minX, minY := b.Min.X, b.Min.Y
	maxX, maxY := b.Max.X, b.Max.Y
	for _, p := range points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	span := math.Max(maxX-minX, maxY-minY)
	if span <= 0 {
		span = 1
	}
	grow := pad * span
	return &geom.Bounds{
		Min: geom.Point{X: minX - grow, Y: minY - grow},
		Max: geom.Point{X: maxX + grow, Y: maxY + grow},
	}
}

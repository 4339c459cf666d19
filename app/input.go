package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ctessum/geom"

	"github.com/gridscope/gridscope/core/model"
)

// Input is the georeferenced payload of one run: substation records, the
// municipal boundary and optional market records, all in the input CRS.
type Input struct {
	Substations []model.Substation
	Boundary    model.Boundary
	Market      []MarketInput
}

// MarketInput is one raw market record before projection into the working
// plane.
type MarketInput struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"` // "consumer" or "generation"
	Class       string  `json:"class,omitempty"`
	Lon         float64 `json:"lon"`
	Lat         float64 `json:"lat"`
	AnnualKWh   float64 `json:"annual_kwh,omitempty"`
	InstalledKW float64 `json:"installed_kw,omitempty"`
}

type substationDoc struct {
	ID          string            `json:"id"`
	Name        string            `json:"name,omitempty"`
	Lon         float64           `json:"lon"`
	Lat         float64           `json:"lat"`
	CapacityMVA float64           `json:"capacity_mva,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type geometryDoc struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

type boundaryDoc struct {
	Name     string      `json:"name"`
	Geometry geometryDoc `json:"geometry"`
}

type inputDoc struct {
	Boundary    boundaryDoc     `json:"boundary"`
	Substations []substationDoc `json:"substations"`
	Market      []MarketInput   `json:"market_records,omitempty"`
}

// ReadInput parses a run input file. The boundary geometry uses the GeoJSON
// layout ("Polygon" or "MultiPolygon").
func ReadInput(path string) (*Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return ParseInput(data)
}

// ParseInput decodes a run input document.
func ParseInput(data []byte) (*Input, error) {
	var doc inputDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}
	boundary, err := decodeBoundary(doc.Boundary)
	if err != nil {
		return nil, err
	}
	in := &Input{Boundary: boundary, Market: doc.Market}
	for _, s := range doc.Substations {
		in.Substations = append(in.Substations, model.Substation{
			ID:          s.ID,
			Name:        s.Name,
			Lon:         s.Lon,
			Lat:         s.Lat,
			CapacityMVA: s.CapacityMVA,
			Metadata:    s.Metadata,
		})
	}
	return in, nil
}

func decodeBoundary(doc boundaryDoc) (model.Boundary, error) {
	b := model.Boundary{Name: doc.Name}
	switch doc.Geometry.Type {
	case "Polygon":
		var rings [][][2]float64
		if err := json.Unmarshal(doc.Geometry.Coordinates, &rings); err != nil {
			return b, fmt.Errorf("parse boundary polygon: %w", err)
		}
		b.Geometry = polygonOf(rings)
	case "MultiPolygon":
		var polys [][][][2]float64
		if err := json.Unmarshal(doc.Geometry.Coordinates, &polys); err != nil {
			return b, fmt.Errorf("parse boundary multipolygon: %w", err)
		}
		mp := make(geom.MultiPolygon, len(polys))
		for i, rings := range polys {
			mp[i] = polygonOf(rings)
		}
		b.Geometry = mp
	default:
		return b, fmt.Errorf("unsupported boundary geometry %q", doc.Geometry.Type)
	}
	return b, nil
}

// polygonOf drops the closing vertex GeoJSON rings repeat.
func polygonOf(rings [][][2]float64) geom.Polygon {
	p := make(geom.Polygon, len(rings))
	for i, ring := range rings {
		if n := len(ring); n > 1 && ring[0] == ring[n-1] {
			ring = ring[:n-1]
		}
		pts := make([]geom.Point, len(ring))
		for j, v := range ring {
			pts[j] = geom.Point{X: v[0], Y: v[1]}
		}
		p[i] = pts
	}
	return p
}

func parseMarketKind(s string) model.MarketRecordKind {
	if s == "generation" {
		return model.RecordGeneration
	}
	return model.RecordConsumer
}

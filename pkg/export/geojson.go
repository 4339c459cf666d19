package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ctessum/geom"

	"github.com/gridscope/gridscope/core/geo"
	"github.com/gridscope/gridscope/core/model"
)

// Geometry is a GeoJSON geometry object. Coordinates follow the RFC 7946
// layout for the named type.
type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// Feature pairs one territory geometry with its attributes.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// FeatureCollection is the root GeoJSON document.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// TerritoryCollection assembles the GeoJSON document for a partition result.
// Geometries convert back to the geographic input CRS; profiles attach by
// substation ID when present; empty territories are dropped.
func TerritoryCollection(territories []model.Territory, profiles []model.MarketProfile, n *geo.Normalizer) (*FeatureCollection, error) {
	byID := make(map[string]model.MarketProfile, len(profiles))
	for _, p := range profiles {
		byID[p.SubstationID] = p
	}
	fc := &FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
	for _, t := range territories {
		if t.Empty() {
			continue
		}
		geographic, err := n.PolygonalToGeographic(t.Geometry)
		if err != nil {
			return nil, fmt.Errorf("territory %s: %w", t.SubstationID, err)
		}
		g, err := encodePolygonal(geographic)
		if err != nil {
			return nil, fmt.Errorf("territory %s: %w", t.SubstationID, err)
		}
		props := map[string]any{
			"substation_id": t.SubstationID,
			"area_m2":       t.AreaM2,
		}
		if c, err := n.ToGeographic(t.Centroid); err == nil {
			props["centroid_lon"] = c.X
			props["centroid_lat"] = c.Y
		}
		if p, ok := byID[t.SubstationID]; ok {
			props["customers"] = p.Customers
			props["annual_mwh"] = p.AnnualMWh
			props["dg_units"] = p.DGUnits
			props["installed_kw"] = p.InstalledKW
			props["criticality"] = p.Criticality.String()
		}
		fc.Features = append(fc.Features, Feature{Type: "Feature", Geometry: g, Properties: props})
	}
	return fc, nil
}

// WriteTerritoriesGeoJSON writes the partition result to w as GeoJSON.
func WriteTerritoriesGeoJSON(w io.Writer, territories []model.Territory, profiles []model.MarketProfile, n *geo.Normalizer) error {
	fc, err := TerritoryCollection(territories, profiles, n)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	return enc.Encode(fc)
}

func encodePolygonal(pg geom.Polygonal) (Geometry, error) {
	switch g := pg.(type) {
	case geom.Polygon:
		return Geometry{Type: "Polygon", Coordinates: polygonCoords(g)}, nil
	case geom.MultiPolygon:
		coords := make([][][][2]float64, len(g))
		for i, p := range g {
			coords[i] = polygonCoords(p)
		}
		return Geometry{Type: "MultiPolygon", Coordinates: coords}, nil
	default:
		return Geometry{}, fmt.Errorf("unsupported geometry %T", pg)
	}
}

// polygonCoords converts rings to the GeoJSON layout, closing each ring by
// repeating its first vertex.
func polygonCoords(p geom.Polygon) [][][2]float64 {
	rings := make([][][2]float64, len(p))
	for i, ring := range p {
		out := make([][2]float64, 0, len(ring)+1)
		for _, pt := range ring {
			out = append(out, [2]float64{pt.X, pt.Y})
		}
		if len(out) > 0 && out[0] != out[len(out)-1] {
			out = append(out, out[0])
		}
		rings[i] = out
	}
	return rings
}

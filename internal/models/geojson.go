package models

import (
	"github.com/goccy/go-json"
)

// LevelGeoJSON is the payload of GET /level/{id}/geoJson.
type LevelGeoJSON struct {
	GeoJSON       FeatureCollection `json:"geoJson"`
	PlacedBeacons []json.RawMessage `json:"placedBeacons"`
}

// Empty reports whether the level carried neither features nor beacons.
func (g *LevelGeoJSON) Empty() bool {
	return g == nil || (len(g.GeoJSON.Features) == 0 && len(g.PlacedBeacons) == 0)
}

// FeatureCollection is a GeoJSON FeatureCollection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a GeoJSON feature. Geometry is nil for features without one.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   *Geometry      `json:"geometry"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Geometry keeps coordinates raw; their nesting depends on Type.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Geometry type names handled by the map view.
const (
	GeometryPoint      = "Point"
	GeometryLineString = "LineString"
	GeometryPolygon    = "Polygon"
)

package mapview

import (
	"fmt"
	"math"

	"github.com/desertthunder/opskit/internal/models"
	"github.com/desertthunder/opskit/internal/shared"
	"github.com/goccy/go-json"
)

// BBox is a [lon, lat] bounding box.
type BBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// FallbackBounds frames [0, 0] when a level has no usable geometry.
var FallbackBounds = BBox{MinLon: -0.005, MinLat: -0.005, MaxLon: 0.005, MaxLat: 0.005}

func emptyBox() BBox {
	return BBox{MinLon: math.Inf(1), MinLat: math.Inf(1), MaxLon: math.Inf(-1), MaxLat: math.Inf(-1)}
}

// Extend grows the box to contain c.
func (b *BBox) Extend(c [2]float64) {
	b.MinLon = math.Min(b.MinLon, c[0])
	b.MinLat = math.Min(b.MinLat, c[1])
	b.MaxLon = math.Max(b.MaxLon, c[0])
	b.MaxLat = math.Max(b.MaxLat, c[1])
}

// Center returns the box midpoint as [lon, lat].
func (b BBox) Center() [2]float64 {
	return [2]float64{(b.MinLon + b.MaxLon) / 2, (b.MinLat + b.MaxLat) / 2}
}

// Pad widens each side by frac of the box size. Degenerate boxes (a single point) get a fixed
// margin so the axes never collapse.
func (b BBox) Pad(frac float64) BBox {
	dLon := (b.MaxLon - b.MinLon) * frac
	dLat := (b.MaxLat - b.MinLat) * frac
	if dLon == 0 {
		dLon = 0.0005
	}
	if dLat == 0 {
		dLat = 0.0005
	}
	return BBox{MinLon: b.MinLon - dLon, MinLat: b.MinLat - dLat, MaxLon: b.MaxLon + dLon, MaxLat: b.MaxLat + dLat}
}

// Bounds returns the box around every Point, LineString and Polygon coordinate of fc.
//
// When no coordinate is found it returns [FallbackBounds] and [shared.ErrNoGeometry].
func Bounds(fc models.FeatureCollection) (BBox, error) {
	coords := Coordinates(fc)
	if len(coords) == 0 {
		return FallbackBounds, shared.ErrNoGeometry
	}

	box := emptyBox()
	for _, c := range coords {
		box.Extend(c)
	}
	return box, nil
}

// Coordinates flattens the supported geometries of fc into [lon, lat] pairs, in feature order.
// Features with other geometry types or unreadable coordinates are ignored.
func Coordinates(fc models.FeatureCollection) [][2]float64 {
	var out [][2]float64
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		coords, err := geometryCoordinates(f.Geometry)
		if err != nil {
			continue
		}
		out = append(out, coords...)
	}
	return out
}

func geometryCoordinates(g *models.Geometry) ([][2]float64, error) {
	switch g.Type {
	case models.GeometryPoint:
		var p []float64
		if err := json.Unmarshal(g.Coordinates, &p); err != nil {
			return nil, err
		}
		c, err := pair(p)
		if err != nil {
			return nil, err
		}
		return [][2]float64{c}, nil
	case models.GeometryLineString:
		var line [][]float64
		if err := json.Unmarshal(g.Coordinates, &line); err != nil {
			return nil, err
		}
		return pairs(line)
	case models.GeometryPolygon:
		var rings [][][]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil, err
		}
		var out [][2]float64
		for _, ring := range rings {
			cs, err := pairs(ring)
			if err != nil {
				return nil, err
			}
			out = append(out, cs...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported geometry %q", g.Type)
	}
}

func pairs(points [][]float64) ([][2]float64, error) {
	out := make([][2]float64, 0, len(points))
	for _, p := range points {
		c, err := pair(p)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// pair keeps lon and lat and drops any altitude.
func pair(p []float64) ([2]float64, error) {
	if len(p) < 2 {
		return [2]float64{}, fmt.Errorf("position needs at least 2 values, got %d", len(p))
	}
	return [2]float64{p[0], p[1]}, nil
}

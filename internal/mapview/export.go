package mapview

import (
	"fmt"

	"github.com/desertthunder/opskit/internal/models"
	"github.com/goccy/go-json"
)

// ExportGeoJSON converts missing rows with coordinates into a FeatureCollection of Points.
// Each feature carries uuid, major, minor and level properties.
func ExportGeoJSON(missing []models.MissingBeacon) ([]byte, error) {
	fc := models.FeatureCollection{Type: "FeatureCollection", Features: []models.Feature{}}

	for _, m := range missing {
		if m.Coordinates == nil {
			continue
		}

		coords, err := json.Marshal(m.Coordinates)
		if err != nil {
			return nil, fmt.Errorf("failed to encode coordinates of %s: %w", m.BeaconIdentifier, err)
		}

		fc.Features = append(fc.Features, models.Feature{
			Type:     "Feature",
			Geometry: &models.Geometry{Type: models.GeometryPoint, Coordinates: coords},
			Properties: map[string]any{
				"uuid":  m.UUID,
				"major": m.Major,
				"minor": m.Minor,
				"level": m.Level,
			},
		})
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode GeoJSON: %w", err)
	}
	return data, nil
}

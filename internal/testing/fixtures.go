package testing

import (
	"fmt"

	"github.com/desertthunder/opskit/internal/models"
	"github.com/goccy/go-json"
)

// Common identifiers used across package tests.
const (
	UUIDA = "B9407F30-F5F8-466E-AFF9-25556B57FE6D"
	UUIDB = "F7826DA6-4FA2-4E98-8024-BC5B71E0893E"
)

// Beacon builds an identifier.
func Beacon(uuid string, major, minor int) models.BeaconIdentifier {
	return models.BeaconIdentifier{UUID: uuid, Major: major, Minor: minor}
}

// BeaconJSON renders a recording beaconData entry.
func BeaconJSON(b models.BeaconIdentifier) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"uuid":%q,"major":%d,"minor":%d}`, b.UUID, b.Major, b.Minor))
}

// PlacedJSON renders a placedBeacons entry at [lon, lat].
func PlacedJSON(b models.BeaconIdentifier, lon, lat float64) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"uuid":%q,"major":%d,"minor":%d,"coordinates":[%g,%g]}`, b.UUID, b.Major, b.Minor, lon, lat))
}

// Level builds a level declaring the given beacons at synthetic coordinates.
func Level(id, short string, beacons ...models.BeaconIdentifier) models.Level {
	l := models.Level{ID: id, Name: short, ShortName: short, LongName: "Level " + short}
	for i, b := range beacons {
		l.PlacedBeacons = append(l.PlacedBeacons, PlacedJSON(b, 4.9+float64(i)*0.001, 52.3))
	}
	return l
}

// Recording builds an in-memory recording observing the given beacons.
func Recording(name string, beacons ...models.BeaconIdentifier) *models.Recording {
	rec := &models.Recording{Name: name}
	for _, b := range beacons {
		rec.BeaconData = append(rec.BeaconData, BeaconJSON(b))
	}
	return rec
}

// RecordingDoc renders a complete recording file.
func RecordingDoc(notes string, beacons ...models.BeaconIdentifier) []byte {
	entries := make([]json.RawMessage, 0, len(beacons))
	for _, b := range beacons {
		entries = append(entries, BeaconJSON(b))
	}

	doc := map[string]any{
		"recordingInfo": map[string]any{
			"recordingStartTime": 1700000000,
			"recordingEndTime":   1700000600,
			"recordingDuration":  600.0,
			"deviceModel":        "Pixel 8",
			"os":                 "Android",
			"manufacturer":       "Google",
			"osVersion":          "14",
			"recorderAppVersion": "2.3.1",
			"uuids":              []string{UUIDA},
		},
		"gpsData":    []map[string]float64{{"latitude": 52.37, "longitude": 4.89}},
		"sensorData": []map[string]float64{{"x": 0.1}, {"x": 0.2}},
		"beaconData": entries,
	}
	if notes != "" {
		doc["optionalNotes"] = notes
	}

	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return data
}

// LevelGeoJSON builds a level map payload with one polygon and the given placed beacons.
func LevelGeoJSON(placed ...json.RawMessage) *models.LevelGeoJSON {
	return &models.LevelGeoJSON{
		GeoJSON: models.FeatureCollection{
			Type: "FeatureCollection",
			Features: []models.Feature{{
				Type: "Feature",
				Geometry: &models.Geometry{
					Type:        models.GeometryPolygon,
					Coordinates: json.RawMessage(`[[[4.89,52.37],[4.91,52.37],[4.91,52.38],[4.89,52.38],[4.89,52.37]]]`),
				},
				Properties: map[string]any{"name": "Hall"},
			}},
		},
		PlacedBeacons: placed,
	}
}

// BareLevelGeoJSON builds a level map payload without any drawable geometry.
func BareLevelGeoJSON(placed ...json.RawMessage) *models.LevelGeoJSON {
	return &models.LevelGeoJSON{
		GeoJSON:       models.FeatureCollection{Type: "FeatureCollection", Features: []models.Feature{}},
		PlacedBeacons: placed,
	}
}

package beacons

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/desertthunder/opskit/internal/models"
	"github.com/goccy/go-json"
)

var (
	errMissingField = errors.New("missing field")
	errBadValue     = errors.New("invalid value")
)

// Warning describes one skipped entry, or an unreadable recording field when Field is set.
type Warning struct {
	Source string `json:"source"`
	Field  string `json:"field,omitempty"`
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

func (w Warning) String() string {
	if w.Field != "" {
		return fmt.Sprintf("%s: ignoring %s: %s", w.Source, w.Field, w.Reason)
	}
	if w.Source == "" {
		return fmt.Sprintf("skipping entry %d: %s", w.Index, w.Reason)
	}
	return fmt.Sprintf("%s: skipping entry %d: %s", w.Source, w.Index, w.Reason)
}

// ParseEntry decodes one {uuid, major, minor} object into a normalized identifier.
//
// major and minor may be JSON numbers or numeric strings.
func ParseEntry(raw json.RawMessage) (models.BeaconIdentifier, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return models.BeaconIdentifier{}, err
	}
	return identifierFrom(fields)
}

// ParsePlaced decodes one placed beacon entry, which additionally carries [lon, lat] coordinates.
func ParsePlaced(raw json.RawMessage) (models.PlacedBeacon, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return models.PlacedBeacon{}, err
	}

	id, err := identifierFrom(fields)
	if err != nil {
		return models.PlacedBeacon{}, err
	}

	coords, err := coordinatesFrom(fields)
	if err != nil {
		return models.PlacedBeacon{}, err
	}

	return models.PlacedBeacon{BeaconIdentifier: id, Coordinates: coords}, nil
}

// FromRecording extracts the beacon identifiers of a recording's beaconData.
func FromRecording(rec *models.Recording) ([]models.BeaconIdentifier, []Warning) {
	if rec == nil {
		return nil, nil
	}
	return identifiers(rec.Name, rec.BeaconData)
}

// FromDeclared extracts identifiers from a level's placedBeacons array. Coordinates are neither
// required nor kept.
func FromDeclared(source string, entries []json.RawMessage) ([]models.BeaconIdentifier, []Warning) {
	return identifiers(source, entries)
}

func identifiers(source string, entries []json.RawMessage) ([]models.BeaconIdentifier, []Warning) {
	var (
		ids      = make([]models.BeaconIdentifier, 0, len(entries))
		warnings []Warning
	)
	for i, raw := range entries {
		id, err := ParseEntry(raw)
		if err != nil {
			warnings = append(warnings, Warning{Source: source, Index: i, Reason: err.Error()})
			continue
		}
		ids = append(ids, id)
	}
	return ids, warnings
}

// FromPlaced extracts placed beacons from a level's placedBeacons array.
func FromPlaced(source string, entries []json.RawMessage) ([]models.PlacedBeacon, []Warning) {
	var (
		placed   = make([]models.PlacedBeacon, 0, len(entries))
		warnings []Warning
	)
	for i, raw := range entries {
		p, err := ParsePlaced(raw)
		if err != nil {
			warnings = append(warnings, Warning{Source: source, Index: i, Reason: err.Error()})
			continue
		}
		placed = append(placed, p)
	}
	return placed, warnings
}

func decodeObject(raw json.RawMessage) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: not an object: %v", errBadValue, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: null entry", errBadValue)
	}
	return fields, nil
}

func identifierFrom(fields map[string]any) (models.BeaconIdentifier, error) {
	rawUUID, ok := fields["uuid"]
	if !ok || rawUUID == nil {
		return models.BeaconIdentifier{}, fmt.Errorf("%w: uuid", errMissingField)
	}
	uuid, ok := rawUUID.(string)
	if !ok || strings.TrimSpace(uuid) == "" {
		return models.BeaconIdentifier{}, fmt.Errorf("%w: uuid %v", errBadValue, rawUUID)
	}

	major, err := intField(fields, "major")
	if err != nil {
		return models.BeaconIdentifier{}, err
	}
	minor, err := intField(fields, "minor")
	if err != nil {
		return models.BeaconIdentifier{}, err
	}

	return Normalize(models.BeaconIdentifier{UUID: uuid, Major: major, Minor: minor}), nil
}

// Raw major and minor values outside this range are rejected before normalization.
const (
	minRawValue = -65536
	maxRawValue = 65535
)

// intField coerces a number or numeric string to int, truncating fractional numbers.
func intField(fields map[string]any, key string) (int, error) {
	v, ok := fields[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: %s", errMissingField, key)
	}

	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || n < minRawValue || n >= maxRawValue+1 {
			return 0, fmt.Errorf("%w: %s %v", errBadValue, key, v)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil || i < minRawValue || i > maxRawValue {
			return 0, fmt.Errorf("%w: %s %q", errBadValue, key, n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: %s %v", errBadValue, key, v)
	}
}

func coordinatesFrom(fields map[string]any) ([2]float64, error) {
	v, ok := fields["coordinates"]
	if !ok || v == nil {
		return [2]float64{}, fmt.Errorf("%w: coordinates", errMissingField)
	}

	arr, ok := v.([]any)
	if !ok || len(arr) < 2 {
		return [2]float64{}, fmt.Errorf("%w: coordinates %v", errBadValue, v)
	}

	var out [2]float64
	for i := range out {
		f, ok := arr[i].(float64)
		if !ok {
			return [2]float64{}, fmt.Errorf("%w: coordinates %v", errBadValue, v)
		}
		out[i] = f
	}
	return out, nil
}

package beacons

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/desertthunder/opskit/internal/models"
	"github.com/desertthunder/opskit/internal/shared"
	"github.com/goccy/go-json"
)

// Upload is one uploaded recording file.
type Upload struct {
	Name string
	Data []byte
}

// document is the top level of a recording. Only beaconData must decode; every other field is
// read leniently.
type document struct {
	OptionalNotes json.RawMessage   `json:"optionalNotes"`
	RecordingInfo json.RawMessage   `json:"recordingInfo"`
	GPSData       json.RawMessage   `json:"gpsData"`
	SensorData    json.RawMessage   `json:"sensorData"`
	BeaconData    []json.RawMessage `json:"beaconData"`
}

// ParseRecording decodes a recording document.
//
// The file is rejected only when it is not a JSON object or beaconData is not an array. Header
// and GPS fields of the wrong type are coerced where possible, otherwise left empty and listed in
// [models.Recording.Issues].
func ParseRecording(name string, data []byte) (*models.Recording, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrInvalidRecording, name, err)
	}

	rec := &models.Recording{Name: name, BeaconData: doc.BeaconData}
	issue := func(field string, err error) {
		rec.Issues = append(rec.Issues, models.FieldIssue{Field: field, Reason: err.Error()})
	}

	if notes, err := textValue(doc.OptionalNotes); err != nil {
		issue("optionalNotes", err)
	} else {
		rec.OptionalNotes = notes
	}

	if !isNull(doc.SensorData) {
		if err := json.Unmarshal(doc.SensorData, &rec.SensorData); err != nil {
			issue("sensorData", fmt.Errorf("%w: not an array", errBadValue))
			rec.SensorData = nil
		}
	}

	rec.RecordingInfo = parseInfo(doc.RecordingInfo, issue)
	rec.GPSData = parseGPS(doc.GPSData, issue)
	return rec, nil
}

// HeaderWarnings reports the fields of rec that could not be read.
func HeaderWarnings(rec *models.Recording) []Warning {
	if rec == nil || len(rec.Issues) == 0 {
		return nil
	}
	warnings := make([]Warning, 0, len(rec.Issues))
	for _, is := range rec.Issues {
		warnings = append(warnings, Warning{Source: rec.Name, Field: is.Field, Reason: is.Reason})
	}
	return warnings
}

func parseInfo(raw json.RawMessage, issue func(string, error)) models.RecordingInfo {
	var info models.RecordingInfo
	if isNull(raw) {
		return info
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		issue("recordingInfo", fmt.Errorf("%w: not an object", errBadValue))
		return info
	}

	numbers := []struct {
		key string
		dst *float64
	}{
		{"recordingStartTime", &info.RecordingStartTime},
		{"recordingEndTime", &info.RecordingEndTime},
		{"recordingDuration", &info.RecordingDuration},
	}
	for _, n := range numbers {
		v, err := numberField(fields, n.key)
		if err != nil && !errors.Is(err, errMissingField) {
			issue("recordingInfo."+n.key, err)
			continue
		}
		*n.dst = v
	}

	texts := []struct {
		key string
		dst *string
	}{
		{"deviceModel", &info.DeviceModel},
		{"os", &info.OS},
		{"manufacturer", &info.Manufacturer},
		{"osVersion", &info.OSVersion},
		{"recorderAppVersion", &info.RecorderAppVersion},
	}
	for _, t := range texts {
		v, err := textField(fields, t.key)
		if err != nil {
			issue("recordingInfo."+t.key, err)
			continue
		}
		*t.dst = v
	}

	switch uuids := fields["uuids"].(type) {
	case nil:
	case []any:
		for _, u := range uuids {
			s, ok := text(u)
			if !ok || s == "" {
				issue("recordingInfo.uuids", fmt.Errorf("%w: uuid %v", errBadValue, u))
				continue
			}
			info.UUIDs = append(info.UUIDs, s)
		}
	default:
		issue("recordingInfo.uuids", fmt.Errorf("%w: not an array", errBadValue))
	}

	return info
}

func parseGPS(raw json.RawMessage, issue func(string, error)) []models.GPSPoint {
	if isNull(raw) {
		return nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		issue("gpsData", fmt.Errorf("%w: not an array", errBadValue))
		return nil
	}

	points := make([]models.GPSPoint, 0, len(entries))
	for i, entry := range entries {
		field := fmt.Sprintf("gpsData[%d]", i)

		fields, err := decodeObject(entry)
		if err != nil {
			issue(field, err)
			points = append(points, models.GPSPoint{Invalid: true})
			continue
		}

		lat, latErr := numberField(fields, "latitude")
		lon, lonErr := numberField(fields, "longitude")
		if err := errors.Join(latErr, lonErr); err != nil {
			issue(field, err)
			points = append(points, models.GPSPoint{Invalid: true})
			continue
		}
		points = append(points, models.GPSPoint{Latitude: lat, Longitude: lon})
	}
	return points
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func textValue(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("%w: %v", errBadValue, err)
	}
	s, ok := text(v)
	if !ok {
		return "", fmt.Errorf("%w: %v", errBadValue, v)
	}
	return s, nil
}

// textField reads a string, accepting numbers and booleans in their JSON spelling.
func textField(fields map[string]any, key string) (string, error) {
	s, ok := text(fields[key])
	if !ok {
		return "", fmt.Errorf("%w: %s %v", errBadValue, key, fields[key])
	}
	return s, nil
}

func text(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// numberField reads a finite number, accepting numeric strings.
func numberField(fields map[string]any, key string) (float64, error) {
	v, ok := fields[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: %s", errMissingField, key)
	}

	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s %q", errBadValue, key, n)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%w: %s %v", errBadValue, key, v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s %v", errBadValue, key, v)
	}
	return f, nil
}

// ParseUploads decodes every upload. Files that fail to parse are reported and left out; the
// remaining recordings are still returned.
func ParseUploads(uploads []Upload) ([]*models.Recording, []error) {
	var (
		recs []*models.Recording
		errs []error
	)
	for _, u := range uploads {
		rec, err := ParseRecording(u.Name, u.Data)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		recs = append(recs, rec)
	}
	return recs, errs
}

// LoadRecordings reads and parses recording files from disk.
func LoadRecordings(paths []string) ([]*models.Recording, []error) {
	uploads := make([]Upload, 0, len(paths))
	var errs []error
	for _, p := range paths {
		data, err := shared.ReadJSONFile(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		uploads = append(uploads, Upload{Name: p, Data: data})
	}

	recs, parseErrs := ParseUploads(uploads)
	return recs, append(errs, parseErrs...)
}

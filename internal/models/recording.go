package models

import (
	"github.com/goccy/go-json"
)

// Recording is one JSON upload from the mobile scanning app.
//
// Sensor and beacon entries stay raw: the profiler only counts sensor data, and beacon entries
// are parsed one by one so a malformed entry does not reject the file.
type Recording struct {
	OptionalNotes string            `json:"optionalNotes"`
	RecordingInfo RecordingInfo     `json:"recordingInfo"`
	GPSData       []GPSPoint        `json:"gpsData"`
	SensorData    []json.RawMessage `json:"sensorData"`
	BeaconData    []json.RawMessage `json:"beaconData"`

	// Name is the uploaded file name; not part of the document.
	Name string `json:"-"`

	// Issues lists header and GPS fields that could not be read and were left empty.
	Issues []FieldIssue `json:"-"`
}

// FieldIssue names an unreadable recording field.
type FieldIssue struct {
	Field  string
	Reason string
}

// RecordingInfo is the device and timing header of a recording.
type RecordingInfo struct {
	RecordingStartTime float64  `json:"recordingStartTime"`
	RecordingEndTime   float64  `json:"recordingEndTime"`
	RecordingDuration  float64  `json:"recordingDuration"`
	DeviceModel        string   `json:"deviceModel"`
	OS                 string   `json:"os"`
	Manufacturer       string   `json:"manufacturer"`
	OSVersion          string   `json:"osVersion"`
	RecorderAppVersion string   `json:"recorderAppVersion"`
	UUIDs              []string `json:"uuids"`
}

// GPSPoint is a single GPS fix. Invalid points still count towards the GPS total but are never
// geocoded.
type GPSPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Invalid   bool    `json:"-"`
}

// FirstFix returns the first readable GPS fix, if any.
func (r *Recording) FirstFix() (GPSPoint, bool) {
	for _, p := range r.GPSData {
		if !p.Invalid {
			return p, true
		}
	}
	return GPSPoint{}, false
}

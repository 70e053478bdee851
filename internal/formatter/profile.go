package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/opskit/internal/beacons"
	"github.com/desertthunder/opskit/internal/models"
	"github.com/desertthunder/opskit/internal/shared"
)

// maxSeconds is the last second of year 9999; larger timestamps are read as milliseconds.
const maxSeconds = 253402300799

// FormatTimestamp renders a recording timestamp.
//
// Zero is "N/A". Plausible epoch seconds are shown in local time; anything larger is treated as
// epoch milliseconds and shown in UTC with a " UTC" suffix.
func FormatTimestamp(ts float64) string {
	if ts == 0 {
		return "N/A"
	}
	if ts <= maxSeconds && ts >= -maxSeconds {
		sec := int64(ts)
		nsec := int64((ts - float64(sec)) * 1e9)
		return time.Unix(sec, nsec).Local().Format(time.DateTime)
	}
	return time.UnixMilli(int64(ts)).UTC().Format(time.DateTime) + " UTC"
}

// Row is one Item/Value line of a summary table.
type Row struct {
	Item  string `json:"item"`
	Value string `json:"value"`
}

// RecordingSummary builds the profiler's summary rows. location is the geocoded first GPS fix.
func RecordingSummary(rec *models.Recording, location string) []Row {
	info := rec.RecordingInfo
	notes := rec.OptionalNotes
	if notes == "" {
		notes = shared.MsgNoNotes
	}

	return []Row{
		{"Start Time", FormatTimestamp(info.RecordingStartTime)},
		{"End Time", FormatTimestamp(info.RecordingEndTime)},
		{"Duration", fmt.Sprintf("%.2f seconds", info.RecordingDuration)},
		{"Device Model", orNA(info.DeviceModel)},
		{"GPS Location", location},
		{"OS", orNA(info.OS)},
		{"Manufacturer", orNA(info.Manufacturer)},
		{"OS Version", orNA(info.OSVersion)},
		{"Recorder Version", orNA(info.RecorderAppVersion)},
		{"Added UUIDs", strings.Join(info.UUIDs, ", ")},
		{"Optional Notes", notes},
	}
}

// DataCounts returns the number of sensor, GPS and beacon entries of a recording.
func DataCounts(rec *models.Recording) []Row {
	return []Row{
		{"Sensor Data", strconv.Itoa(len(rec.SensorData))},
		{"GPS Data", strconv.Itoa(len(rec.GPSData))},
		{"Beacon Data", strconv.Itoa(len(rec.BeaconData))},
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// JoinMinors renders a sorted minor list as "1, 2, 3".
func JoinMinors(minors []int) string {
	parts := make([]string, len(minors))
	for i, m := range minors {
		parts[i] = strconv.Itoa(m)
	}
	return strings.Join(parts, ", ")
}

// GroupsToCSV converts grouped beacons to CSV with columns: UUID, Major, Minors
func GroupsToCSV(groups []beacons.UUIDGroup) ([]byte, error) {
	var records [][]string
	for _, g := range groups {
		for _, m := range g.Majors {
			records = append(records, []string{g.UUID, strconv.Itoa(m.Major), JoinMinors(m.Minors)})
		}
	}
	return writeCSV([]string{"UUID", "Major", "Minors"}, records)
}

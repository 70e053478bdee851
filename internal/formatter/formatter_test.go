package formatter

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/opskit/internal/beacons"
	"github.com/desertthunder/opskit/internal/models"
	"github.com/desertthunder/opskit/internal/shared"
	th "github.com/desertthunder/opskit/internal/testing"
	"github.com/google/go-cmp/cmp"
)

func sampleRows() []models.MissingBeacon {
	c1 := [2]float64{4.895, 52.372}
	c2 := [2]float64{5, 52}
	return []models.MissingBeacon{
		{Level: "L1", BeaconIdentifier: th.Beacon(th.UUIDA, 1, 1), Coordinates: &c1},
		{Level: "L1", BeaconIdentifier: th.Beacon(th.UUIDA, 1, 2)},
		{Level: "L2", BeaconIdentifier: th.Beacon(th.UUIDB, 7, 3), Coordinates: &c2},
	}
}

func TestCSV(t *testing.T) {
	t.Run("MissingToCSV", func(t *testing.T) {
		data, err := MissingToCSV(sampleRows())
		if err != nil {
			t.Fatalf("MissingToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if lines[0] != "Level,UUID,Major,Minor" {
			t.Errorf("unexpected header %q", lines[0])
		}
		if lines[1] != "L1,"+th.UUIDA+",1,1" {
			t.Errorf("unexpected first row %q", lines[1])
		}
		if len(lines) != 4 {
			t.Errorf("expected 4 lines, got %d", len(lines))
		}
	})

	t.Run("MissingMapToCSV", func(t *testing.T) {
		data, err := MissingMapToCSV(sampleRows())
		if err != nil {
			t.Fatalf("MissingMapToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "UUID,Major,Minor,Coordinates\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, `"[4.895, 52.372]"`) {
			t.Errorf("expected quoted coordinates, got: %s", output)
		}
		if !strings.Contains(output, `"[5.0, 52.0]"`) {
			t.Errorf("expected whole numbers to keep a decimal point, got: %s", output)
		}
		if !strings.Contains(output, th.UUIDA+",1,2,\n") {
			t.Errorf("expected empty coordinates cell, got: %s", output)
		}
	})

	t.Run("Round Trip List", func(t *testing.T) {
		rows := sampleRows()
		for i := range rows {
			rows[i].Coordinates = nil
		}

		data, err := MissingToCSV(rows)
		if err != nil {
			t.Fatal(err)
		}
		got, err := ParseMissingCSV(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("ParseMissingCSV failed: %v", err)
		}
		if diff := cmp.Diff(rows, got); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Round Trip Map", func(t *testing.T) {
		rows := sampleRows()
		for i := range rows {
			rows[i].Level = ""
		}

		data, err := MissingMapToCSV(rows)
		if err != nil {
			t.Fatal(err)
		}
		got, err := ParseMissingCSV(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("ParseMissingCSV failed: %v", err)
		}
		if diff := cmp.Diff(rows, got); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Parse Errors", func(t *testing.T) {
		tests := []struct {
			name  string
			input string
		}{
			{"empty", ""},
			{"bad header", "a,b,c,d\n"},
			{"bad major", "Level,UUID,Major,Minor\nL1,AA,x,1\n"},
			{"bad coordinates", "UUID,Major,Minor,Coordinates\nAA,1,1,[nope]\n"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := ParseMissingCSV(strings.NewReader(tt.input)); !errors.Is(err, shared.ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
			})
		}
	})

	t.Run("GroupsToCSV", func(t *testing.T) {
		groups := []beacons.UUIDGroup{{
			UUID:   th.UUIDA,
			Majors: []beacons.MajorGroup{{Major: 1, Minors: []int{1, 2, 10}}, {Major: 4, Minors: []int{7}}},
		}}

		data, err := GroupsToCSV(groups)
		if err != nil {
			t.Fatalf("GroupsToCSV failed: %v", err)
		}
		want := "UUID,Major,Minors\n" + th.UUIDA + `,1,"1, 2, 10"` + "\n" + th.UUIDA + ",4,7\n"
		if string(data) != want {
			t.Errorf("expected:\n%s\ngot:\n%s", want, data)
		}
	})

	t.Run("WriteFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), shared.MissingBeaconsFile)
		if err := WriteFile(path, []byte("Level,UUID,Major,Minor\n")); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		th.AssertFileExists(t, path)

		if err := WriteFile("", nil); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestMarkdown(t *testing.T) {
	t.Run("Grouped By Level", func(t *testing.T) {
		output := string(MissingToMarkdown("Unheard beacons", sampleRows()))

		for _, want := range []string{"# Unheard beacons", "**Missing**: 3", "## L1", "## L2", "| " + th.UUIDB + " | 7 | 3 |"} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
		if strings.Index(output, "## L1") > strings.Index(output, "## L2") {
			t.Error("expected levels in row order")
		}
	})

	t.Run("Empty", func(t *testing.T) {
		output := string(MissingToMarkdown("Unheard beacons", nil))
		if !strings.Contains(output, shared.MsgNoneMissing) {
			t.Errorf("expected %q, got:\n%s", shared.MsgNoneMissing, output)
		}
	})
}

func TestFormatTimestamp(t *testing.T) {
	t.Run("Zero", func(t *testing.T) {
		if got := FormatTimestamp(0); got != "N/A" {
			t.Errorf("expected N/A, got %q", got)
		}
	})

	t.Run("Seconds Are Local", func(t *testing.T) {
		want := time.Unix(1700000000, 0).Local().Format("2006-01-02 15:04:05")
		if got := FormatTimestamp(1700000000); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("Milliseconds Fall Back To UTC", func(t *testing.T) {
		if got := FormatTimestamp(1700000000000); got != "2023-11-14 22:13:20 UTC" {
			t.Errorf("expected UTC fallback, got %q", got)
		}
	})
}

func TestProfileRows(t *testing.T) {
	rec := &models.Recording{
		RecordingInfo: models.RecordingInfo{
			RecordingDuration: 12.5,
			DeviceModel:       "Pixel 8",
			UUIDs:             []string{th.UUIDA, th.UUIDB},
		},
		GPSData: []models.GPSPoint{{Latitude: 1, Longitude: 2}},
	}

	t.Run("RecordingSummary", func(t *testing.T) {
		rows := RecordingSummary(rec, "Amsterdam, Netherlands")
		got := make(map[string]string, len(rows))
		for _, r := range rows {
			got[r.Item] = r.Value
		}

		want := map[string]string{
			"Start Time":       "N/A",
			"End Time":         "N/A",
			"Duration":         "12.50 seconds",
			"Device Model":     "Pixel 8",
			"GPS Location":     "Amsterdam, Netherlands",
			"OS":               "N/A",
			"Manufacturer":     "N/A",
			"OS Version":       "N/A",
			"Recorder Version": "N/A",
			"Added UUIDs":      th.UUIDA + ", " + th.UUIDB,
			"Optional Notes":   "No notes provided",
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("RecordingSummary() mismatch (-want +got):\n%s", diff)
		}
		if rows[0].Item != "Start Time" || rows[len(rows)-1].Item != "Optional Notes" {
			t.Error("expected summary rows in display order")
		}
	})

	t.Run("DataCounts", func(t *testing.T) {
		want := []Row{{"Sensor Data", "0"}, {"GPS Data", "1"}, {"Beacon Data", "0"}}
		if diff := cmp.Diff(want, DataCounts(rec)); diff != "" {
			t.Errorf("DataCounts() mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestTables(t *testing.T) {
	t.Run("MissingTable", func(t *testing.T) {
		output := MissingTable(sampleRows())
		for _, want := range []string{"Level L1", "Level L2", th.UUIDA, "[4.895, 52.372]"} {
			if !strings.Contains(output, want) {
				t.Errorf("table missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("NodesTable", func(t *testing.T) {
		output := NodesTable([]models.Client{{ID: "c1", Name: "Acme"}})
		if !strings.Contains(output, "c1") || !strings.Contains(output, "Acme") {
			t.Errorf("unexpected table:\n%s", output)
		}
	})

	t.Run("RowsTable", func(t *testing.T) {
		output := RowsTable("Data Type", "Count", []Row{{"GPS Data", "3"}})
		if !strings.Contains(output, "Data Type") || !strings.Contains(output, "GPS Data") {
			t.Errorf("unexpected table:\n%s", output)
		}
	})

	t.Run("LevelsTable", func(t *testing.T) {
		output := LevelsTable([]models.Level{th.Level("l1", "L1", th.Beacon(th.UUIDA, 1, 1), th.Beacon(th.UUIDA, 1, 2))})
		for _, want := range []string{"Placed", "l1", "Level L1", "2"} {
			if !strings.Contains(output, want) {
				t.Errorf("table missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("RunsTable", func(t *testing.T) {
		run := models.NewAuditRun(3, models.ModeList, models.AuditScope{BuildingID: "b1", LevelScope: models.AllLevels}, sampleRows())
		run.SetID("run-3")
		run.SetCounts(2, 5, 4)

		output := RunsTable([]*models.AuditRun{run})
		for _, want := range []string{"run-3", "b1", models.AllLevels, models.ModeList} {
			if !strings.Contains(output, want) {
				t.Errorf("table missing %q, got:\n%s", want, output)
			}
		}
	})
}

package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/opskit/internal/beacons"
	"github.com/desertthunder/opskit/internal/models"
	"github.com/desertthunder/opskit/internal/services"
	"github.com/desertthunder/opskit/internal/shared"
	tu "github.com/desertthunder/opskit/internal/testing"
	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
)

type mockGeocoder struct {
	calls atomic.Int32
	place string
}

func (m *mockGeocoder) Locate(ctx context.Context, lat, lon float64) string {
	m.calls.Add(1)
	return m.place
}

type mockRecorder struct {
	runs []*models.AuditRun
	err  error
}

func (m *mockRecorder) Create(run *models.AuditRun) error {
	if m.err != nil {
		return m.err
	}
	run.SetID("run-1")
	m.runs = append(m.runs, run)
	return nil
}

func newTestEngine(geo services.Geocoder, rec RunRecorder) *AuditEngine {
	return NewAuditEngine(geo, rec, shared.NewLogger(io.Discard))
}

func listScope(levels ...models.Level) Scope {
	return Scope{
		Mode:   models.ModeList,
		Audit:  models.AuditScope{BuildingID: "b1", LevelScope: models.AllLevels},
		Levels: levels,
	}
}

func TestUnheard(t *testing.T) {
	ctx := context.Background()
	a, b, c := tu.Beacon(tu.UUIDA, 1, 1), tu.Beacon(tu.UUIDA, 1, 2), tu.Beacon(tu.UUIDB, 7, 3)

	t.Run("No Recordings", func(t *testing.T) {
		_, err := newTestEngine(nil, nil).Unheard(ctx, nil, listScope(tu.Level("l1", "L1", a)), nil)
		if !errors.Is(err, shared.ErrNoRecordings) {
			t.Errorf("expected ErrNoRecordings, got %v", err)
		}
	})

	t.Run("Exact Match Is Empty", func(t *testing.T) {
		res, err := newTestEngine(nil, nil).Unheard(ctx, nil,
			listScope(tu.Level("l1", "L1", a, b)),
			[]*models.Recording{tu.Recording("r1", a), tu.Recording("r2", b)},
		)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !res.Empty() {
			t.Errorf("expected no missing beacons, got %v", res.Rows)
		}
		if res.Message() != shared.MsgNoneMissing {
			t.Errorf("expected %q, got %q", shared.MsgNoneMissing, res.Message())
		}
	})

	t.Run("All Levels Compared Independently", func(t *testing.T) {
		res, err := newTestEngine(nil, nil).Unheard(ctx, nil,
			listScope(tu.Level("l1", "L1", a, b), tu.Level("l2", "L2", b, c)),
			[]*models.Recording{tu.Recording("r1", b)},
		)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := []models.MissingBeacon{
			{Level: "L1", BeaconIdentifier: a},
			{Level: "L2", BeaconIdentifier: c},
		}
		if diff := cmp.Diff(want, res.Rows); diff != "" {
			t.Errorf("Unheard() mismatch (-want +got):\n%s", diff)
		}
		if res.Declared != 4 || res.Observed != 1 || res.Recordings != 1 {
			t.Errorf("unexpected counts declared=%d observed=%d recordings=%d", res.Declared, res.Observed, res.Recordings)
		}
	})

	t.Run("No Cross-Level Dedup", func(t *testing.T) {
		res, err := newTestEngine(nil, nil).Unheard(ctx, nil,
			listScope(tu.Level("l1", "L1", c), tu.Level("l2", "L2", c)),
			[]*models.Recording{tu.Recording("r1", a)},
		)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(res.Rows) != 2 || res.Rows[0].Level != "L1" || res.Rows[1].Level != "L2" {
			t.Errorf("expected one row per declaring level, got %v", res.Rows)
		}
	})

	t.Run("Difference Properties", func(t *testing.T) {
		level := tu.Level("l1", "L1", a, b, c)
		res, err := newTestEngine(nil, nil).Unheard(ctx, nil, listScope(level), []*models.Recording{tu.Recording("r1", b, tu.Beacon(tu.UUIDB, 9, 9))})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		declared := beacons.NewSet(a, b, c)
		observed := beacons.NewSet(b, tu.Beacon(tu.UUIDB, 9, 9))
		missing := beacons.NewSet()
		for _, row := range res.Rows {
			missing.Add(row.BeaconIdentifier)
		}

		if missing.Intersect(observed).Len() != 0 {
			t.Error("missing must not intersect observed")
		}
		if diff := cmp.Diff(declared.Sorted(), missing.Union(declared.Intersect(observed)).Sorted()); diff != "" {
			t.Errorf("missing ∪ (D ∩ O) != D (-want +got):\n%s", diff)
		}
	})

	t.Run("Malformed Entries Are Skipped", func(t *testing.T) {
		level := tu.Level("l1", "L1", a)
		level.PlacedBeacons = append(level.PlacedBeacons, json.RawMessage(`{"uuid":"x"}`))
		rec := tu.Recording("r1")
		rec.BeaconData = append(rec.BeaconData, json.RawMessage(`{"major":1}`))

		res, err := newTestEngine(nil, nil).Unheard(ctx, nil, listScope(level), []*models.Recording{rec})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(res.Rows) != 1 || len(res.Warnings) != 2 {
			t.Errorf("expected 1 row and 2 warnings, got %d rows %v", len(res.Rows), res.Warnings)
		}
	})

	t.Run("Loose Header Types Keep The Recording", func(t *testing.T) {
		doc := fmt.Sprintf(`{"recordingInfo":{"osVersion":17,"recordingStartTime":"soon"},"gpsData":[{"latitude":"52.37","longitude":"x"}],"beaconData":[%s]}`, tu.BeaconJSON(a))
		rec, err := beacons.ParseRecording("loose.json", []byte(doc))
		if err != nil {
			t.Fatalf("expected recording to parse, got %v", err)
		}

		res, err := newTestEngine(nil, nil).Unheard(ctx, nil, listScope(tu.Level("l1", "L1", a, b)), []*models.Recording{rec})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(res.Rows) != 1 || res.Rows[0].BeaconIdentifier != b {
			t.Errorf("expected only B unheard, got %v", res.Rows)
		}
		if len(res.Warnings) != 2 || res.Warnings[0].Field != "recordingInfo.recordingStartTime" || res.Warnings[1].Field != "gpsData[0]" {
			t.Errorf("expected header warnings, got %v", res.Warnings)
		}
	})

	t.Run("Empty Scope", func(t *testing.T) {
		_, err := newTestEngine(nil, nil).Unheard(ctx, nil, listScope(), []*models.Recording{tu.Recording("r1", a)})
		if !errors.Is(err, shared.ErrUnknownLevel) {
			t.Errorf("expected ErrUnknownLevel, got %v", err)
		}
	})

	t.Run("Unknown Mode", func(t *testing.T) {
		_, err := newTestEngine(nil, nil).Unheard(ctx, nil, Scope{Mode: "heatmap"}, []*models.Recording{tu.Recording("r1", a)})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Map Mode Keeps Coordinates", func(t *testing.T) {
		scope := Scope{
			Mode:    models.ModeMap,
			Audit:   models.AuditScope{BuildingID: "b1", LevelScope: "L1"},
			GeoJSON: tu.LevelGeoJSON(tu.PlacedJSON(b, 4.905, 52.375), tu.PlacedJSON(a, 4.895, 52.372), tu.PlacedJSON(a, 1, 1)),
		}
		res, err := newTestEngine(nil, nil).Unheard(ctx, nil, scope, []*models.Recording{tu.Recording("r1", c)})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(res.Rows) != 3 {
			t.Fatalf("expected one row per placement, got %v", res.Rows)
		}
		for i, want := range [][2]float64{{4.895, 52.372}, {1, 1}} {
			row := res.Rows[i]
			if row.BeaconIdentifier != a || row.Coordinates == nil || *row.Coordinates != want {
				t.Errorf("row %d: expected A at %v, got %+v", i, want, row)
			}
		}
		if res.Declared != 2 {
			t.Errorf("expected 2 distinct declared beacons, got %d", res.Declared)
		}
	})

	t.Run("Map Mode Without GeoJSON", func(t *testing.T) {
		_, err := newTestEngine(nil, nil).Unheard(ctx, nil, Scope{Mode: models.ModeMap}, []*models.Recording{tu.Recording("r1", a)})
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Canceled Context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := newTestEngine(nil, nil).Unheard(cctx, nil, listScope(tu.Level("l1", "L1", a)), []*models.Recording{tu.Recording("r1")})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("Progress Updates", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 10)
		_, err := newTestEngine(nil, nil).Unheard(ctx, progress,
			listScope(tu.Level("l1", "L1", a), tu.Level("l2", "L2", b)),
			[]*models.Recording{tu.Recording("r1", a)},
		)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(progress)

		var phases []string
		for u := range progress {
			phases = append(phases, u.Phase.String())
		}
		want := []string{"collect_observed", "compare_level", "compare_level", "compare_done"}
		if diff := cmp.Diff(want, phases); diff != "" {
			t.Errorf("progress phases mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Full Progress Channel Does Not Block", func(t *testing.T) {
		progress := make(chan ProgressUpdate)
		if _, err := newTestEngine(nil, nil).Unheard(ctx, progress, listScope(tu.Level("l1", "L1", a)), []*models.Recording{tu.Recording("r1")}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}

func TestRecord(t *testing.T) {
	res := &AuditResult{
		Scope:      listScope(),
		Rows:       []models.MissingBeacon{{Level: "L1", BeaconIdentifier: tu.Beacon(tu.UUIDA, 1, 1)}},
		Recordings: 2,
		Declared:   3,
		Observed:   2,
	}

	t.Run("Without Recorder", func(t *testing.T) {
		if _, err := newTestEngine(nil, nil).Record(res); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Persists Run", func(t *testing.T) {
		rec := &mockRecorder{}
		run, err := newTestEngine(nil, rec).Record(res)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if run.ID() != "run-1" || run.Missing() != 1 || run.Declared() != 3 || run.LevelScope() != models.AllLevels {
			t.Errorf("unexpected run %+v", run)
		}
	})

	t.Run("Recorder Error", func(t *testing.T) {
		if _, err := newTestEngine(nil, &mockRecorder{err: errors.New("disk full")}).Record(res); err == nil {
			t.Error("expected error from recorder")
		}
	})
}

func TestProfile(t *testing.T) {
	ctx := context.Background()

	load := func(t *testing.T, name string, notes string, ids ...models.BeaconIdentifier) *models.Recording {
		t.Helper()
		rec, err := beacons.ParseRecording(name, tu.RecordingDoc(notes, ids...))
		if err != nil {
			t.Fatalf("failed to parse fixture: %v", err)
		}
		return rec
	}

	t.Run("Groups And Geocodes", func(t *testing.T) {
		geo := &mockGeocoder{place: "Amsterdam, Netherlands"}
		rec := load(t, "walk.json", "", tu.Beacon(tu.UUIDA, 1, 5), tu.Beacon(tu.UUIDA, 1, 2))

		p := newTestEngine(geo, nil).Profile(ctx, rec, ProfileOpts{Geocode: true})
		if p.Location != "Amsterdam, Netherlands" {
			t.Errorf("expected geocoded location, got %q", p.Location)
		}
		if p.SensorCount() != 2 || p.GPSCount() != 1 || p.BeaconCount() != 2 {
			t.Errorf("unexpected counts %d/%d/%d", p.SensorCount(), p.GPSCount(), p.BeaconCount())
		}
		if len(p.Groups) != 1 || len(p.Groups[0].Majors) != 1 {
			t.Fatalf("expected one uuid with one major, got %+v", p.Groups)
		}
		if diff := cmp.Diff([]int{2, 5}, p.Groups[0].Majors[0].Minors); diff != "" {
			t.Errorf("minors mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Numeric Strings In GPS Data", func(t *testing.T) {
		geo := &mockGeocoder{place: "Amsterdam, Netherlands"}
		rec, err := beacons.ParseRecording("walk.json", []byte(`{"recordingInfo":{"osVersion":17},"gpsData":[{"latitude":"52.37","longitude":"4.89"}],"beaconData":[]}`))
		if err != nil {
			t.Fatalf("expected recording to parse, got %v", err)
		}

		p := newTestEngine(geo, nil).Profile(ctx, rec, ProfileOpts{Geocode: true})
		if p.Location != "Amsterdam, Netherlands" || p.Recording.RecordingInfo.OSVersion != "17" {
			t.Errorf("unexpected profile: location %q, info %+v", p.Location, p.Recording.RecordingInfo)
		}
		if len(p.Warnings) != 0 {
			t.Errorf("expected no warnings, got %v", p.Warnings)
		}
	})

	t.Run("Unreadable GPS Data Skips Geocoding", func(t *testing.T) {
		geo := &mockGeocoder{place: "x"}
		rec, err := beacons.ParseRecording("walk.json", []byte(`{"gpsData":[{"latitude":"north","longitude":4.89}],"beaconData":[]}`))
		if err != nil {
			t.Fatalf("expected recording to parse, got %v", err)
		}

		p := newTestEngine(geo, nil).Profile(ctx, rec, ProfileOpts{Geocode: true})
		if p.Location != "" || geo.calls.Load() != 0 {
			t.Errorf("expected no lookup, got %q after %d calls", p.Location, geo.calls.Load())
		}
		if p.GPSCount() != 1 || len(p.Warnings) != 1 || p.Warnings[0].Field != "gpsData[0]" {
			t.Errorf("expected the point counted and warned, got %d / %v", p.GPSCount(), p.Warnings)
		}
	})

	t.Run("Geocoding Disabled", func(t *testing.T) {
		geo := &mockGeocoder{place: "x"}
		p := newTestEngine(geo, nil).Profile(ctx, load(t, "walk.json", ""), ProfileOpts{})
		if p.Location != "" || geo.calls.Load() != 0 {
			t.Errorf("expected no lookup, got %q after %d calls", p.Location, geo.calls.Load())
		}
	})

	t.Run("Bulk Keeps Input Order", func(t *testing.T) {
		geo := &mockGeocoder{place: "Utrecht, Netherlands"}
		recs := []*models.Recording{
			load(t, "a.json", "first"),
			load(t, "b.json", "second"),
			load(t, "c.json", "third"),
		}

		progress := make(chan ProgressUpdate, len(recs))
		profiles, err := newTestEngine(geo, nil).BulkProfile(ctx, progress, recs, BulkProfileOpts{
			ProfileOpts: ProfileOpts{Geocode: true},
			NumWorkers:  2,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		for i, p := range profiles {
			if p.Recording != recs[i] {
				t.Errorf("profile %d out of order: %s", i, p.Recording.Name)
			}
		}
		if geo.calls.Load() != 3 {
			t.Errorf("expected 3 lookups, got %d", geo.calls.Load())
		}
		if len(progress) != 3 {
			t.Errorf("expected 3 progress updates, got %d", len(progress))
		}
	})
}

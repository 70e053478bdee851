// package tasks implements the unheard-beacon comparison and recording profiling.
//
// The core abstraction is AuditEngine, which compares declared and observed beacons for a scope
// and summarizes recordings. Operations emit progress updates via channels for non-blocking
// status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/opskit/internal/beacons"
	"github.com/desertthunder/opskit/internal/metrics"
	"github.com/desertthunder/opskit/internal/models"
	"github.com/desertthunder/opskit/internal/services"
	"github.com/desertthunder/opskit/internal/shared"
)

// Scope is the set of levels a comparison runs against.
//
// List mode compares every entry of Levels; map mode compares the placed beacons of GeoJSON,
// which carry coordinates.
type Scope struct {
	Mode    string
	Audit   models.AuditScope
	Levels  []models.Level
	GeoJSON *models.LevelGeoJSON
}

// AuditResult is the outcome of one unheard comparison.
type AuditResult struct {
	Scope      Scope
	Rows       []models.MissingBeacon
	Warnings   []beacons.Warning
	Recordings int // Recordings that were compared
	Declared   int // Distinct identifiers declared, summed per level
	Observed   int // Distinct identifiers heard across every recording
}

// Empty reports whether every declared beacon was heard.
func (r *AuditResult) Empty() bool {
	return len(r.Rows) == 0
}

// Message is the status line shown with the result.
func (r *AuditResult) Message() string {
	if r.Empty() {
		return shared.MsgNoneMissing
	}
	return fmt.Sprintf("%d missing beacon(s) across %d declared.", len(r.Rows), r.Declared)
}

// Run converts the result into an unsaved [models.AuditRun].
func (r *AuditResult) Run() *models.AuditRun {
	run := models.NewAuditRun(0, r.Scope.Mode, r.Scope.Audit, r.Rows)
	run.SetCounts(r.Recordings, r.Declared, r.Observed)
	return run
}

// Engine defines the comparison and profiling operations.
type Engine interface {
	// Unheard reports declared beacons absent from every recording.
	Unheard(ctx context.Context, progress chan<- ProgressUpdate, scope Scope, recs []*models.Recording) (*AuditResult, error)

	// Profile summarizes a single recording.
	Profile(ctx context.Context, rec *models.Recording, opts ProfileOpts) *Profile
}

// Auditor is an [Engine] that can also persist comparison results. Implemented by [AuditEngine].
type Auditor interface {
	Engine
	Record(result *AuditResult) (*models.AuditRun, error)
}

// RunRecorder persists comparison runs. Implemented by repositories.AuditRunRepository.
type RunRecorder interface {
	Create(run *models.AuditRun) error
}

// AuditEngine implements [Engine].
type AuditEngine struct {
	geocoder services.Geocoder
	recorder RunRecorder
	logger   *log.Logger
}

// NewAuditEngine creates an engine. geocoder and recorder may be nil.
func NewAuditEngine(geocoder services.Geocoder, recorder RunRecorder, logger *log.Logger) *AuditEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &AuditEngine{
		geocoder: geocoder,
		recorder: recorder,
		logger:   shared.WithLogger(logger, "component", "engine"),
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *AuditEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Unheard computes declared − observed for every level in scope.
//
// Each level is compared independently: a triple declared on two levels and never heard yields
// two rows. Rows follow the scope's level order, then UUID, major and minor.
func (e *AuditEngine) Unheard(ctx context.Context, progress chan<- ProgressUpdate, scope Scope, recs []*models.Recording) (*AuditResult, error) {
	if len(recs) == 0 {
		return nil, shared.ErrNoRecordings
	}

	result := &AuditResult{Scope: scope, Recordings: len(recs)}

	e.sendProgress(progress, collectObservedUpdate(len(recs)))
	observed, warnings := beacons.Observed(recs)
	result.Observed = observed.Len()
	result.Warnings = append(result.Warnings, warnings...)
	metrics.SkippedEntries.WithLabelValues("recording").Add(float64(len(warnings)))

	var err error
	switch scope.Mode {
	case models.ModeMap:
		err = e.compareMap(ctx, progress, scope, observed, result)
	case models.ModeList:
		err = e.compareLevels(ctx, progress, scope, observed, result)
	default:
		err = fmt.Errorf("%w: unknown mode %q", shared.ErrInvalidInput, scope.Mode)
	}
	if err != nil {
		return nil, err
	}

	metrics.RecordComparison(scope.Mode, len(result.Rows))
	e.logger.Info("comparison finished",
		"mode", scope.Mode,
		"building", scope.Audit.BuildingID,
		"levels", scope.Audit.LevelScope,
		"recordings", result.Recordings,
		"missing", len(result.Rows),
		"skipped", len(result.Warnings),
	)
	e.sendProgress(progress, compareDoneUpdate(result))
	return result, nil
}

func (e *AuditEngine) compareLevels(ctx context.Context, progress chan<- ProgressUpdate, scope Scope, observed beacons.Set, result *AuditResult) error {
	if len(scope.Levels) == 0 {
		return fmt.Errorf("%w: %s", shared.ErrUnknownLevel, scope.Audit.LevelScope)
	}

	for i, level := range scope.Levels {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.sendProgress(progress, compareLevelUpdate(i+1, len(scope.Levels), level.ShortName))

		ids, warnings := beacons.FromDeclared(level.ShortName, level.PlacedBeacons)
		result.Warnings = append(result.Warnings, warnings...)
		metrics.SkippedEntries.WithLabelValues("level").Add(float64(len(warnings)))

		declared := beacons.NewSet(ids...)
		result.Declared += declared.Len()

		for _, id := range declared.Difference(observed).Sorted() {
			result.Rows = append(result.Rows, models.MissingBeacon{Level: level.ShortName, BeaconIdentifier: id})
		}
	}
	return nil
}

func (e *AuditEngine) compareMap(ctx context.Context, progress chan<- ProgressUpdate, scope Scope, observed beacons.Set, result *AuditResult) error {
	if scope.GeoJSON == nil {
		return fmt.Errorf("%w: %s", shared.ErrNotFound, shared.MsgNoGeoJSON)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	label := scope.Audit.LevelScope
	e.sendProgress(progress, compareLevelUpdate(1, 1, label))

	placed, warnings := beacons.FromPlaced(label, scope.GeoJSON.PlacedBeacons)
	result.Warnings = append(result.Warnings, warnings...)
	metrics.SkippedEntries.WithLabelValues("level").Add(float64(len(warnings)))
	result.Declared = beacons.Identifiers(placed).Len()

	for _, p := range beacons.MissingPlaced(placed, observed) {
		coords := p.Coordinates
		result.Rows = append(result.Rows, models.MissingBeacon{
			Level:            label,
			BeaconIdentifier: p.BeaconIdentifier,
			Coordinates:      &coords,
		})
	}
	return nil
}

// Record persists a result through the configured [RunRecorder].
func (e *AuditEngine) Record(result *AuditResult) (*models.AuditRun, error) {
	if e.recorder == nil {
		return nil, fmt.Errorf("%w: audit history is not configured", shared.ErrServiceUnavailable)
	}

	run := result.Run()
	if err := e.recorder.Create(run); err != nil {
		return nil, fmt.Errorf("failed to record audit run: %w", err)
	}

	e.logger.Debug("recorded audit run", "id", run.ID(), "sequence", run.Sequence())
	return run, nil
}

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/opskit/internal/formatter"
	"github.com/desertthunder/opskit/internal/mapview"
	"github.com/desertthunder/opskit/internal/models"
	"github.com/desertthunder/opskit/internal/session"
	"github.com/desertthunder/opskit/internal/shared"
	"github.com/desertthunder/opskit/internal/tasks"
	"github.com/urfave/cli/v3"
)

// focus opens a session on the building given by --building.
func (r *Runner) focus(ctx context.Context, cmd *cli.Command) (*session.Session, error) {
	dir, err := r.directory()
	if err != nil {
		return nil, err
	}

	sess := session.New(dir, dir.Token(), r.logger)
	if _, err := sess.FocusBuilding(ctx, cmd.String("building")); err != nil {
		return nil, err
	}
	return sess, nil
}

// compare runs the engine over scope, printing progress, and records the run with --record.
func (r *Runner) compare(ctx context.Context, cmd *cli.Command, scope tasks.Scope, recs []*models.Recording) (*tasks.AuditResult, error) {
	var (
		recorder tasks.RunRecorder
		closeDB  = func() {}
	)
	if cmd.Bool("record") {
		repo, closeFn, err := r.history()
		if err != nil {
			return nil, err
		}
		recorder, closeDB = repo, closeFn
	}
	defer closeDB()

	engine := r.engine(recorder)

	progressCh, stop := r.followProgress(false)
	result, err := engine.Unheard(ctx, progressCh, scope, recs)
	stop()
	if err != nil {
		return nil, err
	}

	for _, w := range result.Warnings {
		r.logger.Warn(w.String())
	}

	if recorder != nil {
		run, err := engine.Record(result)
		if err != nil {
			return nil, err
		}
		r.writePlain("✓ Recorded run #%d (%s)\n", run.Sequence(), run.ID())
	}
	return result, nil
}

// UnheardList compares recordings against the declared beacons of one level or all levels.
func (r *Runner) UnheardList(ctx context.Context, cmd *cli.Command) error {
	recs, err := r.loadRecordings(cmd)
	if err != nil {
		return err
	}

	sess, err := r.focus(ctx, cmd)
	if err != nil {
		return err
	}

	scope, err := sess.ListScope(cmd.String("level"))
	if err != nil {
		return err
	}

	result, err := r.compare(ctx, cmd, scope, recs)
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Unheard beacons: %s / %s", scope.Audit.BuildingID, scope.Audit.LevelScope))
	if result.Empty() {
		r.writePlain("%s\n", result.Message())
	} else {
		r.writePlain("%s\n", formatter.MissingTable(result.Rows))
		r.writePlain("%s\n", result.Message())
	}

	if path := cmd.String("csv"); path != "" {
		data, err := formatter.MissingToCSV(result.Rows)
		if err != nil {
			return err
		}
		if err := formatter.WriteFile(path, data); err != nil {
			return err
		}
		r.writePlain("✓ CSV written to %s\n", path)
	}

	if path := cmd.String("markdown"); path != "" {
		title := fmt.Sprintf("Unheard Beacons: %s", scope.Audit.LevelScope)
		if err := formatter.WriteFile(path, formatter.MissingToMarkdown(title, result.Rows)); err != nil {
			return err
		}
		r.writePlain("✓ Markdown report written to %s\n", path)
	}

	return nil
}

// UnheardMap compares recordings against the placed beacons of one level and renders the
// missing ones on the level's map.
func (r *Runner) UnheardMap(ctx context.Context, cmd *cli.Command) error {
	cfg, err := mapview.ConfigForTheme(cmd.String("theme"))
	if err != nil {
		return err
	}

	recs, err := r.loadRecordings(cmd)
	if err != nil {
		return err
	}

	sess, err := r.focus(ctx, cmd)
	if err != nil {
		return err
	}

	scope, err := sess.MapScope(ctx, cmd.String("level"))
	if err != nil {
		return err
	}

	result, err := r.compare(ctx, cmd, scope, recs)
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Unheard beacons: %s / %s", scope.Audit.BuildingID, scope.Audit.LevelScope))
	if !result.Empty() {
		r.writePlain("%s\n", formatter.MissingTable(result.Rows))
	}
	r.writePlain("%s\n", result.Message())

	if _, err := mapview.Bounds(scope.GeoJSON.GeoJSON); errors.Is(err, shared.ErrNoGeometry) {
		r.logger.Warn(shared.MsgNoGeometry, "level", scope.Audit.LevelScope)
	}

	var page bytes.Buffer
	if err := mapview.Render(&page, scope.GeoJSON, result.Rows, cfg); err != nil {
		return err
	}
	htmlPath := cmd.String("html")
	if err := formatter.WriteFile(htmlPath, page.Bytes()); err != nil {
		return err
	}
	r.writePlain("✓ Map written to %s\n", htmlPath)

	if path := cmd.String("csv"); path != "" {
		data, err := formatter.MissingMapToCSV(result.Rows)
		if err != nil {
			return err
		}
		if err := formatter.WriteFile(path, data); err != nil {
			return err
		}
		r.writePlain("✓ CSV written to %s\n", path)
	}

	if path := cmd.String("geojson"); path != "" {
		data, err := mapview.ExportGeoJSON(result.Rows)
		if err != nil {
			return err
		}
		if err := formatter.WriteFile(path, data); err != nil {
			return err
		}
		r.writePlain("✓ GeoJSON written to %s\n", path)
	}

	if cmd.Bool("open") {
		if err := r.browser(htmlPath); err != nil {
			r.logger.Warn("could not open browser", "error", err)
		}
	}
	return nil
}

// UnheardReport renders a previously exported missing-beacons CSV as Markdown.
func (r *Runner) UnheardReport(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, "path")
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := formatter.ParseMissingCSV(f)
	if err != nil {
		return err
	}

	report := formatter.MissingToMarkdown(cmd.String("title"), rows)
	if out := cmd.String("output"); out != "" {
		if err := formatter.WriteFile(out, report); err != nil {
			return err
		}
		return r.writePlain("✓ Report written to %s\n", out)
	}
	return r.writePlain("%s", report)
}

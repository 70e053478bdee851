package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/opskit/internal/beacons"
	"github.com/desertthunder/opskit/internal/formatter"
	"github.com/desertthunder/opskit/internal/models"
	"github.com/desertthunder/opskit/internal/shared"
	"github.com/desertthunder/opskit/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ProfileOutput is the JSON form of one profiled recording.
type ProfileOutput struct {
	File     string              `json:"file"`
	Summary  []formatter.Row     `json:"summary"`
	Counts   []formatter.Row     `json:"counts"`
	Groups   []beacons.UUIDGroup `json:"groups"`
	Warnings []beacons.Warning   `json:"warnings,omitempty"`
}

// loadRecordings reads every path given as an argument. Unreadable files are logged and skipped;
// it fails only when nothing could be loaded.
func (r *Runner) loadRecordings(cmd *cli.Command) ([]*models.Recording, error) {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: one or more recording files", shared.ErrMissingArgument)
	}

	recs, errs := beacons.LoadRecordings(paths)
	for _, err := range errs {
		r.logger.Warn("skipping recording", "error", err)
	}
	if len(recs) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", shared.ErrNoRecordings, errors.Join(errs...))
	}
	if len(recs) == 0 {
		return nil, shared.ErrNoRecordings
	}
	return recs, nil
}

// followProgress prints engine updates until the returned stop function is called.
func (r *Runner) followProgress(quiet bool) (chan tasks.ProgressUpdate, func()) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progressCh {
			if quiet {
				r.logger.Debug(update.Message, "phase", update.Phase)
				continue
			}
			switch update.Phase {
			case tasks.CollectObserved:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.CompareDone:
				r.writePlain("✓ %s\n", update.Message)
			default:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	return progressCh, func() {
		close(progressCh)
		<-done
	}
}

// Profile summarizes recordings: device info, data counts and beacons grouped by UUID and major.
//
// With --csv and several files, the CSV holds the groups of the last file only and a warning is
// logged.
func (r *Runner) Profile(ctx context.Context, cmd *cli.Command) error {
	recs, err := r.loadRecordings(cmd)
	if err != nil {
		return err
	}

	asJSON := cmd.Bool("json")
	opts := tasks.ProfileOpts{Geocode: !cmd.Bool("no-geocode")}
	engine := r.engine(nil)

	var profiles []*tasks.Profile
	if len(recs) == 1 {
		profiles = []*tasks.Profile{engine.Profile(ctx, recs[0], opts)}
	} else {
		progressCh, stop := r.followProgress(asJSON)
		profiles, err = engine.BulkProfile(ctx, progressCh, recs, tasks.BulkProfileOpts{
			ProfileOpts: opts,
			NumWorkers:  cmd.Int("workers"),
		})
		stop()
		if err != nil {
			return err
		}
	}

	if path := cmd.String("csv"); path != "" {
		if len(profiles) > 1 {
			r.logger.Warn("several recordings given, CSV holds the last one", "file", profiles[len(profiles)-1].Recording.Name)
		}
		data, err := formatter.GroupsToCSV(profiles[len(profiles)-1].Groups)
		if err != nil {
			return err
		}
		if err := formatter.WriteFile(path, data); err != nil {
			return err
		}
		r.logger.Info("beacon data saved", "path", path)
	}

	if asJSON {
		out := make([]ProfileOutput, 0, len(profiles))
		for _, p := range profiles {
			out = append(out, profileOutput(p))
		}
		return r.writeJSON(out, true)
	}

	for _, p := range profiles {
		r.writeProfile(p)
	}
	return nil
}

func profileOutput(p *tasks.Profile) ProfileOutput {
	location := p.Location
	if location == "" {
		location = "N/A"
	}
	groups := p.Groups
	if groups == nil {
		groups = []beacons.UUIDGroup{}
	}
	return ProfileOutput{
		File:     p.Recording.Name,
		Summary:  formatter.RecordingSummary(p.Recording, location),
		Counts:   formatter.DataCounts(p.Recording),
		Groups:   groups,
		Warnings: p.Warnings,
	}
}

func (r *Runner) writeProfile(p *tasks.Profile) {
	out := profileOutput(p)

	r.writePlainHeader(out.File)
	r.writePlain("%s\n", formatter.RowsTable("Item", "Value", out.Summary))
	r.writePlainln("Data Counts")
	r.writePlain("%s\n", formatter.RowsTable("Data Type", "Count", out.Counts))
	r.writePlainln("UUID Data")
	if len(out.Groups) == 0 {
		r.writePlain("No beacon data.\n")
	} else {
		r.writePlain("%s\n", formatter.GroupsTable(out.Groups))
	}

	if len(out.Warnings) > 0 {
		r.writePlainln("Skipped %d malformed entries", len(out.Warnings))
		for _, w := range out.Warnings {
			r.writePlain("  - %s\n", w.String())
		}
	}
	r.writePlain("\n")
}

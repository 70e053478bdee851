package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/opskit/internal/formatter"
	"github.com/desertthunder/opskit/internal/models"
	"github.com/desertthunder/opskit/internal/repositories"
	"github.com/urfave/cli/v3"
)

// RunOutput is the JSON form of a recorded run.
type RunOutput struct {
	ID         string                 `json:"id"`
	Sequence   int                    `json:"sequence"`
	Mode       string                 `json:"mode"`
	ClientID   string                 `json:"clientId,omitempty"`
	SiteID     string                 `json:"siteId,omitempty"`
	BuildingID string                 `json:"buildingId"`
	LevelScope string                 `json:"levelScope"`
	Recordings int                    `json:"recordings"`
	Declared   int                    `json:"declared"`
	Observed   int                    `json:"observed"`
	Missing    []models.MissingBeacon `json:"missing"`
	CreatedAt  time.Time              `json:"createdAt"`
}

func runOutput(run *models.AuditRun) RunOutput {
	rows := run.Rows()
	if rows == nil {
		rows = []models.MissingBeacon{}
	}
	return RunOutput{
		ID:         run.ID(),
		Sequence:   run.Sequence(),
		Mode:       run.Mode(),
		ClientID:   run.ClientID(),
		SiteID:     run.SiteID(),
		BuildingID: run.BuildingID(),
		LevelScope: run.LevelScope(),
		Recordings: run.Recordings(),
		Declared:   run.Declared(),
		Observed:   run.Observed(),
		Missing:    rows,
		CreatedAt:  run.CreatedAt(),
	}
}

// findRun resolves a run by sequence number when the argument is numeric, else by ID.
func findRun(repo *repositories.AuditRunRepository, ref string) (*models.AuditRun, error) {
	if seq, err := strconv.Atoi(ref); err == nil {
		return repo.GetBySequence(seq)
	}
	return repo.Get(ref)
}

// HistoryList lists recorded runs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	repo, closeDB, err := r.history()
	if err != nil {
		return err
	}
	defer closeDB()

	runs, err := repo.List(map[string]any{
		"building_id": cmd.String("building"),
		"mode":        cmd.String("mode"),
		"limit":       cmd.Int("limit"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]RunOutput, 0, len(runs))
		for _, run := range runs {
			out = append(out, runOutput(run))
		}
		return r.writeJSON(out, true)
	}

	if len(runs) == 0 {
		return r.writePlain("No recorded runs.\n")
	}
	return r.writePlain("%s\n", formatter.RunsTable(runs))
}

// HistoryShow prints one run with its missing beacons.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	ref, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	repo, closeDB, err := r.history()
	if err != nil {
		return err
	}
	defer closeDB()

	run, err := findRun(repo, ref)
	if err != nil {
		return err
	}

	if path := cmd.String("csv"); path != "" {
		var data []byte
		if run.Mode() == models.ModeMap {
			data, err = formatter.MissingMapToCSV(run.Rows())
		} else {
			data, err = formatter.MissingToCSV(run.Rows())
		}
		if err != nil {
			return err
		}
		if err := formatter.WriteFile(path, data); err != nil {
			return err
		}
		r.logger.Info("run exported", "path", path)
	}

	if cmd.Bool("markdown") {
		title := fmt.Sprintf("Run #%d: %s / %s", run.Sequence(), run.BuildingID(), run.LevelScope())
		return r.writePlain("%s", formatter.MissingToMarkdown(title, run.Rows()))
	}

	r.writePlainHeader(fmt.Sprintf("Run #%d (%s)", run.Sequence(), run.ID()))
	r.writePlain("Mode:       %s\n", run.Mode())
	r.writePlain("Building:   %s\n", run.BuildingID())
	r.writePlain("Levels:     %s\n", run.LevelScope())
	r.writePlain("Recordings: %d\n", run.Recordings())
	r.writePlain("Declared:   %d\n", run.Declared())
	r.writePlain("Observed:   %d\n", run.Observed())
	r.writePlain("Created:    %s\n", run.CreatedAt().Format(time.RFC3339))

	if run.Missing() == 0 {
		r.writePlainln("No beacons were missing.")
		return nil
	}
	r.writePlainln("Missing: %d", run.Missing())
	return r.writePlain("%s\n", formatter.MissingTable(run.Rows()))
}

// HistoryDelete soft-deletes a run.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	ref, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	repo, closeDB, err := r.history()
	if err != nil {
		return err
	}
	defer closeDB()

	run, err := findRun(repo, ref)
	if err != nil {
		return err
	}
	if err := repo.Delete(run.ID()); err != nil {
		return err
	}

	return r.writePlain("✓ Deleted run #%d\n", run.Sequence())
}

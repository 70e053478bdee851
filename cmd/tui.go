package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/opskit/internal/session"
	"github.com/desertthunder/opskit/internal/shared"
	"github.com/desertthunder/opskit/internal/tasks"
	"github.com/desertthunder/opskit/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive drill-down: client, site, building, level, then the unheard list.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	recs, err := r.loadRecordings(cmd)
	if err != nil {
		return err
	}

	dir, err := r.directory()
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	var recorder tasks.RunRecorder
	if repo, closeDB, err := r.history(); err != nil {
		r.logger.Warn("audit history disabled", "error", err)
	} else {
		defer closeDB()
		recorder = repo
	}

	sess := session.New(dir, dir.Token(), r.logger)
	model := ui.NewModel(ctx, sess, r.engine(recorder), recs)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

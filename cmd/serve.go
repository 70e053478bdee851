package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/opskit/internal/mapview"
	"github.com/desertthunder/opskit/internal/server"
	"github.com/desertthunder/opskit/internal/services"
	"github.com/desertthunder/opskit/internal/tasks"
	"github.com/desertthunder/opskit/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve runs the web dashboard until the context is canceled.
//
// Runs are recorded to the audit history when the database opens; otherwise the dashboard still
// serves and the save buttons report the history as unavailable.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	mapConfig, err := mapview.ConfigForTheme(cmd.String("theme"))
	if err != nil {
		return err
	}

	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = port
	}

	var recorder tasks.RunRecorder
	if repo, closeDB, err := r.history(); err != nil {
		r.logger.Warn("audit history disabled", "error", err)
	} else {
		defer closeDB()
		recorder = repo
	}

	app, err := web.New(web.Options{
		Auth: r.planner,
		Directory: func(t *services.Token) services.Directory {
			return r.planner.WithToken(t)
		},
		Engine:             r.engine(recorder),
		Logger:             r.logger,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
		SessionIdle:        cfg.SessionIdle(),
		MapConfig:          mapConfig,
		Geocode:            true,
	})
	if err != nil {
		return fmt.Errorf("failed to build dashboard: %w", err)
	}

	srv := server.New(cfg.Addr(), app.Handler(), r.logger)

	url := fmt.Sprintf("http://%s", srv.Addr())
	r.writePlain("Dashboard at %s\n", url)
	if cmd.Bool("open") {
		if err := r.browser(url); err != nil {
			r.logger.Warn("could not open browser", "error", err)
		}
	}

	return srv.Serve(ctx)
}

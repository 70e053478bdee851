package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/opskit/internal/repositories"
	"github.com/desertthunder/opskit/internal/services"
	"github.com/desertthunder/opskit/internal/shared"
	"github.com/desertthunder/opskit/internal/tasks"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	planner    *services.PlannerService
	geocoder   services.Geocoder
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	openDB     func(shared.DatabaseConfig) (*sql.DB, error)
	browser    func(string) error
	now        func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Planner    *services.PlannerService
	Geocoder   services.Geocoder
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Browser    func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.Planner.Timeout()}
	}
	if opts.Planner == nil {
		opts.Planner = services.NewPlannerService(services.PlannerOpts{
			BaseURL:    opts.Config.Planner.BaseURL,
			LoginURL:   opts.Config.Planner.LoginURL,
			HTTPClient: opts.HTTPClient,
			Logger:     opts.Logger,
		})
	}
	if opts.Geocoder == nil {
		opts.Geocoder = services.NewGeocoderServiceFromConfig(opts.Config.Geocoder, opts.Logger)
	}
	if opts.Browser == nil {
		opts.Browser = shared.OpenBrowser
	}

	return &Runner{
		config:     opts.Config,
		planner:    opts.Planner,
		geocoder:   opts.Geocoder,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		openDB:     shared.OpenDatabase,
		browser:    opts.Browser,
		now:        time.Now,
	}
}

// SetLogger replaces the logger, e.g. to keep log lines off the TUI screen.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, plannerCommand, apiCommand, profileCommand, unheardCommand, historyCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// tokenPath resolves where `auth login` keeps the planner token.
func (r *Runner) tokenPath() (string, error) {
	return r.config.Auth.ResolveTokenPath()
}

// directory loads the saved token and returns a planner client that sends it.
//
// A nominally expired token is still used; the planner decides whether it works.
func (r *Runner) directory() (*services.PlannerService, error) {
	path, err := r.tokenPath()
	if err != nil {
		return nil, err
	}

	token, err := services.LoadToken(path)
	if errors.Is(err, shared.ErrNotAuthenticated) {
		return nil, fmt.Errorf("%w: run 'opskit auth login' first", shared.ErrNotAuthenticated)
	}
	if err != nil {
		return nil, err
	}

	if token.NominallyExpired(r.now()) {
		r.logger.Warn("token is past its nominal expiry, trying it anyway", "expiry", token.Expiry.Format(time.RFC3339))
	}
	return r.planner.WithToken(token), nil
}

// history opens the audit database. Callers must invoke the returned close function.
func (r *Runner) history() (*repositories.AuditRunRepository, func(), error) {
	db, err := r.openDB(r.config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open audit history: %w", err)
	}
	return repositories.NewAuditRunRepository(db), func() { db.Close() }, nil
}

// engine builds an audit engine; recorder may be nil when runs are not persisted.
func (r *Runner) engine(recorder tasks.RunRecorder) *tasks.AuditEngine {
	return tasks.NewAuditEngine(r.geocoder, recorder, r.logger)
}

func marshalJSON(data any, pretty bool) ([]byte, error) {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return output, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := marshalJSON(data, pretty)
	if err != nil {
		return err
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

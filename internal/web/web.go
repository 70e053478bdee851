// Package web implements the dashboard served by `opskit serve`.
//
// # Screens
//
// Routes:
//
//	GET  /login                 → login form
//	POST /login                 → planner login (rate limited per IP)
//	POST /logout                → drop the session
//	GET  /profiler              → basic profiler upload form
//	POST /profiler              → recording summary, data counts, grouped beacons
//	GET  /profiler/beacons.csv  → beacon_data.csv of the last profile
//	GET  /unheard/list          → client/site/building/level drill-down (query parameters)
//	POST /unheard/list          → compare uploads against the selected level(s)
//	GET  /unheard/map           → drill-down with map-mode level labels
//	POST /unheard/map           → compare uploads against one level's map data
//	GET  /unheard/map/view      → standalone map of the last map comparison
//	GET  /unheard/missing.csv   → missing_beacons.csv of the last comparison
//	GET  /metrics               → Prometheus metrics
//	GET  /healthz               → liveness
//
// # State Management
//
// Each browser gets a [session.Session] behind a random cookie, kept in a mutex-guarded [Store]
// until logout or until it sits unused for longer than [Options.SessionIdle].
// The drill-down is driven by query parameters: every request replays the chosen client, site and
// building through the session, which only refetches when a choice changed. A child ID that does
// not belong to its parent's options is dropped, so changing the client resets everything below it.
//
// Templates are html/template files embedded from templates/.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/opskit/internal/formatter"
	"github.com/desertthunder/opskit/internal/mapview"
	"github.com/desertthunder/opskit/internal/models"
	"github.com/desertthunder/opskit/internal/server"
	"github.com/desertthunder/opskit/internal/services"
	"github.com/desertthunder/opskit/internal/shared"
	"github.com/desertthunder/opskit/internal/tasks"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"login.html", "profiler.html", "unheard.html"}

// DirectoryFunc binds a hierarchy reader to a logged-in user's token.
type DirectoryFunc func(token *services.Token) services.Directory

// Options configures an [App].
type Options struct {
	Auth               services.Authenticator
	Directory          DirectoryFunc
	Engine             tasks.Auditor
	Logger             *log.Logger
	LoginRatePerMinute int
	SessionIdle        time.Duration // Unused sessions are dropped after this long; 0 disables expiry
	MapConfig          mapview.RenderConfig
	Geocode            bool // Resolve the first GPS fix on the profiler screen
	SecureCookies      bool
}

// App is the dashboard.
type App struct {
	auth      services.Authenticator
	directory DirectoryFunc
	engine    tasks.Auditor
	store     *Store
	templates map[string]*template.Template
	logger    *log.Logger
	loginRate int
	mapConfig mapview.RenderConfig
	geocode   bool
	secure    bool
}

// New creates the dashboard and parses its templates.
func New(opts Options) (*App, error) {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.MapConfig.Theme == "" {
		opts.MapConfig = mapview.ClassicConfig()
	}

	tmpls, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	return &App{
		auth:      opts.Auth,
		directory: opts.Directory,
		engine:    opts.Engine,
		store:     NewStore(opts.SessionIdle),
		templates: tmpls,
		logger:    shared.WithLogger(opts.Logger, "component", "web"),
		loginRate: opts.LoginRatePerMinute,
		mapConfig: opts.MapConfig,
		geocode:   opts.Geocode,
		secure:    opts.SecureCookies,
	}, nil
}

// Store exposes the session store.
func (a *App) Store() *Store {
	return a.store
}

// Handler builds the routed dashboard.
func (a *App) Handler() http.Handler {
	r := server.NewRouter()
	r.Use(server.RequestLogger(a.logger), server.Metrics())

	r.Handle(http.MethodGet, "/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	}))
	r.Handle(http.MethodGet, "/metrics", promhttp.Handler())

	r.Handle(http.MethodGet, "/", http.HandlerFunc(a.handleIndex))
	r.Handle(http.MethodGet, "/login", http.HandlerFunc(a.handleLoginForm))
	r.HandleWith(http.MethodPost, "/login", http.HandlerFunc(a.handleLogin), server.LoginRateLimit(a.loginRate))
	r.Handle(http.MethodPost, "/logout", http.HandlerFunc(a.handleLogout))

	r.Handle(http.MethodGet, "/profiler", a.requireSession(a.handleProfilerForm))
	r.Handle(http.MethodPost, "/profiler", a.requireSession(a.handleProfile))
	r.Handle(http.MethodGet, "/profiler/beacons.csv", a.requireSession(a.handleBeaconCSV))

	r.Handle(http.MethodGet, "/unheard/list", a.requireSession(a.unheardPage(models.ModeList)))
	r.Handle(http.MethodPost, "/unheard/list", a.requireSession(a.unheardRun(models.ModeList)))
	r.Handle(http.MethodGet, "/unheard/map", a.requireSession(a.unheardPage(models.ModeMap)))
	r.Handle(http.MethodPost, "/unheard/map", a.requireSession(a.unheardRun(models.ModeMap)))
	r.Handle(http.MethodGet, "/unheard/map/view", a.requireSession(a.handleMapView))
	r.Handle(http.MethodGet, "/unheard/missing.csv", a.requireSession(a.handleMissingCSV))

	return r
}

// requireSession redirects to the login form unless the request carries a live session cookie.
func (a *App) requireSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry := a.store.FromRequest(r)
		if entry == nil {
			http.Redirect(w, r, "/login?next="+r.URL.Path, http.StatusSeeOther)
			return
		}
		next(w, r.WithContext(withEntry(r.Context(), entry)))
	})
}

func loadTemplates() (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"coords": func(c *[2]float64) string {
			if c == nil {
				return ""
			}
			return formatter.FormatCoordinates(*c)
		},
		"minors": formatter.JoinMinors,
	}

	out := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		out[page] = t
	}
	return out, nil
}

// render executes a page into a buffer first so template errors never send a half page.
func (a *App) render(w http.ResponseWriter, status int, page string, data *pageData) {
	t, ok := a.templates[page]
	if !ok {
		a.logger.Error("unknown template", "page", page)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		a.logger.Error("failed to render template", "page", page, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

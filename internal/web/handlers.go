package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/opskit/internal/beacons"
	"github.com/desertthunder/opskit/internal/formatter"
	"github.com/desertthunder/opskit/internal/mapview"
	"github.com/desertthunder/opskit/internal/models"
	"github.com/desertthunder/opskit/internal/session"
	"github.com/desertthunder/opskit/internal/shared"
	"github.com/desertthunder/opskit/internal/tasks"
)

// maxUploadBytes bounds a multipart upload of recordings.
const maxUploadBytes = 64 << 20

// option is one entry of a drill-down selector.
type option struct {
	Value    string
	Label    string
	Selected bool
}

// pageData is the model shared by every template.
type pageData struct {
	Title   string
	User    string
	Error   string
	Message string
	Notices []string
	Next    string
	Email   string

	Mode      string
	Clients   []option
	Sites     []option
	Buildings []option
	Levels    []option
	Selection session.Selection
	Level     string
	Query     string

	Groups     []formatter.LevelGroup
	Missing    int
	HasResult  bool
	MapURL     string
	CSVURL     string
	Summary    []formatter.Row
	Counts     []formatter.Row
	UUIDGroups []beacons.UUIDGroup
}

func nodeOptions[T models.Node](nodes []T, selected string) []option {
	out := make([]option, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, option{Value: n.NodeID(), Label: n.NodeName(), Selected: n.NodeID() == selected})
	}
	return out
}

func contains[T models.Node](nodes []T, id string) bool {
	for _, n := range nodes {
		if n.NodeID() == id {
			return true
		}
	}
	return false
}

func (a *App) newPage(r *http.Request, title string) *pageData {
	data := &pageData{Title: title}
	if e := EntryFrom(r.Context()); e != nil {
		data.User = userLabel(e)
	}
	return data
}

// userLabel prefers the token subject when the planner issued a JWT.
func userLabel(e *Entry) string {
	t := e.Session.Token()
	if t == nil {
		return ""
	}
	if claims, err := t.Claims(); err == nil && claims.Subject != "" {
		return claims.Subject
	}
	return t.Email
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	if a.store.FromRequest(r) == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/unheard/list", http.StatusSeeOther)
}

func (a *App) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	data := a.newPage(r, "Login")
	data.Next = safeNext(r.URL.Query().Get("next"))
	if data.Next != "/unheard/list" {
		data.Message = shared.MsgLoginRequired
	}
	a.render(w, http.StatusOK, "login.html", data)
}

// safeNext only allows local redirect targets.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/unheard/list"
	}
	return next
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	data := a.newPage(r, "Login")
	data.Next = safeNext(r.FormValue("next"))
	data.Email = email

	token, err := a.auth.Login(r.Context(), email, password)
	if err != nil {
		status := http.StatusUnauthorized
		switch {
		case errors.Is(err, shared.ErrMissingArgument):
			data.Error, status = shared.MsgBothRequired, http.StatusBadRequest
		case errors.Is(err, shared.ErrInvalidEmail):
			data.Error, status = shared.MsgInvalidEmail, http.StatusBadRequest
		default:
			data.Error = shared.MsgLoginFailed
		}
		a.logger.Warn("login failed", "email", email, "error", err)
		a.render(w, status, "login.html", data)
		return
	}

	sess := session.New(a.directory(token), token, a.logger)
	entry := a.store.Create(sess)
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    entry.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})

	a.logger.Info("dashboard login", "email", email, "sessions", a.store.Len())
	http.Redirect(w, r, data.Next, http.StatusSeeOther)
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	if e := a.store.FromRequest(r); e != nil {
		a.store.Delete(e.ID)
	}
	http.SetCookie(w, &http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (a *App) handleProfilerForm(w http.ResponseWriter, r *http.Request) {
	a.render(w, http.StatusOK, "profiler.html", a.newPage(r, "Basic Profiler"))
}

func (a *App) handleProfile(w http.ResponseWriter, r *http.Request) {
	entry := EntryFrom(r.Context())
	data := a.newPage(r, "Basic Profiler")

	uploads, err := readUploads(r, "recording")
	if err != nil || len(uploads) == 0 {
		data.Error = shared.MsgUploadFiles
		a.render(w, http.StatusBadRequest, "profiler.html", data)
		return
	}

	rec, err := beacons.ParseRecording(uploads[0].Name, uploads[0].Data)
	if err != nil {
		data.Error = err.Error()
		a.render(w, http.StatusBadRequest, "profiler.html", data)
		return
	}

	profile := a.engine.Profile(r.Context(), rec, tasks.ProfileOpts{Geocode: a.geocode})
	entry.SetProfile(profile)

	location := profile.Location
	if location == "" {
		location = "N/A"
	}
	data.Summary = formatter.RecordingSummary(rec, location)
	data.Counts = formatter.DataCounts(rec)
	data.UUIDGroups = profile.Groups
	data.Notices = warningNotices(profile.Warnings)
	data.CSVURL = "/profiler/beacons.csv"
	data.HasResult = true
	a.render(w, http.StatusOK, "profiler.html", data)
}

func (a *App) handleBeaconCSV(w http.ResponseWriter, r *http.Request) {
	profile := EntryFrom(r.Context()).Profile()
	if profile == nil {
		http.Error(w, shared.MsgUploadFiles, http.StatusNotFound)
		return
	}

	out, err := formatter.GroupsToCSV(profile.Groups)
	if err != nil {
		a.logger.Error("failed to build beacon CSV", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeDownload(w, shared.BeaconDataFile, out)
}

// cascade replays the drill-down choices in q through the session and fills the selectors.
// It stops at the first level with nothing to choose and reports why in data.Message.
func (a *App) cascade(ctx context.Context, sess *session.Session, q url.Values, mode string, data *pageData) {
	data.Mode = mode

	clients, err := sess.Clients(ctx)
	if err != nil || len(clients) == 0 {
		data.Message = shared.MsgNoClients
		return
	}
	clientID := q.Get("client")
	data.Clients = nodeOptions(clients, clientID)
	if !contains(clients, clientID) {
		return
	}

	sites, err := sess.SelectClient(ctx, clientID)
	if err != nil || len(sites) == 0 {
		data.Message = shared.MsgNoSites
		return
	}
	siteID := q.Get("site")
	data.Sites = nodeOptions(sites, siteID)
	if !contains(sites, siteID) {
		return
	}

	buildings, err := sess.SelectSite(ctx, siteID)
	if err != nil || len(buildings) == 0 {
		data.Message = shared.MsgNoBuildings
		return
	}
	buildingID := q.Get("building")
	data.Buildings = nodeOptions(buildings, buildingID)
	if !contains(buildings, buildingID) {
		return
	}

	levels, err := sess.SelectBuilding(ctx, buildingID)
	if err != nil || len(levels) == 0 {
		data.Message = shared.MsgNoLevels
		return
	}

	data.Level = q.Get("level")
	for _, l := range session.LevelOptions(levels, mode) {
		data.Levels = append(data.Levels, option{Value: l, Label: l, Selected: l == data.Level})
	}
	data.Selection = sess.Selection()
	data.Query = url.Values{"client": {clientID}, "site": {siteID}, "building": {buildingID}, "level": {data.Level}}.Encode()
}

func pageTitle(mode string) string {
	if mode == models.ModeMap {
		return "Unheard Beacons (Map)"
	}
	return "Unheard Beacons (List)"
}

func (a *App) unheardPage(mode string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := EntryFrom(r.Context())
		data := a.newPage(r, pageTitle(mode))
		a.cascade(r.Context(), entry.Session, r.URL.Query(), mode, data)
		a.render(w, http.StatusOK, "unheard.html", data)
	}
}

func (a *App) unheardRun(mode string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := EntryFrom(r.Context())
		data := a.newPage(r, pageTitle(mode))

		uploads, uploadErr := readUploads(r, "recordings")
		a.cascade(r.Context(), entry.Session, r.Form, mode, data)
		if data.Levels == nil {
			a.render(w, http.StatusBadRequest, "unheard.html", data)
			return
		}
		if uploadErr != nil {
			data.Error = uploadErr.Error()
			a.render(w, http.StatusBadRequest, "unheard.html", data)
			return
		}

		recs, parseErrs := beacons.ParseUploads(uploads)
		for _, err := range parseErrs {
			data.Notices = append(data.Notices, err.Error())
		}

		var (
			scope tasks.Scope
			err   error
		)
		if mode == models.ModeMap {
			scope, err = entry.Session.MapScope(r.Context(), data.Level)
		} else {
			scope, err = entry.Session.ListScope(data.Level)
		}
		if err != nil {
			data.Error = scopeMessage(err)
			a.render(w, http.StatusBadRequest, "unheard.html", data)
			return
		}

		result, err := a.engine.Unheard(r.Context(), nil, scope, recs)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, shared.ErrNoRecordings) {
				data.Error, status = shared.MsgUploadFiles, http.StatusBadRequest
			} else {
				data.Error = err.Error()
			}
			a.render(w, status, "unheard.html", data)
			return
		}

		if r.FormValue("record") != "" {
			if run, err := a.engine.Record(result); err != nil {
				data.Notices = append(data.Notices, "History not saved: "+err.Error())
			} else {
				data.Notices = append(data.Notices, fmt.Sprintf("Saved as run #%d.", run.Sequence()))
			}
		}

		entry.SetResult(result)
		data.Notices = append(data.Notices, warningNotices(result.Warnings)...)
		if mode == models.ModeMap {
			if _, err := mapview.Bounds(scope.GeoJSON.GeoJSON); errors.Is(err, shared.ErrNoGeometry) {
				data.Notices = append(data.Notices, shared.MsgNoGeometry)
			}
		}
		data.Message = result.Message()
		data.HasResult = true
		data.Missing = len(result.Rows)
		data.Groups = formatter.GroupByLevel(result.Rows)
		if !result.Empty() {
			data.CSVURL = "/unheard/missing.csv"
			if mode == models.ModeMap {
				data.MapURL = "/unheard/map/view"
			}
		}
		a.render(w, http.StatusOK, "unheard.html", data)
	}
}

func scopeMessage(err error) string {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return shared.MsgNoGeoJSON
	case errors.Is(err, shared.ErrUnknownLevel):
		return "Please choose a level."
	default:
		return err.Error()
	}
}

func (a *App) handleMapView(w http.ResponseWriter, r *http.Request) {
	result := EntryFrom(r.Context()).Result()
	if result == nil || result.Scope.Mode != models.ModeMap {
		http.Error(w, shared.MsgUploadFiles, http.StatusNotFound)
		return
	}

	cfg := a.mapConfig
	cfg.Title = "Unheard Beacons in " + result.Scope.Audit.LevelScope
	cfg.PageTitle = cfg.Title

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := mapview.Render(w, result.Scope.GeoJSON, result.Rows, cfg); err != nil {
		a.logger.Error("failed to render map", "error", err)
	}
}

func (a *App) handleMissingCSV(w http.ResponseWriter, r *http.Request) {
	result := EntryFrom(r.Context()).Result()
	if result == nil {
		http.Error(w, shared.MsgUploadFiles, http.StatusNotFound)
		return
	}

	var (
		out []byte
		err error
	)
	if result.Scope.Mode == models.ModeMap {
		out, err = formatter.MissingMapToCSV(result.Rows)
	} else {
		out, err = formatter.MissingToCSV(result.Rows)
	}
	if err != nil {
		a.logger.Error("failed to build missing CSV", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeDownload(w, shared.MissingBeaconsFile, out)
}

// readUploads parses a multipart form and returns the files under field.
func readUploads(r *http.Request, field string) ([]beacons.Upload, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	var uploads []beacons.Upload
	for _, fh := range r.MultipartForm.File[field] {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}
		uploads = append(uploads, beacons.Upload{Name: fh.Filename, Data: data})
	}
	return uploads, nil
}

func warningNotices(ws []beacons.Warning) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.String())
	}
	return out
}

func writeDownload(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(data)
}

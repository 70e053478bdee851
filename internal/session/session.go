// Package session holds the per-user drill-down state: the planner token, the selected client,
// site, building and level, and the cached options of each hierarchy level.
//
// Selecting a node replaces (never merges) the cached children of that node and clears every
// cache below it, then fetches the new children before returning.
package session

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/opskit/internal/models"
	"github.com/desertthunder/opskit/internal/services"
	"github.com/desertthunder/opskit/internal/shared"
	"github.com/desertthunder/opskit/internal/tasks"
)

// Selection is the chosen node at each hierarchy level. Empty means not chosen.
type Selection struct {
	ClientID   string
	SiteID     string
	BuildingID string
	LevelID    string
}

// Session caches one user's hierarchy options. It is safe for concurrent use; calls serialize.
type Session struct {
	mu     sync.Mutex
	dir    services.Directory
	token  *services.Token
	logger *log.Logger

	clients       []models.Client
	clientsLoaded bool
	sites         []models.Site
	buildings     []models.Building
	levels        []models.Level
	geojson       *models.LevelGeoJSON

	sel Selection
}

// New creates a session reading the hierarchy from dir. token may be nil for tests and the TUI.
func New(dir services.Directory, token *services.Token, logger *log.Logger) *Session {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Session{dir: dir, token: token, logger: shared.WithLogger(logger, "component", "session")}
}

// Token returns the planner token the session was created with.
func (s *Session) Token() *services.Token {
	return s.token
}

// Selection returns the current selection.
func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// Clients returns the client list, fetching it on first use.
func (s *Session) Clients(ctx context.Context) ([]models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.clientsLoaded {
		return s.clients, nil
	}

	clients, err := s.dir.Clients(ctx)
	if err != nil {
		s.logger.Error("failed to fetch clients", "error", err)
		return nil, err
	}
	s.clients = clients
	s.clientsLoaded = true
	s.logger.Debug("fetched clients", "count", len(clients))
	return clients, nil
}

// Refresh drops every cache and the selection, so the next call refetches clients.
func (s *Session) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clients, s.clientsLoaded = nil, false
	s.clearBelowClient()
	s.sel = Selection{}
}

// SelectClient chooses a client and fetches its sites. Reselecting the current client returns the
// cached sites.
func (s *Session) SelectClient(ctx context.Context, clientID string) ([]models.Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if clientID == s.sel.ClientID && s.sites != nil {
		return s.sites, nil
	}

	s.clearBelowClient()
	s.sel = Selection{ClientID: clientID}

	sites, err := s.dir.Sites(ctx, clientID)
	if err != nil {
		s.logger.Error("failed to fetch sites", "client", clientID, "error", err)
		return nil, err
	}
	s.sites = orEmpty(sites)
	s.logger.Debug("fetched sites", "client", clientID, "count", len(sites))
	return s.sites, nil
}

// SelectSite chooses a site and fetches its buildings.
func (s *Session) SelectSite(ctx context.Context, siteID string) ([]models.Building, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sel.ClientID == "" {
		return nil, fmt.Errorf("%w: select a client first", shared.ErrInvalidInput)
	}
	if siteID == s.sel.SiteID && s.buildings != nil {
		return s.buildings, nil
	}

	s.clearBelowSite()
	s.sel.SiteID, s.sel.BuildingID, s.sel.LevelID = siteID, "", ""

	buildings, err := s.dir.Buildings(ctx, siteID)
	if err != nil {
		s.logger.Error("failed to fetch buildings", "site", siteID, "error", err)
		return nil, err
	}
	s.buildings = orEmpty(buildings)
	s.logger.Debug("fetched buildings", "site", siteID, "count", len(buildings))
	return s.buildings, nil
}

// SelectBuilding chooses a building and fetches its levels.
func (s *Session) SelectBuilding(ctx context.Context, buildingID string) ([]models.Level, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sel.SiteID == "" {
		return nil, fmt.Errorf("%w: select a site first", shared.ErrInvalidInput)
	}
	if buildingID == s.sel.BuildingID && s.levels != nil {
		return s.levels, nil
	}

	s.clearBelowBuilding()
	s.sel.BuildingID, s.sel.LevelID = buildingID, ""

	levels, err := s.dir.Levels(ctx, buildingID)
	if err != nil {
		s.logger.Error("failed to fetch levels", "building", buildingID, "error", err)
		return nil, err
	}
	s.levels = orEmpty(levels)
	s.logger.Debug("fetched levels", "building", buildingID, "count", len(levels))
	return s.levels, nil
}

// FocusBuilding clears the selection and jumps straight to a building, for callers that already
// know its ID (the CLI). Client and site stay unselected.
func (s *Session) FocusBuilding(ctx context.Context, buildingID string) ([]models.Level, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearBelowClient()
	s.sel = Selection{BuildingID: buildingID}

	levels, err := s.dir.Levels(ctx, buildingID)
	if err != nil {
		s.logger.Error("failed to fetch levels", "building", buildingID, "error", err)
		return nil, err
	}
	s.levels = orEmpty(levels)
	return s.levels, nil
}

// SelectLevel chooses a level and fetches its map data.
func (s *Session) SelectLevel(ctx context.Context, levelID string) (*models.LevelGeoJSON, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sel.BuildingID == "" {
		return nil, fmt.Errorf("%w: select a building first", shared.ErrInvalidInput)
	}
	if levelID == s.sel.LevelID && s.geojson != nil {
		return s.geojson, nil
	}

	s.geojson = nil
	s.sel.LevelID = levelID

	g, err := s.dir.LevelGeoJSON(ctx, levelID)
	if err != nil {
		s.logger.Error("failed to fetch level geojson", "level", levelID, "error", err)
		return nil, err
	}
	if g == nil || g.Empty() {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotFound, shared.MsgNoGeoJSON)
	}
	s.geojson = g
	return g, nil
}

// Sites returns the cached sites of the selected client.
func (s *Session) Sites() []models.Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sites
}

// Buildings returns the cached buildings of the selected site.
func (s *Session) Buildings() []models.Building {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildings
}

// Levels returns the cached levels of the selected building.
func (s *Session) Levels() []models.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levels
}

// GeoJSON returns the cached map data of the selected level.
func (s *Session) GeoJSON() *models.LevelGeoJSON {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.geojson
}

func (s *Session) clearBelowClient() {
	s.sites = nil
	s.clearBelowSite()
}

func (s *Session) clearBelowSite() {
	s.buildings = nil
	s.clearBelowBuilding()
}

func (s *Session) clearBelowBuilding() {
	s.levels = nil
	s.geojson = nil
}

func orEmpty[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// LevelOptions returns the level selector entries for mode.
//
// List mode offers sorted short names with [models.AllLevels] first; map mode offers sorted
// "ShortName (LongName)" labels.
func LevelOptions(levels []models.Level, mode string) []string {
	opts := make([]string, 0, len(levels)+1)
	for _, l := range levels {
		if mode == models.ModeMap {
			opts = append(opts, l.Label())
		} else {
			opts = append(opts, l.ShortName)
		}
	}
	slices.Sort(opts)

	if mode != models.ModeMap {
		opts = append([]string{models.AllLevels}, opts...)
	}
	return opts
}

// ResolveLevel finds the level matching a selector entry: a short name or a map label. IDs
// are accepted too.
func ResolveLevel(levels []models.Level, option string) (models.Level, bool) {
	for _, l := range levels {
		if l.ShortName == option || l.Label() == option || l.ID == option {
			return l, true
		}
	}
	return models.Level{}, false
}

// ListScope builds a list-mode comparison scope for the selected building. option is a short
// name or [models.AllLevels].
func (s *Session) ListScope(option string) (tasks.Scope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sel.BuildingID == "" || s.levels == nil {
		return tasks.Scope{}, fmt.Errorf("%w: select a building first", shared.ErrInvalidInput)
	}
	if len(s.levels) == 0 {
		return tasks.Scope{}, fmt.Errorf("%w: %s", shared.ErrNotFound, shared.MsgNoLevels)
	}

	scope := tasks.Scope{Mode: models.ModeList, Audit: s.auditScope(option)}
	if strings.EqualFold(option, models.AllLevels) || option == "" {
		scope.Audit.LevelScope = models.AllLevels
		scope.Levels = append(scope.Levels, s.levels...)
		return scope, nil
	}

	level, ok := ResolveLevel(s.levels, option)
	if !ok {
		return tasks.Scope{}, fmt.Errorf("%w: %s", shared.ErrUnknownLevel, option)
	}
	scope.Audit.LevelScope = level.ShortName
	scope.Levels = []models.Level{level}
	return scope, nil
}

// MapScope selects the level matching option, fetches its map data and builds a map-mode scope.
func (s *Session) MapScope(ctx context.Context, option string) (tasks.Scope, error) {
	level, ok := ResolveLevel(s.Levels(), option)
	if !ok {
		return tasks.Scope{}, fmt.Errorf("%w: %s", shared.ErrUnknownLevel, option)
	}

	g, err := s.SelectLevel(ctx, level.ID)
	if err != nil {
		return tasks.Scope{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return tasks.Scope{Mode: models.ModeMap, Audit: s.auditScope(level.ShortName), Levels: []models.Level{level}, GeoJSON: g}, nil
}

func (s *Session) auditScope(levelScope string) models.AuditScope {
	return models.AuditScope{
		ClientID:   s.sel.ClientID,
		SiteID:     s.sel.SiteID,
		BuildingID: s.sel.BuildingID,
		LevelScope: levelScope,
	}
}

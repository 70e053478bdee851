package testing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/opskit/internal/models"
	"github.com/goccy/go-json"
)

// Fixture password accepted by [NewPlannerServer].
const FixturePassword = "correct-horse"

// Hierarchy is an in-memory venue tree shared by [MockDirectory] and [NewPlannerServer].
type Hierarchy struct {
	Clients     []models.Client
	Sites       map[string][]models.Site
	Buildings   map[string][]models.Building
	Levels      map[string][]models.Level
	GeoJSON     map[string]*models.LevelGeoJSON
	BeaconTypes map[string][]models.BeaconType
}

// SampleHierarchy returns one client with two sites; site s1 has building b1 with levels L1 {A,B}
// and L2 {B,C}.
func SampleHierarchy() *Hierarchy {
	a, b, c := Beacon(UUIDA, 1, 1), Beacon(UUIDA, 1, 2), Beacon(UUIDB, 7, 3)
	return &Hierarchy{
		Clients: []models.Client{{ID: "c1", Name: "Acme"}, {ID: "c2", Name: "Beta"}},
		Sites: map[string][]models.Site{
			"c1": {{ID: "s1", Name: "Campus"}, {ID: "s2", Name: "Depot"}},
			"c2": {{ID: "s3", Name: "Tower"}},
		},
		Buildings: map[string][]models.Building{
			"s1": {{ID: "b1", Name: "Main"}},
			"s3": {{ID: "b3", Name: "North"}},
		},
		Levels: map[string][]models.Level{
			"b1": {Level("l1", "L1", a, b), Level("l2", "L2", b, c)},
			"b3": {Level("l3", "G", a)},
		},
		GeoJSON: map[string]*models.LevelGeoJSON{
			"l1": LevelGeoJSON(PlacedJSON(a, 4.895, 52.372), PlacedJSON(b, 4.905, 52.375)),
			"l2": LevelGeoJSON(PlacedJSON(b, 4.9, 52.374), PlacedJSON(c, 4.901, 52.376)),
		},
		BeaconTypes: map[string][]models.BeaconType{
			"s1": {{ID: "t1", Name: "Kontakt Smart Beacon"}},
		},
	}
}

// MockDirectory serves a [Hierarchy] in memory and counts calls per method.
type MockDirectory struct {
	*Hierarchy
	Err error

	mu    sync.Mutex
	calls map[string]int
}

// NewMockDirectory wraps h.
func NewMockDirectory(h *Hierarchy) *MockDirectory {
	return &MockDirectory{Hierarchy: h, calls: make(map[string]int)}
}

func (m *MockDirectory) record(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[name]++
	return m.Err
}

// Calls returns how many times method was invoked.
func (m *MockDirectory) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockDirectory) Clients(ctx context.Context) ([]models.Client, error) {
	if err := m.record("Clients"); err != nil {
		return nil, err
	}
	return m.Hierarchy.Clients, nil
}

func (m *MockDirectory) Sites(ctx context.Context, clientID string) ([]models.Site, error) {
	if err := m.record("Sites"); err != nil {
		return nil, err
	}
	return m.Hierarchy.Sites[clientID], nil
}

func (m *MockDirectory) Buildings(ctx context.Context, siteID string) ([]models.Building, error) {
	if err := m.record("Buildings"); err != nil {
		return nil, err
	}
	return m.Hierarchy.Buildings[siteID], nil
}

func (m *MockDirectory) Levels(ctx context.Context, buildingID string) ([]models.Level, error) {
	if err := m.record("Levels"); err != nil {
		return nil, err
	}
	return m.Hierarchy.Levels[buildingID], nil
}

func (m *MockDirectory) LevelGeoJSON(ctx context.Context, levelID string) (*models.LevelGeoJSON, error) {
	if err := m.record("LevelGeoJSON"); err != nil {
		return nil, err
	}
	return m.Hierarchy.GeoJSON[levelID], nil
}

func (m *MockDirectory) BeaconTypes(ctx context.Context, siteID string) ([]models.BeaconType, error) {
	if err := m.record("BeaconTypes"); err != nil {
		return nil, err
	}
	return m.Hierarchy.BeaconTypes[siteID], nil
}

// PlannerServer is a fake planning API.
type PlannerServer struct {
	*httptest.Server
	Token string

	mu       sync.Mutex
	requests []string
	geojson  map[string]*models.LevelGeoJSON
}

// APIURL is the base URL for hierarchy requests.
func (p *PlannerServer) APIURL() string { return p.URL + "/api" }

// LoginURL is the login endpoint.
func (p *PlannerServer) LoginURL() string { return p.URL + "/login-api/login" }

// Requests returns the request paths seen so far.
func (p *PlannerServer) Requests() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.requests...)
}

// SetGeoJSON replaces the map payload served for a level.
func (p *PlannerServer) SetGeoJSON(levelID string, g *models.LevelGeoJSON) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.geojson[levelID] = g
}

// NewPlannerServer starts a fake planning API serving h. Login succeeds for any well formed
// email with [FixturePassword] and returns token; hierarchy requests require that bearer token.
func NewPlannerServer(t *testing.T, h *Hierarchy, token string) *PlannerServer {
	t.Helper()

	ps := &PlannerServer{Token: token, geojson: make(map[string]*models.LevelGeoJSON, len(h.GeoJSON))}
	for id, g := range h.GeoJSON {
		ps.geojson[id] = g
	}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /login-api/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Password != FixturePassword {
			http.Error(w, `{"message":"invalid credentials"}`, http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]string{"token": token})
	})

	authed := func(fn func(w http.ResponseWriter, r *http.Request)) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ps.mu.Lock()
			ps.requests = append(ps.requests, r.URL.Path)
			ps.mu.Unlock()

			if r.Header.Get("Authorization") != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			fn(w, r)
		}
	}

	mux.HandleFunc("GET /api/clients", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, h.Clients)
	}))
	mux.HandleFunc("GET /api/client/{id}/sites", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, orEmpty(h.Sites[r.PathValue("id")]))
	}))
	mux.HandleFunc("GET /api/site/{id}/buildings", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, orEmpty(h.Buildings[r.PathValue("id")]))
	}))
	mux.HandleFunc("GET /api/building/{id}/levels", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, orEmpty(h.Levels[r.PathValue("id")]))
	}))
	mux.HandleFunc("GET /api/level/{id}/geoJson", authed(func(w http.ResponseWriter, r *http.Request) {
		ps.mu.Lock()
		g, ok := ps.geojson[r.PathValue("id")]
		ps.mu.Unlock()
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, g)
	}))
	mux.HandleFunc("GET /api/site/{id}/beacon-types", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, orEmpty(h.BeaconTypes[r.PathValue("id")]))
	}))
	mux.HandleFunc("GET /api/broken", authed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	ps.Server = httptest.NewServer(mux)
	t.Cleanup(ps.Close)
	return ps
}

func orEmpty[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// TrimBearer strips the "Bearer " prefix of an Authorization header value.
func TrimBearer(h string) string {
	return strings.TrimPrefix(h, "Bearer ")
}

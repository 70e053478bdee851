package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/opskit/internal/metrics"
	"github.com/desertthunder/opskit/internal/models"
	"github.com/desertthunder/opskit/internal/shared"
	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
)

// PlannerService talks to the planning API.
//
// A PlannerService without a token can only [PlannerService.Login]; [PlannerService.WithToken]
// returns a copy whose HTTP client attaches the bearer header through an oauth2 transport.
type PlannerService struct {
	baseURL    string
	loginURL   string
	httpClient *http.Client
	authed     *http.Client
	token      *Token
	logger     *log.Logger
	now        func() time.Time
}

// PlannerOpts configures a [PlannerService].
type PlannerOpts struct {
	BaseURL    string
	LoginURL   string
	HTTPClient *http.Client
	Logger     *log.Logger
}

// NewPlannerService creates an unauthenticated planner client.
func NewPlannerService(opts PlannerOpts) *PlannerService {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &PlannerService{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		loginURL:   opts.LoginURL,
		httpClient: opts.HTTPClient,
		logger:     shared.WithLogger(opts.Logger, "service", "planner"),
		now:        time.Now,
	}
}

// NewPlannerServiceFromConfig builds a planner client from [shared.PlannerConfig].
func NewPlannerServiceFromConfig(cfg shared.PlannerConfig, logger *log.Logger) *PlannerService {
	client := &http.Client{Timeout: cfg.Timeout()}
	return NewPlannerService(PlannerOpts{
		BaseURL:    cfg.BaseURL,
		LoginURL:   cfg.LoginURL,
		HTTPClient: client,
		Logger:     logger,
	})
}

// WithToken returns a copy of p that authenticates every hierarchy request with t.
func (p *PlannerService) WithToken(t *Token) *PlannerService {
	cp := *p
	cp.token = t
	cp.authed = nil
	if t != nil && t.AccessToken != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, p.httpClient)
		cp.authed = oauth2.NewClient(ctx, oauth2.StaticTokenSource(t.OAuth2()))
	}
	return &cp
}

// Token returns the token attached by [PlannerService.WithToken], or nil.
func (p *PlannerService) Token() *Token {
	return p.token
}

// HTTPClient returns the authenticated client, or nil before [PlannerService.WithToken].
func (p *PlannerService) HTTPClient() *http.Client {
	return p.authed
}

// BaseURL returns the API root every hierarchy path is joined to.
func (p *PlannerService) BaseURL() string {
	return p.baseURL
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login validates the email shape and exchanges the credentials for a token.
//
// Transport errors, non-2xx responses and responses without a token all yield
// [shared.ErrAuthFailed]; the response body is never surfaced.
func (p *PlannerService) Login(ctx context.Context, email, password string) (*Token, error) {
	creds := shared.Credentials{Email: strings.TrimSpace(email), Password: password}
	if err := shared.ValidateCredentials(creds); err != nil {
		return nil, err
	}

	body, err := json.Marshal(loginRequest(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.loginURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		metrics.RecordPlannerRequest("/login", 0, time.Since(start))
		p.logger.Warn("login request failed", "error", err)
		return nil, shared.ErrAuthFailed
	}
	defer resp.Body.Close()
	metrics.RecordPlannerRequest("/login", resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.logger.Warn("login rejected", "status", resp.StatusCode)
		return nil, shared.ErrAuthFailed
	}

	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Token == "" {
		p.logger.Warn("login response carried no token")
		return nil, shared.ErrAuthFailed
	}

	p.logger.Info("logged in", "email", creds.Email)
	return NewToken(out.Token, creds.Email, p.now()), nil
}

// Clients lists every client visible to the token.
func (p *PlannerService) Clients(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	if err := p.get(ctx, "/clients", "/clients", &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// Sites lists a client's sites.
func (p *PlannerService) Sites(ctx context.Context, clientID string) ([]models.Site, error) {
	var sites []models.Site
	if err := p.get(ctx, "/client/"+url.PathEscape(clientID)+"/sites", "/client/{id}/sites", &sites); err != nil {
		return nil, err
	}
	return sites, nil
}

// Buildings lists a site's buildings.
func (p *PlannerService) Buildings(ctx context.Context, siteID string) ([]models.Building, error) {
	var buildings []models.Building
	if err := p.get(ctx, "/site/"+url.PathEscape(siteID)+"/buildings", "/site/{id}/buildings", &buildings); err != nil {
		return nil, err
	}
	return buildings, nil
}

// Levels lists a building's levels, each with its placed beacons.
func (p *PlannerService) Levels(ctx context.Context, buildingID string) ([]models.Level, error) {
	var levels []models.Level
	if err := p.get(ctx, "/building/"+url.PathEscape(buildingID)+"/levels", "/building/{id}/levels", &levels); err != nil {
		return nil, err
	}
	return levels, nil
}

// LevelGeoJSON fetches a level's map features and placed beacons.
func (p *PlannerService) LevelGeoJSON(ctx context.Context, levelID string) (*models.LevelGeoJSON, error) {
	var data models.LevelGeoJSON
	if err := p.get(ctx, "/level/"+url.PathEscape(levelID)+"/geoJson", "/level/{id}/geoJson", &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// BeaconTypes lists the beacon hardware types registered for a site.
func (p *PlannerService) BeaconTypes(ctx context.Context, siteID string) ([]models.BeaconType, error) {
	var types []models.BeaconType
	if err := p.get(ctx, "/site/"+url.PathEscape(siteID)+"/beacon-types", "/site/{id}/beacon-types", &types); err != nil {
		return nil, err
	}
	return types, nil
}

// get performs an authenticated GET and decodes the JSON body into result.
// label is the path template used for metrics and logs.
func (p *PlannerService) get(ctx context.Context, path, label string, result any) error {
	if p.authed == nil {
		return shared.ErrNotAuthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.authed.Do(req)
	if err != nil {
		metrics.RecordPlannerRequest(label, 0, time.Since(start))
		p.logger.Error("request failed", "endpoint", label, "error", err)
		return fmt.Errorf("%w: %s: %v", shared.ErrAPIRequest, label, err)
	}
	defer resp.Body.Close()
	metrics.RecordPlannerRequest(label, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		p.logger.Error("unexpected status", "endpoint", label, "status", resp.StatusCode)
		return fmt.Errorf("%w: %s: status %d", shared.ErrAPIRequest, label, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: %s: failed to decode response: %v", shared.ErrAPIRequest, label, err)
	}

	p.logger.Debug("fetched", "endpoint", label, "duration", time.Since(start))
	return nil
}

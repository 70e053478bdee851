package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/opskit/internal/metrics"
	"github.com/desertthunder/opskit/internal/shared"
	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const geocoderBreaker = "geocoder"

// Place is a reverse geocoding result.
type Place struct {
	Locality string
	Country  string
}

func (p Place) String() string {
	return p.Locality + ", " + p.Country
}

type nominatimResponse struct {
	Error   string            `json:"error"`
	Address map[string]string `json:"address"`
}

// GeocoderService resolves coordinates through a Nominatim-compatible reverse endpoint.
//
// Calls are rate limited and pass through a circuit breaker; [GeocoderService.Locate] turns
// every failure into a placeholder string.
type GeocoderService struct {
	endpoint   string
	userAgent  string
	language   string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[*Place]
	logger     *log.Logger
}

// GeocoderOpts configures a [GeocoderService].
type GeocoderOpts struct {
	URL           string
	UserAgent     string
	Language      string
	RatePerSecond float64
	HTTPClient    *http.Client
	Logger        *log.Logger
}

// NewGeocoderService creates a reverse geocoder. A non-positive rate disables limiting.
func NewGeocoderService(opts GeocoderOpts) *GeocoderService {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Language == "" {
		opts.Language = "en"
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}

	logger := shared.WithLogger(opts.Logger, "service", "geocoder")
	metrics.CircuitBreakerState.WithLabelValues(geocoderBreaker).Set(0)

	breaker := gobreaker.NewCircuitBreaker[*Place](gobreaker.Settings{
		Name:        geocoderBreaker,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, shared.ErrNotFound)
		},
	})

	return &GeocoderService{
		endpoint:   opts.URL,
		userAgent:  opts.UserAgent,
		language:   opts.Language,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(limit, 1),
		breaker:    breaker,
		logger:     logger,
	}
}

// NewGeocoderServiceFromConfig builds a geocoder from [shared.GeocoderConfig].
func NewGeocoderServiceFromConfig(cfg shared.GeocoderConfig, logger *log.Logger) *GeocoderService {
	return NewGeocoderService(GeocoderOpts{
		URL:           cfg.URL,
		UserAgent:     cfg.UserAgent,
		Language:      cfg.Language,
		RatePerSecond: cfg.RatePerSecond,
		Logger:        logger,
	})
}

// Locate implements [Geocoder].
func (g *GeocoderService) Locate(ctx context.Context, lat, lon float64) string {
	place, err := g.Reverse(ctx, lat, lon)
	switch {
	case err == nil:
		metrics.GeocoderLookups.WithLabelValues("found").Inc()
		return place.String()
	case errors.Is(err, shared.ErrNotFound):
		metrics.GeocoderLookups.WithLabelValues("not_found").Inc()
		return shared.MsgLocationMissing
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.GeocoderLookups.WithLabelValues("rejected").Inc()
		g.logger.Warn("lookup rejected by circuit breaker", "lat", lat, "lon", lon)
		return shared.MsgLocationError
	default:
		metrics.GeocoderLookups.WithLabelValues("error").Inc()
		g.logger.Warn("lookup failed", "lat", lat, "lon", lon, "error", err)
		return shared.MsgLocationError
	}
}

// Reverse resolves a coordinate to a [Place]. It returns [shared.ErrNotFound] when the service
// knows no address for the point.
func (g *GeocoderService) Reverse(ctx context.Context, lat, lon float64) (*Place, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	return g.breaker.Execute(func() (*Place, error) {
		return g.lookup(ctx, lat, lon)
	})
}

func (g *GeocoderService) lookup(ctx context.Context, lat, lon float64) (*Place, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("accept-language", g.language)
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: geocoder status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if body.Error != "" || len(body.Address) == 0 {
		return nil, shared.ErrNotFound
	}

	return placeFromAddress(body.Address), nil
}

// placeFromAddress prefers town, then city, then village.
func placeFromAddress(addr map[string]string) *Place {
	p := &Place{Locality: "Unknown Location", Country: "Unknown Country"}
	for _, key := range []string{"town", "city", "village"} {
		if v := addr[key]; v != "" {
			p.Locality = v
			break
		}
	}
	if v := addr["country"]; v != "" {
		p.Country = v
	}
	return p
}

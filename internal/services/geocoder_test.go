package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/opskit/internal/shared"
	"github.com/google/go-cmp/cmp"
)

func newTestGeocoder(url string) *GeocoderService {
	return NewGeocoderService(GeocoderOpts{
		URL:       url,
		UserAgent: "beacon_data_viewer",
		Logger:    shared.NewLogger(io.Discard),
	})
}

func TestGeocoderService(t *testing.T) {
	ctx := context.Background()

	t.Run("Locate", func(t *testing.T) {
		t.Run("Sends Query And User Agent", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if ua := r.Header.Get("User-Agent"); ua != "beacon_data_viewer" {
					t.Errorf("expected user agent 'beacon_data_viewer', got %s", ua)
				}
				q := r.URL.Query()
				if q.Get("lat") != "52.37" || q.Get("lon") != "4.89" {
					t.Errorf("unexpected coordinates %s,%s", q.Get("lat"), q.Get("lon"))
				}
				if q.Get("accept-language") != "en" {
					t.Errorf("expected english results, got %s", q.Get("accept-language"))
				}
				w.Write([]byte(`{"address":{"city":"Amsterdam","country":"Netherlands"}}`))
			}))
			defer server.Close()

			if got := newTestGeocoder(server.URL).Locate(ctx, 52.37, 4.89); got != "Amsterdam, Netherlands" {
				t.Errorf("expected 'Amsterdam, Netherlands', got %q", got)
			}
		})

		t.Run("Not Found", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"error":"Unable to geocode"}`))
			}))
			defer server.Close()

			if got := newTestGeocoder(server.URL).Locate(ctx, 0, 0); got != shared.MsgLocationMissing {
				t.Errorf("expected %q, got %q", shared.MsgLocationMissing, got)
			}
		})

		t.Run("Server Error", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer server.Close()

			if got := newTestGeocoder(server.URL).Locate(ctx, 1, 1); got != shared.MsgLocationError {
				t.Errorf("expected %q, got %q", shared.MsgLocationError, got)
			}
		})
	})

	t.Run("Reverse", func(t *testing.T) {
		t.Run("Not Found Is Not A Breaker Failure", func(t *testing.T) {
			var hits atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.Write([]byte(`{"error":"Unable to geocode"}`))
			}))
			defer server.Close()

			g := newTestGeocoder(server.URL)
			for range 5 {
				if _, err := g.Reverse(ctx, 0, 0); !errors.Is(err, shared.ErrNotFound) {
					t.Fatalf("expected ErrNotFound, got %v", err)
				}
			}
			if hits.Load() != 5 {
				t.Errorf("expected every lookup to reach the server, got %d", hits.Load())
			}
		})

		t.Run("Breaker Opens After Consecutive Failures", func(t *testing.T) {
			var hits atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer server.Close()

			g := newTestGeocoder(server.URL)
			for range 3 {
				if _, err := g.Reverse(ctx, 1, 1); !errors.Is(err, shared.ErrServiceUnavailable) {
					t.Fatalf("expected ErrServiceUnavailable, got %v", err)
				}
			}

			if got := g.Locate(ctx, 1, 1); got != shared.MsgLocationError {
				t.Errorf("expected %q while open, got %q", shared.MsgLocationError, got)
			}
			if hits.Load() != 3 {
				t.Errorf("expected open breaker to short-circuit, got %d hits", hits.Load())
			}
		})

		t.Run("Canceled Context", func(t *testing.T) {
			g := NewGeocoderService(GeocoderOpts{URL: "http://geo.invalid", RatePerSecond: 0.001, Logger: shared.NewLogger(io.Discard)})
			g.limiter.Allow()

			cctx, cancel := context.WithCancel(ctx)
			cancel()
			if _, err := g.Reverse(cctx, 1, 1); err == nil {
				t.Error("expected limiter wait to fail on canceled context")
			}
		})
	})

	t.Run("placeFromAddress", func(t *testing.T) {
		tests := []struct {
			name string
			addr map[string]string
			want Place
		}{
			{"town wins", map[string]string{"town": "Zaandam", "city": "Amsterdam", "country": "NL"}, Place{"Zaandam", "NL"}},
			{"city before village", map[string]string{"city": "Utrecht", "village": "Maarssen", "country": "NL"}, Place{"Utrecht", "NL"}},
			{"village", map[string]string{"village": "Giethoorn", "country": "NL"}, Place{"Giethoorn", "NL"}},
			{"defaults", map[string]string{"road": "Main St"}, Place{"Unknown Location", "Unknown Country"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if diff := cmp.Diff(tt.want, *placeFromAddress(tt.addr)); diff != "" {
					t.Errorf("placeFromAddress() mismatch (-want +got):\n%s", diff)
				}
			})
		}
	})
}

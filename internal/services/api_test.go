package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tu "github.com/desertthunder/opskit/internal/testing"
	"github.com/goccy/go-json"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("Trims Trailing Slash", func(t *testing.T) {
			srv := NewAPIService("https://planner.example.com/api/", nil)
			if srv.baseURL != "https://planner.example.com/api" {
				t.Errorf("expected trimmed baseURL, got %s", srv.baseURL)
			}
		})

		t.Run("With Nil Client", func(t *testing.T) {
			srv := NewAPIService("http://example.com", nil)
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Joins Path Under Base", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET method, got %s", r.Method)
				}
				if r.URL.Path != "/api/clients" {
					t.Errorf("expected path '/api/clients', got %s", r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`[{"_id":"c1","name":"Acme"}]`))
			}))
			defer server.Close()

			srv := NewAPIService(server.URL+"/api", nil)
			resp, err := srv.Get(context.Background(), "clients")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.OK() {
				t.Errorf("expected OK response, got %d", resp.StatusCode)
			}
			if !resp.IsJSON {
				t.Fatal("expected response to be JSON")
			}
			if items, ok := resp.JSONData.([]any); !ok || len(items) != 1 {
				t.Errorf("expected one decoded client, got %#v", resp.JSONData)
			}
		})

		t.Run("Non-JSON Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte("upstream down"))
			}))
			defer server.Close()

			resp, err := NewAPIService(server.URL, nil).Get(context.Background(), "/clients")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.OK() {
				t.Error("expected non-OK response")
			}
			if resp.IsJSON || resp.JSONData != nil {
				t.Error("expected response to not be JSON")
			}
			if string(resp.Body) != "upstream down" {
				t.Errorf("unexpected body %q", resp.Body)
			}
		})

		t.Run("Failed Request Creation", func(t *testing.T) {
			_, err := NewAPIService("http://example.com", nil).Get(context.Background(), "/test\x00invalid")
			if err == nil || !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected 'failed to create request' error, got %v", err)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}
			_, err := NewAPIService("http://example.com", client).Get(context.Background(), "/clients")
			if err == nil || !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected 'request failed' error, got %v", err)
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     http.Header{},
				}, nil),
			}
			_, err := NewAPIService("http://example.com", client).Get(context.Background(), "/clients")
			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected 'failed to read response' error, got %v", err)
			}
		})

		t.Run("With Canceled Context", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			defer server.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := NewAPIService(server.URL, nil).Get(ctx, "/clients"); err == nil {
				t.Error("expected error for canceled context")
			}
		})

		t.Run("Sends Bearer Through Planner Client", func(t *testing.T) {
			ps := tu.NewPlannerServer(t, tu.SampleHierarchy(), "tok-123")
			planner := NewPlannerService(PlannerOpts{BaseURL: ps.APIURL(), LoginURL: ps.LoginURL()}).
				WithToken(&Token{AccessToken: "tok-123"})

			resp, err := NewAPIService(planner.BaseURL(), planner.HTTPClient()).Get(context.Background(), "/client/c1/sites")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.OK() {
				t.Errorf("expected authorized response, got %d", resp.StatusCode)
			}
		})
	})

	t.Run("Post", func(t *testing.T) {
		t.Run("Sends JSON Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST method, got %s", r.Method)
				}
				if ct := r.Header.Get("Content-Type"); ct != "application/json" {
					t.Errorf("expected Content-Type 'application/json', got %s", ct)
				}

				var data map[string]string
				body, _ := io.ReadAll(r.Body)
				if err := json.Unmarshal(body, &data); err != nil || data["email"] != "ops@example.com" {
					t.Errorf("unexpected request body %s", body)
				}
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(`{"id":"123"}`))
			}))
			defer server.Close()

			payload, _ := json.Marshal(map[string]string{"email": "ops@example.com"})
			resp, err := NewAPIService(server.URL, nil).Post(context.Background(), "/login", payload)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.StatusCode != http.StatusCreated || !resp.IsJSON {
				t.Errorf("expected 201 JSON response, got %d json=%v", resp.StatusCode, resp.IsJSON)
			}
		})

		t.Run("Nil Body Omits Content-Type", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if ct := r.Header.Get("Content-Type"); ct != "" {
					t.Errorf("expected no Content-Type, got %s", ct)
				}
			}))
			defer server.Close()

			if _, err := NewAPIService(server.URL, nil).Post(context.Background(), "/ping", nil); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}
			_, err := NewAPIService("http://example.com", client).Post(context.Background(), "/login", []byte("{}"))
			if err == nil || !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected 'request failed' error, got %v", err)
			}
		})
	})
}

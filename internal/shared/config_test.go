package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./opskit.db" {
			t.Errorf("expected database path ./opskit.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8501 {
			t.Errorf("expected server port 8501, got %d", config.Server.Port)
		}

		if config.Server.SessionIdle() != 12*time.Hour {
			t.Errorf("expected a 12h session idle timeout, got %s", config.Server.SessionIdle())
		}

		if config.Planner.BaseURL != "https://planner.pointr.tech/api" {
			t.Errorf("unexpected planner base url %s", config.Planner.BaseURL)
		}

		if config.Geocoder.UserAgent != "beacon_data_viewer" {
			t.Errorf("expected geocoder user agent beacon_data_viewer, got %s", config.Geocoder.UserAgent)
		}

		if err := ValidateStruct(config); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		t.Run("overrides and keeps defaults", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080

[planner]
base_url = "http://localhost:9999/api"
login_url = "http://localhost:9999/login"
timeout_seconds = 5
`
			if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			config, err := LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to load config: %v", err)
			}

			if config.Database.Path != "/custom/path.db" {
				t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
			}
			if config.Server.Addr() != "0.0.0.0:8080" {
				t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
			}
			if config.Planner.Timeout() != 5*time.Second {
				t.Errorf("expected 5s timeout, got %v", config.Planner.Timeout())
			}
			if config.Geocoder.UserAgent != "beacon_data_viewer" {
				t.Errorf("expected default geocoder user agent to survive, got %q", config.Geocoder.UserAgent)
			}
		})

		t.Run("rejects invalid values", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			testConfig := `[planner]
base_url = "not a url"

[logging]
level = "loud"
`
			if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			_, err := LoadConfig(configPath)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})

		t.Run("missing file", func(t *testing.T) {
			if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
				t.Error("expected error for missing file")
			}
		})
	})

	t.Run("LoadConfigOrDefault falls back when file is absent", func(t *testing.T) {
		config, err := LoadConfigOrDefault(filepath.Join(t.TempDir(), "absent.toml"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.Server.Port != 8501 {
			t.Errorf("expected default port, got %d", config.Server.Port)
		}
	})

	t.Run("ResolveTokenPath", func(t *testing.T) {
		t.Run("configured path wins", func(t *testing.T) {
			p, err := AuthConfig{TokenPath: "/tmp/t.json"}.ResolveTokenPath()
			if err != nil || p != "/tmp/t.json" {
				t.Errorf("got %q, %v", p, err)
			}
		})

		t.Run("defaults under home", func(t *testing.T) {
			home := t.TempDir()
			t.Setenv("HOME", home)
			p, err := AuthConfig{}.ResolveTokenPath()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p != filepath.Join(home, ".opskit", "token.json") {
				t.Errorf("unexpected token path %s", p)
			}
		})
	})
}

package shared

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestValidation(t *testing.T) {
	t.Run("ValidEmail", func(t *testing.T) {
		tc := []struct {
			email string
			want  bool
		}{
			{"ops@example.com", true},
			{"first.last+tag@sub.example.co.uk", true},
			{"UPPER@EXAMPLE.COM", true},
			{"missing-at.example.com", false},
			{"no-tld@example", false},
			{"@example.com", false},
			{"", false},
		}

		for _, tt := range tc {
			t.Run(tt.email, func(t *testing.T) {
				if got := ValidEmail(tt.email); got != tt.want {
					t.Errorf("ValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
				}
			})
		}
	})

	t.Run("ValidateCredentials", func(t *testing.T) {
		t.Run("accepts well formed", func(t *testing.T) {
			if err := ValidateCredentials(Credentials{Email: "ops@example.com", Password: "x"}); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})

		t.Run("both required", func(t *testing.T) {
			err := ValidateCredentials(Credentials{Email: "ops@example.com"})
			if !errors.Is(err, ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})

		t.Run("bad email shape", func(t *testing.T) {
			err := ValidateCredentials(Credentials{Email: "nope", Password: "x"})
			if !errors.Is(err, ErrInvalidEmail) {
				t.Errorf("expected ErrInvalidEmail, got %v", err)
			}
		})
	})
}

func TestLogger(t *testing.T) {
	t.Run("configured level", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewConfiguredLogger(&buf, LoggingConfig{Level: "warn"})
		if l.GetLevel() != log.WarnLevel {
			t.Errorf("expected warn level, got %v", l.GetLevel())
		}
	})

	t.Run("unknown level warns and keeps info", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewConfiguredLogger(&buf, LoggingConfig{Level: "chatty"})
		if l.GetLevel() != log.InfoLevel {
			t.Errorf("expected info level, got %v", l.GetLevel())
		}
		if !strings.Contains(buf.String(), "unknown log level") {
			t.Errorf("expected warning in output, got %q", buf.String())
		}
	})

	t.Run("file logger", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "tui.log")
		l, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		l.Info("drill-down started")

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !strings.Contains(string(data), "drill-down started") {
			t.Errorf("expected log line in file, got %q", data)
		}
	})
}

func TestReadJSONFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		p := filepath.Join(dir, "ok.json")
		os.WriteFile(p, []byte(`{"beaconData":[]}`), 0644)
		data, err := ReadJSONFile(p)
		if err != nil || len(data) == 0 {
			t.Errorf("expected data, got %v", err)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		p := filepath.Join(dir, "bad.json")
		os.WriteFile(p, []byte(`{"beaconData":`), 0644)
		if _, err := ReadJSONFile(p); !errors.Is(err, ErrInvalidRecording) {
			t.Errorf("expected ErrInvalidRecording, got %v", err)
		}
	})

	t.Run("directory", func(t *testing.T) {
		if _, err := ReadJSONFile(dir); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		if _, err := ReadJSONFile(""); !errors.Is(err, ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestOpenBrowser(t *testing.T) {
	orig := getRuntime
	defer func() { getRuntime = orig }()

	getRuntime = func() string { return "plan9" }
	if err := OpenBrowser("http://localhost"); err == nil {
		t.Error("expected unsupported platform error")
	}
}

package shared

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// ReadJSONFile reads path and verifies it holds syntactically valid JSON.
func ReadJSONFile(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: file path", ErrMissingArgument)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidArgument, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid JSON", ErrInvalidRecording, path)
	}

	return data, nil
}

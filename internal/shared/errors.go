package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrInvalidEmail     = fmt.Errorf("invalid email format")
	ErrMissingPassword  = fmt.Errorf("password is required")

	// Planner API errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotFound           = fmt.Errorf("not found")

	// Recording and comparison errors
	ErrInvalidRecording = fmt.Errorf("invalid recording file")
	ErrNoRecordings     = fmt.Errorf("no recordings uploaded")
	ErrNoGeometry       = fmt.Errorf("geojson contains no valid geometries")
	ErrUnknownLevel     = fmt.Errorf("unknown level")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

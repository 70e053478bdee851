// package services defines clients for the remote HTTP APIs the toolkit consumes
//
// Planning API (venue hierarchy, level map data, login) and a Nominatim-compatible reverse geocoder.
package services

import (
	"context"

	"github.com/desertthunder/opskit/internal/models"
)

// Authenticator exchanges credentials for a planner token.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*Token, error)
}

// Directory reads the venue hierarchy from the planning API.
//
// Each fetcher returns nil plus a wrapped [shared.ErrAPIRequest] (or [shared.ErrNotAuthenticated])
// on failure; callers treat nil as "nothing found".
type Directory interface {
	Clients(ctx context.Context) ([]models.Client, error)
	Sites(ctx context.Context, clientID string) ([]models.Site, error)
	Buildings(ctx context.Context, siteID string) ([]models.Building, error)
	Levels(ctx context.Context, buildingID string) ([]models.Level, error)
	LevelGeoJSON(ctx context.Context, levelID string) (*models.LevelGeoJSON, error)
	BeaconTypes(ctx context.Context, siteID string) ([]models.BeaconType, error)
}

// Geocoder annotates a coordinate with a human readable place.
type Geocoder interface {
	// Locate returns "Town, Country", "Location not found" or "Error obtaining location". It never fails.
	Locate(ctx context.Context, lat, lon float64) string
}

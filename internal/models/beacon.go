package models

import (
	"cmp"
	"fmt"
)

// BeaconIdentifier is the canonical (UUID, major, minor) triple.
//
// UUID is upper-cased and major/minor are non-negative once normalized. Equality on the struct is
// equality of the triple, so it can be used directly as a map key.
type BeaconIdentifier struct {
	UUID  string `json:"uuid"`
	Major int    `json:"major"`
	Minor int    `json:"minor"`
}

func (b BeaconIdentifier) String() string {
	return fmt.Sprintf("%s/%d/%d", b.UUID, b.Major, b.Minor)
}

// Compare orders identifiers by UUID, then major, then minor.
func (b BeaconIdentifier) Compare(o BeaconIdentifier) int {
	if c := cmp.Compare(b.UUID, o.UUID); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Major, o.Major); c != 0 {
		return c
	}
	return cmp.Compare(b.Minor, o.Minor)
}

// PlacedBeacon is a beacon declared in a level's map data with its [lon, lat] position.
type PlacedBeacon struct {
	BeaconIdentifier
	Coordinates [2]float64 `json:"coordinates"`
}

// Lon returns the longitude component.
func (p PlacedBeacon) Lon() float64 { return p.Coordinates[0] }

// Lat returns the latitude component.
func (p PlacedBeacon) Lat() float64 { return p.Coordinates[1] }

// MissingBeacon is one result row of an unheard comparison.
//
// Coordinates is set only when the declaring data carried a position (map mode).
type MissingBeacon struct {
	Level string `json:"level"`
	BeaconIdentifier
	Coordinates *[2]float64 `json:"coordinates,omitempty"`
}

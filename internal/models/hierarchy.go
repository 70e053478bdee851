package models

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Client is the top of the venue hierarchy.
type Client struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Site belongs to a client.
type Site struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Building belongs to a site.
type Building struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Level is one floor of a building. PlacedBeacons is kept raw so extraction can skip bad entries.
type Level struct {
	ID            string            `json:"_id"`
	Name          string            `json:"name"`
	ShortName     string            `json:"shortName"`
	LongName      string            `json:"longName"`
	PlacedBeacons []json.RawMessage `json:"placedBeacons,omitempty"`
}

// Label is the map-mode selector label, "ShortName (LongName)".
func (l Level) Label() string {
	return fmt.Sprintf("%s (%s)", l.ShortName, l.LongName)
}

// BeaconType is a beacon hardware profile registered for a site.
type BeaconType struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Node is implemented by every hierarchy node so selectors can be built generically.
type Node interface {
	NodeID() string
	NodeName() string
}

func (c Client) NodeID() string       { return c.ID }
func (c Client) NodeName() string     { return c.Name }
func (s Site) NodeID() string         { return s.ID }
func (s Site) NodeName() string       { return s.Name }
func (b Building) NodeID() string     { return b.ID }
func (b Building) NodeName() string   { return b.Name }
func (l Level) NodeID() string        { return l.ID }
func (l Level) NodeName() string      { return l.ShortName }
func (t BeaconType) NodeID() string   { return t.ID }
func (t BeaconType) NodeName() string { return t.Name }

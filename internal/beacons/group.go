package beacons

import (
	"slices"

	"github.com/desertthunder/opskit/internal/models"
)

// MajorGroup lists the distinct minors seen for one major, ascending.
type MajorGroup struct {
	Major  int   `json:"major"`
	Minors []int `json:"minors"`
}

// UUIDGroup lists the majors seen for one UUID in first-seen order.
type UUIDGroup struct {
	UUID   string       `json:"uuid"`
	Majors []MajorGroup `json:"majors"`
}

// Group builds the uuid → major → sorted minors view of a recording's beacon data.
//
// UUIDs and majors keep the order in which they first appear; minors are deduplicated and
// sorted. Malformed entries are skipped with a warning.
func Group(rec *models.Recording) ([]UUIDGroup, []Warning) {
	ids, warnings := FromRecording(rec)

	type majorKey struct {
		uuid  string
		major int
	}

	var (
		groups     []UUIDGroup
		uuidIndex  = make(map[string]int)
		majorIndex = make(map[majorKey]int)
		minorSeen  = make(map[models.BeaconIdentifier]bool)
	)

	for _, id := range ids {
		ui, ok := uuidIndex[id.UUID]
		if !ok {
			ui = len(groups)
			uuidIndex[id.UUID] = ui
			groups = append(groups, UUIDGroup{UUID: id.UUID})
		}

		mk := majorKey{id.UUID, id.Major}
		mi, ok := majorIndex[mk]
		if !ok {
			mi = len(groups[ui].Majors)
			majorIndex[mk] = mi
			groups[ui].Majors = append(groups[ui].Majors, MajorGroup{Major: id.Major})
		}

		if !minorSeen[id] {
			minorSeen[id] = true
			groups[ui].Majors[mi].Minors = append(groups[ui].Majors[mi].Minors, id.Minor)
		}
	}

	for _, g := range groups {
		for _, m := range g.Majors {
			slices.Sort(m.Minors)
		}
	}

	return groups, warnings
}

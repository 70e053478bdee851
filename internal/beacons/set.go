package beacons

import (
	"slices"

	"github.com/desertthunder/opskit/internal/models"
)

// Set is a set of beacon identifiers.
type Set map[models.BeaconIdentifier]struct{}

// NewSet builds a set from ids.
func NewSet(ids ...models.BeaconIdentifier) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id.
func (s Set) Add(id models.BeaconIdentifier) { s[id] = struct{}{} }

// Has reports membership.
func (s Set) Has(id models.BeaconIdentifier) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of identifiers.
func (s Set) Len() int { return len(s) }

// Union returns a new set holding the members of s and o.
func (s Set) Union(o Set) Set {
	out := make(Set, len(s)+len(o))
	for id := range s {
		out.Add(id)
	}
	for id := range o {
		out.Add(id)
	}
	return out
}

// Intersect returns the members of s also in o.
func (s Set) Intersect(o Set) Set {
	out := make(Set)
	for id := range s {
		if o.Has(id) {
			out.Add(id)
		}
	}
	return out
}

// Difference returns the members of s absent from o.
func (s Set) Difference(o Set) Set {
	out := make(Set)
	for id := range s {
		if !o.Has(id) {
			out.Add(id)
		}
	}
	return out
}

// Sorted returns the members ordered by UUID, major, minor.
func (s Set) Sorted() []models.BeaconIdentifier {
	ids := make([]models.BeaconIdentifier, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, models.BeaconIdentifier.Compare)
	return ids
}

// Observed unions the beacons of every recording, collecting header and per-entry warnings.
func Observed(recs []*models.Recording) (Set, []Warning) {
	var (
		set      = make(Set)
		warnings []Warning
	)
	for _, rec := range recs {
		warnings = append(warnings, HeaderWarnings(rec)...)
		ids, w := FromRecording(rec)
		warnings = append(warnings, w...)
		for _, id := range ids {
			set.Add(id)
		}
	}
	return set, warnings
}

// MissingPlaced returns the declared beacons absent from observed, sorted by identifier.
//
// A triple placed at several coordinates yields one entry per placement so each marker is drawn;
// repeated entries at the same coordinates collapse into one.
func MissingPlaced(declared []models.PlacedBeacon, observed Set) []models.PlacedBeacon {
	seen := make(map[models.PlacedBeacon]struct{}, len(declared))
	var missing []models.PlacedBeacon
	for _, p := range declared {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		if !observed.Has(p.BeaconIdentifier) {
			missing = append(missing, p)
		}
	}
	slices.SortStableFunc(missing, func(a, b models.PlacedBeacon) int {
		return a.BeaconIdentifier.Compare(b.BeaconIdentifier)
	})
	return missing
}

// Identifiers projects placed beacons onto a set.
func Identifiers(placed []models.PlacedBeacon) Set {
	s := make(Set, len(placed))
	for _, p := range placed {
		s.Add(p.BeaconIdentifier)
	}
	return s
}

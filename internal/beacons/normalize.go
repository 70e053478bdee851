package beacons

import (
	"strings"

	"github.com/desertthunder/opskit/internal/models"
)

// wrap is added to negative major/minor values: the scanning app reports the unsigned 16-bit
// values as signed integers.
const wrap = 65536

// Normalize upper-cases the UUID and wraps negative major/minor values into the 16-bit range.
// Normalizing an already normalized identifier is a no-op.
func Normalize(b models.BeaconIdentifier) models.BeaconIdentifier {
	return models.BeaconIdentifier{
		UUID:  strings.ToUpper(strings.TrimSpace(b.UUID)),
		Major: normalizeComponent(b.Major),
		Minor: normalizeComponent(b.Minor),
	}
}

func normalizeComponent(v int) int {
	if v < 0 {
		return v + wrap
	}
	return v
}

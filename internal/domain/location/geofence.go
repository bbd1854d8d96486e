package location

import (
	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/geo"
)

// AccuracyBufferFloorMeters is the minimum accuracy buffer added to a site
// radius, so unrealistically tight device readings still tolerate noise.
const AccuracyBufferFloorMeters = 10

// GeofenceResult is the outcome of validating a GPS reading against the
// authorized sites. An out-of-range reading is NOT an error: the caller
// records the attendance and flags it invalid for audit review.
type GeofenceResult struct {
	Nearest         *Location
	DistanceMeters  float64
	EffectiveRadius float64
	IsValid         bool
}

// EvaluateGeofence finds the nearest active site to the user coordinate and
// decides in/out of range, widening the site radius by the GPS accuracy
// (floored at AccuracyBufferFloorMeters).
//
// When no active site exists the system fails open: attendance must not be
// locked out before an administrator has configured any geofence.
func EvaluateGeofence(user Coordinate, sites []Location) GeofenceResult {
	var nearest *Location
	var nearestDistance float64

	for i := range sites {
		site := &sites[i]
		if !site.Active {
			continue
		}
		d := geo.Distance(user.Latitude, user.Longitude, site.Latitude, site.Longitude)
		switch {
		case nearest == nil:
			nearest, nearestDistance = site, d
		case d < nearestDistance:
			nearest, nearestDistance = site, d
		case d == nearestDistance && site.ID < nearest.ID:
			// deterministic tie-break
			nearest = site
		}
	}

	if nearest == nil {
		return GeofenceResult{IsValid: true}
	}

	accuracy := user.AccuracyMeters
	if accuracy < 0 {
		accuracy = 0
	}
	buffer := accuracy
	if buffer < AccuracyBufferFloorMeters {
		buffer = AccuracyBufferFloorMeters
	}

	effective := nearest.RadiusMeters + buffer
	return GeofenceResult{
		Nearest:         nearest,
		DistanceMeters:  nearestDistance,
		EffectiveRadius: effective,
		IsValid:         nearestDistance <= effective,
	}
}

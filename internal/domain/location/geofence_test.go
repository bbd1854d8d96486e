package location

import (
	"math"
	"testing"

	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	siteLat = -6.2000
	siteLon = 106.8000
)

func site(id string, radius float64, active bool) Location {
	return Location{
		ID:           id,
		Name:         "Cafe " + id,
		Latitude:     siteLat,
		Longitude:    siteLon,
		RadiusMeters: radius,
		Active:       active,
	}
}

// userAt places the user the given number of meters due north of the site.
func userAt(meters, accuracy float64) Coordinate {
	return Coordinate{
		Latitude:       siteLat + meters/geo.EarthRadiusMeters*180/math.Pi,
		Longitude:      siteLon,
		AccuracyMeters: accuracy,
	}
}

func TestEvaluateGeofenceFailsOpenWithoutSites(t *testing.T) {
	result := EvaluateGeofence(userAt(0, 5), nil)

	assert.True(t, result.IsValid)
	assert.Nil(t, result.Nearest)
}

func TestEvaluateGeofenceSkipsInactiveSites(t *testing.T) {
	sites := []Location{site("loc-1", 100, false)}

	result := EvaluateGeofence(userAt(0, 5), sites)

	assert.True(t, result.IsValid)
	assert.Nil(t, result.Nearest)
}

func TestEvaluateGeofenceInsideRadius(t *testing.T) {
	sites := []Location{site("loc-1", 100, true)}

	result := EvaluateGeofence(userAt(50, 5), sites)

	require.NotNil(t, result.Nearest)
	assert.Equal(t, "loc-1", result.Nearest.ID)
	assert.True(t, result.IsValid)
	assert.InDelta(t, 50, result.DistanceMeters, 0.1)
	assert.Equal(t, 110.0, result.EffectiveRadius)
}

func TestEvaluateGeofenceAccuracyWidensRadius(t *testing.T) {
	sites := []Location{site("loc-1", 100, true)}

	// 120m out with a 30m accuracy reading: effective radius 130.
	result := EvaluateGeofence(userAt(120, 30), sites)
	assert.True(t, result.IsValid)
	assert.Equal(t, 130.0, result.EffectiveRadius)

	// One step past the widened boundary.
	result = EvaluateGeofence(userAt(131, 30), sites)
	assert.False(t, result.IsValid)
}

func TestEvaluateGeofenceAccuracyFloor(t *testing.T) {
	sites := []Location{site("loc-1", 100, true)}

	// A 3m accuracy reading still gets the 10m floor.
	result := EvaluateGeofence(userAt(105, 3), sites)
	assert.True(t, result.IsValid)
	assert.Equal(t, 110.0, result.EffectiveRadius)

	result = EvaluateGeofence(userAt(111, 3), sites)
	assert.False(t, result.IsValid)
}

func TestEvaluateGeofenceNegativeAccuracyClamped(t *testing.T) {
	sites := []Location{site("loc-1", 100, true)}

	result := EvaluateGeofence(userAt(105, -50), sites)

	assert.True(t, result.IsValid)
	assert.Equal(t, 110.0, result.EffectiveRadius)
}

func TestEvaluateGeofencePicksNearestSite(t *testing.T) {
	near := site("loc-near", 10, true)
	far := Location{
		ID:           "loc-far",
		Latitude:     siteLat + 500/float64(geo.EarthRadiusMeters)*180/math.Pi,
		Longitude:    siteLon,
		RadiusMeters: 1000,
		Active:       true,
	}

	// 50m from the small site, 450m from the big one. Validation runs against
	// the nearest site only, even when a farther site would have matched.
	result := EvaluateGeofence(userAt(50, 0), []Location{far, near})

	require.NotNil(t, result.Nearest)
	assert.Equal(t, "loc-near", result.Nearest.ID)
	assert.False(t, result.IsValid)
}

func TestEvaluateGeofenceTieBreaksOnLowestID(t *testing.T) {
	a := site("loc-a", 100, true)
	b := site("loc-b", 100, true)

	result := EvaluateGeofence(userAt(20, 5), []Location{b, a})

	require.NotNil(t, result.Nearest)
	assert.Equal(t, "loc-a", result.Nearest.ID)
}

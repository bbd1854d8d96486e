package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// latOffset returns the latitude delta in degrees that moves a point the
// given number of meters due north.
func latOffset(meters float64) float64 {
	return meters / EarthRadiusMeters * 180 / math.Pi
}

func TestDistanceZero(t *testing.T) {
	assert.Equal(t, 0.0, Distance(-6.2, 106.8, -6.2, 106.8))
}

func TestDistanceSymmetry(t *testing.T) {
	d1 := Distance(-6.2, 106.8, -6.19, 106.81)
	d2 := Distance(-6.19, 106.81, -6.2, 106.8)
	assert.InDelta(t, d1, d2, 1e-9)
}

func TestDistanceNorthOffset(t *testing.T) {
	baseLat, baseLon := -6.2, 106.8

	for _, meters := range []float64{10, 50, 100, 1000, 25000} {
		d := Distance(baseLat, baseLon, baseLat+latOffset(meters), baseLon)
		require.InDelta(t, meters, d, 0.01, "offset of %.0f meters", meters)
	}
}

func TestDistanceEquatorLongitudeOffset(t *testing.T) {
	// On the equator a degree of longitude spans the same arc as a degree of
	// latitude.
	d := Distance(0, 0, 0, latOffset(500))
	assert.InDelta(t, 500, d, 0.01)
}

func TestDistanceKnownCities(t *testing.T) {
	// Jakarta to Surabaya, roughly 663 km.
	d := Distance(-6.2088, 106.8456, -7.2575, 112.7521)
	assert.InDelta(t, 663000, d, 5000)
}

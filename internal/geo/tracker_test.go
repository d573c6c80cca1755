// server/internal/geo/tracker_test.go
package geo

import (
	"testing"

	"care-referral-api-server/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKnownPoints(t *testing.T) {
	// One degree of longitude on the equator is ~111.19 km.
	d := Distance(0, 0, 0, 1)
	assert.InDelta(t, 111.19, d, 0.05)

	assert.Equal(t, 0.0, Distance(14.5995, 120.9842, 14.5995, 120.9842))
}

func TestEstimateNumericETA(t *testing.T) {
	pos := &models.GeoPoint{Latitude: 0, Longitude: 0}
	dest := models.Address{Latitude: 0, Longitude: 0.5}

	eta := Estimate(pos, dest, 30)

	assert.False(t, eta.ArrivingNow)
	assert.False(t, eta.AwaitingSignal)
	assert.Equal(t, 111, eta.Minutes)
	assert.Equal(t, "111 min", eta.Display())
}

func TestEstimateArrivingNowAtExactCoordinates(t *testing.T) {
	pos := &models.GeoPoint{Latitude: 14.5995, Longitude: 120.9842}
	dest := models.Address{Latitude: 14.5995, Longitude: 120.9842}

	eta := Estimate(pos, dest, 30)

	assert.True(t, eta.ArrivingNow)
	assert.False(t, eta.AwaitingSignal)
	assert.Equal(t, "arriving now", eta.Display())
}

func TestEstimateAwaitingSignalWithoutTelemetry(t *testing.T) {
	dest := models.Address{Latitude: 14.5995, Longitude: 120.9842}

	assert.NotPanics(t, func() {
		eta := Estimate(nil, dest, 30)
		assert.True(t, eta.AwaitingSignal)
		assert.Equal(t, "awaiting signal", eta.Display())
	})
}

func TestEstimateDefaultsSpeed(t *testing.T) {
	pos := &models.GeoPoint{Latitude: 0, Longitude: 0}
	dest := models.Address{Latitude: 0, Longitude: 0.5}

	withDefault := Estimate(pos, dest, 0)
	withExplicit := Estimate(pos, dest, 30)

	assert.Equal(t, withExplicit.Minutes, withDefault.Minutes)
}

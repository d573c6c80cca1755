// server/internal/geo/tracker.go
package geo

import (
	"fmt"
	"math"

	"care-referral-api-server/internal/models"
)

const earthRadiusKm = 6371.0

// arrivingNowMinutes is the cutoff below which the ETA reports the
// "arriving now" sentinel instead of a number.
const arrivingNowMinutes = 2

// Distance returns the haversine great-circle distance in kilometers.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLon := degreesToRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(lat1))*math.Cos(degreesToRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// ETA is the straight-line arrival estimate for one ambulance. Exactly one of
// the sentinel flags may be set; Minutes is meaningful only when both are
// false.
type ETA struct {
	Minutes        int     `json:"minutes,omitempty"`
	DistanceKm     float64 `json:"distanceKm"`
	ArrivingNow    bool    `json:"arrivingNow"`
	AwaitingSignal bool    `json:"awaitingSignal"`
}

// Display renders the dashboard string for the estimate.
func (e ETA) Display() string {
	switch {
	case e.AwaitingSignal:
		return "awaiting signal"
	case e.ArrivingNow:
		return "arriving now"
	default:
		return fmt.Sprintf("%d min", e.Minutes)
	}
}

// Estimate computes the ETA from the ambulance's last known position to the
// destination. A nil position means no telemetry has arrived yet and yields
// the awaiting-signal sentinel; it never errors.
func Estimate(position *models.GeoPoint, dest models.Address, speedKmh float64) ETA {
	if position == nil {
		return ETA{AwaitingSignal: true}
	}
	if speedKmh <= 0 {
		speedKmh = 30.0
	}

	km := Distance(position.Latitude, position.Longitude, dest.Latitude, dest.Longitude)
	minutes := int(math.Round(km / speedKmh * 60))
	if minutes <= arrivingNowMinutes {
		return ETA{DistanceKm: km, ArrivingNow: true}
	}
	return ETA{Minutes: minutes, DistanceKm: km}
}

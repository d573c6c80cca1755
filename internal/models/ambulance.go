// server/internal/models/ambulance.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Ambulance struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AmbulanceID string             `bson:"ambulanceID" json:"ambulanceID"` // e.g. "AMB-1A2B3C4D"
	PlateNumber string             `bson:"plateNumber" json:"plateNumber"`
	IsAvailable bool               `bson:"isAvailable" json:"isAvailable"`
	// Position is nil until the first telemetry update arrives.
	Position  *GeoPoint `bson:"position,omitempty" json:"position,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

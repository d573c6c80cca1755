// server/internal/models/facility.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Facility struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FacilityID string             `bson:"facilityID" json:"facilityID"` // user-friendly unique ID, e.g. "metro-general"
	Name       string             `bson:"name" json:"name"`
	Type       string             `bson:"type" json:"type"` // e.g. "HOSPITAL", "CLINIC", "DIAGNOSTIC_CENTER"
	Address    Address            `bson:"address" json:"address"`
	Status     string             `bson:"status" json:"status"` // e.g. "ACTIVE", "INACTIVE", "FULL_CAPACITY"
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// server/internal/models/bed.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bed statuses. An occupied bed always carries the occupying patient id.
const (
	BedAvailable = "available"
	BedOccupied  = "occupied"
	BedCleaning  = "cleaning"
)

type Bed struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BedID      string             `bson:"bedID" json:"bedID"` // e.g. "BED-1A2B3C4D"
	FacilityID string             `bson:"facilityID" json:"facilityID"`
	WardType   string             `bson:"wardType" json:"wardType"` // e.g. "ICU", "GENERAL"
	Status     string             `bson:"status" json:"status"`
	PatientID  string             `bson:"patientID,omitempty" json:"patientID,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

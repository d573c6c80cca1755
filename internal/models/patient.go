// server/internal/models/patient.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Patient struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PatientID   string             `bson:"patientID" json:"patientID"` // e.g. "PAT-1A2B3C4D"
	Name        string             `bson:"name" json:"name"`
	DateOfBirth string             `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`
	Sex         string             `bson:"sex,omitempty" json:"sex,omitempty"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

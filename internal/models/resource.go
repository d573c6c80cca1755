// server/internal/models/resource.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Resource types. Departments route OUTPATIENT visits; equipment backs
// DIAGNOSTIC bookings; supplies are informational only.
const (
	ResourceDepartment = "DEPARTMENT"
	ResourceEquipment  = "EQUIPMENT"
	ResourceSupply     = "SUPPLY"
)

// FacilityResource is read-only routing context for destination dashboards.
// The referral workflow never mutates its status.
type FacilityResource struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ResourceID   string             `bson:"resourceID" json:"resourceID"` // e.g. "RES-1A2B3C4D"
	FacilityID   string             `bson:"facilityID" json:"facilityID"`
	Name         string             `bson:"name" json:"name"`
	ResourceType string             `bson:"resourceType" json:"resourceType"`
	Status       string             `bson:"status" json:"status"` // ONLINE/OFFLINE for departments & equipment, AVAILABLE/CRITICAL for supplies
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ResourceAssignment links a patient to a piece of equipment for a
// DIAGNOSTIC referral.
type ResourceAssignment struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AssignmentID string             `bson:"assignmentID" json:"assignmentID"`
	ResourceID   string             `bson:"resourceID" json:"resourceID"`
	PatientID    string             `bson:"patientID" json:"patientID"`
	ReferralID   string             `bson:"referralID" json:"referralID"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

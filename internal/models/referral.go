// server/internal/models/referral.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Referral statuses. Transitions are one-way: PENDING moves to exactly one of
// ACCEPTED or DIVERTED and never back.
const (
	ReferralPending  = "PENDING"
	ReferralAccepted = "ACCEPTED"
	ReferralDiverted = "DIVERTED"
)

// Service streams (care pathways).
const (
	StreamOutpatient = "OUTPATIENT"
	StreamInpatient  = "INPATIENT"
	StreamDiagnostic = "DIAGNOSTIC"
)

type Referral struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReferralID      string             `bson:"referralID" json:"referralID"`           // e.g. "RF-1A2B3C4D"
	ReferenceNumber string             `bson:"referenceNumber" json:"referenceNumber"` // human-readable, "REF-######", unique
	Status          string             `bson:"status" json:"status"`
	ServiceStream   string             `bson:"serviceStream,omitempty" json:"serviceStream,omitempty"`

	OriginFacilityID      string `bson:"originFacilityID" json:"originFacilityID"`
	DestinationFacilityID string `bson:"destinationFacilityID" json:"destinationFacilityID"`

	PatientID        string `bson:"patientID" json:"patientID"`
	ReferringStaffID string `bson:"referringStaffID" json:"referringStaffID"`

	AmbulanceID          string `bson:"ambulanceID,omitempty" json:"ambulanceID,omitempty"`
	AssignedBedID        string `bson:"assignedBedID,omitempty" json:"assignedBedID,omitempty"`               // INPATIENT only
	AssignedDepartmentID string `bson:"assignedDepartmentID,omitempty" json:"assignedDepartmentID,omitempty"` // OUTPATIENT / DIAGNOSTIC only

	ChiefComplaint  string `bson:"chiefComplaint" json:"chiefComplaint"`
	SlipReference   string `bson:"slipReference" json:"slipReference"` // opaque pointer to the uploaded referral slip
	DiversionReason string `bson:"diversionReason,omitempty" json:"diversionReason,omitempty"`

	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`
	DecidedAt *time.Time `bson:"decidedAt,omitempty" json:"decidedAt,omitempty"` // set once, at accept or divert
}

// DenormalizedReferral is the full view pushed to dashboards: the raw change
// payload lacks display names, so subscribers always receive this join.
type DenormalizedReferral struct {
	Referral                `bson:",inline"`
	PatientName             string `json:"patientName,omitempty"`
	OriginFacilityName      string `json:"originFacilityName,omitempty"`
	DestinationFacilityName string `json:"destinationFacilityName,omitempty"`
	AmbulancePlate          string `json:"ambulancePlate,omitempty"`
	BedWardType             string `json:"bedWardType,omitempty"`
	DepartmentName          string `json:"departmentName,omitempty"`
	SlipURL                 string `json:"slipUrl,omitempty"`
}

// server/internal/referral/denormalize.go
package referral

import (
	"context"

	"care-referral-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
)

// Denormalize joins the referral with patient, facility, ambulance, bed and
// department display fields. Dashboards always receive this view: the raw
// change payload lacks names, so a partial delta must never be trusted.
// Missing related documents degrade to empty names rather than failing the
// read.
func (s *Store) Denormalize(ctx context.Context, r models.Referral) (*models.DenormalizedReferral, error) {
	out := &models.DenormalizedReferral{Referral: r}

	var patient models.Patient
	if err := s.db.Collection("patients").FindOne(ctx, bson.M{"patientID": r.PatientID}).Decode(&patient); err == nil {
		out.PatientName = patient.Name
	}

	var facility models.Facility
	if err := s.db.Collection("facilities").FindOne(ctx, bson.M{"facilityID": r.OriginFacilityID}).Decode(&facility); err == nil {
		out.OriginFacilityName = facility.Name
	}
	if err := s.db.Collection("facilities").FindOne(ctx, bson.M{"facilityID": r.DestinationFacilityID}).Decode(&facility); err == nil {
		out.DestinationFacilityName = facility.Name
	}

	if r.AmbulanceID != "" {
		var amb models.Ambulance
		if err := s.db.Collection("ambulances").FindOne(ctx, bson.M{"ambulanceID": r.AmbulanceID}).Decode(&amb); err == nil {
			out.AmbulancePlate = amb.PlateNumber
		}
	}

	if r.AssignedBedID != "" {
		var bed models.Bed
		if err := s.db.Collection("beds").FindOne(ctx, bson.M{"bedID": r.AssignedBedID}).Decode(&bed); err == nil {
			out.BedWardType = bed.WardType
		}
	}

	if r.AssignedDepartmentID != "" {
		var resource models.FacilityResource
		if err := s.db.Collection("facility_resources").FindOne(ctx, bson.M{"resourceID": r.AssignedDepartmentID}).Decode(&resource); err == nil {
			out.DepartmentName = resource.Name
		}
	}

	return out, nil
}

// server/internal/ledger/reads.go
package ledger

import (
	"context"
	"fmt"

	"care-referral-api-server/internal/apperr"
	"care-referral-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Read helpers for dashboards and the coordinator's precondition checks.

func (l *Ledger) AmbulanceByID(ctx context.Context, ambulanceID string) (*models.Ambulance, error) {
	var amb models.Ambulance
	err := l.ambulances().FindOne(ctx, bson.M{"ambulanceID": ambulanceID}).Decode(&amb)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("ambulance %s: %w", ambulanceID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ambulance: %w", apperr.ErrTransient)
	}
	return &amb, nil
}

func (l *Ledger) Ambulances(ctx context.Context) ([]models.Ambulance, error) {
	cursor, err := l.ambulances().Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query ambulances: %w", apperr.ErrTransient)
	}
	defer cursor.Close(ctx)

	var ambulances []models.Ambulance
	if err := cursor.All(ctx, &ambulances); err != nil {
		return nil, fmt.Errorf("failed to decode ambulances: %w", apperr.ErrTransient)
	}
	if ambulances == nil {
		ambulances = []models.Ambulance{}
	}
	return ambulances, nil
}

func (l *Ledger) BedByID(ctx context.Context, bedID string) (*models.Bed, error) {
	var bed models.Bed
	err := l.beds().FindOne(ctx, bson.M{"bedID": bedID}).Decode(&bed)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("bed %s: %w", bedID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load bed: %w", apperr.ErrTransient)
	}
	return &bed, nil
}

// BedsByFacility runs the dashboard's filtered range scan. Empty wardType or
// status leaves that dimension unfiltered.
func (l *Ledger) BedsByFacility(ctx context.Context, facilityID, wardType, status string) ([]models.Bed, error) {
	filter := bson.M{"facilityID": facilityID}
	if wardType != "" {
		filter["wardType"] = wardType
	}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := l.beds().Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query beds: %w", apperr.ErrTransient)
	}
	defer cursor.Close(ctx)

	var beds []models.Bed
	if err := cursor.All(ctx, &beds); err != nil {
		return nil, fmt.Errorf("failed to decode beds: %w", apperr.ErrTransient)
	}
	if beds == nil {
		beds = []models.Bed{}
	}
	return beds, nil
}

func (l *Ledger) ResourceByID(ctx context.Context, resourceID string) (*models.FacilityResource, error) {
	var resource models.FacilityResource
	err := l.db.Collection("facility_resources").FindOne(ctx, bson.M{"resourceID": resourceID}).Decode(&resource)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("resource %s: %w", resourceID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load resource: %w", apperr.ErrTransient)
	}
	return &resource, nil
}

// ResourcesByFacility returns the read-only routing context (departments,
// equipment, supplies) destination dashboards inspect before deciding.
func (l *Ledger) ResourcesByFacility(ctx context.Context, facilityID, resourceType string) ([]models.FacilityResource, error) {
	filter := bson.M{"facilityID": facilityID}
	if resourceType != "" {
		filter["resourceType"] = resourceType
	}

	cursor, err := l.db.Collection("facility_resources").Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query facility resources: %w", apperr.ErrTransient)
	}
	defer cursor.Close(ctx)

	var resources []models.FacilityResource
	if err := cursor.All(ctx, &resources); err != nil {
		return nil, fmt.Errorf("failed to decode facility resources: %w", apperr.ErrTransient)
	}
	if resources == nil {
		resources = []models.FacilityResource{}
	}
	return resources, nil
}

func (l *Ledger) FacilityByID(ctx context.Context, facilityID string) (*models.Facility, error) {
	var facility models.Facility
	err := l.db.Collection("facilities").FindOne(ctx, bson.M{"facilityID": facilityID}).Decode(&facility)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("facility %s: %w", facilityID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load facility: %w", apperr.ErrTransient)
	}
	return &facility, nil
}

func (l *Ledger) PatientByID(ctx context.Context, patientID string) (*models.Patient, error) {
	var patient models.Patient
	err := l.db.Collection("patients").FindOne(ctx, bson.M{"patientID": patientID}).Decode(&patient)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("patient %s: %w", patientID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load patient: %w", apperr.ErrTransient)
	}
	return &patient, nil
}

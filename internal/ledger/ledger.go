// server/internal/ledger/ledger.go
package ledger

import (
	"context"
	"fmt"
	"time"

	"care-referral-api-server/internal/apperr"
	"care-referral-api-server/internal/models"
	"care-referral-api-server/internal/socket"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Publisher receives one event per successful state change.
type Publisher interface {
	Publish(e socket.Event)
}

// Ledger is the single source of truth for ambulance and bed availability.
// Every mutation is conditional on the resource's current state; two racing
// claimants resolve through the filtered update, and the loser gets a
// conflict without having changed anything.
type Ledger struct {
	db  *mongo.Database
	pub Publisher
	log zerolog.Logger
}

func New(db *mongo.Database, pub Publisher, log zerolog.Logger) *Ledger {
	return &Ledger{db: db, pub: pub, log: log}
}

func (l *Ledger) ambulances() *mongo.Collection { return l.db.Collection("ambulances") }
func (l *Ledger) beds() *mongo.Collection       { return l.db.Collection("beds") }

// ReserveAmbulance atomically flips an available ambulance to unavailable.
// Returns a conflict if it is already held.
func (l *Ledger) ReserveAmbulance(ctx context.Context, ambulanceID string) (*models.Ambulance, error) {
	filter := bson.M{"ambulanceID": ambulanceID, "isAvailable": true}
	update := bson.M{"$set": bson.M{"isAvailable": false, "updatedAt": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var amb models.Ambulance
	err := l.ambulances().FindOneAndUpdate(ctx, filter, update, opts).Decode(&amb)
	if err == mongo.ErrNoDocuments {
		if _, lookupErr := l.AmbulanceByID(ctx, ambulanceID); lookupErr != nil {
			return nil, lookupErr
		}
		return nil, fmt.Errorf("ambulance %s is already reserved: %w", ambulanceID, apperr.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reserve ambulance: %w", apperr.ErrTransient)
	}

	l.publishAmbulance(amb)
	return &amb, nil
}

// ReleaseAmbulance marks an ambulance available again. Releasing an already
// available ambulance is a no-op success, and no duplicate event is emitted.
func (l *Ledger) ReleaseAmbulance(ctx context.Context, ambulanceID string) error {
	filter := bson.M{"ambulanceID": ambulanceID}
	update := bson.M{"$set": bson.M{"isAvailable": true, "updatedAt": time.Now()}}

	result, err := l.ambulances().UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release ambulance: %w", apperr.ErrTransient)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("ambulance %s: %w", ambulanceID, apperr.ErrNotFound)
	}
	if result.ModifiedCount == 0 {
		return nil
	}

	amb, err := l.AmbulanceByID(ctx, ambulanceID)
	if err == nil {
		l.publishAmbulance(*amb)
	}
	return nil
}

// ReserveBed atomically claims an available bed at the destination facility
// for the patient. A bed in any other state yields a conflict; a bed at the
// wrong facility is a validation failure.
func (l *Ledger) ReserveBed(ctx context.Context, bedID, patientID, facilityID string) (*models.Bed, error) {
	filter := bson.M{"bedID": bedID, "facilityID": facilityID, "status": models.BedAvailable}
	update := bson.M{"$set": bson.M{"status": models.BedOccupied, "patientID": patientID, "updatedAt": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var bed models.Bed
	err := l.beds().FindOneAndUpdate(ctx, filter, update, opts).Decode(&bed)
	if err == mongo.ErrNoDocuments {
		existing, lookupErr := l.BedByID(ctx, bedID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if existing.FacilityID != facilityID {
			return nil, fmt.Errorf("bed %s is not at facility %s: %w", bedID, facilityID, apperr.ErrValidation)
		}
		return nil, fmt.Errorf("bed %s is %s: %w", bedID, existing.Status, apperr.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reserve bed: %w", apperr.ErrTransient)
	}

	l.publishBed(bed)
	return &bed, nil
}

// UnreserveBed is the saga compensation for ReserveBed: it restores the bed
// to available, but only if it is still occupied by the same patient.
// Idempotent.
func (l *Ledger) UnreserveBed(ctx context.Context, bedID, patientID string) error {
	filter := bson.M{"bedID": bedID, "status": models.BedOccupied, "patientID": patientID}
	update := bson.M{
		"$set":   bson.M{"status": models.BedAvailable, "updatedAt": time.Now()},
		"$unset": bson.M{"patientID": ""},
	}

	result, err := l.beds().UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to unreserve bed: %w", apperr.ErrTransient)
	}
	if result.ModifiedCount == 0 {
		return nil
	}

	bed, err := l.BedByID(ctx, bedID)
	if err == nil {
		l.publishBed(*bed)
	}
	return nil
}

// FreeBed moves a bed to cleaning after discharge and clears the patient.
// Idempotent: freeing a bed already in cleaning succeeds without an event.
func (l *Ledger) FreeBed(ctx context.Context, bedID string) error {
	filter := bson.M{"bedID": bedID}
	update := bson.M{
		"$set":   bson.M{"status": models.BedCleaning, "updatedAt": time.Now()},
		"$unset": bson.M{"patientID": ""},
	}

	result, err := l.beds().UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to free bed: %w", apperr.ErrTransient)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("bed %s: %w", bedID, apperr.ErrNotFound)
	}
	if result.ModifiedCount == 0 {
		return nil
	}

	bed, err := l.BedByID(ctx, bedID)
	if err == nil {
		l.publishBed(*bed)
	}
	return nil
}

// UpdateAmbulancePosition records raw telemetry and fans it out. Position
// updates are legal regardless of availability.
func (l *Ledger) UpdateAmbulancePosition(ctx context.Context, ambulanceID string, lat, lon float64) (*models.Ambulance, error) {
	filter := bson.M{"ambulanceID": ambulanceID}
	update := bson.M{"$set": bson.M{
		"position":  models.GeoPoint{Latitude: lat, Longitude: lon},
		"updatedAt": time.Now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var amb models.Ambulance
	err := l.ambulances().FindOneAndUpdate(ctx, filter, update, opts).Decode(&amb)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("ambulance %s: %w", ambulanceID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update ambulance position: %w", apperr.ErrTransient)
	}

	l.publishAmbulance(amb)
	return &amb, nil
}

// AssignResource books a piece of equipment for a diagnostic referral and
// returns the assignment id used for compensation.
func (l *Ledger) AssignResource(ctx context.Context, resourceID, patientID, referralID string) (string, error) {
	resource, err := l.ResourceByID(ctx, resourceID)
	if err != nil {
		return "", err
	}
	if resource.ResourceType == models.ResourceSupply {
		return "", fmt.Errorf("resource %s is a supply, not bookable: %w", resourceID, apperr.ErrValidation)
	}

	assignment := models.ResourceAssignment{
		AssignmentID: fmt.Sprintf("ASG-%s", uuid.New().String()[:8]),
		ResourceID:   resourceID,
		PatientID:    patientID,
		ReferralID:   referralID,
		CreatedAt:    time.Now(),
	}
	if _, err := l.db.Collection("resource_assignments").InsertOne(ctx, assignment); err != nil {
		return "", fmt.Errorf("failed to create resource assignment: %w", apperr.ErrTransient)
	}
	return assignment.AssignmentID, nil
}

// UnassignResource removes a resource assignment (saga compensation).
// Idempotent.
func (l *Ledger) UnassignResource(ctx context.Context, assignmentID string) error {
	_, err := l.db.Collection("resource_assignments").DeleteOne(ctx, bson.M{"assignmentID": assignmentID})
	if err != nil {
		return fmt.Errorf("failed to remove resource assignment: %w", apperr.ErrTransient)
	}
	return nil
}

func (l *Ledger) publishAmbulance(amb models.Ambulance) {
	l.pub.Publish(socket.Event{
		Entity:   socket.EntityAmbulance,
		EntityID: amb.AmbulanceID,
		Action:   "updated",
		At:       time.Now(),
		Payload:  amb,
	})
}

func (l *Ledger) publishBed(bed models.Bed) {
	l.pub.Publish(socket.Event{
		Entity:      socket.EntityBed,
		EntityID:    bed.BedID,
		FacilityIDs: []string{bed.FacilityID},
		Action:      "updated",
		At:          time.Now(),
		Payload:     bed,
	})
}

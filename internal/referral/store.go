// server/internal/referral/store.go
package referral

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"care-referral-api-server/internal/apperr"
	"care-referral-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// maxReferenceAttempts bounds retries when a random reference number collides
// with the unique index.
const maxReferenceAttempts = 5

// AcceptUpdate carries the fields written when a referral is accepted.
type AcceptUpdate struct {
	ServiceStream         string
	DestinationFacilityID string
	AssignedBedID         string
	AssignedDepartmentID  string
}

// Store owns the referral documents. Field-level invariants are enforced at
// write time; status moves only forward.
type Store struct {
	db *mongo.Database
}

func NewStore(db *mongo.Database) *Store {
	return &Store{db: db}
}

func (s *Store) referrals() *mongo.Collection { return s.db.Collection("referrals") }

// newReferenceNumber generates the human-readable "REF-######" number.
// Uniqueness comes from the index, not the generator; Insert retries on
// collision.
func newReferenceNumber() string {
	return fmt.Sprintf("REF-%06d", rand.Intn(1000000))
}

// Insert writes a new PENDING referral, assigning its reference number.
func (s *Store) Insert(ctx context.Context, r *models.Referral) error {
	if r.Status != models.ReferralPending {
		return fmt.Errorf("new referral must be PENDING: %w", apperr.ErrIntegrity)
	}
	if r.AssignedBedID != "" || r.AssignedDepartmentID != "" {
		return fmt.Errorf("new referral cannot carry an assignment: %w", apperr.ErrIntegrity)
	}

	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now

	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		r.ReferenceNumber = newReferenceNumber()
		result, err := s.referrals().InsertOne(ctx, r)
		if err == nil {
			if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
				r.ID = oid
			}
			return nil
		}
		if mongo.IsDuplicateKeyError(err) {
			continue
		}
		return fmt.Errorf("failed to insert referral: %w", apperr.ErrTransient)
	}
	return fmt.Errorf("could not find a free reference number: %w", apperr.ErrTransient)
}

func (s *Store) ByID(ctx context.Context, referralID string) (*models.Referral, error) {
	var r models.Referral
	err := s.referrals().FindOne(ctx, bson.M{"referralID": referralID}).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("referral %s: %w", referralID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load referral: %w", apperr.ErrTransient)
	}
	return &r, nil
}

// ByFacility lists referrals where the facility is the origin, the
// destination, or either, optionally narrowed by status.
func (s *Store) ByFacility(ctx context.Context, facilityID, role, status string) ([]models.Referral, error) {
	var filter bson.M
	switch role {
	case "origin":
		filter = bson.M{"originFacilityID": facilityID}
	case "destination":
		filter = bson.M{"destinationFacilityID": facilityID}
	default:
		filter = bson.M{"$or": []bson.M{
			{"originFacilityID": facilityID},
			{"destinationFacilityID": facilityID},
		}}
	}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := s.referrals().Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query referrals: %w", apperr.ErrTransient)
	}
	defer cursor.Close(ctx)

	var referrals []models.Referral
	if err := cursor.All(ctx, &referrals); err != nil {
		return nil, fmt.Errorf("failed to decode referrals: %w", apperr.ErrTransient)
	}
	if referrals == nil {
		referrals = []models.Referral{}
	}
	return referrals, nil
}

// MarkAccepted moves PENDING to ACCEPTED with the stream assignment. The
// filtered update is the conflict barrier: a referral already decided by a
// faster dashboard matches nothing and the caller gets a conflict.
func (s *Store) MarkAccepted(ctx context.Context, referralID string, upd AcceptUpdate) (*models.Referral, error) {
	if err := checkStreamCoupling(upd); err != nil {
		return nil, err
	}

	now := time.Now()
	set := bson.M{
		"status":                models.ReferralAccepted,
		"serviceStream":         upd.ServiceStream,
		"destinationFacilityID": upd.DestinationFacilityID,
		"decidedAt":             now,
		"updatedAt":             now,
	}
	if upd.AssignedBedID != "" {
		set["assignedBedID"] = upd.AssignedBedID
	}
	if upd.AssignedDepartmentID != "" {
		set["assignedDepartmentID"] = upd.AssignedDepartmentID
	}

	return s.decide(ctx, referralID, bson.M{"$set": set})
}

// MarkDiverted moves PENDING to DIVERTED. The ambulance stays attached and
// reserved; the replacement referral takes it over.
func (s *Store) MarkDiverted(ctx context.Context, referralID, reason string) (*models.Referral, error) {
	now := time.Now()
	update := bson.M{"$set": bson.M{
		"status":          models.ReferralDiverted,
		"diversionReason": reason,
		"decidedAt":       now,
		"updatedAt":       now,
	}}
	return s.decide(ctx, referralID, update)
}

func (s *Store) decide(ctx context.Context, referralID string, update bson.M) (*models.Referral, error) {
	filter := bson.M{"referralID": referralID, "status": models.ReferralPending}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var r models.Referral
	err := s.referrals().FindOneAndUpdate(ctx, filter, update, opts).Decode(&r)
	if err == mongo.ErrNoDocuments {
		existing, lookupErr := s.ByID(ctx, referralID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		return nil, fmt.Errorf("referral %s is already %s: %w", referralID, existing.Status, apperr.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update referral: %w", apperr.ErrTransient)
	}
	return &r, nil
}

// PendingHolder returns the PENDING referral holding the ambulance, if any.
func (s *Store) PendingHolder(ctx context.Context, ambulanceID string) (*models.Referral, error) {
	return s.holder(ctx, ambulanceID, models.ReferralPending)
}

// DivertedHolder returns the DIVERTED referral still attached to the
// ambulance, i.e. a hand-off waiting for its replacement referral.
func (s *Store) DivertedHolder(ctx context.Context, ambulanceID string) (*models.Referral, error) {
	return s.holder(ctx, ambulanceID, models.ReferralDiverted)
}

func (s *Store) holder(ctx context.Context, ambulanceID, status string) (*models.Referral, error) {
	var r models.Referral
	err := s.referrals().FindOne(ctx, bson.M{"ambulanceID": ambulanceID, "status": status}).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("no %s referral holds ambulance %s: %w", status, ambulanceID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query referral holder: %w", apperr.ErrTransient)
	}
	return &r, nil
}

// ClearAmbulance detaches the ambulance from a DIVERTED referral. The filter
// on status and ambulanceID makes this the hand-off gate: of several racing
// replacement referrals, only the one whose update modifies the document may
// take the reservation over, everyone else gets a conflict.
func (s *Store) ClearAmbulance(ctx context.Context, referralID, ambulanceID string) error {
	filter := bson.M{"referralID": referralID, "status": models.ReferralDiverted, "ambulanceID": ambulanceID}
	update := bson.M{
		"$unset": bson.M{"ambulanceID": ""},
		"$set":   bson.M{"updatedAt": time.Now()},
	}
	result, err := s.referrals().UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to clear ambulance from referral: %w", apperr.ErrTransient)
	}
	if result.ModifiedCount == 0 {
		return fmt.Errorf("ambulance %s was already taken over: %w", ambulanceID, apperr.ErrConflict)
	}
	return nil
}

// ReattachAmbulance undoes ClearAmbulance when the replacement referral
// failed to commit, so the diverted referral keeps holding the reservation.
func (s *Store) ReattachAmbulance(ctx context.Context, referralID, ambulanceID string) error {
	filter := bson.M{"referralID": referralID, "status": models.ReferralDiverted}
	update := bson.M{"$set": bson.M{"ambulanceID": ambulanceID, "updatedAt": time.Now()}}
	if _, err := s.referrals().UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to re-attach ambulance to referral: %w", apperr.ErrTransient)
	}
	return nil
}

func checkStreamCoupling(upd AcceptUpdate) error {
	switch upd.ServiceStream {
	case models.StreamInpatient:
		if upd.AssignedBedID == "" {
			return fmt.Errorf("inpatient acceptance requires a bed: %w", apperr.ErrIntegrity)
		}
		if upd.AssignedDepartmentID != "" {
			return fmt.Errorf("inpatient acceptance cannot assign a department: %w", apperr.ErrIntegrity)
		}
	case models.StreamOutpatient, models.StreamDiagnostic:
		if upd.AssignedBedID != "" {
			return fmt.Errorf("bed assignment requires the inpatient stream: %w", apperr.ErrIntegrity)
		}
		if upd.AssignedDepartmentID == "" {
			return fmt.Errorf("%s acceptance requires a department or resource: %w", upd.ServiceStream, apperr.ErrIntegrity)
		}
	default:
		return fmt.Errorf("unknown service stream %q: %w", upd.ServiceStream, apperr.ErrIntegrity)
	}
	return nil
}

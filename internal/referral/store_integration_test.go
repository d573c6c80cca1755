// server/internal/referral/store_integration_test.go
package referral

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"care-referral-api-server/internal/apperr"
	"care-referral-api-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// These tests exercise the filtered-update conflict barrier against a real
// MongoDB. Set MONGO_TEST_URI (e.g. mongodb://localhost:27017) to run them.

func testStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)

	db := client.Database(fmt.Sprintf("referral_store_test_%s", uuid.New().String()[:8]))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	return NewStore(db)
}

func pendingReferral(ambulanceID string) *models.Referral {
	return &models.Referral{
		ReferralID:            fmt.Sprintf("RF-%s", uuid.New().String()[:8]),
		Status:                models.ReferralPending,
		OriginFacilityID:      "FAC-A",
		DestinationFacilityID: "FAC-B",
		PatientID:             "PAT-1",
		ReferringStaffID:      "staff-AAAA1111",
		AmbulanceID:           ambulanceID,
		ChiefComplaint:        "chest pain",
		SlipReference:         "referral-slips/abc.pdf",
	}
}

func TestInsertAssignsReferenceNumber(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	r := pendingReferral("AMB-1")
	require.NoError(t, s.Insert(ctx, r))

	assert.Regexp(t, `^REF-\d{6}$`, r.ReferenceNumber)
	assert.False(t, r.CreatedAt.IsZero())
	assert.False(t, r.ID.IsZero())

	loaded, err := s.ByID(ctx, r.ReferralID)
	require.NoError(t, err)
	assert.Equal(t, r.ReferenceNumber, loaded.ReferenceNumber)
	assert.Nil(t, loaded.DecidedAt)
}

func TestInsertRejectsMalformedReferrals(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	decided := pendingReferral("AMB-1")
	decided.Status = models.ReferralAccepted
	err := s.Insert(ctx, decided)
	assert.True(t, apperr.IsIntegrity(err), "got %v", err)

	preassigned := pendingReferral("AMB-1")
	preassigned.AssignedBedID = "BED-1"
	err = s.Insert(ctx, preassigned)
	assert.True(t, apperr.IsIntegrity(err), "got %v", err)
}

func TestDecideIsOneWay(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	r := pendingReferral("AMB-1")
	require.NoError(t, s.Insert(ctx, r))

	accepted, err := s.MarkAccepted(ctx, r.ReferralID, AcceptUpdate{
		ServiceStream:         models.StreamOutpatient,
		DestinationFacilityID: "FAC-B",
		AssignedDepartmentID:  "RES-CARDIO",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReferralAccepted, accepted.Status)
	require.NotNil(t, accepted.DecidedAt)

	// The CAS matches nothing once the referral is decided.
	_, err = s.MarkDiverted(ctx, r.ReferralID, "too late")
	assert.True(t, apperr.IsConflict(err), "got %v", err)
	assert.Contains(t, err.Error(), models.ReferralAccepted)

	_, err = s.MarkAccepted(ctx, "RF-MISSING", AcceptUpdate{
		ServiceStream:         models.StreamOutpatient,
		DestinationFacilityID: "FAC-B",
		AssignedDepartmentID:  "RES-CARDIO",
	})
	assert.True(t, apperr.IsNotFound(err), "got %v", err)
}

func TestHolderQueriesTrackTheAmbulance(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	ambulanceID := fmt.Sprintf("AMB-%s", uuid.New().String()[:8])

	r := pendingReferral(ambulanceID)
	require.NoError(t, s.Insert(ctx, r))

	holder, err := s.PendingHolder(ctx, ambulanceID)
	require.NoError(t, err)
	assert.Equal(t, r.ReferralID, holder.ReferralID)

	_, err = s.DivertedHolder(ctx, ambulanceID)
	assert.True(t, apperr.IsNotFound(err), "got %v", err)

	_, err = s.MarkDiverted(ctx, r.ReferralID, "ICU at capacity")
	require.NoError(t, err)

	_, err = s.PendingHolder(ctx, ambulanceID)
	assert.True(t, apperr.IsNotFound(err), "got %v", err)

	holder, err = s.DivertedHolder(ctx, ambulanceID)
	require.NoError(t, err)
	assert.Equal(t, r.ReferralID, holder.ReferralID)

	// Detaching ends the hand-off window; a second detach loses the race.
	require.NoError(t, s.ClearAmbulance(ctx, r.ReferralID, ambulanceID))
	_, err = s.DivertedHolder(ctx, ambulanceID)
	assert.True(t, apperr.IsNotFound(err), "got %v", err)

	err = s.ClearAmbulance(ctx, r.ReferralID, ambulanceID)
	assert.True(t, apperr.IsConflict(err), "got %v", err)

	// Re-attaching reopens the window.
	require.NoError(t, s.ReattachAmbulance(ctx, r.ReferralID, ambulanceID))
	holder, err = s.DivertedHolder(ctx, ambulanceID)
	require.NoError(t, err)
	assert.Equal(t, r.ReferralID, holder.ReferralID)
}

func TestClearAmbulanceOnlyTouchesDivertedReferrals(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	ambulanceID := fmt.Sprintf("AMB-%s", uuid.New().String()[:8])

	r := pendingReferral(ambulanceID)
	require.NoError(t, s.Insert(ctx, r))

	err := s.ClearAmbulance(ctx, r.ReferralID, ambulanceID)
	assert.True(t, apperr.IsConflict(err), "got %v", err)

	loaded, err := s.ByID(ctx, r.ReferralID)
	require.NoError(t, err)
	assert.Equal(t, ambulanceID, loaded.AmbulanceID, "pending referral keeps its ambulance")
}

func TestByFacilityRoles(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	outbound := pendingReferral("AMB-1")
	require.NoError(t, s.Insert(ctx, outbound))

	inbound := pendingReferral("AMB-2")
	inbound.OriginFacilityID = "FAC-B"
	inbound.DestinationFacilityID = "FAC-A"
	require.NoError(t, s.Insert(ctx, inbound))

	asOrigin, err := s.ByFacility(ctx, "FAC-A", "origin", "")
	require.NoError(t, err)
	require.Len(t, asOrigin, 1)
	assert.Equal(t, outbound.ReferralID, asOrigin[0].ReferralID)

	asDestination, err := s.ByFacility(ctx, "FAC-A", "destination", "")
	require.NoError(t, err)
	require.Len(t, asDestination, 1)
	assert.Equal(t, inbound.ReferralID, asDestination[0].ReferralID)

	either, err := s.ByFacility(ctx, "FAC-A", "", "")
	require.NoError(t, err)
	assert.Len(t, either, 2)

	none, err := s.ByFacility(ctx, "FAC-A", "", models.ReferralDiverted)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

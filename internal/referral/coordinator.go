// server/internal/referral/coordinator.go
package referral

import (
	"context"
	"fmt"
	"strings"
	"time"

	"care-referral-api-server/internal/apperr"
	"care-referral-api-server/internal/models"
	"care-referral-api-server/internal/socket"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ResourceLedger is the slice of the ledger the coordinator drives. It is the
// only component allowed to translate ledger errors into referral outcomes.
type ResourceLedger interface {
	ReserveAmbulance(ctx context.Context, ambulanceID string) (*models.Ambulance, error)
	ReleaseAmbulance(ctx context.Context, ambulanceID string) error
	ReserveBed(ctx context.Context, bedID, patientID, facilityID string) (*models.Bed, error)
	UnreserveBed(ctx context.Context, bedID, patientID string) error
	AssignResource(ctx context.Context, resourceID, patientID, referralID string) (string, error)
	UnassignResource(ctx context.Context, assignmentID string) error
	AmbulanceByID(ctx context.Context, ambulanceID string) (*models.Ambulance, error)
	FacilityByID(ctx context.Context, facilityID string) (*models.Facility, error)
	PatientByID(ctx context.Context, patientID string) (*models.Patient, error)
}

// RecordStore is the referral persistence the coordinator writes through.
type RecordStore interface {
	Insert(ctx context.Context, r *models.Referral) error
	ByID(ctx context.Context, referralID string) (*models.Referral, error)
	MarkAccepted(ctx context.Context, referralID string, upd AcceptUpdate) (*models.Referral, error)
	MarkDiverted(ctx context.Context, referralID, reason string) (*models.Referral, error)
	PendingHolder(ctx context.Context, ambulanceID string) (*models.Referral, error)
	DivertedHolder(ctx context.Context, ambulanceID string) (*models.Referral, error)
	ClearAmbulance(ctx context.Context, referralID, ambulanceID string) error
	ReattachAmbulance(ctx context.Context, referralID, ambulanceID string) error
	Denormalize(ctx context.Context, r models.Referral) (*models.DenormalizedReferral, error)
}

type Publisher interface {
	Publish(e socket.Event)
}

// Coordinator orchestrates the multi-resource referral transitions as sagas:
// reserve, commit, compensate on failure. No other code path mutates shared
// resource state.
type Coordinator struct {
	ledger ResourceLedger
	store  RecordStore
	pub    Publisher
	log    zerolog.Logger
}

func NewCoordinator(ledger ResourceLedger, store RecordStore, pub Publisher, log zerolog.Logger) *Coordinator {
	return &Coordinator{ledger: ledger, store: store, pub: pub, log: log}
}

type CreateInput struct {
	PatientID             string
	OriginFacilityID      string
	DestinationFacilityID string
	AmbulanceID           string
	ReferringStaffID      string
	ChiefComplaint        string
	SlipReference         string
}

// CreateReferral reserves the ambulance and writes the PENDING referral as
// one unit of work: if the insert fails, the reservation is rolled back.
//
// An ambulance still attached to a DIVERTED referral is carried over instead
// of reserved. The conditional detach on the old referral is the gate: of
// several racing replacement referrals only one modifies the document and
// proceeds, the rest get a conflict before anything is written.
func (c *Coordinator) CreateReferral(ctx context.Context, in CreateInput) (*models.DenormalizedReferral, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	if _, err := c.ledger.PatientByID(ctx, in.PatientID); err != nil {
		return nil, createLookupErr("patient", err)
	}
	if _, err := c.ledger.FacilityByID(ctx, in.OriginFacilityID); err != nil {
		return nil, createLookupErr("origin facility", err)
	}
	if _, err := c.ledger.FacilityByID(ctx, in.DestinationFacilityID); err != nil {
		return nil, createLookupErr("destination facility", err)
	}
	if _, err := c.ledger.AmbulanceByID(ctx, in.AmbulanceID); err != nil {
		return nil, createLookupErr("ambulance", err)
	}

	// Hand-off check: a DIVERTED referral still holding the ambulance means
	// the reservation is carried over rather than re-acquired.
	var handOff *models.Referral
	if holder, err := c.store.DivertedHolder(ctx, in.AmbulanceID); err == nil {
		if _, pErr := c.store.PendingHolder(ctx, in.AmbulanceID); pErr == nil {
			return nil, fmt.Errorf("ambulance %s is held by another pending referral: %w", in.AmbulanceID, apperr.ErrConflict)
		}
		handOff = holder
	} else if !apperr.IsNotFound(err) {
		return nil, err
	}

	reserved := false
	if handOff != nil {
		// Take the reservation over before inserting. The conditional detach
		// decides races; a loser stops here with nothing written.
		if err := c.store.ClearAmbulance(ctx, handOff.ReferralID, in.AmbulanceID); err != nil {
			return nil, err
		}
	} else {
		if _, err := c.ledger.ReserveAmbulance(ctx, in.AmbulanceID); err != nil {
			return nil, err
		}
		reserved = true
	}

	referral := &models.Referral{
		ReferralID:            fmt.Sprintf("RF-%s", strings.ToUpper(uuid.New().String()[:8])),
		Status:                models.ReferralPending,
		OriginFacilityID:      in.OriginFacilityID,
		DestinationFacilityID: in.DestinationFacilityID,
		PatientID:             in.PatientID,
		ReferringStaffID:      in.ReferringStaffID,
		AmbulanceID:           in.AmbulanceID,
		ChiefComplaint:        in.ChiefComplaint,
		SlipReference:         in.SlipReference,
	}

	if err := c.store.Insert(ctx, referral); err != nil {
		if reserved {
			// Compensating release: the authoritative write failed, so the
			// reservation must not stick.
			if relErr := c.ledger.ReleaseAmbulance(ctx, in.AmbulanceID); relErr != nil {
				c.log.Error().Str("ambulanceID", in.AmbulanceID).Err(relErr).
					Msg("compensating ambulance release failed, ambulance stuck reserved")
			}
		} else if handOff != nil {
			// Give the reservation back to the diverted referral so the
			// hand-off window reopens.
			if reErr := c.store.ReattachAmbulance(ctx, handOff.ReferralID, in.AmbulanceID); reErr != nil {
				c.log.Error().Str("referralID", handOff.ReferralID).Err(reErr).
					Msg("failed to re-attach ambulance to diverted referral")
			}
		}
		return nil, err
	}

	return c.finish(ctx, referral, "created")
}

type AcceptInput struct {
	ReferralID       string
	CallerFacilityID string
	ServiceStream    string
	BedID            string
	DepartmentID     string
	ResourceID       string
}

// AcceptReferral runs the ordered, compensable acceptance saga:
// (a) diagnostic resource assignment, (b) bed reservation, (c) the referral
// status flip, (d) ambulance release. The CAS in step (c) decides races; a
// loser has every earlier step rolled back and no state mutated.
func (c *Coordinator) AcceptReferral(ctx context.Context, in AcceptInput) (*models.DenormalizedReferral, error) {
	r, err := c.store.ByID(ctx, in.ReferralID)
	if err != nil {
		return nil, err
	}
	if r.Status != models.ReferralPending {
		return nil, fmt.Errorf("referral %s is already %s: %w", r.ReferralID, r.Status, apperr.ErrConflict)
	}
	if r.DestinationFacilityID != in.CallerFacilityID {
		return nil, fmt.Errorf("referral %s is not addressed to your facility: %w", r.ReferralID, apperr.ErrValidation)
	}

	placement, err := placementFor(in)
	if err != nil {
		return nil, err
	}

	var compensations []func()

	rollback := func() {
		for i := len(compensations) - 1; i >= 0; i-- {
			compensations[i]()
		}
	}

	if in.ServiceStream == models.StreamDiagnostic {
		assignmentID, err := c.ledger.AssignResource(ctx, placement.resourceID, r.PatientID, r.ReferralID)
		if err != nil {
			return nil, err
		}
		compensations = append(compensations, func() {
			if err := c.ledger.UnassignResource(ctx, assignmentID); err != nil {
				c.log.Error().Str("assignmentID", assignmentID).Err(err).Msg("failed to roll back resource assignment")
			}
		})
	}

	if in.ServiceStream == models.StreamInpatient {
		if _, err := c.ledger.ReserveBed(ctx, placement.bedID, r.PatientID, in.CallerFacilityID); err != nil {
			rollback()
			return nil, err
		}
		compensations = append(compensations, func() {
			if err := c.ledger.UnreserveBed(ctx, placement.bedID, r.PatientID); err != nil {
				c.log.Error().Str("bedID", placement.bedID).Err(err).Msg("failed to roll back bed reservation")
			}
		})
	}

	updated, err := c.store.MarkAccepted(ctx, r.ReferralID, AcceptUpdate{
		ServiceStream:         in.ServiceStream,
		DestinationFacilityID: in.CallerFacilityID,
		AssignedBedID:         placement.bedID,
		AssignedDepartmentID:  placement.departmentID,
	})
	if err != nil {
		rollback()
		return nil, err
	}

	if updated.AmbulanceID != "" {
		if err := c.releaseWithRetry(ctx, updated.AmbulanceID); err != nil {
			// The referral is terminal and must not roll back; release is
			// idempotent, so the caller can re-query and a later release
			// attempt is a safe no-op.
			c.log.Error().Str("ambulanceID", updated.AmbulanceID).Err(err).
				Msg("ambulance release failed after acceptance")
			return nil, fmt.Errorf("referral accepted but ambulance release pending: %w", apperr.ErrTransient)
		}
	}

	return c.finish(ctx, updated, "updated")
}

type DivertInput struct {
	ReferralID       string
	CallerFacilityID string
	Reason           string
}

// DivertReferral marks the referral DIVERTED. The ambulance is not released:
// it stays reserved for the replacement referral the origin is expected to
// create next.
func (c *Coordinator) DivertReferral(ctx context.Context, in DivertInput) (*models.DenormalizedReferral, error) {
	if strings.TrimSpace(in.Reason) == "" {
		return nil, fmt.Errorf("a diversion reason is required: %w", apperr.ErrValidation)
	}

	r, err := c.store.ByID(ctx, in.ReferralID)
	if err != nil {
		return nil, err
	}
	if r.DestinationFacilityID != in.CallerFacilityID {
		return nil, fmt.Errorf("referral %s is not addressed to your facility: %w", r.ReferralID, apperr.ErrConflict)
	}

	updated, err := c.store.MarkDiverted(ctx, in.ReferralID, in.Reason)
	if err != nil {
		return nil, err
	}

	return c.finish(ctx, updated, "updated")
}

func (c *Coordinator) releaseWithRetry(ctx context.Context, ambulanceID string) error {
	err := c.ledger.ReleaseAmbulance(ctx, ambulanceID)
	if err == nil || apperr.IsNotFound(err) {
		return nil
	}
	time.Sleep(100 * time.Millisecond)
	return c.ledger.ReleaseAmbulance(ctx, ambulanceID)
}

// finish publishes the committed change and returns the denormalized view.
func (c *Coordinator) finish(ctx context.Context, r *models.Referral, action string) (*models.DenormalizedReferral, error) {
	full, err := c.store.Denormalize(ctx, *r)
	if err != nil {
		full = &models.DenormalizedReferral{Referral: *r}
	}

	c.pub.Publish(socket.Event{
		Entity:      socket.EntityReferral,
		EntityID:    r.ReferralID,
		FacilityIDs: []string{r.OriginFacilityID, r.DestinationFacilityID},
		Action:      action,
		At:          time.Now(),
		Payload:     full,
	})
	return full, nil
}

func validateCreate(in CreateInput) error {
	missing := ""
	switch {
	case strings.TrimSpace(in.PatientID) == "":
		missing = "patientID"
	case strings.TrimSpace(in.OriginFacilityID) == "":
		missing = "originFacilityID"
	case strings.TrimSpace(in.DestinationFacilityID) == "":
		missing = "destinationFacilityID"
	case strings.TrimSpace(in.AmbulanceID) == "":
		missing = "ambulanceID"
	case strings.TrimSpace(in.ChiefComplaint) == "":
		missing = "chiefComplaint"
	case strings.TrimSpace(in.SlipReference) == "":
		missing = "slipReference"
	}
	if missing != "" {
		return fmt.Errorf("%s is required: %w", missing, apperr.ErrValidation)
	}
	if in.OriginFacilityID == in.DestinationFacilityID {
		return fmt.Errorf("origin and destination must differ: %w", apperr.ErrValidation)
	}
	return nil
}

// createLookupErr downgrades a missing prerequisite entity to a validation
// failure: from the caller's side an unresolvable id is bad input, not a
// missing referral.
func createLookupErr(what string, err error) error {
	if apperr.IsNotFound(err) {
		return fmt.Errorf("%s could not be resolved: %w", what, apperr.ErrValidation)
	}
	return err
}

type placement struct {
	bedID        string
	departmentID string
	resourceID   string
}

// placementFor owns the ward-vs-department choice. Priority order, by stream:
//
//	INPATIENT:  BedID, no fallback.
//	OUTPATIENT: DepartmentID first, ResourceID as the legacy alias.
//	DIAGNOSTIC: ResourceID first (the bookable equipment), DepartmentID as
//	            fallback; the chosen id is recorded as the assigned department.
func placementFor(in AcceptInput) (placement, error) {
	switch in.ServiceStream {
	case models.StreamInpatient:
		if in.BedID == "" {
			return placement{}, fmt.Errorf("a bed must be chosen for inpatient acceptance: %w", apperr.ErrValidation)
		}
		return placement{bedID: in.BedID}, nil

	case models.StreamOutpatient:
		id := in.DepartmentID
		if id == "" {
			id = in.ResourceID
		}
		if id == "" {
			return placement{}, fmt.Errorf("a department must be chosen for outpatient acceptance: %w", apperr.ErrValidation)
		}
		return placement{departmentID: id}, nil

	case models.StreamDiagnostic:
		id := in.ResourceID
		if id == "" {
			id = in.DepartmentID
		}
		if id == "" {
			return placement{}, fmt.Errorf("a resource must be chosen for diagnostic acceptance: %w", apperr.ErrValidation)
		}
		return placement{departmentID: id, resourceID: id}, nil

	default:
		return placement{}, fmt.Errorf("unknown service stream %q: %w", in.ServiceStream, apperr.ErrValidation)
	}
}

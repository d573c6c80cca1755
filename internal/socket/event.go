// server/internal/socket/event.go
package socket

import "time"

// Entity classes carried on the wire.
const (
	EntityReferral  = "referral"
	EntityAmbulance = "ambulance"
	EntityBed       = "bed"
)

// Event is one committed state change. Payload is always the full entity
// snapshot (denormalized for referrals); subscribers must not patch deltas.
type Event struct {
	Entity   string `json:"entity"`
	EntityID string `json:"entityID"`
	// FacilityIDs lists every facility with an interest in the change, e.g.
	// both ends of a referral. Used only for filter matching.
	FacilityIDs []string  `json:"facilityIDs,omitempty"`
	Action      string    `json:"action"` // "created" or "updated"
	At          time.Time `json:"at"`
	Payload     any       `json:"payload"`
}

// Filter scopes a subscription: an exact entity id, or an entity class
// narrowed to one facility. A zero FacilityID with a zero EntityID matches
// every event of the entity class.
type Filter struct {
	Entity     string `json:"entity"`
	EntityID   string `json:"entityID,omitempty"`
	FacilityID string `json:"facilityID,omitempty"`
}

func (f Filter) Matches(e Event) bool {
	if f.Entity != "" && f.Entity != e.Entity {
		return false
	}
	if f.EntityID != "" {
		return f.EntityID == e.EntityID
	}
	if f.FacilityID != "" {
		for _, id := range e.FacilityIDs {
			if id == f.FacilityID {
				return true
			}
		}
		return false
	}
	return true
}

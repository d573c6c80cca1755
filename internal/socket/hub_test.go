// server/internal/socket/hub_test.go
package socket

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterMatching(t *testing.T) {
	event := Event{
		Entity:      EntityReferral,
		EntityID:    "RF-AAAA1111",
		FacilityIDs: []string{"metro-general", "st-lukes"},
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"exact entity id", Filter{Entity: EntityReferral, EntityID: "RF-AAAA1111"}, true},
		{"wrong entity id", Filter{Entity: EntityReferral, EntityID: "RF-BBBB2222"}, false},
		{"entity class with matching facility", Filter{Entity: EntityReferral, FacilityID: "st-lukes"}, true},
		{"entity class with other facility", Filter{Entity: EntityReferral, FacilityID: "elsewhere"}, false},
		{"whole entity class", Filter{Entity: EntityReferral}, true},
		{"different entity class", Filter{Entity: EntityBed}, false},
		{"id wins over facility", Filter{Entity: EntityReferral, EntityID: "RF-AAAA1111", FacilityID: "elsewhere"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(event))
		})
	}
}

func TestSubscriptionReceivesMatchingEvents(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	sub := hub.Subscribe(Filter{Entity: EntityBed, FacilityID: "metro-general"})
	defer sub.Close()

	hub.Publish(Event{Entity: EntityBed, EntityID: "BED-1", FacilityIDs: []string{"metro-general"}})
	hub.Publish(Event{Entity: EntityBed, EntityID: "BED-2", FacilityIDs: []string{"st-lukes"}})
	hub.Publish(Event{Entity: EntityAmbulance, EntityID: "AMB-1"})

	select {
	case e := <-sub.C():
		assert.Equal(t, "BED-1", e.EntityID)
	case <-time.After(time.Second):
		t.Fatal("expected an event")
	}

	select {
	case e := <-sub.C():
		t.Fatalf("unexpected event %s/%s", e.Entity, e.EntityID)
	default:
	}
}

func TestSubscriptionOrderedPerEntity(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	sub := hub.Subscribe(Filter{Entity: EntityAmbulance, EntityID: "AMB-1"})
	defer sub.Close()

	for i := 0; i < 5; i++ {
		hub.Publish(Event{Entity: EntityAmbulance, EntityID: "AMB-1", Action: fmt.Sprintf("update-%d", i)})
	}

	for i := 0; i < 5; i++ {
		select {
		case e := <-sub.C():
			assert.Equal(t, fmt.Sprintf("update-%d", i), e.Action)
		case <-time.After(time.Second):
			t.Fatal("missing event")
		}
	}
}

func TestSubscriptionCloseStopsDelivery(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	sub := hub.Subscribe(Filter{Entity: EntityReferral})
	sub.Close()
	// Closing twice is safe.
	sub.Close()

	hub.Publish(Event{Entity: EntityReferral, EntityID: "RF-AAAA1111"})

	_, open := <-sub.C()
	assert.False(t, open, "channel must be closed after Close")
}

func TestLaggingSubscriberIsDetached(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	sub := hub.Subscribe(Filter{Entity: EntityReferral})

	// Overflow the buffer without draining.
	for i := 0; i < subscriptionBuffer+1; i++ {
		hub.Publish(Event{Entity: EntityReferral, EntityID: "RF-AAAA1111"})
	}

	received := 0
	for range sub.C() {
		received++
	}
	// The channel closed on overflow; everything buffered stays deliverable.
	require.Equal(t, subscriptionBuffer, received)
}

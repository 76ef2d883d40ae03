package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	TypeBookingCreated       = "booking.created"
	TypeBookingStatusChanged = "booking.status_changed"
	TypeBedOccupancyChanged  = "bed.occupancy_changed"
	TypePropertyRetired      = "property.retired"
)

// Event 领域事件（已提交事务的通知，不参与一致性）
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	ActorID    string    `json:"actor_id,omitempty"`
	PropertyID string    `json:"property_id,omitempty"`
	RoomID     string    `json:"room_id,omitempty"`
	BedID      string    `json:"bed_id,omitempty"`
	BookingID  string    `json:"booking_id,omitempty"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status,omitempty"`
	Occupied   *bool     `json:"occupied,omitempty"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType, actorID string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		ActorID:    actorID,
	}
}

// Publisher 事件投递；实现需并发安全
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/rasheedharab/PayGuestMarketplace/internal/domain"
	"github.com/rasheedharab/PayGuestMarketplace/internal/events"
)

// notifier publishes events after commit. Failures are logged, never returned.
type notifier struct {
	publisher events.Publisher
	logger    *zap.Logger
}

func (n notifier) publish(ctx context.Context, evs ...events.Event) {
	if n.publisher == nil {
		return
	}
	for _, e := range evs {
		if err := n.publisher.Publish(ctx, e); err != nil {
			n.logger.Warn("Event publish failed",
				zap.String("event_type", e.Type),
				zap.String("event_id", e.ID),
				zap.Error(err),
			)
		}
	}
}

func bookingEvent(eventType string, actor domain.Caller, b *domain.Booking) events.Event {
	e := events.New(eventType, actor.ID)
	e.BookingID = b.BookingID
	e.PropertyID = b.PropertyID
	e.RoomID = b.RoomID
	e.BedID = b.BedIDValue()
	return e
}

func occupancyEvent(actor domain.Caller, propertyID, roomID, bedID string, occupied bool) events.Event {
	e := events.New(events.TypeBedOccupancyChanged, actor.ID)
	e.PropertyID = propertyID
	e.RoomID = roomID
	e.BedID = bedID
	e.Occupied = &occupied
	return e
}

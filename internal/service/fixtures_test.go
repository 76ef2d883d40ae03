package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rasheedharab/PayGuestMarketplace/internal/domain"
	"github.com/rasheedharab/PayGuestMarketplace/internal/events"
	"github.com/rasheedharab/PayGuestMarketplace/internal/repository"
)

var (
	ownerA    = domain.Caller{ID: "owner-a", Role: domain.RoleOwner}
	ownerB    = domain.Caller{ID: "owner-b", Role: domain.RoleOwner}
	customerA = domain.Caller{ID: "customer-a", Role: domain.RoleCustomer}
	customerB = domain.Caller{ID: "customer-b", Role: domain.RoleCustomer}
)

// recordingPublisher 记录已发布事件，可注入失败
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

type harness struct {
	store     *repository.MemoryStore
	pub       *recordingPublisher
	resolver  *OwnershipResolver
	inventory InventoryService
	bookings  BookingService
	analytics AnalyticsService
	now       time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zap.NewNop()
	h := &harness{
		store:    repository.NewMemoryStore(2 * time.Second),
		pub:      &recordingPublisher{},
		resolver: NewOwnershipResolver(logger),
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	h.inventory = NewInventoryService(h.store, h.resolver, h.pub, logger)
	h.bookings = NewBookingService(h.store, h.resolver, h.pub, logger)
	h.bookings.(*bookingService).now = func() time.Time { return h.now }
	h.analytics = NewAnalyticsService(h.store, logger)
	return h
}

func (h *harness) ctx() context.Context {
	return context.Background()
}

func (h *harness) createProperty(t *testing.T, caller domain.Caller, name string) *domain.Property {
	t.Helper()
	p, err := h.inventory.CreateProperty(h.ctx(), caller, CreatePropertyRequest{
		Name:       name,
		Address:    "12 MG Road",
		City:       "Bengaluru",
		State:      "KA",
		PostalCode: "560001",
		Category:   domain.PropertyCategorySharedRoom,
		Amenities:  []string{"WiFi", "Laundry"},
	})
	require.NoError(t, err)
	return p
}

func (h *harness) createRoom(t *testing.T, caller domain.Caller, propertyID string, capacity int) *domain.Room {
	t.Helper()
	r, err := h.inventory.CreateRoom(h.ctx(), caller, propertyID, CreateRoomRequest{
		Name:        "Room 101",
		Category:    domain.RoomCategoryDouble,
		Capacity:    capacity,
		PricePerBed: 800000,
		Deposit:     1600000,
	})
	require.NoError(t, err)
	return r
}

func (h *harness) createBed(t *testing.T, caller domain.Caller, roomID, label string) *domain.Bed {
	t.Helper()
	b, err := h.inventory.CreateBed(h.ctx(), caller, roomID, CreateBedRequest{Label: label})
	require.NoError(t, err)
	return b
}

// layout 业主 A 的一个 property、一个双人间、两张床 A / B
type layout struct {
	property *domain.Property
	room     *domain.Room
	bedA     *domain.Bed
	bedB     *domain.Bed
}

func (h *harness) seedLayout(t *testing.T) layout {
	t.Helper()
	p := h.createProperty(t, ownerA, "Green Nest PG")
	r := h.createRoom(t, ownerA, p.PropertyID, 2)
	return layout{
		property: p,
		room:     r,
		bedA:     h.createBed(t, ownerA, r.RoomID, "A"),
		bedB:     h.createBed(t, ownerA, r.RoomID, "B"),
	}
}

func (h *harness) book(t *testing.T, caller domain.Caller, l layout, bedID *string) *domain.Booking {
	t.Helper()
	b, err := h.bookings.CreateBooking(h.ctx(), caller, CreateBookingRequest{
		PropertyID: l.property.PropertyID,
		RoomID:     l.room.RoomID,
		BedID:      bedID,
		StartDate:  h.now.AddDate(0, 0, -1),
	})
	require.NoError(t, err)
	return b
}

// assertOccupancyConsistent: 每张床最多一个 confirmed/active booking，且 is_occupied 与之一致
func (h *harness) assertOccupancyConsistent(t *testing.T) {
	t.Helper()
	require.NoError(t, h.store.View(h.ctx(), func(ctx context.Context, tx repository.Tx) error {
		for _, owner := range []domain.Caller{ownerA, ownerB} {
			beds, err := tx.ListBedsByOwner(ctx, owner.ID)
			require.NoError(t, err)
			bookings, err := tx.ListBookings(ctx, repository.BookingFilter{OwnerID: owner.ID})
			require.NoError(t, err)

			holders := map[string]int{}
			for _, b := range bookings {
				if b.HoldsBed() {
					holders[b.BedIDValue()]++
				}
			}
			for _, bed := range beds {
				require.LessOrEqual(t, holders[bed.BedID], 1, "bed %s claimed twice", bed.Label)
				require.Equal(t, holders[bed.BedID] == 1, bed.IsOccupied, "bed %s occupancy flag", bed.Label)
			}
		}
		return nil
	}))
}

func strPtr(s string) *string { return &s }

func statusPtr(s domain.BookingStatus) *domain.BookingStatus { return &s }

package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasheedharab/PayGuestMarketplace/internal/domain"
	"github.com/rasheedharab/PayGuestMarketplace/internal/events"
	"github.com/rasheedharab/PayGuestMarketplace/internal/repository"
)

func TestCreateProperty(t *testing.T) {
	h := newHarness(t)

	t.Run("customer cannot list", func(t *testing.T) {
		_, err := h.inventory.CreateProperty(h.ctx(), customerA, CreatePropertyRequest{
			Name: "x", Address: "x", City: "x", State: "x", PostalCode: "x", Category: domain.PropertyCategoryHostel,
		})
		assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := h.inventory.CreateProperty(h.ctx(), ownerA, CreatePropertyRequest{
			Name: "   ", Address: "x", City: "x", State: "x", PostalCode: "x", Category: domain.PropertyCategoryHostel,
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrValidation))
		assert.Contains(t, err.Error(), "Name")
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := h.inventory.CreateProperty(h.ctx(), ownerA, CreatePropertyRequest{
			Name: "x", Address: "x", City: "x", State: "x", PostalCode: "x", Category: "villa",
		})
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})

	t.Run("defaults and normalization", func(t *testing.T) {
		p, err := h.inventory.CreateProperty(h.ctx(), ownerA, CreatePropertyRequest{
			Name:       " Green Nest ",
			Address:    "12 MG Road",
			City:       "Bengaluru",
			State:      "KA",
			PostalCode: "560001",
			Category:   domain.PropertyCategoryHostel,
			Amenities:  []string{"WiFi", " wifi ", "", "Laundry"},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, p.PropertyID)
		assert.Equal(t, ownerA.ID, p.OwnerID)
		assert.Equal(t, "Green Nest", p.Name)
		assert.Equal(t, domain.GenderMixed, p.Gender)
		assert.Equal(t, []string{"WiFi", "Laundry"}, p.Amenities)
		assert.True(t, p.IsActive)
	})
}

func TestListProperties_HidesRetired(t *testing.T) {
	h := newHarness(t)
	kept := h.createProperty(t, ownerA, "Kept")
	retired := h.createProperty(t, ownerA, "Retired")
	h.createRoom(t, ownerA, kept.PropertyID, 2)

	_, err := h.inventory.RetireProperty(h.ctx(), ownerA, retired.PropertyID)
	require.NoError(t, err)

	list, err := h.inventory.ListProperties(h.ctx(), repository.PropertyFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, kept.PropertyID, list[0].PropertyID)

	// owners still see their retired listings
	mine, err := h.inventory.ListOwnerProperties(h.ctx(), ownerA)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	// retired listings stay addressable by id
	got, err := h.inventory.GetProperty(h.ctx(), retired.PropertyID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestListProperties_FilterValidation(t *testing.T) {
	h := newHarness(t)
	lo, hi := int64(900000), int64(100000)

	_, err := h.inventory.ListProperties(h.ctx(), repository.PropertyFilter{MinPrice: &lo, MaxPrice: &hi})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = h.inventory.ListProperties(h.ctx(), repository.PropertyFilter{Category: "villa"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	within := int64(800000)
	list, err := h.inventory.ListProperties(h.ctx(), repository.PropertyFilter{MinPrice: &within, MaxPrice: &within})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = h.inventory.ListOwnerProperties(h.ctx(), customerA)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestRetireProperty_Idempotent(t *testing.T) {
	h := newHarness(t)
	p := h.createProperty(t, ownerA, "Green Nest")
	h.pub.reset()

	ok, err := h.inventory.RetireProperty(h.ctx(), ownerA, p.PropertyID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.inventory.RetireProperty(h.ctx(), ownerA, p.PropertyID)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, []string{events.TypePropertyRetired}, h.pub.types())

	_, err = h.inventory.RetireProperty(h.ctx(), ownerB, p.PropertyID)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	_, err = h.inventory.RetireProperty(h.ctx(), ownerA, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUpdateProperty(t *testing.T) {
	h := newHarness(t)
	p := h.createProperty(t, ownerA, "Green Nest")

	updated, err := h.inventory.UpdateProperty(h.ctx(), ownerA, p.PropertyID, UpdatePropertyRequest{
		Name:      strPtr("Green Nest Deluxe"),
		Amenities: &[]string{"AC"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Green Nest Deluxe", updated.Name)
	assert.Equal(t, []string{"AC"}, updated.Amenities)
	assert.Equal(t, "Bengaluru", updated.City)

	_, err = h.inventory.UpdateProperty(h.ctx(), ownerA, p.PropertyID, UpdatePropertyRequest{OwnerID: strPtr(ownerB.ID)})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = h.inventory.UpdateProperty(h.ctx(), ownerB, p.PropertyID, UpdatePropertyRequest{Name: strPtr("Mine now")})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	_, err = h.inventory.UpdateProperty(h.ctx(), ownerA, p.PropertyID, UpdatePropertyRequest{Name: strPtr("  ")})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	h.pub.reset()
	inactive := false
	_, err = h.inventory.UpdateProperty(h.ctx(), ownerA, p.PropertyID, UpdatePropertyRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, []string{events.TypePropertyRetired}, h.pub.types())
}

func TestCreateRoom(t *testing.T) {
	h := newHarness(t)
	p := h.createProperty(t, ownerA, "Green Nest")

	_, err := h.inventory.CreateRoom(h.ctx(), ownerB, p.PropertyID, CreateRoomRequest{
		Category: domain.RoomCategorySingle, Capacity: 1,
	})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	_, err = h.inventory.CreateRoom(h.ctx(), ownerA, p.PropertyID, CreateRoomRequest{
		Category: domain.RoomCategorySingle, Capacity: 0,
	})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = h.inventory.CreateRoom(h.ctx(), ownerA, p.PropertyID, CreateRoomRequest{
		Category: domain.RoomCategorySingle, Capacity: 1, PricePerBed: -1,
	})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = h.inventory.CreateRoom(h.ctx(), ownerA, "missing", CreateRoomRequest{
		Category: domain.RoomCategorySingle, Capacity: 1,
	})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = h.inventory.RetireProperty(h.ctx(), ownerA, p.PropertyID)
	require.NoError(t, err)
	_, err = h.inventory.CreateRoom(h.ctx(), ownerA, p.PropertyID, CreateRoomRequest{
		Category: domain.RoomCategorySingle, Capacity: 1,
	})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestListRooms(t *testing.T) {
	h := newHarness(t)
	p := h.createProperty(t, ownerA, "Green Nest")
	r1 := h.createRoom(t, ownerA, p.PropertyID, 2)
	r2 := h.createRoom(t, ownerA, p.PropertyID, 3)

	ok, err := h.inventory.RetireRoom(h.ctx(), ownerA, r1.RoomID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = h.inventory.RetireRoom(h.ctx(), ownerA, r1.RoomID)
	require.NoError(t, err)
	assert.True(t, ok)

	rooms, err := h.inventory.ListRooms(h.ctx(), p.PropertyID)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, r2.RoomID, rooms[0].RoomID)

	_, err = h.inventory.RetireProperty(h.ctx(), ownerA, p.PropertyID)
	require.NoError(t, err)
	rooms, err = h.inventory.ListRooms(h.ctx(), p.PropertyID)
	require.NoError(t, err)
	assert.Empty(t, rooms)

	_, err = h.inventory.ListRooms(h.ctx(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	got, err := h.inventory.GetRoom(h.ctx(), r1.RoomID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestUpdateRoom_CapacityBelowBedCount(t *testing.T) {
	h := newHarness(t)
	l := h.seedLayout(t)

	_, err := h.inventory.UpdateRoom(h.ctx(), ownerA, l.room.RoomID, UpdateRoomRequest{Capacity: intPtr(1)})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	price := int64(900000)
	updated, err := h.inventory.UpdateRoom(h.ctx(), ownerA, l.room.RoomID, UpdateRoomRequest{
		Capacity:    intPtr(4),
		PricePerBed: &price,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Capacity)
	assert.Equal(t, price, updated.PricePerBed)

	_, err = h.inventory.UpdateRoom(h.ctx(), ownerB, l.room.RoomID, UpdateRoomRequest{Capacity: intPtr(5)})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestCreateBed(t *testing.T) {
	h := newHarness(t)
	p := h.createProperty(t, ownerA, "Green Nest")
	r := h.createRoom(t, ownerA, p.PropertyID, 3)

	h.createBed(t, ownerA, r.RoomID, "b")
	h.createBed(t, ownerA, r.RoomID, "B")

	_, err := h.inventory.CreateBed(h.ctx(), ownerA, r.RoomID, CreateBedRequest{Label: " B "})
	assert.True(t, errors.Is(err, domain.ErrConflict), "duplicate label")

	h.createBed(t, ownerA, r.RoomID, "A")
	_, err = h.inventory.CreateBed(h.ctx(), ownerA, r.RoomID, CreateBedRequest{Label: "D"})
	assert.True(t, errors.Is(err, domain.ErrConflict), "room at capacity")

	_, err = h.inventory.CreateBed(h.ctx(), ownerB, r.RoomID, CreateBedRequest{Label: "E"})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	_, err = h.inventory.CreateBed(h.ctx(), ownerA, r.RoomID, CreateBedRequest{Label: ""})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	beds, err := h.inventory.ListBeds(h.ctx(), r.RoomID)
	require.NoError(t, err)
	labels := make([]string, 0, len(beds))
	for _, b := range beds {
		labels = append(labels, b.Label)
		assert.False(t, b.IsOccupied)
	}
	assert.Equal(t, []string{"A", "B", "b"}, labels)
}

func TestCreateBed_RetiredRoom(t *testing.T) {
	h := newHarness(t)
	p := h.createProperty(t, ownerA, "Green Nest")
	r := h.createRoom(t, ownerA, p.PropertyID, 3)
	_, err := h.inventory.RetireRoom(h.ctx(), ownerA, r.RoomID)
	require.NoError(t, err)

	_, err = h.inventory.CreateBed(h.ctx(), ownerA, r.RoomID, CreateBedRequest{Label: "A"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUpdateBed_Label(t *testing.T) {
	h := newHarness(t)
	l := h.seedLayout(t)

	_, err := h.inventory.UpdateBed(h.ctx(), ownerA, l.bedA.BedID, UpdateBedRequest{Label: "B"})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	same, err := h.inventory.UpdateBed(h.ctx(), ownerA, l.bedA.BedID, UpdateBedRequest{Label: "A"})
	require.NoError(t, err)
	assert.Equal(t, "A", same.Label)

	renamed, err := h.inventory.UpdateBed(h.ctx(), ownerA, l.bedA.BedID, UpdateBedRequest{Label: "C"})
	require.NoError(t, err)
	assert.Equal(t, "C", renamed.Label)

	_, err = h.inventory.UpdateBed(h.ctx(), ownerB, l.bedA.BedID, UpdateBedRequest{Label: "Z"})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestRoomOccupancyAndAvailableBeds(t *testing.T) {
	h := newHarness(t)
	l := h.seedLayout(t)
	b := h.book(t, customerA, l, &l.bedB.BedID)
	_, err := h.bookings.ConfirmBooking(h.ctx(), ownerA, b.BookingID)
	require.NoError(t, err)

	occ, err := h.inventory.GetRoomOccupancy(h.ctx(), l.room.RoomID)
	require.NoError(t, err)
	assert.Equal(t, &domain.RoomOccupancy{
		RoomID:        l.room.RoomID,
		Capacity:      2,
		TotalBeds:     2,
		OccupiedBeds:  1,
		AvailableBeds: 1,
	}, occ)

	available, err := h.inventory.ListAvailableBeds(h.ctx(), l.room.RoomID)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, l.bedA.BedID, available[0].BedID)

	_, err = h.inventory.ListAvailableBeds(h.ctx(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = h.inventory.GetRoomOccupancy(h.ctx(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestListAvailableBeds_RetiredParents(t *testing.T) {
	t.Run("retired property", func(t *testing.T) {
		h := newHarness(t)
		l := h.seedLayout(t)
		_, err := h.inventory.RetireProperty(h.ctx(), ownerA, l.property.PropertyID)
		require.NoError(t, err)

		available, err := h.inventory.ListAvailableBeds(h.ctx(), l.room.RoomID)
		require.NoError(t, err)
		assert.Empty(t, available)

		// the owner's full bed list is unaffected
		beds, err := h.inventory.ListBeds(h.ctx(), l.room.RoomID)
		require.NoError(t, err)
		assert.Len(t, beds, 2)
	})

	t.Run("retired room", func(t *testing.T) {
		h := newHarness(t)
		l := h.seedLayout(t)
		_, err := h.inventory.RetireRoom(h.ctx(), ownerA, l.room.RoomID)
		require.NoError(t, err)

		available, err := h.inventory.ListAvailableBeds(h.ctx(), l.room.RoomID)
		require.NoError(t, err)
		assert.Empty(t, available)

		_, err = h.bookings.CreateBooking(h.ctx(), customerA, CreateBookingRequest{
			PropertyID: l.property.PropertyID,
			RoomID:     l.room.RoomID,
			BedID:      &l.bedA.BedID,
			StartDate:  h.now,
		})
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func intPtr(v int) *int { return &v }

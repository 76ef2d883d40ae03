package service

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/rasheedharab/PayGuestMarketplace/internal/domain"
)

func TestGetOwnerStats_RequiresOwner(t *testing.T) {
	h := newHarness(t)

	_, err := h.analytics.GetOwnerStats(h.ctx(), customerA)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	_, err = h.analytics.GetOwnerStats(h.ctx(), domain.Caller{Role: domain.RoleOwner})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestGetOwnerStats_Empty(t *testing.T) {
	h := newHarness(t)

	stats, err := h.analytics.GetOwnerStats(h.ctx(), ownerA)
	require.NoError(t, err)
	assert.Equal(t, &domain.OwnerStats{}, stats)
}

func TestGetOwnerStats_Scope(t *testing.T) {
	h := newHarness(t)
	l := h.seedLayout(t)

	// retired room: its beds drop out of the bed totals
	spare := h.createRoom(t, ownerA, l.property.PropertyID, 1)
	h.createBed(t, ownerA, spare.RoomID, "S1")
	_, err := h.inventory.RetireRoom(h.ctx(), ownerA, spare.RoomID)
	require.NoError(t, err)

	// retired property counts for nothing in totalProperties
	old := h.createProperty(t, ownerA, "Old PG")
	_, err = h.inventory.RetireProperty(h.ctx(), ownerA, old.PropertyID)
	require.NoError(t, err)

	// another owner's inventory is invisible
	otherProp := h.createProperty(t, ownerB, "Elsewhere")
	otherRoom := h.createRoom(t, ownerB, otherProp.PropertyID, 2)
	h.createBed(t, ownerB, otherRoom.RoomID, "X")

	active := h.book(t, customerA, l, &l.bedA.BedID)
	for _, step := range []domain.BookingStatus{domain.BookingConfirmed, domain.BookingActive} {
		_, err := h.bookings.UpdateBooking(h.ctx(), ownerA, active.BookingID, UpdateBookingRequest{Status: statusPtr(step)})
		require.NoError(t, err)
	}
	h.book(t, customerB, l, nil)
	cancelled := h.book(t, customerB, l, nil)
	_, err = h.bookings.CancelBooking(h.ctx(), customerB, cancelled.BookingID)
	require.NoError(t, err)

	stats, err := h.analytics.GetOwnerStats(h.ctx(), ownerA)
	require.NoError(t, err)
	assert.Equal(t, &domain.OwnerStats{
		TotalProperties: 1,
		TotalRooms:      1,
		TotalBeds:       2,
		OccupiedBeds:    1,
		MonthlyRevenue:  800000,
		PendingBookings: 1,
	}, stats)

	statsB, err := h.analytics.GetOwnerStats(h.ctx(), ownerB)
	require.NoError(t, err)
	assert.Equal(t, &domain.OwnerStats{TotalProperties: 1, TotalRooms: 1, TotalBeds: 1}, statsB)
}

func TestExportOwnerReport(t *testing.T) {
	h := newHarness(t)
	l := h.seedLayout(t)
	b := h.book(t, customerA, l, &l.bedA.BedID)
	_, err := h.bookings.ConfirmBooking(h.ctx(), ownerA, b.BookingID)
	require.NoError(t, err)

	_, err = h.analytics.ExportOwnerReport(h.ctx(), customerA)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	data, err := h.analytics.ExportOwnerReport(h.ctx(), ownerA)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{reportSheetSummary, reportSheetProperties, reportSheetBookings}, f.GetSheetList())

	summary, err := f.GetRows(reportSheetSummary)
	require.NoError(t, err)
	require.Len(t, summary, 7)
	assert.Equal(t, []string{"Total Beds", "2"}, summary[3])
	assert.Equal(t, []string{"Occupied Beds", "1"}, summary[4])

	props, err := f.GetRows(reportSheetProperties)
	require.NoError(t, err)
	require.Len(t, props, 2)
	assert.Equal(t, reportPropertyHeader, props[0])
	assert.Equal(t, []string{l.property.PropertyID, "Green Nest PG", "Bengaluru", "shared_room", "Yes", "1", "2", "1"}, props[1])

	bookings, err := f.GetRows(reportSheetBookings)
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, b.BookingID, bookings[1][0])
	assert.Equal(t, "Green Nest PG", bookings[1][1])
	assert.Equal(t, "confirmed", bookings[1][5])
}

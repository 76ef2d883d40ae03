package domain

import (
	"time"
)

// Booking 预订领域模型（对应 bookings 表）
// 对 Property/Room/Bed/Customer 均为非拥有引用；对床位的占用只通过 Status 表达
type Booking struct {
	BookingID   string        `db:"booking_id" json:"booking_id"`
	CustomerID  string        `db:"customer_id" json:"customer_id"`
	PropertyID  string        `db:"property_id" json:"property_id"`
	RoomID      string        `db:"room_id" json:"room_id"`
	BedID       *string       `db:"bed_id" json:"bed_id,omitempty"` // nullable
	StartDate   time.Time     `db:"start_date" json:"start_date"`
	EndDate     *time.Time    `db:"end_date" json:"end_date,omitempty"` // nullable
	MonthlyRent int64         `db:"monthly_rent" json:"monthly_rent"`
	Deposit     int64         `db:"deposit" json:"deposit"`
	Status      BookingStatus `db:"status" json:"status"`
	Notes       string        `db:"notes" json:"notes"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// HasBed reports whether a specific bed is assigned.
func (b *Booking) HasBed() bool {
	return b.BedID != nil && *b.BedID != ""
}

// BedIDValue returns the assigned bed id or "".
func (b *Booking) BedIDValue() string {
	if b.BedID == nil {
		return ""
	}
	return *b.BedID
}

// HoldsBed reports whether this booking currently claims its bed.
func (b *Booking) HoldsBed() bool {
	return b.HasBed() && b.Status.ClaimsBed()
}

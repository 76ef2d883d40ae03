package domain

import "fmt"

// BookingStatus booking 状态机
//
//	pending → confirmed → active → completed
//	pending / confirmed → cancelled
//
// active 状态的退租走独立流程，不允许直接 cancelled
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingActive    BookingStatus = "active"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingActive, BookingCancelled},
	BookingActive:    {BookingCompleted},
	BookingCompleted: {},
	BookingCancelled: {},
}

// AllBookingStatuses lists every status in lifecycle order.
func AllBookingStatuses() []BookingStatus {
	return []BookingStatus{BookingPending, BookingConfirmed, BookingActive, BookingCompleted, BookingCancelled}
}

func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// CanTransitionTo reports whether s → target is an edge of the state machine.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range bookingTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	return s.IsValid() && len(bookingTransitions[s]) == 0
}

// ClaimsBed: confirmed / active 的 booking 占用其床位
func (s BookingStatus) ClaimsBed() bool {
	return s == BookingConfirmed || s == BookingActive
}

func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus 解析状态字符串，未知状态返回 ErrValidation
func ParseBookingStatus(v string) (BookingStatus, error) {
	s := BookingStatus(v)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: unknown booking status %q", ErrValidation, v)
	}
	return s, nil
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rasheedharab/PayGuestMarketplace/internal/domain"
	"github.com/rasheedharab/PayGuestMarketplace/internal/events"
	"github.com/rasheedharab/PayGuestMarketplace/internal/repository"
)

// BookingService 预订生命周期服务接口
// 状态机：pending -> confirmed -> active -> completed；pending/confirmed -> cancelled
// 床位占用与 booking 状态在同一事务内更新
type BookingService interface {
	CreateBooking(ctx context.Context, caller domain.Caller, req CreateBookingRequest) (*domain.Booking, error)
	GetBooking(ctx context.Context, caller domain.Caller, bookingID string) (*domain.Booking, error)
	ListBookings(ctx context.Context, caller domain.Caller, req ListBookingsRequest) ([]*domain.Booking, error)
	UpdateBooking(ctx context.Context, caller domain.Caller, bookingID string, req UpdateBookingRequest) (*domain.Booking, error)

	ConfirmBooking(ctx context.Context, caller domain.Caller, bookingID string) (*domain.Booking, error)
	ActivateBooking(ctx context.Context, caller domain.Caller, bookingID string) (*domain.Booking, error)
	CompleteBooking(ctx context.Context, caller domain.Caller, bookingID string) (*domain.Booking, error)
	CancelBooking(ctx context.Context, caller domain.Caller, bookingID string) (*domain.Booking, error)
}

// bookingService 实现
type bookingService struct {
	store    repository.Store
	resolver *OwnershipResolver
	notifier notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewBookingService 创建 BookingService 实例
func NewBookingService(store repository.Store, resolver *OwnershipResolver, publisher events.Publisher, logger *zap.Logger) BookingService {
	return &bookingService{
		store:    store,
		resolver: resolver,
		notifier: notifier{publisher: publisher, logger: logger},
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ============================================
// Booking 相关请求结构
// ============================================

// CreateBookingRequest MonthlyRent / Deposit 为空时取 room 的 price_per_bed / deposit
type CreateBookingRequest struct {
	PropertyID  string     `json:"property_id" validate:"required"`
	RoomID      string     `json:"room_id" validate:"required"`
	BedID       *string    `json:"bed_id" validate:"omitnil,min=1"`
	StartDate   time.Time  `json:"start_date" validate:"required"`
	EndDate     *time.Time `json:"end_date"`
	MonthlyRent *int64     `json:"monthly_rent" validate:"omitnil,gte=0"`
	Deposit     *int64     `json:"deposit" validate:"omitnil,gte=0"`
	Notes       string     `json:"notes" validate:"max=2000"`
}

// UpdateBookingRequest 部分更新；nil 字段保持不变
// Close=true 配合 Status=completed 使用：以当前时间作为 end_date 显式结束入住
type UpdateBookingRequest struct {
	Status    *domain.BookingStatus `json:"status"`
	Notes     *string               `json:"notes" validate:"omitnil,max=2000"`
	StartDate *time.Time            `json:"start_date"`
	EndDate   *time.Time            `json:"end_date"`
	BedID     *string               `json:"bed_id" validate:"omitnil,min=1"`
	Close     bool                  `json:"close"`
}

func (r *UpdateBookingRequest) hasFieldEdits() bool {
	return r.Notes != nil || r.StartDate != nil || r.EndDate != nil || r.BedID != nil
}

type ListBookingsRequest struct {
	PropertyID string
	Status     domain.BookingStatus
}

// ============================================
// 创建
// ============================================

func (s *bookingService) CreateBooking(ctx context.Context, caller domain.Caller, req CreateBookingRequest) (*domain.Booking, error) {
	if caller.ID == "" || !caller.Role.IsValid() {
		return nil, fmt.Errorf("%w: caller identity required", domain.ErrUnauthorized)
	}
	req.PropertyID = strings.TrimSpace(req.PropertyID)
	req.RoomID = strings.TrimSpace(req.RoomID)
	req.BedID = trimPtr(req.BedID)
	req.Notes = strings.TrimSpace(req.Notes)
	if err := validateStruct(&req); err != nil {
		return nil, err
	}
	if req.EndDate != nil && !req.EndDate.After(req.StartDate) {
		return nil, validationError("end_date must be after start_date")
	}

	booking := &domain.Booking{
		CustomerID: caller.ID,
		PropertyID: req.PropertyID,
		RoomID:     req.RoomID,
		BedID:      req.BedID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Status:     domain.BookingPending,
		Notes:      req.Notes,
	}

	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		property, err := tx.GetProperty(ctx, req.PropertyID)
		if err != nil {
			return err
		}
		if !property.IsActive {
			return fmt.Errorf("%w: property %s is retired", domain.ErrNotFound, property.PropertyID)
		}

		room, err := tx.GetRoom(ctx, req.RoomID)
		if err != nil {
			return err
		}
		if room.PropertyID != property.PropertyID {
			return validationError("room %s does not belong to property %s", room.RoomID, property.PropertyID)
		}
		if !room.IsActive {
			return fmt.Errorf("%w: room %s is retired", domain.ErrNotFound, room.RoomID)
		}

		if booking.HasBed() {
			bed, err := tx.LockBed(ctx, booking.BedIDValue())
			if err != nil {
				return err
			}
			if bed.RoomID != room.RoomID {
				return validationError("bed %s does not belong to room %s", bed.BedID, room.RoomID)
			}
			if err := s.ensureBedFree(ctx, tx, bed, ""); err != nil {
				return err
			}
		}

		booking.MonthlyRent = room.PricePerBed
		if req.MonthlyRent != nil {
			booking.MonthlyRent = *req.MonthlyRent
		}
		booking.Deposit = room.Deposit
		if req.Deposit != nil {
			booking.Deposit = *req.Deposit
		}
		return tx.CreateBooking(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking created",
		zap.String("booking_id", booking.BookingID),
		zap.String("customer_id", booking.CustomerID),
		zap.String("room_id", booking.RoomID),
		zap.String("bed_id", booking.BedIDValue()),
	)
	s.notifier.publish(ctx, bookingEvent(events.TypeBookingCreated, caller, booking))
	return booking, nil
}

// ensureBedFree is the check half of the bed check-and-set; bed must be locked by the caller's tx.
func (s *bookingService) ensureBedFree(ctx context.Context, tx repository.Tx, bed *domain.Bed, excludeBookingID string) error {
	if bed.IsOccupied {
		return fmt.Errorf("%w: bed %s is no longer available", domain.ErrConflict, bed.BedID)
	}
	claims, err := tx.CountBedClaims(ctx, bed.BedID, excludeBookingID)
	if err != nil {
		return err
	}
	if claims > 0 {
		return fmt.Errorf("%w: bed %s is no longer available", domain.ErrConflict, bed.BedID)
	}
	return nil
}

// ============================================
// 查询
// ============================================

// GetBooking booking 的 customer 或 property 业主可见
func (s *bookingService) GetBooking(ctx context.Context, caller domain.Caller, bookingID string) (*domain.Booking, error) {
	var booking *domain.Booking
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		access, err := s.resolver.Resolve(ctx, tx, caller, BookingRef(bookingID))
		if err != nil {
			return err
		}
		booking = access.Booking
		return nil
	})
	return booking, err
}

// ListBookings 业主看到其房源上的 booking，customer 只看到自己的
func (s *bookingService) ListBookings(ctx context.Context, caller domain.Caller, req ListBookingsRequest) ([]*domain.Booking, error) {
	if caller.ID == "" || !caller.Role.IsValid() {
		return nil, fmt.Errorf("%w: caller identity required", domain.ErrUnauthorized)
	}
	if req.Status != "" && !req.Status.IsValid() {
		return nil, validationError("unknown booking status %q", req.Status)
	}

	filter := repository.BookingFilter{PropertyID: req.PropertyID, Status: req.Status}
	if caller.IsOwner() {
		filter.OwnerID = caller.ID
	} else {
		filter.CustomerID = caller.ID
	}

	var out []*domain.Booking
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		out, err = tx.ListBookings(ctx, filter)
		return err
	})
	return out, err
}

// ============================================
// 更新与状态迁移
// ============================================

func (s *bookingService) ConfirmBooking(ctx context.Context, caller domain.Caller, bookingID string) (*domain.Booking, error) {
	return s.transition(ctx, caller, bookingID, domain.BookingConfirmed, false)
}

func (s *bookingService) ActivateBooking(ctx context.Context, caller domain.Caller, bookingID string) (*domain.Booking, error) {
	return s.transition(ctx, caller, bookingID, domain.BookingActive, false)
}

// CompleteBooking 显式结束入住（end_date 取当前时间）
func (s *bookingService) CompleteBooking(ctx context.Context, caller domain.Caller, bookingID string) (*domain.Booking, error) {
	return s.transition(ctx, caller, bookingID, domain.BookingCompleted, true)
}

func (s *bookingService) CancelBooking(ctx context.Context, caller domain.Caller, bookingID string) (*domain.Booking, error) {
	return s.transition(ctx, caller, bookingID, domain.BookingCancelled, false)
}

func (s *bookingService) transition(ctx context.Context, caller domain.Caller, bookingID string, to domain.BookingStatus, closeNow bool) (*domain.Booking, error) {
	return s.UpdateBooking(ctx, caller, bookingID, UpdateBookingRequest{Status: &to, Close: closeNow})
}

// UpdateBooking 字段编辑（仅业主）与状态迁移
// 先授权后写入；任一校验失败整个事务回滚
func (s *bookingService) UpdateBooking(ctx context.Context, caller domain.Caller, bookingID string, req UpdateBookingRequest) (*domain.Booking, error) {
	req.Notes = trimPtr(req.Notes)
	req.BedID = trimPtr(req.BedID)
	if err := validateStruct(&req); err != nil {
		return nil, err
	}
	if req.Status != nil && !req.Status.IsValid() {
		return nil, validationError("unknown booking status %q", *req.Status)
	}
	if req.Close && (req.Status == nil || *req.Status != domain.BookingCompleted) {
		return nil, validationError("close is only valid together with status completed")
	}

	var (
		updated *domain.Booking
		pending []events.Event
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		pending = pending[:0]

		booking, err := tx.LockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		access, err := s.resolver.Resolve(ctx, tx, caller, BookingRef(bookingID))
		if err != nil {
			return err
		}
		access.Booking = booking
		isOwner := access.Role == AccessOwner

		if req.hasFieldEdits() && !isOwner {
			return fmt.Errorf("%w: only the property owner can edit booking %s", domain.ErrUnauthorized, bookingID)
		}

		from := booking.Status
		if req.Status != nil && *req.Status == from && from != domain.BookingCancelled && !isOwner {
			return fmt.Errorf("%w: only the property owner can move booking to %s", domain.ErrUnauthorized, from)
		}
		if err := s.applyFieldEdits(ctx, tx, booking, &req); err != nil {
			return err
		}

		if req.Status != nil && *req.Status != from {
			evs, err := s.applyTransition(ctx, tx, caller, access, *req.Status, req.Close)
			if err != nil {
				return err
			}
			pending = append(pending, evs...)
		}

		// 无字段编辑且状态未变：不写库
		if !req.hasFieldEdits() && len(pending) == 0 {
			updated = booking
			return nil
		}
		if booking.EndDate != nil && booking.EndDate.Before(booking.StartDate) {
			return validationError("end_date must not be before start_date")
		}
		if err := tx.UpdateBooking(ctx, booking); err != nil {
			return err
		}
		updated = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(pending) > 0 {
		s.logger.Info("Booking status changed",
			zap.String("booking_id", updated.BookingID),
			zap.String("status", string(updated.Status)),
			zap.String("actor_id", caller.ID),
		)
	}
	s.notifier.publish(ctx, pending...)
	return updated, nil
}

// applyFieldEdits applies notes/dates and bed assignment. Bed assignment is only allowed while pending.
func (s *bookingService) applyFieldEdits(ctx context.Context, tx repository.Tx, booking *domain.Booking, req *UpdateBookingRequest) error {
	if req.Notes != nil {
		booking.Notes = *req.Notes
	}
	if req.StartDate != nil {
		if req.StartDate.IsZero() {
			return validationError("start_date is required")
		}
		booking.StartDate = *req.StartDate
		if req.EndDate == nil && booking.EndDate != nil && !booking.EndDate.After(booking.StartDate) {
			return validationError("end_date must be after start_date")
		}
	}
	if req.EndDate != nil {
		end := *req.EndDate
		if !end.After(booking.StartDate) {
			return validationError("end_date must be after start_date")
		}
		booking.EndDate = &end
	}

	if req.BedID == nil || *req.BedID == booking.BedIDValue() {
		return nil
	}
	if booking.Status != domain.BookingPending {
		return fmt.Errorf("%w: bed can only be assigned while booking is pending (status %s)", domain.ErrInvalidTransition, booking.Status)
	}
	bed, err := tx.LockBed(ctx, *req.BedID)
	if err != nil {
		return err
	}
	if bed.RoomID != booking.RoomID {
		return validationError("bed %s does not belong to room %s", bed.BedID, booking.RoomID)
	}
	if err := s.ensureBedFree(ctx, tx, bed, booking.BookingID); err != nil {
		return err
	}
	bedID := bed.BedID
	booking.BedID = &bedID
	return nil
}

// applyTransition enforces the transition table and its guards, then keeps the bed flag in step.
func (s *bookingService) applyTransition(ctx context.Context, tx repository.Tx, caller domain.Caller, access *Access, to domain.BookingStatus, closeNow bool) ([]events.Event, error) {
	booking := access.Booking
	from := booking.Status
	if !from.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}

	isOwner := access.Role == AccessOwner
	if to != domain.BookingCancelled && !isOwner {
		return nil, fmt.Errorf("%w: only the property owner can move booking to %s", domain.ErrUnauthorized, to)
	}

	now := s.now()
	switch to {
	case domain.BookingConfirmed:
		if booking.HasBed() {
			bed, err := tx.LockBed(ctx, booking.BedIDValue())
			if err != nil {
				return nil, err
			}
			if err := s.ensureBedFree(ctx, tx, bed, booking.BookingID); err != nil {
				return nil, err
			}
		}
	case domain.BookingActive:
		if booking.StartDate.After(now) {
			return nil, fmt.Errorf("%w: booking starts at %s", domain.ErrInvalidTransition, booking.StartDate.Format(time.RFC3339))
		}
	case domain.BookingCompleted:
		switch {
		case closeNow:
			if booking.EndDate == nil || booking.EndDate.After(now) {
				end := now
				booking.EndDate = &end
			}
		case booking.EndDate == nil:
			return nil, fmt.Errorf("%w: end_date not set; use close to end the stay now", domain.ErrInvalidTransition)
		case booking.EndDate.After(now):
			return nil, fmt.Errorf("%w: end_date %s not reached", domain.ErrInvalidTransition, booking.EndDate.Format(time.RFC3339))
		}
	}

	booking.Status = to
	evs := []events.Event{statusEvent(caller, booking, from, to)}

	if booking.HasBed() && from.ClaimsBed() != to.ClaimsBed() {
		occupied := to.ClaimsBed()
		if err := tx.SetBedOccupied(ctx, booking.BedIDValue(), occupied); err != nil {
			return nil, err
		}
		evs = append(evs, occupancyEvent(caller, booking.PropertyID, booking.RoomID, booking.BedIDValue(), occupied))
	}
	return evs, nil
}

func statusEvent(caller domain.Caller, b *domain.Booking, from, to domain.BookingStatus) events.Event {
	e := bookingEvent(events.TypeBookingStatusChanged, caller, b)
	e.FromStatus = string(from)
	e.ToStatus = string(to)
	return e
}

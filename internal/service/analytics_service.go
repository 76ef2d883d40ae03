package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rasheedharab/PayGuestMarketplace/internal/domain"
	"github.com/rasheedharab/PayGuestMarketplace/internal/repository"
)

// AnalyticsService 业主统计（只读）
type AnalyticsService interface {
	GetOwnerStats(ctx context.Context, caller domain.Caller) (*domain.OwnerStats, error)
	// ExportOwnerReport 返回 xlsx 文件内容（Summary / Properties / Bookings 三个 sheet）
	ExportOwnerReport(ctx context.Context, caller domain.Caller) ([]byte, error)
}

type analyticsService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewAnalyticsService(store repository.Store, logger *zap.Logger) AnalyticsService {
	return &analyticsService{store: store, logger: logger}
}

// ownerSnapshot 同一只读事务内读取的业主全量数据
type ownerSnapshot struct {
	properties []*domain.Property
	rooms      []*domain.Room
	beds       []*domain.Bed
	bookings   []*domain.Booking
}

func (s *analyticsService) loadSnapshot(ctx context.Context, caller domain.Caller) (*ownerSnapshot, error) {
	if !caller.IsOwner() {
		return nil, fmt.Errorf("%w: owner identity required", domain.ErrUnauthorized)
	}

	snap := &ownerSnapshot{}
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if snap.properties, err = tx.ListPropertiesByOwner(ctx, caller.ID); err != nil {
			return err
		}
		if snap.rooms, err = tx.ListRoomsByOwner(ctx, caller.ID); err != nil {
			return err
		}
		if snap.beds, err = tx.ListBedsByOwner(ctx, caller.ID); err != nil {
			return err
		}
		snap.bookings, err = tx.ListBookings(ctx, repository.BookingFilter{OwnerID: caller.ID})
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// stats folds the snapshot:
// properties/rooms count active only; beds are those under active rooms;
// revenue sums monthly_rent of active bookings; pending counts pending bookings.
func (snap *ownerSnapshot) stats() *domain.OwnerStats {
	st := &domain.OwnerStats{}
	for _, p := range snap.properties {
		if p.IsActive {
			st.TotalProperties++
		}
	}

	activeRooms := make(map[string]struct{}, len(snap.rooms))
	for _, r := range snap.rooms {
		if r.IsActive {
			activeRooms[r.RoomID] = struct{}{}
		}
	}
	st.TotalRooms = len(activeRooms)

	for _, b := range snap.beds {
		if _, ok := activeRooms[b.RoomID]; !ok {
			continue
		}
		st.TotalBeds++
		if b.IsOccupied {
			st.OccupiedBeds++
		}
	}

	for _, b := range snap.bookings {
		switch b.Status {
		case domain.BookingActive:
			st.MonthlyRevenue += b.MonthlyRent
		case domain.BookingPending:
			st.PendingBookings++
		}
	}
	return st
}

func (s *analyticsService) GetOwnerStats(ctx context.Context, caller domain.Caller) (*domain.OwnerStats, error) {
	snap, err := s.loadSnapshot(ctx, caller)
	if err != nil {
		return nil, err
	}
	return snap.stats(), nil
}

func (s *analyticsService) ExportOwnerReport(ctx context.Context, caller domain.Caller) ([]byte, error) {
	snap, err := s.loadSnapshot(ctx, caller)
	if err != nil {
		return nil, err
	}
	data, err := buildOwnerReport(snap)
	if err != nil {
		s.logger.Error("Owner report generation failed", zap.String("owner_id", caller.ID), zap.Error(err))
		return nil, err
	}
	return data, nil
}

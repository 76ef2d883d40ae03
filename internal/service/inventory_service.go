package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rasheedharab/PayGuestMarketplace/internal/domain"
	"github.com/rasheedharab/PayGuestMarketplace/internal/events"
	"github.com/rasheedharab/PayGuestMarketplace/internal/repository"
)

// InventoryService 房源 / 房间 / 床位管理服务接口
type InventoryService interface {
	// Property 管理
	CreateProperty(ctx context.Context, caller domain.Caller, req CreatePropertyRequest) (*domain.Property, error)
	GetProperty(ctx context.Context, propertyID string) (*domain.Property, error)
	ListProperties(ctx context.Context, filter repository.PropertyFilter) ([]*domain.Property, error)
	ListOwnerProperties(ctx context.Context, caller domain.Caller) ([]*domain.Property, error)
	UpdateProperty(ctx context.Context, caller domain.Caller, propertyID string, req UpdatePropertyRequest) (*domain.Property, error)
	RetireProperty(ctx context.Context, caller domain.Caller, propertyID string) (bool, error)

	// Room 管理
	CreateRoom(ctx context.Context, caller domain.Caller, propertyID string, req CreateRoomRequest) (*domain.Room, error)
	GetRoom(ctx context.Context, roomID string) (*domain.Room, error)
	ListRooms(ctx context.Context, propertyID string) ([]*domain.Room, error)
	UpdateRoom(ctx context.Context, caller domain.Caller, roomID string, req UpdateRoomRequest) (*domain.Room, error)
	RetireRoom(ctx context.Context, caller domain.Caller, roomID string) (bool, error)
	GetRoomOccupancy(ctx context.Context, roomID string) (*domain.RoomOccupancy, error)

	// Bed 管理
	CreateBed(ctx context.Context, caller domain.Caller, roomID string, req CreateBedRequest) (*domain.Bed, error)
	ListBeds(ctx context.Context, roomID string) ([]*domain.Bed, error)
	ListAvailableBeds(ctx context.Context, roomID string) ([]*domain.Bed, error)
	UpdateBed(ctx context.Context, caller domain.Caller, bedID string, req UpdateBedRequest) (*domain.Bed, error)
}

// inventoryService 实现
type inventoryService struct {
	store    repository.Store
	resolver *OwnershipResolver
	notifier notifier
	logger   *zap.Logger
}

// NewInventoryService 创建 InventoryService 实例
func NewInventoryService(store repository.Store, resolver *OwnershipResolver, publisher events.Publisher, logger *zap.Logger) InventoryService {
	return &inventoryService{
		store:    store,
		resolver: resolver,
		notifier: notifier{publisher: publisher, logger: logger},
		logger:   logger,
	}
}

// ============================================
// Property 相关请求结构
// ============================================

type CreatePropertyRequest struct {
	Name        string                  `json:"name" validate:"required,max=200"`
	Description string                  `json:"description" validate:"max=4000"`
	Address     string                  `json:"address" validate:"required,max=500"`
	City        string                  `json:"city" validate:"required,max=100"`
	State       string                  `json:"state" validate:"required,max=100"`
	PostalCode  string                  `json:"postal_code" validate:"required,max=20"`
	Category    domain.PropertyCategory `json:"category" validate:"required,oneof=single_room shared_room apartment hostel"`
	Gender      domain.GenderPolicy     `json:"gender" validate:"omitempty,oneof=male female mixed"` // 默认 mixed
	Amenities   []string                `json:"amenities" validate:"max=50,dive,max=64"`
	Rules       []string                `json:"rules" validate:"max=50,dive,max=500"`
}

// UpdatePropertyRequest 部分更新；nil 字段保持不变
// OwnerID 仅用于拒绝修改业主的请求
type UpdatePropertyRequest struct {
	OwnerID     *string                  `json:"owner_id"`
	Name        *string                  `json:"name" validate:"omitnil,min=1,max=200"`
	Description *string                  `json:"description" validate:"omitnil,max=4000"`
	Address     *string                  `json:"address" validate:"omitnil,min=1,max=500"`
	City        *string                  `json:"city" validate:"omitnil,min=1,max=100"`
	State       *string                  `json:"state" validate:"omitnil,min=1,max=100"`
	PostalCode  *string                  `json:"postal_code" validate:"omitnil,min=1,max=20"`
	Category    *domain.PropertyCategory `json:"category" validate:"omitnil,oneof=single_room shared_room apartment hostel"`
	Gender      *domain.GenderPolicy     `json:"gender" validate:"omitnil,oneof=male female mixed"`
	Amenities   *[]string                `json:"amenities" validate:"omitnil,max=50,dive,max=64"`
	Rules       *[]string                `json:"rules" validate:"omitnil,max=50,dive,max=500"`
	IsActive    *bool                    `json:"is_active"`
}

func (r *CreatePropertyRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.Address = strings.TrimSpace(r.Address)
	r.City = strings.TrimSpace(r.City)
	r.State = strings.TrimSpace(r.State)
	r.PostalCode = strings.TrimSpace(r.PostalCode)
	r.Amenities = cleanTags(r.Amenities)
	r.Rules = cleanTags(r.Rules)
}

func (r *UpdatePropertyRequest) normalize() {
	r.Name = trimPtr(r.Name)
	r.Description = trimPtr(r.Description)
	r.Address = trimPtr(r.Address)
	r.City = trimPtr(r.City)
	r.State = trimPtr(r.State)
	r.PostalCode = trimPtr(r.PostalCode)
	if r.Amenities != nil {
		v := cleanTags(*r.Amenities)
		r.Amenities = &v
	}
	if r.Rules != nil {
		v := cleanTags(*r.Rules)
		r.Rules = &v
	}
}

// ============================================
// Room / Bed 相关请求结构
// ============================================

type CreateRoomRequest struct {
	Name        string              `json:"name" validate:"max=100"`
	Category    domain.RoomCategory `json:"category" validate:"required,oneof=single double triple dormitory"`
	Capacity    int                 `json:"capacity" validate:"gte=1,lte=100"`
	PricePerBed int64               `json:"price_per_bed" validate:"gte=0"`
	Deposit     int64               `json:"deposit" validate:"gte=0"`
	Amenities   []string            `json:"amenities" validate:"max=50,dive,max=64"`
}

type UpdateRoomRequest struct {
	Name        *string              `json:"name" validate:"omitnil,max=100"`
	Category    *domain.RoomCategory `json:"category" validate:"omitnil,oneof=single double triple dormitory"`
	Capacity    *int                 `json:"capacity" validate:"omitnil,gte=1,lte=100"`
	PricePerBed *int64               `json:"price_per_bed" validate:"omitnil,gte=0"`
	Deposit     *int64               `json:"deposit" validate:"omitnil,gte=0"`
	Amenities   *[]string            `json:"amenities" validate:"omitnil,max=50,dive,max=64"`
	IsActive    *bool                `json:"is_active"`
}

type CreateBedRequest struct {
	Label string `json:"label" validate:"required,max=50"`
}

// UpdateBedRequest 只允许修改 label；占用状态由 booking 生命周期维护
type UpdateBedRequest struct {
	Label string `json:"label" validate:"required,max=50"`
}

// ============================================
// Property
// ============================================

func (s *inventoryService) CreateProperty(ctx context.Context, caller domain.Caller, req CreatePropertyRequest) (*domain.Property, error) {
	if !caller.IsOwner() {
		return nil, fmt.Errorf("%w: only owners can list properties", domain.ErrUnauthorized)
	}
	req.normalize()
	if err := validateStruct(&req); err != nil {
		return nil, err
	}

	gender := req.Gender
	if gender == "" {
		gender = domain.GenderMixed
	}
	p := &domain.Property{
		OwnerID:     caller.ID,
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		PostalCode:  req.PostalCode,
		Category:    req.Category,
		Gender:      gender,
		Amenities:   req.Amenities,
		Rules:       req.Rules,
		IsActive:    true,
	}
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.CreateProperty(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Property created",
		zap.String("property_id", p.PropertyID),
		zap.String("owner_id", p.OwnerID),
	)
	return p, nil
}

func (s *inventoryService) GetProperty(ctx context.Context, propertyID string) (*domain.Property, error) {
	var p *domain.Property
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		p, err = tx.GetProperty(ctx, propertyID)
		return err
	})
	return p, err
}

func (s *inventoryService) ListProperties(ctx context.Context, filter repository.PropertyFilter) ([]*domain.Property, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, validationError("minPrice must not exceed maxPrice")
	}
	if filter.Category != "" {
		switch filter.Category {
		case domain.PropertyCategorySingleRoom, domain.PropertyCategorySharedRoom,
			domain.PropertyCategoryApartment, domain.PropertyCategoryHostel:
		default:
			return nil, validationError("unknown category %q", filter.Category)
		}
	}

	var out []*domain.Property
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		out, err = tx.ListProperties(ctx, filter)
		return err
	})
	return out, err
}

func (s *inventoryService) ListOwnerProperties(ctx context.Context, caller domain.Caller) ([]*domain.Property, error) {
	if !caller.IsOwner() {
		return nil, fmt.Errorf("%w: owner identity required", domain.ErrUnauthorized)
	}
	var out []*domain.Property
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		out, err = tx.ListPropertiesByOwner(ctx, caller.ID)
		return err
	})
	return out, err
}

func (s *inventoryService) UpdateProperty(ctx context.Context, caller domain.Caller, propertyID string, req UpdatePropertyRequest) (*domain.Property, error) {
	req.normalize()
	if err := validateStruct(&req); err != nil {
		return nil, err
	}

	var updated *domain.Property
	var retired bool
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		access, err := s.resolver.RequireOwner(ctx, tx, caller, PropertyRef(propertyID))
		if err != nil {
			return err
		}
		p := access.Property
		if req.OwnerID != nil && *req.OwnerID != p.OwnerID {
			return validationError("owner_id is immutable")
		}

		wasActive := p.IsActive
		applyPropertyPatch(p, &req)
		if err := tx.UpdateProperty(ctx, p); err != nil {
			return err
		}
		retired = wasActive && !p.IsActive
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if retired {
		s.notifier.publish(ctx, propertyRetiredEvent(caller, updated.PropertyID))
	}
	return updated, nil
}

func applyPropertyPatch(p *domain.Property, req *UpdatePropertyRequest) {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Address != nil {
		p.Address = *req.Address
	}
	if req.City != nil {
		p.City = *req.City
	}
	if req.State != nil {
		p.State = *req.State
	}
	if req.PostalCode != nil {
		p.PostalCode = *req.PostalCode
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Gender != nil {
		p.Gender = *req.Gender
	}
	if req.Amenities != nil {
		p.Amenities = *req.Amenities
	}
	if req.Rules != nil {
		p.Rules = *req.Rules
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
}

// RetireProperty 软删除；已下线的 property 再次下线仍返回成功
// rooms / beds 不级联下线，但 property 下线后不再出现在列表与新 booking 中
func (s *inventoryService) RetireProperty(ctx context.Context, caller domain.Caller, propertyID string) (bool, error) {
	changed := false
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		access, err := s.resolver.RequireOwner(ctx, tx, caller, PropertyRef(propertyID))
		if err != nil {
			return err
		}
		p := access.Property
		if !p.IsActive {
			return nil
		}
		p.IsActive = false
		changed = true
		return tx.UpdateProperty(ctx, p)
	})
	if err != nil {
		return false, err
	}

	if changed {
		s.logger.Info("Property retired", zap.String("property_id", propertyID), zap.String("owner_id", caller.ID))
		s.notifier.publish(ctx, propertyRetiredEvent(caller, propertyID))
	}
	return true, nil
}

func propertyRetiredEvent(caller domain.Caller, propertyID string) events.Event {
	e := events.New(events.TypePropertyRetired, caller.ID)
	e.PropertyID = propertyID
	return e
}

// ============================================
// Room
// ============================================

func (s *inventoryService) CreateRoom(ctx context.Context, caller domain.Caller, propertyID string, req CreateRoomRequest) (*domain.Room, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Amenities = cleanTags(req.Amenities)
	if err := validateStruct(&req); err != nil {
		return nil, err
	}

	room := &domain.Room{
		PropertyID:  propertyID,
		Name:        req.Name,
		Category:    req.Category,
		Capacity:    req.Capacity,
		PricePerBed: req.PricePerBed,
		Deposit:     req.Deposit,
		Amenities:   req.Amenities,
		IsActive:    true,
	}
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		access, err := s.resolver.RequireOwner(ctx, tx, caller, PropertyRef(propertyID))
		if err != nil {
			return err
		}
		if !access.Property.IsActive {
			return fmt.Errorf("%w: property %s is retired", domain.ErrNotFound, propertyID)
		}
		return tx.CreateRoom(ctx, room)
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (s *inventoryService) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	var room *domain.Room
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		room, err = tx.GetRoom(ctx, roomID)
		return err
	})
	return room, err
}

// ListRooms 只返回 active rooms；property 已下线时返回空列表
func (s *inventoryService) ListRooms(ctx context.Context, propertyID string) ([]*domain.Room, error) {
	var out []*domain.Room
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		p, err := tx.GetProperty(ctx, propertyID)
		if err != nil {
			return err
		}
		if !p.IsActive {
			out = []*domain.Room{}
			return nil
		}
		out, err = tx.ListRooms(ctx, propertyID, true)
		return err
	})
	return out, err
}

func (s *inventoryService) UpdateRoom(ctx context.Context, caller domain.Caller, roomID string, req UpdateRoomRequest) (*domain.Room, error) {
	req.Name = trimPtr(req.Name)
	if req.Amenities != nil {
		v := cleanTags(*req.Amenities)
		req.Amenities = &v
	}
	if err := validateStruct(&req); err != nil {
		return nil, err
	}

	var updated *domain.Room
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		access, err := s.resolver.RequireOwner(ctx, tx, caller, RoomRef(roomID))
		if err != nil {
			return err
		}
		room := access.Room

		if req.Capacity != nil && *req.Capacity != room.Capacity {
			beds, err := tx.ListBeds(ctx, roomID, false)
			if err != nil {
				return err
			}
			if *req.Capacity < len(beds) {
				return validationError("capacity %d is below the %d beds already in room", *req.Capacity, len(beds))
			}
			room.Capacity = *req.Capacity
		}
		if req.Name != nil {
			room.Name = *req.Name
		}
		if req.Category != nil {
			room.Category = *req.Category
		}
		if req.PricePerBed != nil {
			room.PricePerBed = *req.PricePerBed
		}
		if req.Deposit != nil {
			room.Deposit = *req.Deposit
		}
		if req.Amenities != nil {
			room.Amenities = *req.Amenities
		}
		if req.IsActive != nil {
			room.IsActive = *req.IsActive
		}
		if err := tx.UpdateRoom(ctx, room); err != nil {
			return err
		}
		updated = room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RetireRoom 软删除；已有 booking 不受影响，幂等
func (s *inventoryService) RetireRoom(ctx context.Context, caller domain.Caller, roomID string) (bool, error) {
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		access, err := s.resolver.RequireOwner(ctx, tx, caller, RoomRef(roomID))
		if err != nil {
			return err
		}
		if !access.Room.IsActive {
			return nil
		}
		access.Room.IsActive = false
		return tx.UpdateRoom(ctx, access.Room)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetRoomOccupancy 实时统计房间床位占用
func (s *inventoryService) GetRoomOccupancy(ctx context.Context, roomID string) (*domain.RoomOccupancy, error) {
	var occ *domain.RoomOccupancy
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		room, err := tx.GetRoom(ctx, roomID)
		if err != nil {
			return err
		}
		beds, err := tx.ListBeds(ctx, roomID, false)
		if err != nil {
			return err
		}
		occ = &domain.RoomOccupancy{RoomID: roomID, Capacity: room.Capacity, TotalBeds: len(beds)}
		for _, b := range beds {
			if b.IsOccupied {
				occ.OccupiedBeds++
			}
		}
		occ.AvailableBeds = occ.TotalBeds - occ.OccupiedBeds
		return nil
	})
	return occ, err
}

// ============================================
// Bed
// ============================================

func (s *inventoryService) CreateBed(ctx context.Context, caller domain.Caller, roomID string, req CreateBedRequest) (*domain.Bed, error) {
	req.Label = strings.TrimSpace(req.Label)
	if err := validateStruct(&req); err != nil {
		return nil, err
	}

	bed := &domain.Bed{RoomID: roomID, Label: req.Label}
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		access, err := s.resolver.RequireOwner(ctx, tx, caller, RoomRef(roomID))
		if err != nil {
			return err
		}
		if !access.Room.IsActive {
			return fmt.Errorf("%w: room %s is retired", domain.ErrNotFound, roomID)
		}

		taken, err := tx.BedLabelTaken(ctx, roomID, req.Label, "")
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: bed label %q already exists in room", domain.ErrConflict, req.Label)
		}
		beds, err := tx.ListBeds(ctx, roomID, false)
		if err != nil {
			return err
		}
		if len(beds) >= access.Room.Capacity {
			return fmt.Errorf("%w: room %s is at capacity (%d beds)", domain.ErrConflict, roomID, access.Room.Capacity)
		}
		return tx.CreateBed(ctx, bed)
	})
	if err != nil {
		return nil, err
	}
	return bed, nil
}

func (s *inventoryService) ListBeds(ctx context.Context, roomID string) ([]*domain.Bed, error) {
	return s.listBeds(ctx, roomID, false)
}

// ListAvailableBeds 未占用床位，按 label 升序；room 或 property 已下线时返回空列表
func (s *inventoryService) ListAvailableBeds(ctx context.Context, roomID string) ([]*domain.Bed, error) {
	return s.listBeds(ctx, roomID, true)
}

func (s *inventoryService) listBeds(ctx context.Context, roomID string, availableOnly bool) ([]*domain.Bed, error) {
	var out []*domain.Bed
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		access, err := s.resolver.load(ctx, tx, RoomRef(roomID))
		if err != nil {
			return err
		}
		if availableOnly && (!access.Room.IsActive || !access.Property.IsActive) {
			out = []*domain.Bed{}
			return nil
		}
		out, err = tx.ListBeds(ctx, roomID, availableOnly)
		return err
	})
	return out, err
}

func (s *inventoryService) UpdateBed(ctx context.Context, caller domain.Caller, bedID string, req UpdateBedRequest) (*domain.Bed, error) {
	req.Label = strings.TrimSpace(req.Label)
	if err := validateStruct(&req); err != nil {
		return nil, err
	}

	var updated *domain.Bed
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		access, err := s.resolver.RequireOwner(ctx, tx, caller, BedRef(bedID))
		if err != nil {
			return err
		}
		bed := access.Bed
		if bed.Label == req.Label {
			updated = bed
			return nil
		}
		taken, err := tx.BedLabelTaken(ctx, bed.RoomID, req.Label, bed.BedID)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: bed label %q already exists in room", domain.ErrConflict, req.Label)
		}
		bed.Label = req.Label
		if err := tx.UpdateBed(ctx, bed); err != nil {
			return err
		}
		updated = bed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

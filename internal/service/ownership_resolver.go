package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rasheedharab/PayGuestMarketplace/internal/domain"
	"github.com/rasheedharab/PayGuestMarketplace/internal/repository"
)

// EntityKind 授权目标类型
type EntityKind string

const (
	EntityProperty EntityKind = "property"
	EntityRoom     EntityKind = "room"
	EntityBed      EntityKind = "bed"
	EntityBooking  EntityKind = "booking"
)

// EntityRef 授权目标
type EntityRef struct {
	Kind EntityKind
	ID   string
}

func PropertyRef(id string) EntityRef { return EntityRef{Kind: EntityProperty, ID: id} }
func RoomRef(id string) EntityRef     { return EntityRef{Kind: EntityRoom, ID: id} }
func BedRef(id string) EntityRef      { return EntityRef{Kind: EntityBed, ID: id} }
func BookingRef(id string) EntityRef  { return EntityRef{Kind: EntityBooking, ID: id} }

// AccessRole 调用方相对目标的身份
type AccessRole string

const (
	AccessOwner       AccessRole = "owner"       // 拥有目标所属 property
	AccessParticipant AccessRole = "participant" // booking 的 customer
)

// Access 授权结果，附带沿链路加载的实体（调用方可直接复用，无需再次查询）
type Access struct {
	Role     AccessRole
	Property *domain.Property
	Room     *domain.Room     // room / bed 目标时非空
	Bed      *domain.Bed      // bed 目标时非空
	Booking  *domain.Booking  // booking 目标时非空
}

// OwnershipResolver 统一的所有权链路校验：Property -> Room -> Bed，Booking -> Property
// 只读；必须在写操作之前、同一事务内调用
type OwnershipResolver struct {
	logger *zap.Logger
}

func NewOwnershipResolver(logger *zap.Logger) *OwnershipResolver {
	return &OwnershipResolver{logger: logger}
}

// Resolve 加载目标并判定调用方身份
// - 目标不存在：ErrNotFound
// - 链路上游缺失（如 room 指向不存在的 property）：ErrIntegrity，记录 Error 日志
// - 既不是业主也不是 booking 的 customer：ErrUnauthorized
// 业主身份要求调用方声明的角色为 owner 且 ID 等于 property.owner_id
func (r *OwnershipResolver) Resolve(ctx context.Context, tx repository.Tx, caller domain.Caller, ref EntityRef) (*Access, error) {
	if caller.ID == "" || !caller.Role.IsValid() {
		return nil, fmt.Errorf("%w: caller identity required", domain.ErrUnauthorized)
	}

	access, err := r.load(ctx, tx, ref)
	if err != nil {
		return nil, err
	}

	if caller.Role == domain.RoleOwner && access.Property.OwnerID == caller.ID {
		access.Role = AccessOwner
		return access, nil
	}
	if access.Booking != nil && access.Booking.CustomerID == caller.ID {
		access.Role = AccessParticipant
		return access, nil
	}
	return nil, fmt.Errorf("%w: %s %s is not accessible to caller", domain.ErrUnauthorized, ref.Kind, ref.ID)
}

// RequireOwner 同 Resolve，但只接受业主身份
func (r *OwnershipResolver) RequireOwner(ctx context.Context, tx repository.Tx, caller domain.Caller, ref EntityRef) (*Access, error) {
	access, err := r.Resolve(ctx, tx, caller, ref)
	if err != nil {
		return nil, err
	}
	if access.Role != AccessOwner {
		return nil, fmt.Errorf("%w: %s %s requires the property owner", domain.ErrUnauthorized, ref.Kind, ref.ID)
	}
	return access, nil
}

func (r *OwnershipResolver) load(ctx context.Context, tx repository.Tx, ref EntityRef) (*Access, error) {
	access := &Access{}
	var propertyID string

	switch ref.Kind {
	case EntityProperty:
		propertyID = ref.ID
	case EntityRoom:
		room, err := tx.GetRoom(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		access.Room = room
		propertyID = room.PropertyID
	case EntityBed:
		bed, err := tx.GetBed(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		room, err := tx.GetRoom(ctx, bed.RoomID)
		if err != nil {
			return nil, r.brokenLink(ref, "room", bed.RoomID, err)
		}
		access.Bed = bed
		access.Room = room
		propertyID = room.PropertyID
	case EntityBooking:
		booking, err := tx.GetBooking(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		access.Booking = booking
		propertyID = booking.PropertyID
	default:
		return nil, validationError("unknown entity kind %q", ref.Kind)
	}

	property, err := tx.GetProperty(ctx, propertyID)
	if err != nil {
		if ref.Kind == EntityProperty {
			return nil, err
		}
		return nil, r.brokenLink(ref, "property", propertyID, err)
	}
	access.Property = property
	return access, nil
}

// brokenLink converts a missing upstream entity into ErrIntegrity.
func (r *OwnershipResolver) brokenLink(ref EntityRef, missingKind, missingID string, err error) error {
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	r.logger.Error("Ownership chain broken",
		zap.String("entity_kind", string(ref.Kind)),
		zap.String("entity_id", ref.ID),
		zap.String("missing_kind", missingKind),
		zap.String("missing_id", missingID),
	)
	return fmt.Errorf("%w: %s %s references missing %s %s", domain.ErrIntegrity, ref.Kind, ref.ID, missingKind, missingID)
}

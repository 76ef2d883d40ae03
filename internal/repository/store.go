package repository

import (
	"context"

	"github.com/rasheedharab/PayGuestMarketplace/internal/domain"
)

// Store Entity Store：Property / Room / Bed / Booking 的事务化读写
// 所有读写都在事务回调内完成；回调返回 error 时整体回滚，不会出现部分提交
// 超过事务超时返回 domain.ErrTimeout
type Store interface {
	// RunInTx 读写事务；回调返回 nil 才提交
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// View 只读一致性快照（analytics 等多表统计使用）
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx 事务内可用的操作
// Get*/Lock* 未命中返回 domain.ErrNotFound；Create* 回填 ID 与时间戳
type Tx interface {
	// Property
	GetProperty(ctx context.Context, propertyID string) (*domain.Property, error)
	ListProperties(ctx context.Context, filter PropertyFilter) ([]*domain.Property, error)
	ListPropertiesByOwner(ctx context.Context, ownerID string) ([]*domain.Property, error)
	CreateProperty(ctx context.Context, p *domain.Property) error
	UpdateProperty(ctx context.Context, p *domain.Property) error

	// Room
	GetRoom(ctx context.Context, roomID string) (*domain.Room, error)
	ListRooms(ctx context.Context, propertyID string, activeOnly bool) ([]*domain.Room, error)
	ListRoomsByOwner(ctx context.Context, ownerID string) ([]*domain.Room, error)
	CreateRoom(ctx context.Context, r *domain.Room) error
	UpdateRoom(ctx context.Context, r *domain.Room) error

	// Bed
	GetBed(ctx context.Context, bedID string) (*domain.Bed, error)
	// LockBed 读取并锁定床位行，直到事务结束（check-and-set 的前提）
	LockBed(ctx context.Context, bedID string) (*domain.Bed, error)
	// ListBeds 按 label 升序（字节序）
	ListBeds(ctx context.Context, roomID string, availableOnly bool) ([]*domain.Bed, error)
	ListBedsByOwner(ctx context.Context, ownerID string) ([]*domain.Bed, error)
	BedLabelTaken(ctx context.Context, roomID, label, excludeBedID string) (bool, error)
	CreateBed(ctx context.Context, b *domain.Bed) error
	UpdateBed(ctx context.Context, b *domain.Bed) error
	SetBedOccupied(ctx context.Context, bedID string, occupied bool) error

	// Booking
	GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
	LockBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
	// ListBookings 按创建时间倒序
	ListBookings(ctx context.Context, filter BookingFilter) ([]*domain.Booking, error)
	// CountBedClaims 统计引用该床位且状态为 confirmed/active 的 booking 数
	CountBedClaims(ctx context.Context, bedID, excludeBookingID string) (int, error)
	CreateBooking(ctx context.Context, b *domain.Booking) error
	UpdateBooking(ctx context.Context, b *domain.Booking) error
}

// PropertyFilter 房源列表过滤（只返回 active 房源）
type PropertyFilter struct {
	City      string                  // 子串匹配，大小写不敏感
	Category  domain.PropertyCategory // 精确匹配
	MinPrice  *int64                  // 任一 active room 的 price_per_bed >= MinPrice
	MaxPrice  *int64                  // 任一 active room 的 price_per_bed <= MaxPrice
	Amenities []string                // 子集匹配
	Search    string                  // 模糊搜索 name, address, city
}

// BookingFilter 预订列表过滤；OwnerID 按房源业主过滤
type BookingFilter struct {
	CustomerID string
	OwnerID    string
	PropertyID string
	Status     domain.BookingStatus
}

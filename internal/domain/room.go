package domain

import (
	"time"
)

// RoomCategory 房间类型
type RoomCategory string

const (
	RoomCategorySingle    RoomCategory = "single"
	RoomCategoryDouble    RoomCategory = "double"
	RoomCategoryTriple    RoomCategory = "triple"
	RoomCategoryDormitory RoomCategory = "dormitory"
)

// Room 房间领域模型（对应 rooms 表）
// PropertyID 不可修改；IsActive=false 时不再接受新 booking，已有 booking 保持有效
// 金额字段均为最小货币单位（分）
type Room struct {
	RoomID      string       `db:"room_id" json:"room_id"`
	PropertyID  string       `db:"property_id" json:"property_id"`
	Name        string       `db:"name" json:"name"`
	Category    RoomCategory `db:"category" json:"category"`
	Capacity    int          `db:"capacity" json:"capacity"` // >= 1
	PricePerBed int64        `db:"price_per_bed" json:"price_per_bed"`
	Deposit     int64        `db:"deposit" json:"deposit"`
	Amenities   []string     `db:"amenities" json:"amenities"`
	IsActive    bool         `db:"is_active" json:"is_active"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// RoomOccupancy 房间床位占用统计（实时计算，不落库）
type RoomOccupancy struct {
	RoomID        string `json:"room_id"`
	Capacity      int    `json:"capacity"`
	TotalBeds     int    `json:"total_beds"`
	OccupiedBeds  int    `json:"occupied_beds"`
	AvailableBeds int    `json:"available_beds"`
}

package domain

import (
	"time"
)

// PropertyCategory 房源类型
type PropertyCategory string

const (
	PropertyCategorySingleRoom PropertyCategory = "single_room"
	PropertyCategorySharedRoom PropertyCategory = "shared_room"
	PropertyCategoryApartment  PropertyCategory = "apartment"
	PropertyCategoryHostel     PropertyCategory = "hostel"
)

// GenderPolicy 入住性别限制
type GenderPolicy string

const (
	GenderMale   GenderPolicy = "male"
	GenderFemale GenderPolicy = "female"
	GenderMixed  GenderPolicy = "mixed"
)

// Property 房源领域模型（对应 properties 表）
// OwnerID 创建后不可修改；删除为软删除（IsActive=false），历史 booking 仍需解析 property 引用
type Property struct {
	PropertyID  string           `db:"property_id" json:"property_id"`
	OwnerID     string           `db:"owner_id" json:"owner_id"`
	Name        string           `db:"name" json:"name"`
	Description string           `db:"description" json:"description"`
	Address     string           `db:"address" json:"address"`
	City        string           `db:"city" json:"city"`
	State       string           `db:"state" json:"state"`
	PostalCode  string           `db:"postal_code" json:"postal_code"`
	Category    PropertyCategory `db:"category" json:"category"`
	Gender      GenderPolicy     `db:"gender" json:"gender"`
	Amenities   []string         `db:"amenities" json:"amenities"` // TEXT[]
	Rules       []string         `db:"rules" json:"rules"`         // TEXT[]
	IsActive    bool             `db:"is_active" json:"is_active"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// HasAmenities reports whether every wanted amenity is offered (case-insensitive).
func (p *Property) HasAmenities(wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	offered := make(map[string]struct{}, len(p.Amenities))
	for _, a := range p.Amenities {
		offered[normalizeTag(a)] = struct{}{}
	}
	for _, w := range wanted {
		if _, ok := offered[normalizeTag(w)]; !ok {
			return false
		}
	}
	return true
}

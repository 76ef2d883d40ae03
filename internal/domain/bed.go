package domain

import (
	"strings"
	"time"
)

// Bed 床位领域模型（对应 beds 表）
// Label 在同一 room 内唯一
// IsOccupied 为派生状态：存在 status ∈ {confirmed, active} 且引用该床位的 booking
type Bed struct {
	BedID      string    `db:"bed_id" json:"bed_id"`
	RoomID     string    `db:"room_id" json:"room_id"`
	Label      string    `db:"label" json:"label"`
	IsOccupied bool      `db:"is_occupied" json:"is_occupied"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

func normalizeTag(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

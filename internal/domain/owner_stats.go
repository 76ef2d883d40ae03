package domain

// OwnerStats 业主维度统计（每次查询实时计算，不落库）
type OwnerStats struct {
	TotalProperties int   `json:"totalProperties"`
	TotalRooms      int   `json:"totalRooms"`
	OccupiedBeds    int   `json:"occupiedBeds"`
	TotalBeds       int   `json:"totalBeds"`
	MonthlyRevenue  int64 `json:"monthlyRevenue"`
	PendingBookings int   `json:"pendingBookings"`
}

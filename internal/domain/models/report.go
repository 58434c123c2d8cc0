package models

// DashboardStats сводка для админки. Выручка считается только по завершённым заказам.
type DashboardStats struct {
	RevenueToday     int64 `json:"revenueToday"`
	RevenueMonth     int64 `json:"revenueMonth"`
	PendingOrders    int   `json:"pendingOrders"`
	ProcessingOrders int   `json:"processingOrders"`
	ShippedOrders    int   `json:"shippedOrders"`
	CompletedOrders  int   `json:"completedOrders"`
	CancelledOrders  int   `json:"cancelledOrders"`
}

package model

import "github.com/shopspring/decimal"

// DashboardStats aggregates compliance counters used for dashboard badges
type DashboardStats struct {
	TotalClients    int64            `json:"total_clients"`
	ClientsByStatus map[string]int64 `json:"clients_by_status"`
	ReturnsByStatus map[string]int64 `json:"returns_by_status"`
	OverdueReturns  int64            `json:"overdue_returns"`
	PendingNotices  int64            `json:"pending_notices"`
	PendingPayments int64            `json:"pending_payments"`
	TotalPaid       decimal.Decimal  `json:"total_paid"`
	UnreadAlerts    int64            `json:"unread_alerts"`
	UpcomingReturns []UpcomingReturn `json:"upcoming_returns"`
}

// UpcomingReturn is a return still in Draft with the nearest due dates
type UpcomingReturn struct {
	ReturnID   string `json:"return_id"`
	ClientID   string `json:"client_id"`
	ClientName string `json:"client_name"`
	ReturnType string `json:"return_type"`
	Period     string `json:"period"`
	DueDate    string `json:"due_date"`
}

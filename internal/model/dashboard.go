package model

// DashboardStats are the aggregate counters shown on the admin overview.
type DashboardStats struct {
	TotalItems      int `json:"total_items"`
	TotalUsers      int `json:"total_users"`
	ActiveLoans     int `json:"active_loans"`
	PendingRequests int `json:"pending_requests"`
}

// Dashboard is the payload of GET /dashboard.
type Dashboard struct {
	Stats            DashboardStats `json:"stats"`
	RecentActivities []Loan         `json:"recent_activities"`
}

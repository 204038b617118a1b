package domain

// OverviewStats backs the home page header cards.
type OverviewStats struct {
	TotalContainers   int     `json:"total_containers"`
	RunningContainers int     `json:"running_containers"`
	ActiveNodes       int     `json:"active_nodes"`
	HealthyNodes      int     `json:"healthy_nodes"`
	SystemHealth      float64 `json:"system_health"`
	Uptime            float64 `json:"uptime"`
	WarningAlerts     int     `json:"warning_alerts"`
	CriticalAlerts    int     `json:"critical_alerts"`
}

// AdminStats backs the admin dashboard.
type AdminStats struct {
	TotalUsers     int `json:"total_users"`
	ActiveUsers    int `json:"active_users"`
	AdminUsers     int `json:"admin_users"`
	RecentLogins   int `json:"recent_logins"`
	NewUsersToday  int `json:"new_users_today"`
	ActiveSessions int `json:"active_sessions"`
}

package models

// Statistics is the aggregate shown on the admin dashboard.
type Statistics struct {
	TotalUsers     int64                `json:"total_users"`
	StatusCounts   map[UserStatus]int64 `json:"status_stats"`
	ActiveWeek     int64                `json:"active_week"`
	TotalFeedback  int64                `json:"total_feedback"`
	AvgProgress    float64              `json:"avg_progress"`
	CompletionRate float64              `json:"completion_rate"`
}

// Count returns the number of users in the given status.
func (s *Statistics) Count(st UserStatus) int64 {
	if s.StatusCounts == nil {
		return 0
	}
	return s.StatusCounts[st]
}

// FunnelStep is one step of the conversion funnel.
type FunnelStep struct {
	Name       string  `json:"name"`
	Users      int64   `json:"users"`
	Conversion float64 `json:"conversion"` // percent of registered users
}

// Funnel is the conversion funnel across the lifecycle.
type Funnel struct {
	Steps []FunnelStep `json:"steps"`
}

// Analytics is the extended report built for admins and the JSON export.
type Analytics struct {
	Statistics      Statistics       `json:"statistics"`
	Funnel          Funnel           `json:"conversion_funnel"`
	PopularActions  []ActionCount    `json:"popular_actions"`
	DailyActivity   []DailyActivity  `json:"daily_activity"`
	WeekdayActivity map[string]int64 `json:"weekday_activity"`
	Days            int              `json:"days"`
}

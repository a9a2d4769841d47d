package models

import "time"

// Action names written to the activity log.
const (
	ActionStart              = "start"
	ActionHelp               = "help"
	ActionStatus             = "status_check"
	ActionMenu               = "menu"
	ActionPreboardingStart   = "preboarding_start"
	ActionDocsIntro          = "preboarding_docs"
	ActionDocsMain           = "docs_main_view"
	ActionDocsTK             = "docs_tk_view"
	ActionDocsMainSent       = "docs_main_sent"
	ActionDocsTKSent         = "docs_tk_sent"
	ActionPreboardingDone    = "preboarding_complete"
	ActionOnboardingOpen     = "onboarding_access"
	ActionOnboardingStart    = "onboarding_start"
	ActionEmailReceived      = "email_access_confirmed"
	ActionEmailNotReceived   = "email_access_issue"
	ActionTeamIntro          = "team_intro"
	ActionMeetings           = "meetings_info"
	ActionOnboardingComplete = "onboarding_completed"
	ActionFeedbackStart      = "feedback_start"
	ActionFeedback           = "feedback_sent"
	ActionProgress           = "progress_check"
	ActionContacts           = "contacts"
	ActionSupport            = "support"
	ActionInfo               = "info"
	ActionFAQ                = "faq"
	ActionReminder           = "reminder"
	ActionUnknownMessage     = "unknown_command"

	ActionAdminAccess        = "admin_access"
	ActionAdminDenied        = "admin_denied"
	ActionAdminRefresh       = "admin_refresh"
	ActionAdminExport        = "admin_export"
	ActionAdminAnalytics     = "admin_analytics"
	ActionAdminCleanup       = "admin_cleanup"
	ActionAdminReset         = "admin_reset_progress"
	ActionProgressReset      = "progress_reset"
	ActionAdminBroadcastInfo = "admin_broadcast_info"
	ActionBroadcastStart     = "broadcast_start"
	ActionBroadcastDone      = "broadcast_complete"
)

// UserAction is a single row of the activity log.
type UserAction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;index:idx_actions_user" json:"user_id"`
	Action    string    `gorm:"size:64;not null;index:idx_actions_action" json:"action"`
	Details   string    `gorm:"type:text" json:"details,omitempty"`
	CreatedAt time.Time `gorm:"index:idx_actions_created" json:"created_at"`
}

func (UserAction) TableName() string {
	return "user_actions"
}

// ActionCount is an aggregated activity row.
type ActionCount struct {
	Action string `json:"action"`
	Count  int64  `json:"count"`
}

// DailyActivity counts actions and distinct users for one calendar day (UTC).
type DailyActivity struct {
	Date        string `json:"date"` // YYYY-MM-DD
	Actions     int64  `json:"actions"`
	UniqueUsers int64  `json:"unique_users"`
}

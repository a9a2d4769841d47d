package config

import (
	"fmt"
	"time"
)

// Severity grades a configuration issue.
type Severity string

const (
	SeverityCritical Severity = "critical" // the bot must not start
	SeverityWarning  Severity = "warning"  // works, but likely misconfigured
)

// Issue is one finding of Validate.
type Issue struct {
	Severity Severity `json:"severity"`
	Field    string   `json:"field"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	mark := "⚠️"
	if i.Severity == SeverityCritical {
		mark = "❌"
	}
	return fmt.Sprintf("%s %s: %s", mark, i.Field, i.Message)
}

// HasCritical reports whether any issue blocks startup.
func HasCritical(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// Validate checks the configuration and returns every problem found.
func (c *AppConfig) Validate() []Issue {
	var issues []Issue
	add := func(sev Severity, field string, err error) {
		if err != nil {
			issues = append(issues, Issue{Severity: sev, Field: field, Message: err.Error()})
		}
	}
	warn := func(field, msg string) {
		issues = append(issues, Issue{Severity: SeverityWarning, Field: field, Message: msg})
	}

	if !c.TokenConfigured() {
		issues = append(issues, Issue{Severity: SeverityCritical, Field: "BOT_TOKEN", Message: "не указан токен бота"})
	} else {
		add(SeverityCritical, "BOT_TOKEN", ValidateTelegramToken(c.Telegram.Token))
	}

	if len(c.Telegram.AdminIDs) == 1 && c.Telegram.AdminIDs[0] == DefaultAdminID {
		warn("ADMIN_IDS", "используются ID администраторов по умолчанию")
	} else {
		add(SeverityCritical, "ADMIN_IDS", ValidateAdminIDs(c.Telegram.AdminIDs))
	}

	add(SeverityCritical, "COMPANY_NAME", ValidateCompanyName(c.Company.Name))
	add(SeverityCritical, "HR_EMAIL", ValidateEmail(c.Contacts.HREmail))
	add(SeverityCritical, "SUPPORT_EMAIL", ValidateEmail(c.Contacts.SupportEmail))
	if c.Contacts.HREmail == DefaultHREmail {
		warn("HR_EMAIL", "используется email HR по умолчанию")
	}
	if c.Links.CompanySite == DefaultCompanySite {
		warn("COMPANY_SITE", "используется сайт компании по умолчанию")
	}

	optional := []struct {
		field string
		value string
		check func(string) error
	}{
		{"HR_TELEGRAM", c.Contacts.HRTelegram, ValidateTelegramUsername},
		{"SUPPORT_TELEGRAM", c.Contacts.SupportTelegram, ValidateTelegramUsername},
		{"HR_PHONE", c.Contacts.HRPhone, ValidatePhone},
		{"SUPPORT_PHONE", c.Contacts.SupportPhone, ValidatePhone},
		{"COMPANY_SITE", c.Links.CompanySite, ValidateURL},
		{"TEAM_PAGE", c.Links.TeamPage, ValidateURL},
		{"HANDBOOK_URL", c.Links.Handbook, ValidateURL},
		{"CALENDAR_URL", c.Links.Calendar, ValidateURL},
		{"PORTAL_URL", c.Links.Portal, ValidateURL},
		{"MEETING_GENERAL", c.Meetings.General, ValidateURL},
		{"MEETING_IT", c.Meetings.IT, ValidateURL},
		{"MEETING_MARKETING", c.Meetings.Marketing, ValidateURL},
		{"MEETING_HR", c.Meetings.HR, ValidateURL},
		{"LOG_LEVEL", c.Logger.Level, ValidateLogLevel},
		{"DATABASE_PATH", c.Databases.SQLite.Path, ValidateFilePath},
		{"LOG_FILE", c.Logger.File, ValidateFilePath},
		{"EXPORT_DIR", c.Export.Dir, ValidateFilePath},
	}
	for _, o := range optional {
		if o.value == "" {
			continue
		}
		add(SeverityWarning, o.field, o.check(o.value))
	}
	if c.Databases.SQLite.Path == "" {
		issues = append(issues, Issue{Severity: SeverityCritical, Field: "DATABASE_PATH", Message: "путь к базе данных не указан"})
	}

	add(SeverityWarning, "BROADCAST_DELAY", ValidateBroadcastDelay(c.Broadcast.Delay))
	add(SeverityWarning, "MAX_MESSAGE_LENGTH", ValidateMessageLength(c.Broadcast.MaxMessageLength))

	if c.FloodControl.Limit <= 0 {
		warn("floodControl.limit", "лимит должен быть положительным")
	}
	if _, err := time.ParseDuration(c.FloodControl.Window); err != nil {
		warn("floodControl.window", "неверная длительность окна")
	}
	if c.Onboarding.AutoReminders && c.Onboarding.ReminderIntervalDays <= 0 {
		warn("REMINDER_INTERVAL_DAYS", "интервал напоминаний должен быть положительным")
	}

	if c.Server.Enabled {
		if c.Auth.JwtSecret == "" {
			issues = append(issues, Issue{Severity: SeverityCritical, Field: "JWT_SECRET", Message: "панель включена, но секрет JWT не задан"})
		}
		if cb := c.Middleware.CircuitBreaker; cb.Enabled {
			if _, err := time.ParseDuration(cb.Timeout); err != nil {
				issues = append(issues, Issue{Severity: SeverityCritical, Field: "middleware.circuitBreaker.timeout", Message: "неверная длительность"})
			}
		}
	}
	if c.Databases.Redis.Enabled && c.Databases.Redis.Address == "" {
		issues = append(issues, Issue{Severity: SeverityCritical, Field: "REDIS_ADDRESS", Message: "адрес Redis не указан"})
	}
	if c.Databases.Kafka.Enabled && (len(c.Databases.Kafka.Brokers) == 0 || c.Databases.Kafka.Topic == "") {
		issues = append(issues, Issue{Severity: SeverityCritical, Field: "KAFKA_BROKERS", Message: "не указаны брокеры или топик Kafka"})
	}
	if c.Databases.MinIO.Enabled && (c.Databases.MinIO.Endpoint == "" || c.Databases.MinIO.Bucket == "") {
		issues = append(issues, Issue{Severity: SeverityCritical, Field: "MINIO_ENDPOINT", Message: "не указан адрес или бакет MinIO"})
	}
	return issues
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Placeholder values shipped with a fresh install. Validate flags them.
const (
	DefaultBotToken    = "YOUR_BOT_TOKEN_HERE"
	DefaultAdminID     = int64(123456789)
	DefaultHREmail     = "hr@company.ru"
	DefaultCompanySite = "https://company-site.ru"
)

// AppInfo describes the running application.
type AppInfo struct {
	Name        string `yaml:"name"`                   // application name
	Version     string `yaml:"version"`                // application version
	Environment string `yaml:"environment"`            // "development" or "production"
	Debug       bool   `yaml:"debug" env:"DEBUG_MODE"` // verbose transport logging
}

// LoggerConfig configures logrus.
type LoggerConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"` // debug, info, warning, error, critical
	File  string `yaml:"file" env:"LOG_FILE"`   // log file, empty for stdout only
}

// TelegramConfig holds bot credentials and the admin list.
type TelegramConfig struct {
	Token       string               `yaml:"token" env:"BOT_TOKEN"`
	AdminIDs    []int64              `yaml:"adminIDs" env:"ADMIN_IDS" envSeparator:","`
	PollTimeout int                  `yaml:"pollTimeout"` // long polling timeout in seconds
	Breaker     CircuitBreakerConfig `yaml:"breaker"`     // guards outgoing Bot API calls
}

// CompanyConfig names the employer.
type CompanyConfig struct {
	Name string `yaml:"name" env:"COMPANY_NAME"`
}

// ContactsConfig lists HR and support contacts shown to users.
type ContactsConfig struct {
	HREmail         string `yaml:"hrEmail" env:"HR_EMAIL"`
	HRTelegram      string `yaml:"hrTelegram" env:"HR_TELEGRAM"`
	HRPhone         string `yaml:"hrPhone" env:"HR_PHONE"`
	SupportEmail    string `yaml:"supportEmail" env:"SUPPORT_EMAIL"`
	SupportTelegram string `yaml:"supportTelegram" env:"SUPPORT_TELEGRAM"`
	SupportPhone    string `yaml:"supportPhone" env:"SUPPORT_PHONE"`
}

// LinksConfig holds company resource URLs.
type LinksConfig struct {
	CompanySite string `yaml:"companySite" env:"COMPANY_SITE"`
	TeamPage    string `yaml:"teamPage" env:"TEAM_PAGE"`
	Handbook    string `yaml:"handbook" env:"HANDBOOK_URL"`
	Calendar    string `yaml:"calendar" env:"CALENDAR_URL"`
	Portal      string `yaml:"portal" env:"PORTAL_URL"`
}

// MeetingsConfig holds links to the recurring stand-ups.
type MeetingsConfig struct {
	General   string `yaml:"general" env:"MEETING_GENERAL"`
	IT        string `yaml:"it" env:"MEETING_IT"`
	Marketing string `yaml:"marketing" env:"MEETING_MARKETING"`
	HR        string `yaml:"hr" env:"MEETING_HR"`
}

// OnboardingConfig tunes reminders and activity retention.
type OnboardingConfig struct {
	AutoReminders        bool   `yaml:"autoReminders" env:"AUTO_REMINDERS"`
	ReminderIntervalDays int    `yaml:"reminderIntervalDays" env:"REMINDER_INTERVAL_DAYS"`
	ReminderCheckEvery   string `yaml:"reminderCheckEvery"` // e.g. "1h"
	CleanupDays          int    `yaml:"cleanupDays"`        // age of user_actions rows removed by cleanup
}

// CheckInterval parses ReminderCheckEvery, falling back to one hour.
func (o OnboardingConfig) CheckInterval() time.Duration {
	d, err := time.ParseDuration(o.ReminderCheckEvery)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// NotificationsConfig controls messages sent to admins.
type NotificationsConfig struct {
	Enabled  bool `yaml:"enabled" env:"NOTIFICATION_ENABLED"`
	Feedback bool `yaml:"feedback" env:"FEEDBACK_NOTIFICATION"`
}

// BroadcastConfig controls admin mass mailings.
type BroadcastConfig struct {
	Delay            float64 `yaml:"delay" env:"BROADCAST_DELAY"`                // seconds between two sends
	MaxMessageLength int     `yaml:"maxMessageLength" env:"MAX_MESSAGE_LENGTH"` // upper bound for broadcast text
	ProgressEvery    int     `yaml:"progressEvery"`                             // progress report interval
}

// DelayDuration converts Delay to a time.Duration.
func (b BroadcastConfig) DelayDuration() time.Duration {
	return time.Duration(b.Delay * float64(time.Second))
}

// FloodControlConfig limits requests per user.
type FloodControlConfig struct {
	Limit  int    `yaml:"limit"`
	Window string `yaml:"window"` // e.g. "60s"
}

// SQLiteConfig points to the database file.
type SQLiteConfig struct {
	Path string `yaml:"path" env:"DATABASE_PATH"`
}

// RedisConfig configures the optional Redis session store.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED"`
	Address  string `yaml:"address" env:"REDIS_ADDRESS"` // e.g. "localhost:6379"
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"` // key prefix for session entries
}

// KafkaConfig configures the optional activity event stream.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled" env:"KAFKA_ENABLED"`
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `yaml:"topic"`
}

// MinIOConfig configures the optional export upload target.
type MinIOConfig struct {
	Enabled   bool   `yaml:"enabled" env:"MINIO_ENABLED"`
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
	AccessKey string `yaml:"accessKey" env:"MINIO_ACCESS_KEY"`
	SecretKey string `yaml:"secretKey" env:"MINIO_SECRET_KEY"`
	Bucket    string `yaml:"bucket"`
	Secure    bool   `yaml:"secure"`
}

// DatabaseConfigs groups all storage backends.
type DatabaseConfigs struct {
	SQLite SQLiteConfig `yaml:"sqlite"`
	Redis  RedisConfig  `yaml:"redis"`
	Kafka  KafkaConfig  `yaml:"kafka"`
	MinIO  MinIOConfig  `yaml:"minio"`
}

// ExportConfig controls data exports.
type ExportConfig struct {
	Dir           string `yaml:"dir" env:"EXPORT_DIR"`
	RetentionDays int    `yaml:"retentionDays"` // exports older than this are pruned, 0 keeps all
	ActionsLimit  int    `yaml:"actionsLimit"`  // activity rows included in the full dump
}

// AuthConfig configures the admin dashboard tokens.
type AuthConfig struct {
	JwtSecret string `yaml:"jwtSecret" env:"JWT_SECRET"`
	TokenTTL  int    `yaml:"tokenTTL"` // seconds
}

// ServerConfig configures the admin HTTP dashboard.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled" env:"DASHBOARD_ENABLED"`
	Address string `yaml:"address" env:"DASHBOARD_ADDRESS"`
}

// MiddlewareConfig configures the dashboard middleware chain.
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// RateLimiterConfig selects and tunes a rate limiting algorithm.
type RateLimiterConfig struct {
	Enabled        bool                 `yaml:"enabled"`
	Algorithm      string               `yaml:"algorithm"` // fixedWindow, slidingLog, slidingCounter, leakyBucket, tokenBucket
	FixedWindow    FixedWindowConfig    `yaml:"fixedWindow"`
	SlidingLog     SlidingLogConfig     `yaml:"slidingLog"`
	SlidingCounter SlidingCounterConfig `yaml:"slidingCounter"`
	LeakyBucket    LeakyBucketConfig    `yaml:"leakyBucket"`
	TokenBucket    TokenBucketConfig    `yaml:"tokenBucket"`
}

type FixedWindowConfig struct {
	Limit  int    `yaml:"limit"`
	Window string `yaml:"window"`
}

type SlidingLogConfig struct {
	Limit  int    `yaml:"limit"`
	Window string `yaml:"window"`
}

type SlidingCounterConfig struct {
	Limit      int    `yaml:"limit"`
	Window     string `yaml:"window"`
	NumBuckets int    `yaml:"numBuckets"`
}

type LeakyBucketConfig struct {
	Rate     float64 `yaml:"rate"` // per second
	Capacity int     `yaml:"capacity"`
}

type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"` // per second
	Capacity int     `yaml:"capacity"`
}

// CircuitBreakerConfig tunes a circuit breaker.
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // e.g. "30s"
}

// AppConfig is the root of the YAML configuration.
type AppConfig struct {
	App           AppInfo             `yaml:"app"`
	Logger        LoggerConfig        `yaml:"logger"`
	Telegram      TelegramConfig      `yaml:"telegram"`
	Company       CompanyConfig       `yaml:"company"`
	Contacts      ContactsConfig      `yaml:"contacts"`
	Links         LinksConfig         `yaml:"links"`
	Meetings      MeetingsConfig      `yaml:"meetings"`
	Onboarding    OnboardingConfig    `yaml:"onboarding"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Broadcast     BroadcastConfig     `yaml:"broadcast"`
	FloodControl  FloodControlConfig  `yaml:"floodControl"`
	Databases     DatabaseConfigs     `yaml:"databases"`
	Export        ExportConfig        `yaml:"export"`
	Auth          AuthConfig          `yaml:"auth"`
	Server        ServerConfig        `yaml:"server"`
	Middleware    MiddlewareConfig    `yaml:"middleware"`
}

// Default returns a configuration that works out of the box except for the
// bot token and the admin list.
func Default() *AppConfig {
	return &AppConfig{
		App: AppInfo{
			Name:        "OnboardingBuddy",
			Version:     "1.0.0",
			Environment: "development",
		},
		Logger: LoggerConfig{
			Level: "info",
			File:  "data/logs/bot.log",
		},
		Telegram: TelegramConfig{
			Token:       DefaultBotToken,
			AdminIDs:    []int64{DefaultAdminID},
			PollTimeout: 20,
			Breaker: CircuitBreakerConfig{
				Enabled:          true,
				FailureThreshold: 5,
				SuccessThreshold: 1,
				Timeout:          "15s",
			},
		},
		Company: CompanyConfig{Name: `АО "БигТайм АйТи"`},
		Contacts: ContactsConfig{
			HREmail:         DefaultHREmail,
			HRTelegram:      "@hr_manager",
			HRPhone:         "+7 (xxx) xxx-xx-xx",
			SupportEmail:    "support@company.ru",
			SupportTelegram: "@tech_support",
			SupportPhone:    "+7 (xxx) xxx-xx-xx",
		},
		Links: LinksConfig{
			CompanySite: DefaultCompanySite,
			TeamPage:    "https://company-site.ru/team",
			Handbook:    "https://company-site.ru/handbook",
			Calendar:    "https://calendar.company.ru",
			Portal:      "https://portal.company.ru",
		},
		Meetings: MeetingsConfig{
			General:   "https://meet.company.ru/general",
			IT:        "https://meet.company.ru/it",
			Marketing: "https://meet.company.ru/marketing",
			HR:        "https://meet.company.ru/hr",
		},
		Onboarding: OnboardingConfig{
			ReminderIntervalDays: 3,
			ReminderCheckEvery:   "1h",
			CleanupDays:          90,
		},
		Notifications: NotificationsConfig{Enabled: true, Feedback: true},
		Broadcast: BroadcastConfig{
			Delay:            0.1,
			MaxMessageLength: 4000,
			ProgressEvery:    10,
		},
		FloodControl: FloodControlConfig{Limit: 10, Window: "60s"},
		Databases: DatabaseConfigs{
			SQLite: SQLiteConfig{Path: "data/onboarding.db"},
			Redis:  RedisConfig{Address: "localhost:6379", Prefix: "onboarding:session:"},
			Kafka:  KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "onboarding.activity"},
			MinIO:  MinIOConfig{Endpoint: "localhost:9000", Bucket: "onboarding-exports"},
		},
		Export: ExportConfig{Dir: "data/exports", RetentionDays: 30, ActionsLimit: 1000},
		Auth:   AuthConfig{TokenTTL: 86400},
		Server: ServerConfig{Address: ":8080"},
		Middleware: MiddlewareConfig{
			RateLimiter: RateLimiterConfig{
				Enabled:     true,
				Algorithm:   "tokenBucket",
				TokenBucket: TokenBucketConfig{Rate: 20, Capacity: 40},
			},
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:          true,
				FailureThreshold: 5,
				SuccessThreshold: 2,
				Timeout:          "30s",
			},
		},
	}
}

// LoadConfig reads the YAML file at path on top of Default() and then applies
// environment overrides. A missing file is not an error.
func LoadConfig(path string) (*AppConfig, error) {
	cfg := Default()

	yamlFile, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(yamlFile, cfg); err != nil {
			return nil, fmt.Errorf("parse yaml file '%s': %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read yaml file '%s': %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *AppConfig) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config '%s': %w", path, err)
	}
	return nil
}

// IsAdmin reports whether the Telegram user id belongs to an administrator.
func (c *AppConfig) IsAdmin(userID int64) bool {
	for _, id := range c.Telegram.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// TokenConfigured reports whether a real bot token was supplied.
func (c *AppConfig) TokenConfigured() bool {
	return c.Telegram.Token != "" && c.Telegram.Token != DefaultBotToken
}

// FloodWindow parses the flood control window, falling back to one minute.
func (c *AppConfig) FloodWindow() time.Duration {
	d, err := time.ParseDuration(c.FloodControl.Window)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// EnsureDirectories creates the directories of the database, log and export paths.
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.Databases.SQLite.Path), c.Export.Dir}
	if c.Logger.File != "" {
		dirs = append(dirs, filepath.Dir(c.Logger.File))
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory '%s': %w", dir, err)
		}
	}
	return nil
}

// Summary renders a short digest of the configuration for the CLI.
func (c *AppConfig) Summary() string {
	mark := func(ok bool) string {
		if ok {
			return "✅"
		}
		return "❌"
	}
	token := "❌ Не настроен"
	if c.TokenConfigured() {
		token = "✅ Настроен"
	}

	var b strings.Builder
	b.WriteString("🔧 Конфигурация OnboardingBuddy:\n")
	fmt.Fprintf(&b, "📱 Токен: %s\n", token)
	fmt.Fprintf(&b, "👥 Администраторы: %d чел.\n", len(c.Telegram.AdminIDs))
	fmt.Fprintf(&b, "🏢 Компания: %s\n", c.Company.Name)
	fmt.Fprintf(&b, "📧 HR: %s\n", c.Contacts.HREmail)
	fmt.Fprintf(&b, "🌐 Сайт: %s\n", c.Links.CompanySite)
	fmt.Fprintf(&b, "🗄️ БД: %s\n", c.Databases.SQLite.Path)
	fmt.Fprintf(&b, "📝 Логи: %s\n", c.Logger.File)
	fmt.Fprintf(&b, "🔔 Уведомления: %s\n", mark(c.Notifications.Enabled))
	fmt.Fprintf(&b, "⏰ Напоминания: %s\n", mark(c.Onboarding.AutoReminders))
	fmt.Fprintf(&b, "📡 Redis: %s  Kafka: %s  MinIO: %s\n",
		mark(c.Databases.Redis.Enabled), mark(c.Databases.Kafka.Enabled), mark(c.Databases.MinIO.Enabled))
	fmt.Fprintf(&b, "🖥️ Панель: %s %s\n", mark(c.Server.Enabled), c.Server.Address)
	return b.String()
}

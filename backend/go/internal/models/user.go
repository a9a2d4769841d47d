package models

import (
	"time"
)

// UserStatus is the lifecycle status of a new hire. Statuses only move forward.
type UserStatus string

const (
	StatusNew         UserStatus = "new"         // registered, nothing started
	StatusPreboarding UserStatus = "preboarding" // collecting documents
	StatusPreboarded  UserStatus = "preboarded"  // documents sent, waiting for signed papers
	StatusOnboarding  UserStatus = "onboarding"  // accesses, team, meetings
	StatusCompleted   UserStatus = "completed"   // all stages passed
)

// AllStatuses lists the statuses in lifecycle order.
var AllStatuses = []UserStatus{
	StatusNew,
	StatusPreboarding,
	StatusPreboarded,
	StatusOnboarding,
	StatusCompleted,
}

var statusRank = map[UserStatus]int{
	StatusNew:         0,
	StatusPreboarding: 1,
	StatusPreboarded:  2,
	StatusOnboarding:  3,
	StatusCompleted:   4,
}

var statusEmoji = map[UserStatus]string{
	StatusNew:         "🆕",
	StatusPreboarding: "🔄",
	StatusPreboarded:  "✅",
	StatusOnboarding:  "🚀",
	StatusCompleted:   "🎉",
}

var statusNames = map[UserStatus]string{
	StatusNew:         "Новый пользователь",
	StatusPreboarding: "Пребординг в процессе",
	StatusPreboarded:  "Пребординг завершен",
	StatusOnboarding:  "Онбординг в процессе",
	StatusCompleted:   "Онбординг завершен",
}

// ParseStatus converts a raw value into a known status.
func ParseStatus(s string) (UserStatus, bool) {
	st := UserStatus(s)
	_, ok := statusRank[st]
	return st, ok
}

// Rank is the position of the status in the lifecycle, -1 if unknown.
func (s UserStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// Before reports whether s comes earlier in the lifecycle than other.
func (s UserStatus) Before(other UserStatus) bool {
	return s.Rank() < other.Rank()
}

// Emoji returns the status marker used in chat messages.
func (s UserStatus) Emoji() string {
	if e, ok := statusEmoji[s]; ok {
		return e
	}
	return "❓"
}

// DisplayName returns the human readable status name.
func (s UserStatus) DisplayName() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "Неизвестно"
}

// User is a new hire known to the bot, keyed by Telegram user id.
type User struct {
	UserID    int64      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Username  string     `gorm:"size:64" json:"username"`
	FullName  string     `gorm:"size:255" json:"full_name"`
	Position  string     `gorm:"size:255" json:"position"`
	Status    UserStatus `gorm:"type:varchar(20);default:'new';not null;index:idx_users_status" json:"status"`
	Stage     int        `gorm:"not null;default:0;index:idx_users_stage" json:"stage"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// ProgressPercent is the stage counter expressed in percent, capped at 100.
func (u *User) ProgressPercent() float64 {
	p := float64(u.Stage) / float64(MaxStage) * 100
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

// DisplayName prefers the full name and falls back to the username.
func (u *User) DisplayName() string {
	switch {
	case u.FullName != "":
		return u.FullName
	case u.Username != "":
		return "@" + u.Username
	default:
		return "Неизвестный пользователь"
	}
}

// Profile is what the chat transport knows about the sender.
type Profile struct {
	UserID    int64
	Username  string
	FirstName string
	LastName  string
}

// FullName joins first and last name the way Telegram clients show it.
func (p Profile) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	if p.FirstName == "" {
		return p.LastName
	}
	return p.FirstName + " " + p.LastName
}

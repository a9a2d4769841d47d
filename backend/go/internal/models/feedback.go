package models

import "time"

// Feedback is a free-form message left by a user through the feedback mode.
type Feedback struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;index:idx_feedback_user" json:"user_id"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"index:idx_feedback_created" json:"created_at"`
}

func (Feedback) TableName() string {
	return "feedback"
}

// FeedbackView is a feedback row joined with the author's names.
type FeedbackView struct {
	ID        uint      `json:"id"`
	UserID    int64     `json:"user_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	FullName  string    `json:"full_name"`
	Username  string    `json:"username"`
}

// Author returns the best available name of the feedback author.
func (f FeedbackView) Author() string {
	switch {
	case f.FullName != "":
		return f.FullName
	case f.Username != "":
		return "@" + f.Username
	default:
		return "Аноним"
	}
}

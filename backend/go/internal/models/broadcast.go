package models

import (
	"time"

	"gorm.io/datatypes"
)

// Broadcast is the persisted outcome of one admin mass mailing.
type Broadcast struct {
	ID            string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	AdminID       int64          `gorm:"not null;index" json:"admin_id"`
	Text          string         `gorm:"type:text;not null" json:"text"`
	Total         int            `json:"total"`
	Sent          int            `json:"sent"`
	Failed        int            `json:"failed"`
	FailedUserIDs datatypes.JSON `json:"failed_user_ids,omitempty"`
	StartedAt     time.Time      `gorm:"index" json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
}

func (Broadcast) TableName() string {
	return "broadcasts"
}

// DeliveryRate is the share of successfully delivered messages in percent.
func (b *Broadcast) DeliveryRate() float64 {
	if b.Total == 0 {
		return 0
	}
	return float64(b.Sent) / float64(b.Total) * 100
}

package model

import "time"

type UsageRecord struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text;not null"`
	UserID    string    `json:"user_id" gorm:"not null;index;size:255"`
	Endpoint  string    `json:"endpoint" gorm:"not null;size:100"`
	Method    string    `json:"method" gorm:"size:10"`
	Status    int       `json:"status"`
	Timestamp time.Time `json:"timestamp" gorm:"not null;index"`
}

func (UsageRecord) TableName() string {
	return "usage_tracking"
}

package model

import "time"

// RateLimitWindow is one fixed counting window for an (identifier, endpoint)
// pair. window_start is rounded down to the top of the hour so near
// simultaneous first requests coalesce onto one row instead of fanning out.
type RateLimitWindow struct {
	ID           string    `json:"id" gorm:"primaryKey;type:text;not null"`
	Identifier   string    `json:"identifier" gorm:"not null;uniqueIndex:idx_rl_window,priority:1;size:255"`
	Endpoint     string    `json:"endpoint" gorm:"not null;uniqueIndex:idx_rl_window,priority:2;size:100"`
	RequestCount int       `json:"request_count" gorm:"default:0;not null"`
	WindowStart  time.Time `json:"window_start" gorm:"not null;uniqueIndex:idx_rl_window,priority:3"`
	WindowEnd    time.Time `json:"window_end" gorm:"not null;index"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"not null"`
}

func (RateLimitWindow) TableName() string {
	return "rate_limit_tracking"
}

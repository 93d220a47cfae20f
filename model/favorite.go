package model

import "time"

type Favorite struct {
	ID         string    `json:"id" gorm:"primaryKey;type:text;not null"`
	UserID     string    `json:"user_id" gorm:"not null;uniqueIndex:idx_user_problem,priority:1;size:255"`
	ProblemID  string    `json:"problem_id" gorm:"not null;uniqueIndex:idx_user_problem,priority:2;size:255"`
	URL        string    `json:"url" gorm:"not null"`
	Title      string    `json:"title" gorm:"not null"`
	Platform   string    `json:"platform" gorm:"not null;size:30"`
	Difficulty string    `json:"difficulty" gorm:"size:30"`
	AddedAt    time.Time `json:"added_at" gorm:"not null"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"not null"`
}

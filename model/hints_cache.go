package model

import "time"

// HintsCacheEntry stores one serialized upstream result keyed by a
// deterministic fingerprint of the problem. Entries are overwritten in
// place on refresh, never appended.
type HintsCacheEntry struct {
	CacheKey  string    `json:"cache_key" gorm:"primaryKey;type:text;not null"`
	HintsData string    `json:"hints_data" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;index"`
}

func (HintsCacheEntry) TableName() string {
	return "hints_cache"
}

package model

import (
	"time"

	"github.com/lchelper/hints_api/shared"
)

type Subscription struct {
	ID                     string     `json:"id" gorm:"primaryKey;type:text;not null"`
	UserID                 string     `json:"user_id" gorm:"not null;index;size:255"`
	Gateway                string     `json:"gateway" gorm:"size:20"`
	ExternalCustomerID     *string    `json:"external_customer_id,omitempty" gorm:"uniqueIndex"`
	ExternalSubscriptionID *string    `json:"external_subscription_id,omitempty" gorm:"uniqueIndex"`
	Status                 string     `json:"status" gorm:"not null;default:inactive;size:20"`
	Tier                   string     `json:"tier" gorm:"not null;default:free;size:20"`
	CurrentPeriodStart     *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd       *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd      bool       `json:"cancel_at_period_end" gorm:"default:false;not null"`
	CreatedAt              time.Time  `json:"created_at" gorm:"not null"`
	UpdatedAt              time.Time  `json:"updated_at" gorm:"not null"`
}

// IsActive reports whether the subscription currently entitles the user.
// A subscription that is past its period end is inactive even when the
// stored status still says active.
func (s *Subscription) IsActive() bool {
	if s == nil {
		return false
	}
	if s.Status != shared.SubscriptionStatusActive {
		return false
	}
	if s.CancelAtPeriodEnd {
		return false
	}
	if s.CurrentPeriodEnd != nil {
		return s.CurrentPeriodEnd.After(time.Now())
	}
	return true
}

// EffectiveTier demotes to free whenever the subscription is not active.
func (s *Subscription) EffectiveTier() string {
	if !s.IsActive() {
		return shared.TierFree
	}
	if s.Tier == "" {
		return shared.TierFree
	}
	return s.Tier
}

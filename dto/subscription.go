package dto

import "time"

type SubscriptionStatusResponse struct {
	Active            bool       `json:"active"`
	Tier              string     `json:"tier"`
	Status            string     `json:"status"`
	CurrentPeriodEnd  *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
	DailyRequestLimit int        `json:"daily_request_limit"`
	RequestsUsedToday int        `json:"requests_used_today"`
	RequestsRemaining int        `json:"requests_remaining"`
}

type ActivateSubscriptionRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	Tier    string `json:"tier" validate:"required,oneof=premium pro"`
	Gateway string `json:"gateway" validate:"omitempty,oneof=stripe razorpay manual"`
	Days    int    `json:"days" validate:"omitempty,min=1,max=366"`
}

func (r ActivateSubscriptionRequest) Validate() error {
	return validate.Struct(r)
}

package dto

// RateLimitDecision is the outcome of one gate check, in the shape the
// middleware needs to emit X-RateLimit-* headers.
type RateLimitDecision struct {
	Allowed    bool  `json:"allowed"`
	Limit      int   `json:"limit"`
	Remaining  int   `json:"remaining"`
	ResetEpoch int64 `json:"reset_epoch"`
	RetryAfter int   `json:"retry_after,omitempty"`
}

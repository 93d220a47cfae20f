package shared

const (
	UserID = "user_id"

	TierFree    = "free"
	TierPremium = "premium"
	TierPro     = "pro"

	SubscriptionStatusActive   = "active"
	SubscriptionStatusInactive = "inactive"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusPastDue  = "past_due"

	PlatformLeetCode   = "leetcode"
	PlatformCodeforces = "codeforces"
	PlatformCodeChef   = "codechef"

	EndpointHintsGenerate = "/api/v1/hints/generate"
	EndpointHintsExplain  = "/api/v1/hints/explain"
)

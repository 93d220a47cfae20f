package dto

type DailyUsage struct {
	Endpoint string `json:"endpoint"`
	Count    int64  `json:"count"`
}

type MonthlyUsage struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type UsageResponse struct {
	Today             []DailyUsage   `json:"today"`
	Month             []MonthlyUsage `json:"month"`
	DailyRequestLimit int            `json:"daily_request_limit"`
	RequestsRemaining int            `json:"requests_remaining"`
}

package dto

type AnalyticsSummary struct {
	TotalAccounts      int64 `json:"total_accounts"`
	NewLast24h         int64 `json:"new_last_24h"`
	NewLast7d          int64 `json:"new_last_7d"`
	NewLast30d         int64 `json:"new_last_30d"`
	ActiveLast7d       int64 `json:"active_last_7d"`
	CompleteProfiles   int64 `json:"complete_profiles"`
	IncompleteProfiles int64 `json:"incomplete_profiles"`
	LocalAccounts      int64 `json:"local_accounts"`
	FederatedAccounts  int64 `json:"federated_accounts"`
}

type Bucket struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

type DistributionResponse struct {
	Buckets []Bucket `json:"buckets"`
	Total   int64    `json:"total"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type RegistrationTrendResponse struct {
	Days   int          `json:"days"`
	Points []DailyCount `json:"points"`
}

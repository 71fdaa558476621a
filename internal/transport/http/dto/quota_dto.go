package dto

import "time"

type ActionQuotaResponse struct {
	Action            string `json:"action"`
	Limit             int    `json:"limit"`
	Used              int    `json:"used"`
	Remaining         int    `json:"remaining"`
	Unlimited         bool   `json:"unlimited"`
	TooFastRetryAfter *int64 `json:"too_fast_retry_after,omitempty"`
}

type QuotaSnapshotResponse struct {
	Tier    string                `json:"tier"`
	ResetAt time.Time             `json:"reset_at"`
	Actions []ActionQuotaResponse `json:"actions"`
}

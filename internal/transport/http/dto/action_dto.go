package dto

import "time"

type ActionRequest struct {
	TargetID int64 `json:"target_id,omitempty"`
}

type ActionResponse struct {
	OK           bool      `json:"ok"`
	Granted      bool      `json:"granted"`
	Duplicate    bool      `json:"duplicate,omitempty"`
	MatchCreated bool      `json:"match_created,omitempty"`
	MatchID      *int64    `json:"match_id,omitempty"`
	Remaining    int       `json:"remaining"`
	Unlimited    bool      `json:"unlimited"`
	ResetAt      time.Time `json:"reset_at"`
}

package model

import "time"

// MatchRecord is keyed by the canonical (low, high) user pair; at most one
// record ever exists per unordered pair.
type MatchRecord struct {
	ID         int64     `json:"id"`
	LowUserID  int64     `json:"low_user_id"`
	HighUserID int64     `json:"high_user_id"`
	CreatedAt  time.Time `json:"created_at"`
}

package model

import "time"

type LikeEvent struct {
	FromUserID  int64     `json:"from_user_id"`
	ToUserID    int64     `json:"to_user_id"`
	IsSuperLike bool      `json:"is_super_like"`
	CreatedAt   time.Time `json:"created_at"`
}

package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andreysobol/amora/internal/domain/model"
)

type likeKey struct {
	from int64
	to   int64
}

type LikeStore struct {
	mu    sync.Mutex
	likes map[likeKey]model.LikeEvent
	now   func() time.Time
}

func NewLikeStore() *LikeStore {
	return &LikeStore{
		likes: make(map[likeKey]model.LikeEvent),
		now:   time.Now,
	}
}

func (s *LikeStore) Record(_ context.Context, fromUserID, toUserID int64, isSuperLike bool) (bool, error) {
	if fromUserID <= 0 || toUserID <= 0 || fromUserID == toUserID {
		return false, fmt.Errorf("invalid like payload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := likeKey{fromUserID, toUserID}
	if _, ok := s.likes[key]; ok {
		return false, nil
	}
	s.likes[key] = model.LikeEvent{
		FromUserID:  fromUserID,
		ToUserID:    toUserID,
		IsSuperLike: isSuperLike,
		CreatedAt:   s.now().UTC(),
	}
	return true, nil
}

func (s *LikeStore) Exists(_ context.Context, fromUserID, toUserID int64) (bool, error) {
	if fromUserID <= 0 || toUserID <= 0 {
		return false, fmt.Errorf("invalid like lookup payload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.likes[likeKey{fromUserID, toUserID}]
	return ok, nil
}

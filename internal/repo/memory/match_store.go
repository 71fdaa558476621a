package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andreysobol/amora/internal/domain/model"
	"github.com/andreysobol/amora/internal/domain/rules"
)

type pairKey struct {
	low  int64
	high int64
}

type MatchStore struct {
	mu      sync.Mutex
	matches map[pairKey]model.MatchRecord
	nextID  int64
	now     func() time.Time
}

func NewMatchStore() *MatchStore {
	return &MatchStore{
		matches: make(map[pairKey]model.MatchRecord),
		nextID:  1,
		now:     time.Now,
	}
}

func (s *MatchStore) GetByPair(_ context.Context, userA, userB int64) (model.MatchRecord, bool, error) {
	if userA <= 0 || userB <= 0 {
		return model.MatchRecord{}, false, fmt.Errorf("invalid match lookup payload")
	}

	low, high := rules.CanonicalPair(userA, userB)

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.matches[pairKey{low, high}]
	return rec, ok, nil
}

// CreateIfAbsent is the insert-if-absent primitive: the store mutex plays the
// role of the unique constraint, so exactly one of two racing callers creates
// the record.
func (s *MatchStore) CreateIfAbsent(_ context.Context, userA, userB int64) (model.MatchRecord, bool, error) {
	if userA <= 0 || userB <= 0 || userA == userB {
		return model.MatchRecord{}, false, fmt.Errorf("invalid match payload")
	}

	low, high := rules.CanonicalPair(userA, userB)

	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{low, high}
	if rec, ok := s.matches[key]; ok {
		return rec, false, nil
	}

	rec := model.MatchRecord{
		ID:         s.nextID,
		LowUserID:  low,
		HighUserID: high,
		CreatedAt:  s.now().UTC(),
	}
	s.nextID++
	s.matches[key] = rec
	return rec, true, nil
}

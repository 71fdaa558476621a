// Package memory provides mutex-guarded in-process implementations of the
// engine's stores. They carry the same atomicity guarantees as the postgres
// repos and back single-process deployments and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
)

type usageKey struct {
	userID int64
	action string
	dayKey string
}

type UsageStore struct {
	mu   sync.Mutex
	used map[usageKey]int
}

func NewUsageStore() *UsageStore {
	return &UsageStore{used: make(map[usageKey]int)}
}

func (s *UsageStore) GetUsed(_ context.Context, userID int64, action, dayKey string) (int, error) {
	if userID <= 0 || action == "" || dayKey == "" {
		return 0, fmt.Errorf("invalid usage lookup payload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used[usageKey{userID, action, dayKey}], nil
}

// IncrementIfUnderLimit serializes conflicting increments behind the store
// mutex, so the counter never passes the limit even under concurrent callers.
func (s *UsageStore) IncrementIfUnderLimit(_ context.Context, userID int64, action, dayKey, _ string, limit int) (int, bool, error) {
	if userID <= 0 || action == "" || dayKey == "" || limit < 0 {
		return 0, false, fmt.Errorf("invalid usage consume payload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := usageKey{userID, action, dayKey}
	current := s.used[key]
	if current >= limit {
		return current, false, nil
	}
	current++
	s.used[key] = current
	return current, true, nil
}

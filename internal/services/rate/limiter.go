// Package rate bounds action bursts for users whose daily quota is
// unlimited, so "unlimited" never means "unbounded per second".
package rate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/andreysobol/amora/internal/domain/enums"
)

const (
	minuteWindow = time.Minute
	tenSecWindow = 10 * time.Second
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

type Limiter struct {
	store     WindowStore
	perMinute int
	per10Sec  int
}

func NewLimiter(store WindowStore, perMinute, per10Sec int) *Limiter {
	if perMinute < 0 {
		perMinute = 0
	}
	if per10Sec < 0 {
		per10Sec = 0
	}

	return &Limiter{
		store:     store,
		perMinute: perMinute,
		per10Sec:  per10Sec,
	}
}

// Allow consumes one slot in each configured window. A zero retry-after with
// allowed=true means the action may proceed.
func (l *Limiter) Allow(ctx context.Context, userID int64, action enums.ActionType) (int64, bool, error) {
	if userID <= 0 || !action.Valid() {
		return 0, false, fmt.Errorf("invalid burst limiter payload")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("burst limiter store is nil")
	}

	retryAfterSec := int64(0)

	if l.perMinute > 0 {
		count, ttl, err := l.store.IncrementWindow(ctx, minuteKey(userID, action), minuteWindow)
		if err != nil {
			return 0, false, err
		}
		if count > int64(l.perMinute) {
			retryAfterSec = maxInt64(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if l.per10Sec > 0 {
		count, ttl, err := l.store.IncrementWindow(ctx, tenSecKey(userID, action), tenSecWindow)
		if err != nil {
			return 0, false, err
		}
		if count > int64(l.per10Sec) {
			retryAfterSec = maxInt64(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if retryAfterSec > 0 {
		return retryAfterSec, false, nil
	}

	return 0, true, nil
}

// RetryAfter reports the current wait without consuming a slot.
func (l *Limiter) RetryAfter(ctx context.Context, userID int64, action enums.ActionType) (int64, error) {
	if userID <= 0 || !action.Valid() {
		return 0, fmt.Errorf("invalid burst limiter payload")
	}
	if l.store == nil {
		return 0, fmt.Errorf("burst limiter store is nil")
	}

	retryAfterSec := int64(0)

	if l.perMinute > 0 {
		count, ttl, err := l.store.WindowState(ctx, minuteKey(userID, action))
		if err != nil {
			return 0, err
		}
		if count >= int64(l.perMinute) {
			retryAfterSec = maxInt64(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if l.per10Sec > 0 {
		count, ttl, err := l.store.WindowState(ctx, tenSecKey(userID, action))
		if err != nil {
			return 0, err
		}
		if count >= int64(l.per10Sec) {
			retryAfterSec = maxInt64(retryAfterSec, ceilSeconds(ttl))
		}
	}

	return retryAfterSec, nil
}

func minuteKey(userID int64, action enums.ActionType) string {
	return "rate:" + string(action) + ":min:" + strconv.FormatInt(userID, 10)
}

func tenSecKey(userID int64, action enums.ActionType) string {
	return "rate:" + string(action) + ":10s:" + strconv.FormatInt(userID, 10)
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

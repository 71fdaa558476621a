package quota

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andreysobol/amora/internal/domain/enums"
	"github.com/andreysobol/amora/internal/domain/rules"
	"github.com/andreysobol/amora/internal/services/notify"
	"github.com/andreysobol/amora/internal/services/tiers"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrDependenciesNil = errors.New("quota dependencies are not configured")
)

// Store is the durable counter backend. IncrementIfUnderLimit must be atomic
// per (user, action, day) key: under concurrent callers exactly as many are
// granted as keep the counter at or under the limit.
type Store interface {
	GetUsed(ctx context.Context, userID int64, action, dayKey string) (int, error)
	IncrementIfUnderLimit(ctx context.Context, userID int64, action, dayKey, timezone string, limit int) (int, bool, error)
}

type AllowanceSource interface {
	Resolve(ctx context.Context, userID int64, action enums.ActionType) (tiers.Allowance, error)
	CurrentTier(ctx context.Context, userID int64) (enums.Tier, error)
	AllowanceFor(tier enums.Tier, action enums.ActionType) tiers.Allowance
}

type RateView interface {
	RetryAfter(ctx context.Context, userID int64, action enums.ActionType) (int64, error)
}

type Config struct {
	DefaultTimezone string
}

// Decision is the outcome of one consume call. Granted=false with a nil
// error means the daily limit is reached, which is terminal and distinct
// from infrastructure failures (those surface as errors and deny).
type Decision struct {
	Granted   bool
	Remaining int
	Unlimited bool
	Tier      enums.Tier
	ResetAt   time.Time
}

type ActionQuota struct {
	Action            enums.ActionType `json:"action"`
	Limit             int              `json:"limit"`
	Used              int              `json:"used"`
	Remaining         int              `json:"remaining"`
	Unlimited         bool             `json:"unlimited"`
	TooFastRetryAfter *int64           `json:"too_fast_retry_after,omitempty"`
}

type Snapshot struct {
	Tier    enums.Tier
	ResetAt time.Time
	Actions []ActionQuota
}

type Service struct {
	store      Store
	allowances AllowanceSource
	rateView   RateView
	dispatcher notify.Dispatcher
	cfg        Config
	now        func() time.Time
}

func NewService(store Store, allowances AllowanceSource, cfg Config) *Service {
	if strings.TrimSpace(cfg.DefaultTimezone) == "" {
		cfg.DefaultTimezone = "UTC"
	}

	return &Service{
		store:      store,
		allowances: allowances,
		cfg:        cfg,
		now:        time.Now,
	}
}

// AttachRateView adds the burst limiter state to snapshots for unlimited
// tiers.
func (s *Service) AttachRateView(rateView RateView) {
	s.rateView = rateView
}

func (s *Service) AttachDispatcher(dispatcher notify.Dispatcher) {
	s.dispatcher = dispatcher
}

// Consume spends one unit of the user's daily budget for the action. The
// allowance is resolved fresh, the day bucket comes from the caller's
// timezone, and the increment is delegated to the store's atomic primitive.
// Unlimited allowances short-circuit without touching the store.
func (s *Service) Consume(ctx context.Context, userID int64, action enums.ActionType, timezone string) (Decision, error) {
	if userID <= 0 || !action.Valid() {
		return Decision{}, ErrValidation
	}
	if s.store == nil || s.allowances == nil {
		return Decision{}, ErrDependenciesNil
	}

	now := s.now().UTC()
	loc, tzName := rules.ResolveLocation(timezone, s.cfg.DefaultTimezone)
	dayKey := rules.DayKey(now, loc)
	resetAt := rules.NextResetAt(now, loc)

	allowance, err := s.allowances.Resolve(ctx, userID, action)
	if err != nil {
		return Decision{}, err
	}

	if allowance.Unlimited {
		return Decision{
			Granted:   true,
			Remaining: rules.Unlimited,
			Unlimited: true,
			Tier:      allowance.Tier,
			ResetAt:   resetAt,
		}, nil
	}

	decision := Decision{
		Tier:    allowance.Tier,
		ResetAt: resetAt,
	}
	if allowance.Limit == 0 {
		return decision, nil
	}

	used, granted, err := s.store.IncrementIfUnderLimit(ctx, userID, string(action), dayKey, tzName, allowance.Limit)
	if err != nil {
		return Decision{}, fmt.Errorf("consume daily quota: %w", err)
	}

	decision.Granted = granted
	decision.Remaining = allowance.Limit - used
	if decision.Remaining < 0 {
		decision.Remaining = 0
	}

	if granted && decision.Remaining == 0 && s.dispatcher != nil {
		s.dispatcher.Dispatch(ctx, notify.NewQuotaExhausted(userID, action, now))
	}

	return decision, nil
}

// Snapshot is the read-only remaining view per action, for the quota UI.
func (s *Service) Snapshot(ctx context.Context, userID int64, timezone string) (Snapshot, error) {
	if userID <= 0 {
		return Snapshot{}, ErrValidation
	}
	if s.store == nil || s.allowances == nil {
		return Snapshot{}, ErrDependenciesNil
	}

	now := s.now().UTC()
	loc, _ := rules.ResolveLocation(timezone, s.cfg.DefaultTimezone)
	dayKey := rules.DayKey(now, loc)

	tier, err := s.allowances.CurrentTier(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}

	snapshot := Snapshot{
		Tier:    tier,
		ResetAt: rules.NextResetAt(now, loc),
		Actions: make([]ActionQuota, 0, len(enums.AllActionTypes())),
	}

	for _, action := range enums.AllActionTypes() {
		allowance := s.allowances.AllowanceFor(tier, action)

		entry := ActionQuota{
			Action:    action,
			Unlimited: allowance.Unlimited,
		}
		if allowance.Unlimited {
			entry.Limit = rules.Unlimited
			entry.Remaining = rules.Unlimited
			if s.rateView != nil {
				retryAfter, err := s.rateView.RetryAfter(ctx, userID, action)
				if err != nil {
					return Snapshot{}, fmt.Errorf("read burst limiter state: %w", err)
				}
				if retryAfter > 0 {
					v := retryAfter
					entry.TooFastRetryAfter = &v
				}
			}
		} else {
			used, err := s.store.GetUsed(ctx, userID, string(action), dayKey)
			if err != nil {
				return Snapshot{}, fmt.Errorf("read daily quota: %w", err)
			}
			entry.Limit = allowance.Limit
			entry.Used = used
			entry.Remaining = allowance.Limit - used
			if entry.Remaining < 0 {
				entry.Remaining = 0
			}
		}

		snapshot.Actions = append(snapshot.Actions, entry)
	}

	return snapshot, nil
}

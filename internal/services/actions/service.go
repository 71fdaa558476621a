package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/andreysobol/amora/internal/domain/enums"
	"github.com/andreysobol/amora/internal/services/matching"
	"github.com/andreysobol/amora/internal/services/quota"
)

const ReasonQuotaExceeded = "quota_exceeded"

var (
	ErrValidation        = errors.New("validation error")
	ErrUnsupportedAction = errors.New("unsupported action")
	ErrDependenciesNil   = errors.New("action dependencies are not configured")
)

type TooFastError struct {
	RetryAfterSec int64
}

func (e TooFastError) Error() string {
	return "too fast"
}

func (e TooFastError) RetryAfter() int64 {
	if e.RetryAfterSec <= 0 {
		return 1
	}
	return e.RetryAfterSec
}

func IsTooFast(err error) (*TooFastError, bool) {
	var tf TooFastError
	if errors.As(err, &tf) {
		return &tf, true
	}
	return nil, false
}

type QuotaManager interface {
	Consume(ctx context.Context, userID int64, action enums.ActionType, timezone string) (quota.Decision, error)
}

type Matcher interface {
	RecordLike(ctx context.Context, likerID, likeeID int64, isSuperLike bool) (bool, error)
	CheckAndCreateMatch(ctx context.Context, userA, userB int64) (matching.Result, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, userID int64, action enums.ActionType) (int64, bool, error)
}

// IdempotencyStore replays stored outcomes for retried client keys. Best
// effort: a store outage degrades to the ledger-level idempotence, it never
// blocks the action itself.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

type Dependencies struct {
	Quota       QuotaManager
	Matcher     Matcher
	RateLimiter RateLimiter
	Idempotency IdempotencyStore
	Logger      *zap.Logger
}

type Config struct {
	IdempotencyTTL time.Duration
}

// Outcome is the single result an API caller sees for one user action.
// Denials for quota are outcomes, not errors; only infrastructure failures
// surface as errors.
type Outcome struct {
	Granted   bool             `json:"granted"`
	Reason    string           `json:"reason,omitempty"`
	Action    enums.ActionType `json:"action"`
	Remaining int              `json:"remaining"`
	Unlimited bool             `json:"unlimited"`
	ResetAt   time.Time        `json:"reset_at"`
	Duplicate bool             `json:"duplicate,omitempty"`
	Matched   bool             `json:"matched,omitempty"`
	MatchID   int64            `json:"match_id,omitempty"`
	Replayed  bool             `json:"-"`
}

type Service struct {
	quota       QuotaManager
	matcher     Matcher
	rateLimiter RateLimiter
	idempotency IdempotencyStore
	log         *zap.Logger
	cfg         Config
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 24 * time.Hour
	}

	return &Service{
		quota:       deps.Quota,
		matcher:     deps.Matcher,
		rateLimiter: deps.RateLimiter,
		idempotency: deps.Idempotency,
		log:         deps.Logger,
		cfg:         cfg,
	}
}

// PerformAction sequences quota consumption, like recording and match
// detection for one user action. Targeted actions (like, super_like) need a
// target; rewind and boost only spend quota.
func (s *Service) PerformAction(ctx context.Context, userID int64, action enums.ActionType, targetID int64, timezone, idemKey string) (Outcome, error) {
	if userID <= 0 {
		return Outcome{}, ErrValidation
	}
	if !action.Valid() {
		return Outcome{}, ErrUnsupportedAction
	}
	if action.Targeted() && (targetID <= 0 || targetID == userID) {
		return Outcome{}, ErrValidation
	}
	if s.quota == nil || (action.Targeted() && s.matcher == nil) {
		return Outcome{}, ErrDependenciesNil
	}

	if replayed, ok := s.replay(ctx, userID, idemKey); ok {
		return replayed, nil
	}

	decision, err := s.quota.Consume(ctx, userID, action, timezone)
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{
		Granted:   decision.Granted,
		Action:    action,
		Remaining: decision.Remaining,
		Unlimited: decision.Unlimited,
		ResetAt:   decision.ResetAt,
	}
	if !decision.Granted {
		outcome.Reason = ReasonQuotaExceeded
		s.remember(ctx, userID, idemKey, outcome)
		return outcome, nil
	}

	if decision.Unlimited && s.rateLimiter != nil {
		retryAfter, allowed, err := s.rateLimiter.Allow(ctx, userID, action)
		if err != nil {
			return Outcome{}, fmt.Errorf("apply burst limiter: %w", err)
		}
		if !allowed {
			return Outcome{}, TooFastError{RetryAfterSec: retryAfter}
		}
	}

	if !action.Targeted() {
		s.remember(ctx, userID, idemKey, outcome)
		return outcome, nil
	}

	created, err := s.matcher.RecordLike(ctx, userID, targetID, action == enums.ActionSuperLike)
	if err != nil {
		return Outcome{}, err
	}
	if !created {
		// Duplicate submission: terminal success, quota already spent
		// (callers dedup with idempotency keys before this point).
		outcome.Duplicate = true
		s.remember(ctx, userID, idemKey, outcome)
		return outcome, nil
	}

	result, err := s.matcher.CheckAndCreateMatch(ctx, userID, targetID)
	if err != nil {
		return Outcome{}, err
	}
	outcome.Matched = result.Matched
	outcome.MatchID = result.MatchID

	s.remember(ctx, userID, idemKey, outcome)
	return outcome, nil
}

func (s *Service) replay(ctx context.Context, userID int64, idemKey string) (Outcome, bool) {
	if idemKey == "" || s.idempotency == nil {
		return Outcome{}, false
	}

	payload, ok, err := s.idempotency.Get(ctx, scopedKey(userID, idemKey))
	if err != nil {
		if s.log != nil {
			s.log.Warn("idempotency lookup failed", zap.Error(err))
		}
		return Outcome{}, false
	}
	if !ok {
		return Outcome{}, false
	}

	var outcome Outcome
	if err := json.Unmarshal(payload, &outcome); err != nil {
		if s.log != nil {
			s.log.Warn("idempotency entry is corrupt", zap.Error(err))
		}
		return Outcome{}, false
	}

	outcome.Replayed = true
	return outcome, true
}

func (s *Service) remember(ctx context.Context, userID int64, idemKey string, outcome Outcome) {
	if idemKey == "" || s.idempotency == nil {
		return
	}

	payload, err := json.Marshal(outcome)
	if err != nil {
		if s.log != nil {
			s.log.Warn("marshal idempotency entry failed", zap.Error(err))
		}
		return
	}
	if err := s.idempotency.Put(ctx, scopedKey(userID, idemKey), payload, s.cfg.IdempotencyTTL); err != nil {
		if s.log != nil {
			s.log.Warn("store idempotency entry failed", zap.Error(err))
		}
	}
}

func scopedKey(userID int64, idemKey string) string {
	return strconv.FormatInt(userID, 10) + ":" + idemKey
}

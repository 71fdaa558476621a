package tiers

import (
	"context"
	"errors"
	"fmt"

	"github.com/andreysobol/amora/internal/domain/enums"
	"github.com/andreysobol/amora/internal/domain/rules"
)

var (
	ErrValidation = errors.New("validation error")

	// ErrTierLookupUnavailable means the subscription backend could not be
	// reached. Callers must treat it as deny, never as unlimited.
	ErrTierLookupUnavailable = errors.New("tier lookup unavailable")
)

type SubscriptionStore interface {
	GetCurrentTier(ctx context.Context, userID int64) (string, error)
}

type Config struct {
	DefaultTier enums.Tier
}

// Allowance is the resolved daily budget for one (user, action) decision.
// It is a snapshot: resolved fresh per decision, never cached.
type Allowance struct {
	Tier      enums.Tier
	Limit     int
	Unlimited bool
}

type Service struct {
	store      SubscriptionStore
	allowances rules.Allowances
	cfg        Config
}

func NewService(store SubscriptionStore, allowances rules.Allowances, cfg Config) *Service {
	if cfg.DefaultTier == "" {
		cfg.DefaultTier = enums.TierFree
	}
	if allowances == nil {
		allowances = rules.DefaultAllowances()
	}

	return &Service{
		store:      store,
		allowances: allowances,
		cfg:        cfg,
	}
}

// CurrentTier resolves the user's tier from the subscription backend. Users
// without an active subscription, and rows with tier names this engine does
// not know, resolve to the default tier.
func (s *Service) CurrentTier(ctx context.Context, userID int64) (enums.Tier, error) {
	if userID <= 0 {
		return "", ErrValidation
	}
	if s.store == nil {
		return "", ErrTierLookupUnavailable
	}

	raw, err := s.store.GetCurrentTier(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTierLookupUnavailable, err)
	}
	if raw == "" {
		return s.cfg.DefaultTier, nil
	}

	tier, ok := enums.ParseTier(raw)
	if !ok {
		return s.cfg.DefaultTier, nil
	}
	return tier, nil
}

func (s *Service) AllowanceFor(tier enums.Tier, action enums.ActionType) Allowance {
	limit, unlimited := s.allowances.Limit(tier, action)
	return Allowance{
		Tier:      tier,
		Limit:     limit,
		Unlimited: unlimited,
	}
}

func (s *Service) Resolve(ctx context.Context, userID int64, action enums.ActionType) (Allowance, error) {
	if !action.Valid() {
		return Allowance{}, ErrValidation
	}

	tier, err := s.CurrentTier(ctx, userID)
	if err != nil {
		return Allowance{}, err
	}

	return s.AllowanceFor(tier, action), nil
}

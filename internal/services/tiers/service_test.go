package tiers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/andreysobol/amora/internal/domain/enums"
	"github.com/andreysobol/amora/internal/domain/rules"
)

type subscriptionStub struct {
	tier string
	err  error
}

func (s subscriptionStub) GetCurrentTier(context.Context, int64) (string, error) {
	return s.tier, s.err
}

func TestCurrentTierResolvesActiveSubscription(t *testing.T) {
	svc := NewService(subscriptionStub{tier: "premium"}, nil, Config{})

	tier, err := svc.CurrentTier(context.Background(), 1)
	if err != nil {
		t.Fatalf("current tier: %v", err)
	}
	if tier != enums.TierPremium {
		t.Fatalf("tier: got %s, want premium", tier)
	}
}

func TestCurrentTierDefaultsWithoutSubscription(t *testing.T) {
	svc := NewService(subscriptionStub{}, nil, Config{})

	tier, err := svc.CurrentTier(context.Background(), 1)
	if err != nil {
		t.Fatalf("current tier: %v", err)
	}
	if tier != enums.TierFree {
		t.Fatalf("tier: got %s, want free", tier)
	}
}

func TestCurrentTierDefaultsOnUnknownTierName(t *testing.T) {
	svc := NewService(subscriptionStub{tier: "platinum"}, nil, Config{})

	tier, err := svc.CurrentTier(context.Background(), 1)
	if err != nil {
		t.Fatalf("current tier: %v", err)
	}
	if tier != enums.TierFree {
		t.Fatalf("unknown tier name should fall back to free, got %s", tier)
	}
}

func TestCurrentTierFailsClosedOnStoreError(t *testing.T) {
	svc := NewService(subscriptionStub{err: fmt.Errorf("connection refused")}, nil, Config{})

	_, err := svc.CurrentTier(context.Background(), 1)
	if !errors.Is(err, ErrTierLookupUnavailable) {
		t.Fatalf("expected ErrTierLookupUnavailable, got %v", err)
	}
}

func TestResolveReturnsAllowanceForTier(t *testing.T) {
	svc := NewService(subscriptionStub{tier: "gold"}, rules.DefaultAllowances(), Config{})

	allowance, err := svc.Resolve(context.Background(), 1, enums.ActionLike)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !allowance.Unlimited {
		t.Fatalf("gold likes should be unlimited: %+v", allowance)
	}
	if allowance.Tier != enums.TierGold {
		t.Fatalf("allowance tier: got %s", allowance.Tier)
	}

	allowance, err = svc.Resolve(context.Background(), 1, enums.ActionSuperLike)
	if err != nil {
		t.Fatalf("resolve super like: %v", err)
	}
	if allowance.Unlimited || allowance.Limit != 20 {
		t.Fatalf("gold super like allowance: %+v", allowance)
	}
}

func TestResolveRejectsInvalidAction(t *testing.T) {
	svc := NewService(subscriptionStub{}, nil, Config{})

	if _, err := svc.Resolve(context.Background(), 1, enums.ActionType("wave")); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

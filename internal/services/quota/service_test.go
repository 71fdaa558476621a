package quota

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/andreysobol/amora/internal/domain/enums"
	"github.com/andreysobol/amora/internal/domain/rules"
	"github.com/andreysobol/amora/internal/repo/memory"
	"github.com/andreysobol/amora/internal/services/notify"
	"github.com/andreysobol/amora/internal/services/tiers"
)

type allowanceStub struct {
	tier       enums.Tier
	allowances rules.Allowances
	err        error
}

func (s allowanceStub) Resolve(_ context.Context, _ int64, action enums.ActionType) (tiers.Allowance, error) {
	if s.err != nil {
		return tiers.Allowance{}, s.err
	}
	return s.AllowanceFor(s.tier, action), nil
}

func (s allowanceStub) CurrentTier(context.Context, int64) (enums.Tier, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.tier, nil
}

func (s allowanceStub) AllowanceFor(tier enums.Tier, action enums.ActionType) tiers.Allowance {
	limit, unlimited := s.allowances.Limit(tier, action)
	return tiers.Allowance{Tier: tier, Limit: limit, Unlimited: unlimited}
}

type failingStore struct{}

func (failingStore) GetUsed(context.Context, int64, string, string) (int, error) {
	return 0, fmt.Errorf("connection refused")
}

func (failingStore) IncrementIfUnderLimit(context.Context, int64, string, string, string, int) (int, bool, error) {
	return 0, false, fmt.Errorf("connection refused")
}

type dispatcherStub struct {
	mu     sync.Mutex
	events []notify.Event
}

func (d *dispatcherStub) Dispatch(_ context.Context, event notify.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func freeAllowances() allowanceStub {
	return allowanceStub{tier: enums.TierFree, allowances: rules.DefaultAllowances()}
}

func TestConsumeGrantsUntilLimitThenDenies(t *testing.T) {
	svc := NewService(memory.NewUsageStore(), allowanceStub{
		tier: enums.TierFree,
		allowances: rules.Allowances{
			enums.TierFree: {enums.ActionSuperLike: 1},
		},
	}, Config{})

	ctx := context.Background()

	decision, err := svc.Consume(ctx, 1, enums.ActionSuperLike, "")
	if err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if !decision.Granted || decision.Remaining != 0 {
		t.Fatalf("first consume: granted=%v remaining=%d", decision.Granted, decision.Remaining)
	}

	decision, err = svc.Consume(ctx, 1, enums.ActionSuperLike, "")
	if err != nil {
		t.Fatalf("second consume: %v", err)
	}
	if decision.Granted {
		t.Fatalf("second consume should be denied")
	}
	if decision.Remaining != 0 {
		t.Fatalf("denied decision remaining: %d", decision.Remaining)
	}
	if decision.ResetAt.IsZero() {
		t.Fatalf("denied decision should still carry reset time")
	}
}

func TestConsumeConcurrentCallersNeverOvershoot(t *testing.T) {
	const limit = 50
	const callers = 51

	svc := NewService(memory.NewUsageStore(), allowanceStub{
		tier: enums.TierFree,
		allowances: rules.Allowances{
			enums.TierFree: {enums.ActionLike: limit},
		},
	}, Config{})

	ctx := context.Background()

	var wg sync.WaitGroup
	granted := make(chan bool, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decision, err := svc.Consume(ctx, 7, enums.ActionLike, "")
			if err != nil {
				t.Errorf("concurrent consume: %v", err)
				return
			}
			granted <- decision.Granted
		}()
	}
	wg.Wait()
	close(granted)

	grantedCount := 0
	for ok := range granted {
		if ok {
			grantedCount++
		}
	}
	if grantedCount != limit {
		t.Fatalf("granted %d of %d concurrent calls, want exactly %d", grantedCount, callers, limit)
	}
}

func TestConsumeUnlimitedSkipsStore(t *testing.T) {
	svc := NewService(failingStore{}, allowanceStub{
		tier:       enums.TierPremium,
		allowances: rules.DefaultAllowances(),
	}, Config{})

	decision, err := svc.Consume(context.Background(), 1, enums.ActionLike, "")
	if err != nil {
		t.Fatalf("unlimited consume: %v", err)
	}
	if !decision.Granted || !decision.Unlimited {
		t.Fatalf("unlimited consume: granted=%v unlimited=%v", decision.Granted, decision.Unlimited)
	}
	if decision.Remaining != rules.Unlimited {
		t.Fatalf("unlimited remaining: got %d", decision.Remaining)
	}
}

func TestConsumeZeroLimitDeniesWithoutStore(t *testing.T) {
	svc := NewService(failingStore{}, freeAllowances(), Config{})

	decision, err := svc.Consume(context.Background(), 1, enums.ActionBoost, "")
	if err != nil {
		t.Fatalf("zero limit consume: %v", err)
	}
	if decision.Granted {
		t.Fatalf("boost on free tier should be denied")
	}
}

func TestConsumeFailsClosedOnStoreError(t *testing.T) {
	svc := NewService(failingStore{}, freeAllowances(), Config{})

	if _, err := svc.Consume(context.Background(), 1, enums.ActionLike, ""); err == nil {
		t.Fatalf("expected error when counter backend is down")
	}
}

func TestConsumeFailsClosedOnTierLookupError(t *testing.T) {
	svc := NewService(memory.NewUsageStore(), allowanceStub{err: tiers.ErrTierLookupUnavailable}, Config{})

	_, err := svc.Consume(context.Background(), 1, enums.ActionLike, "")
	if !errors.Is(err, tiers.ErrTierLookupUnavailable) {
		t.Fatalf("expected tier lookup error to propagate, got %v", err)
	}
}

func TestConsumeResetsAtLocalMidnight(t *testing.T) {
	svc := NewService(memory.NewUsageStore(), allowanceStub{
		tier: enums.TierFree,
		allowances: rules.Allowances{
			enums.TierFree: {enums.ActionSuperLike: 1},
		},
	}, Config{})

	current := time.Date(2026, 5, 1, 23, 59, 0, 0, time.UTC)
	svc.now = func() time.Time { return current }

	ctx := context.Background()

	if decision, err := svc.Consume(ctx, 1, enums.ActionSuperLike, "UTC"); err != nil || !decision.Granted {
		t.Fatalf("consume before midnight: granted=%v err=%v", decision.Granted, err)
	}
	if decision, err := svc.Consume(ctx, 1, enums.ActionSuperLike, "UTC"); err != nil || decision.Granted {
		t.Fatalf("budget should be spent: granted=%v err=%v", decision.Granted, err)
	}

	// Two minutes later it is a new day and a fresh budget.
	current = time.Date(2026, 5, 2, 0, 1, 0, 0, time.UTC)

	decision, err := svc.Consume(ctx, 1, enums.ActionSuperLike, "UTC")
	if err != nil {
		t.Fatalf("consume after midnight: %v", err)
	}
	if !decision.Granted {
		t.Fatalf("new day should reset the budget")
	}
}

func TestConsumeDispatchesExhaustedEventOnce(t *testing.T) {
	dispatcher := &dispatcherStub{}
	svc := NewService(memory.NewUsageStore(), allowanceStub{
		tier: enums.TierFree,
		allowances: rules.Allowances{
			enums.TierFree: {enums.ActionSuperLike: 1},
		},
	}, Config{})
	svc.AttachDispatcher(dispatcher)

	ctx := context.Background()

	if _, err := svc.Consume(ctx, 1, enums.ActionSuperLike, ""); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if _, err := svc.Consume(ctx, 1, enums.ActionSuperLike, ""); err != nil {
		t.Fatalf("second consume: %v", err)
	}

	if len(dispatcher.events) != 1 {
		t.Fatalf("expected one exhausted event, got %d", len(dispatcher.events))
	}
	if dispatcher.events[0].Type != notify.EventQuotaExhausted {
		t.Fatalf("unexpected event type: %s", dispatcher.events[0].Type)
	}
	if dispatcher.events[0].UserID != 1 {
		t.Fatalf("unexpected event user: %d", dispatcher.events[0].UserID)
	}
}

func TestSnapshotReportsPerActionState(t *testing.T) {
	store := memory.NewUsageStore()
	svc := NewService(store, freeAllowances(), Config{})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := svc.Consume(ctx, 1, enums.ActionLike, ""); err != nil {
			t.Fatalf("consume #%d: %v", i+1, err)
		}
	}

	snapshot, err := svc.Snapshot(ctx, 1, "")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snapshot.Tier != enums.TierFree {
		t.Fatalf("snapshot tier: %s", snapshot.Tier)
	}
	if len(snapshot.Actions) != len(enums.AllActionTypes()) {
		t.Fatalf("snapshot covers %d actions, want %d", len(snapshot.Actions), len(enums.AllActionTypes()))
	}

	byAction := make(map[enums.ActionType]ActionQuota, len(snapshot.Actions))
	for _, entry := range snapshot.Actions {
		byAction[entry.Action] = entry
	}

	likes := byAction[enums.ActionLike]
	if likes.Used != 2 || likes.Remaining != rules.FreeLikesPerDay-2 {
		t.Fatalf("likes entry: used=%d remaining=%d", likes.Used, likes.Remaining)
	}
	boosts := byAction[enums.ActionBoost]
	if boosts.Limit != 0 || boosts.Remaining != 0 || boosts.Unlimited {
		t.Fatalf("boosts entry: %+v", boosts)
	}
}

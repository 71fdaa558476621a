package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andreysobol/amora/internal/domain/model"
	"github.com/andreysobol/amora/internal/services/notify"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrDependenciesNil = errors.New("matching dependencies are not configured")
)

// LikeStore is the append-only, idempotent like ledger.
type LikeStore interface {
	Record(ctx context.Context, fromUserID, toUserID int64, isSuperLike bool) (bool, error)
	Exists(ctx context.Context, fromUserID, toUserID int64) (bool, error)
}

// MatchStore must provide atomic create-if-absent on the canonical pair key.
type MatchStore interface {
	GetByPair(ctx context.Context, userA, userB int64) (model.MatchRecord, bool, error)
	CreateIfAbsent(ctx context.Context, userA, userB int64) (model.MatchRecord, bool, error)
}

type Dependencies struct {
	Likes      LikeStore
	Matches    MatchStore
	Dispatcher notify.Dispatcher
}

type Service struct {
	likes      LikeStore
	matches    MatchStore
	dispatcher notify.Dispatcher
	now        func() time.Time
}

// Result of a reciprocity check. AlreadyExisted covers both the idempotent
// replay and the losing side of a creation race; both are successes.
type Result struct {
	Matched        bool
	MatchID        int64
	AlreadyExisted bool
}

func NewService(deps Dependencies) *Service {
	return &Service{
		likes:      deps.Likes,
		matches:    deps.Matches,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// RecordLike appends the ordered like event. Returns created=false when the
// pair is already in the ledger.
func (s *Service) RecordLike(ctx context.Context, likerID, likeeID int64, isSuperLike bool) (bool, error) {
	if likerID <= 0 || likeeID <= 0 || likerID == likeeID {
		return false, ErrValidation
	}
	if s.likes == nil {
		return false, ErrDependenciesNil
	}

	created, err := s.likes.Record(ctx, likerID, likeeID, isSuperLike)
	if err != nil {
		return false, fmt.Errorf("record like event: %w", err)
	}
	return created, nil
}

// CheckAndCreateMatch creates at most one match per unordered pair. When the
// reciprocal like exists, the insert-if-absent on the canonical key decides
// the winner between racing callers; the loser observes the winner's record
// and reports it as already existing. Only the winner emits the
// match-created event, so downstream fan-out happens exactly once.
func (s *Service) CheckAndCreateMatch(ctx context.Context, userA, userB int64) (Result, error) {
	if userA <= 0 || userB <= 0 || userA == userB {
		return Result{}, ErrValidation
	}
	if s.likes == nil || s.matches == nil {
		return Result{}, ErrDependenciesNil
	}

	if rec, ok, err := s.matches.GetByPair(ctx, userA, userB); err != nil {
		return Result{}, fmt.Errorf("lookup existing match: %w", err)
	} else if ok {
		return Result{Matched: true, MatchID: rec.ID, AlreadyExisted: true}, nil
	}

	reciprocal, err := s.likes.Exists(ctx, userB, userA)
	if err != nil {
		return Result{}, fmt.Errorf("lookup reciprocal like: %w", err)
	}
	if !reciprocal {
		return Result{}, nil
	}

	rec, created, err := s.matches.CreateIfAbsent(ctx, userA, userB)
	if err != nil {
		return Result{}, fmt.Errorf("create match: %w", err)
	}

	if created && s.dispatcher != nil {
		s.dispatcher.Dispatch(ctx, notify.NewMatchCreated(rec.ID, userA, userB, s.now().UTC()))
	}

	return Result{
		Matched:        true,
		MatchID:        rec.ID,
		AlreadyExisted: !created,
	}, nil
}

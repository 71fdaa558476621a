package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andreysobol/amora/internal/domain/model"
	"github.com/andreysobol/amora/internal/domain/rules"
)

// MatchRepo owns the matches table. Rows are keyed by the canonical
// (low, high) user pair with a unique constraint, which makes creation a
// race with exactly one winner.
type MatchRepo struct {
	pool *pgxpool.Pool
}

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

func (r *MatchRepo) GetByPair(ctx context.Context, userA, userB int64) (model.MatchRecord, bool, error) {
	if userA <= 0 || userB <= 0 {
		return model.MatchRecord{}, false, fmt.Errorf("invalid match lookup payload")
	}
	if r.pool == nil {
		return model.MatchRecord{}, false, fmt.Errorf("postgres pool is nil")
	}

	low, high := rules.CanonicalPair(userA, userB)

	var rec model.MatchRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, low_user_id, high_user_id, created_at
FROM matches
WHERE low_user_id = $1 AND high_user_id = $2
LIMIT 1
`, low, high).Scan(&rec.ID, &rec.LowUserID, &rec.HighUserID, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.MatchRecord{}, false, nil
		}
		return model.MatchRecord{}, false, fmt.Errorf("lookup match: %w", err)
	}

	return rec, true, nil
}

// CreateIfAbsent inserts the match for the canonical pair. When a concurrent
// caller already inserted it, the existing row is returned with created=false
// instead of an error.
func (r *MatchRepo) CreateIfAbsent(ctx context.Context, userA, userB int64) (model.MatchRecord, bool, error) {
	if userA <= 0 || userB <= 0 || userA == userB {
		return model.MatchRecord{}, false, fmt.Errorf("invalid match payload")
	}
	if r.pool == nil {
		return model.MatchRecord{}, false, fmt.Errorf("postgres pool is nil")
	}

	low, high := rules.CanonicalPair(userA, userB)

	var rec model.MatchRecord
	created := false
	if err := WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(txCtx, `
INSERT INTO matches (
	low_user_id,
	high_user_id,
	created_at
) VALUES ($1, $2, NOW())
ON CONFLICT (low_user_id, high_user_id) DO NOTHING
RETURNING id, low_user_id, high_user_id, created_at
`, low, high).Scan(&rec.ID, &rec.LowUserID, &rec.HighUserID, &rec.CreatedAt)
		if err == nil {
			created = true
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("create match: %w", err)
		}

		// Lost the insert race: read the winner's row.
		err = tx.QueryRow(txCtx, `
SELECT id, low_user_id, high_user_id, created_at
FROM matches
WHERE low_user_id = $1 AND high_user_id = $2
LIMIT 1
`, low, high).Scan(&rec.ID, &rec.LowUserID, &rec.HighUserID, &rec.CreatedAt)
		if err != nil {
			return fmt.Errorf("read existing match: %w", err)
		}
		return nil
	}); err != nil {
		return model.MatchRecord{}, false, err
	}

	return rec, created, nil
}

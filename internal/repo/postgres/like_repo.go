package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LikeRepo is the append-only like ledger. Rows are keyed by the ordered
// (from, to) pair and are immutable once written.
type LikeRepo struct {
	pool *pgxpool.Pool
}

func NewLikeRepo(pool *pgxpool.Pool) *LikeRepo {
	return &LikeRepo{pool: pool}
}

// Record inserts the ordered like event if it does not exist yet. Returns
// false without error when the pair was already recorded, so client retries
// never produce duplicates.
func (r *LikeRepo) Record(ctx context.Context, fromUserID, toUserID int64, isSuperLike bool) (bool, error) {
	if fromUserID <= 0 || toUserID <= 0 || fromUserID == toUserID {
		return false, fmt.Errorf("invalid like payload")
	}
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
INSERT INTO likes (
	from_user_id,
	to_user_id,
	is_super_like,
	created_at
) VALUES ($1, $2, $3, NOW())
ON CONFLICT (from_user_id, to_user_id) DO NOTHING
`, fromUserID, toUserID, isSuperLike)
	if err != nil {
		return false, fmt.Errorf("record like: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *LikeRepo) Exists(ctx context.Context, fromUserID, toUserID int64) (bool, error) {
	if fromUserID <= 0 || toUserID <= 0 {
		return false, fmt.Errorf("invalid like lookup payload")
	}
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var one int
	err := r.pool.QueryRow(ctx, `
SELECT 1
FROM likes
WHERE from_user_id = $1 AND to_user_id = $2
LIMIT 1
`, fromUserID, toUserID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup like: %w", err)
	}

	return true, nil
}

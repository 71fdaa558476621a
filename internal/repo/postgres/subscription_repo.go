package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriptionRepo reads the current subscription tier. The table is owned by
// the billing system; this subsystem never writes to it.
type SubscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *SubscriptionRepo {
	return &SubscriptionRepo{pool: pool}
}

// GetCurrentTier returns the active tier name, or "" when the user has no
// active subscription row.
func (r *SubscriptionRepo) GetCurrentTier(ctx context.Context, userID int64) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return "", fmt.Errorf("postgres pool is nil")
	}

	var tier string
	err := r.pool.QueryRow(ctx, `
SELECT tier
FROM subscriptions
WHERE
	user_id = $1
	AND (expires_at IS NULL OR expires_at > NOW())
ORDER BY started_at DESC, id DESC
LIMIT 1
`, userID).Scan(&tier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get current tier: %w", err)
	}

	return tier, nil
}

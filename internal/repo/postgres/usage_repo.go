package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UsageRepo owns the usage_counters table: one row per (user, action, day),
// incremented only through the conditional upsert below. A missing row for
// the current day means zero usage, so daily reset needs no job.
type UsageRepo struct {
	pool *pgxpool.Pool
}

func NewUsageRepo(pool *pgxpool.Pool) *UsageRepo {
	return &UsageRepo{pool: pool}
}

func (r *UsageRepo) GetUsed(ctx context.Context, userID int64, action, dayKey string) (int, error) {
	if userID <= 0 || strings.TrimSpace(action) == "" || strings.TrimSpace(dayKey) == "" {
		return 0, fmt.Errorf("invalid usage lookup payload")
	}
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var used int
	err := r.pool.QueryRow(ctx, `
SELECT used
FROM usage_counters
WHERE user_id = $1 AND action = $2 AND day_key = $3::date
LIMIT 1
`, userID, action, dayKey).Scan(&used)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get usage counter: %w", err)
	}

	return used, nil
}

// IncrementIfUnderLimit is the atomic consume primitive: a single conditional
// upsert, so under concurrent callers the counter never passes the limit.
// Returns the counter value after the call and whether this call was granted.
func (r *UsageRepo) IncrementIfUnderLimit(ctx context.Context, userID int64, action, dayKey, timezone string, limit int) (int, bool, error) {
	if userID <= 0 || strings.TrimSpace(action) == "" || strings.TrimSpace(dayKey) == "" || limit < 0 {
		return 0, false, fmt.Errorf("invalid usage consume payload")
	}
	if r.pool == nil {
		return 0, false, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(timezone) == "" {
		timezone = "UTC"
	}
	if limit == 0 {
		return 0, false, nil
	}

	var used int
	err := r.pool.QueryRow(ctx, `
INSERT INTO usage_counters (
	user_id,
	action,
	day_key,
	tz_name,
	used,
	updated_at
) VALUES ($1, $2, $3::date, $4, 1, NOW())
ON CONFLICT (user_id, action, day_key) DO UPDATE SET
	used = usage_counters.used + 1,
	tz_name = EXCLUDED.tz_name,
	updated_at = NOW()
WHERE usage_counters.used < $5
RETURNING used
`, userID, action, dayKey, timezone, limit).Scan(&used)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			current, readErr := r.GetUsed(ctx, userID, action, dayKey)
			if readErr != nil {
				return 0, false, readErr
			}
			return current, false, nil
		}
		return 0, false, fmt.Errorf("increment usage counter: %w", err)
	}

	return used, true, nil
}

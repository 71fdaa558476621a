package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// IdempotencyRepo stores serialized action outcomes under client-supplied
// keys, so a network retry of the same user action replays the original
// outcome instead of consuming quota again. Entries expire after a TTL; this
// is a best-effort dedup layer, the ledger and match creation stay idempotent
// on their own.
type IdempotencyRepo struct {
	client *goredis.Client
}

func NewIdempotencyRepo(client *goredis.Client) *IdempotencyRepo {
	return &IdempotencyRepo{client: client}
}

func (r *IdempotencyRepo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if r.client == nil {
		return nil, false, fmt.Errorf("redis client is nil")
	}
	if key == "" {
		return nil, false, fmt.Errorf("idempotency key is required")
	}

	payload, err := r.client.Get(ctx, storageKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get idempotency entry: %w", err)
	}

	return payload, true, nil
}

// Put keeps the first outcome written for the key; later writes for the same
// key are ignored.
func (r *IdempotencyRepo) Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if key == "" || len(payload) == 0 || ttl <= 0 {
		return fmt.Errorf("invalid idempotency entry payload")
	}

	if err := r.client.SetNX(ctx, storageKey(key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("store idempotency entry: %w", err)
	}

	return nil
}

func storageKey(key string) string {
	return "idem:action:" + key
}

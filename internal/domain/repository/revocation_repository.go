package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revocationKeyPrefix = "blacklist:"

// RevocationLedger records tokens invalidated before their natural expiry.
// A token present here must be rejected regardless of cryptographic
// validity.
type RevocationLedger interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type redisRevocationLedger struct {
	rdb *redis.Client
}

func NewRedisRevocationLedger(rdb *redis.Client) RevocationLedger {
	return &redisRevocationLedger{rdb: rdb}
}

// Revoke stores the token verbatim with a TTL bounded by its original
// expiry, so entries purge themselves once the token would have died
// anyway. Re-revocation simply refreshes the entry.
func (r *redisRevocationLedger) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Already expired; keep the entry briefly so the gate still
		// answers consistently while clocks settle.
		ttl = time.Minute
	}
	if err := r.rdb.Set(ctx, revocationKeyPrefix+token, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redisRevocationLedger.Revoke: %w", err)
	}
	return nil
}

func (r *redisRevocationLedger) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.rdb.Exists(ctx, revocationKeyPrefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("redisRevocationLedger.IsRevoked: %w", err)
	}
	return n > 0, nil
}

package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRepo keeps revoked jtis in Redis so every replica sees the same
// revocation state. Keys expire when the token they name would have expired
// anyway, so the set cannot grow without bound.
type TokenRepo struct {
	client *redis.Client
}

func NewTokenRepo(client *redis.Client) *TokenRepo {
	return &TokenRepo{client: client}
}

func (r *TokenRepo) Revoke(ctx context.Context, jti string, exp time.Time) error {
	return r.client.Set(ctx, "revoked:"+jti, 1, safeTTL(exp)).Err()
}

func (r *TokenRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, "revoked:"+jti).Result()
	if err != nil {
		// fail closed: an unreachable store treats the token as revoked
		return true, err
	}
	return n > 0, nil
}

// expiredFallbackTTL covers tokens already past their expiry when revoked:
// the key only needs to outlive clock skew between replicas.
const expiredFallbackTTL = 10 * time.Second

func safeTTL(exp time.Time) time.Duration {
	ttl := time.Until(exp)
	if ttl <= 0 {
		return expiredFallbackTTL
	}
	return ttl
}

package repo

import (
	"context"
	"time"
)

// TokenRepo tracks revoked token ids. Revoke is idempotent; entries may be
// evicted once the token they name has expired on its own.
type TokenRepo interface {
	Revoke(ctx context.Context, jti string, exp time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

package port

import (
	"context"
	"time"
)

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ClearIdempotency frees a key whose request did not complete
	ClearIdempotency(ctx context.Context, key string) error

	// AcquirePassLock takes the single-writer allocation lock, returns false if held elsewhere
	AcquirePassLock(ctx context.Context, token string, ttl time.Duration) (bool, error)

	// ReleasePassLock drops the lock only if token still owns it
	ReleasePassLock(ctx context.Context, token string) error
}

package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	passLockKey          = "allocation:pass-lock"
	idempotencyKeyPrefix = "idempotency:"
	idempotencyKeyTTL    = 24 * time.Hour
)

var releasePassLockScript = redis.NewScript(`
local key = KEYS[1]
local token = ARGV[1]

if redis.call('GET', key) == token then
	return redis.call('DEL', key)
end

return 0
`)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, idempotencyKeyPrefix+key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) ClearIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, idempotencyKeyPrefix+key).Err()
}

func (r *RedisAdapter) AcquirePassLock(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, passLockKey, token, ttl).Result()
}

func (r *RedisAdapter) ReleasePassLock(ctx context.Context, token string) error {
	return releasePassLockScript.Run(ctx, r.client, []string{passLockKey}, token).Err()
}

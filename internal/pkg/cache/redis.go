package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-layout-service/internal/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

type RedisClient struct {
	Client *redis.Client
}

func NewRedisClient(cfg *Config) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisClient{Client: client}, nil
}

func (r *RedisClient) Close() error {
	return r.Client.Close()
}

// Only the holder of the token may release a lock.
var releaseLockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

func (r *RedisClient) AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return r.Client.SetNX(ctx, key, value, ttl).Result()
}

func (r *RedisClient) ReleaseLock(ctx context.Context, key, value string) error {
	return releaseLockScript.Run(ctx, r.Client, []string{key}, value).Err()
}

type lockClient interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

// ScopeLocker serializes writers on a key across service instances.
type ScopeLocker struct {
	client  lockClient
	logger  logger.ZapLogger
	prefix  string
	ttl     time.Duration
	retries int
	backoff time.Duration
}

func NewScopeLocker(client *RedisClient, prefix string, ttl time.Duration, retries int, log logger.ZapLogger) *ScopeLocker {
	if retries < 1 {
		retries = 1
	}
	return &ScopeLocker{
		client:  client,
		logger:  log,
		prefix:  prefix,
		ttl:     ttl,
		retries: retries,
		backoff: 50 * time.Millisecond,
	}
}

var ErrLockBusy = errors.New("lock busy")

// Lock blocks until the key is held or retries run out. The returned func
// releases the lock.
func (l *ScopeLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := l.prefix + key
	token := uuid.NewString()

	for i := 0; i < l.retries; i++ {
		ok, err := l.client.AcquireLock(ctx, lockKey, token, l.ttl)
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", lockKey, err)
		}
		if ok {
			return func() {
				// release on a fresh context so a canceled request still frees the key
				rctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := l.client.ReleaseLock(rctx, lockKey, token); err != nil {
					// the key stays held until the TTL expires
					l.logger.Error("failed to release scope lock",
						zap.String("key", lockKey), zap.Duration("ttl", l.ttl), zap.Error(err))
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.backoff):
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrLockBusy, lockKey)
}

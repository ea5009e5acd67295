package lock

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker using Redis
type RedisLocker struct {
	client        *redis.Client
	ttl           time.Duration
	retryInterval time.Duration
}

// NewRedisLocker creates a new Redis locker from REDIS_HOST and REDIS_PORT
func NewRedisLocker() *RedisLocker {
	redisHost := os.Getenv("REDIS_HOST")
	if redisHost == "" {
		redisHost = "localhost"
	}
	redisPort := os.Getenv("REDIS_PORT")
	if redisPort == "" {
		redisPort = "6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", redisHost, redisPort),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	return NewRedisLockerWithClient(client)
}

// NewRedisLockerWithClient creates a new Redis locker with a custom client
func NewRedisLockerWithClient(client *redis.Client) *RedisLocker {
	return &RedisLocker{
		client:        client,
		ttl:           defaultTTL,
		retryInterval: defaultRetryInterval,
	}
}

// Initialize checks that Redis is reachable
func (l *RedisLocker) Initialize() error {
	ctx := context.Background()
	_, err := l.client.Ping(ctx).Result()
	return err
}

// Acquire sets key with a unique token, retrying until it is free
func (l *RedisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("error acquiring lock %s: %w", key, err)
		}
		if ok {
			return func() error {
				return l.release(key, token)
			}, nil
		}
		if err := wait(ctx, l.retryInterval); err != nil {
			return nil, err
		}
	}
}

func (l *RedisLocker) release(key, token string) error {
	deleted, err := releaseScript.Run(context.Background(), l.client, []string{key}, token).Int()
	if err != nil {
		return fmt.Errorf("error releasing lock %s: %w", key, err)
	}
	if deleted == 0 {
		return ErrLockLost
	}
	return nil
}

// Close closes the Redis connection
func (l *RedisLocker) Close() error {
	return l.client.Close()
}

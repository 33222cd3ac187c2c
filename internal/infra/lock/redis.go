package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRedis ошибка обращения к Redis
var ErrRedis = errors.New("lock: redis error")

const keyPrefix = "salon-booking:lock:"

// releaseScript удаляет ключ, только если он все еще принадлежит владельцу
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// ReleaseFunc снимает захваченную блокировку
type ReleaseFunc func(ctx context.Context) error

// RedisClient подмножество *redis.Client, нужное для блокировок
type RedisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisLocker распределенная блокировка на SET NX PX.
// TTL ограничивает время жизни блокировки, если процесс упал, не сняв ее.
type RedisLocker struct {
	client RedisClient
	ttl    time.Duration
}

// NewRedisLocker создает блокировщик поверх клиента Redis
func NewRedisLocker(client RedisClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

// TryAcquire пытается захватить блокировку без ожидания.
// acquired=false без ошибки означает, что блокировку держит кто-то другой.
func (l *RedisLocker) TryAcquire(ctx context.Context, name string) (ReleaseFunc, bool, error) {
	key := keyPrefix + name
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("%w: TryAcquire - setnx %s: %w", ErrRedis, key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		if err := l.client.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: release %s: %w", ErrRedis, key, err)
		}
		return nil
	}

	return release, true, nil
}

// NewClient создает клиента Redis и проверяет соединение
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", ErrRedis, addr, err)
	}

	return client, nil
}

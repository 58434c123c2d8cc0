package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// pendingMarker лежит под ключом, пока первый запрос не завершился
const pendingMarker = "pending"

// IdempotencyStore хранит результаты оформления заказа по ключу идемпотентности
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewClient(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

func redisKey(key string) string {
	return fmt.Sprintf("idempotency:%s", key)
}

// Reserve занимает ключ. false - ключ уже занят другим запросом.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (bool, error) {
	return s.rdb.SetNX(ctx, redisKey(key), pendingMarker, s.ttl).Result()
}

// Result сохранённый результат; nil, если запрос ещё выполняется или ключа нет
func (s *IdempotencyStore) Result(ctx context.Context, key string) ([]byte, error) {
	val, err := s.rdb.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if string(val) == pendingMarker {
		return nil, nil
	}
	return val, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, key string, result []byte) error {
	return s.rdb.Set(ctx, redisKey(key), result, s.ttl).Err()
}

// Release освобождает ключ после неудачной попытки
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, redisKey(key)).Err()
}

package database

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-pos-backoffice/internal/config"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var ErrLockNotObtained = errors.New("resource is busy, try again")

// Cache wraps the optional Redis client. A nil *Cache is valid and turns
// every call into a no-op (reads miss, locks are granted).
type Cache struct {
	rdb    *redis.Client
	locker *redislock.Client
}

// ConnectRedis returns nil when REDIS_ADDRESS is not configured or the
// server cannot be reached.
func ConnectRedis(ctx context.Context, cfg *config.Config) *Cache {
	logger := config.GetLogger().WithFields(logrus.Fields{"module": "database", "addr": cfg.RedisAddress})
	if cfg.RedisAddress == "" {
		logger.Info("REDIS_ADDRESS not set; running without cache and distributed locks")
		return nil
	}

	for attempt := 1; attempt <= 3; attempt++ {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       0, // use default DB
		})
		err := rdb.Ping(ctx).Err()
		if err == nil {
			logger.WithField("attempt", attempt).Info("connected to redis")
			return NewCache(rdb)
		}
		_ = rdb.Close()
		sleep := time.Second * time.Duration(1<<attempt)
		logger.WithFields(logrus.Fields{"attempt": attempt, "retry_in": sleep.String()}).Warn("failed to connect redis: " + err.Error())
		time.Sleep(sleep)
	}
	logger.Warn("redis unreachable; running without cache and distributed locks")
	return nil
}

func NewCache(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb, locker: redislock.New(rdb)}
}

func (c *Cache) GetObject(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c == nil {
		return false, nil
	}
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) SetObject(ctx context.Context, key string, obj interface{}, exp time.Duration) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, exp).Err()
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c == nil {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Lock takes a short-lived distributed lock on key. The returned release
// func is always safe to call.
func (c *Cache) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if c == nil {
		return func() {}, nil
	}
	lock, err := c.locker.Obtain(ctx, key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 20),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return func() {}, ErrLockNotObtained
	}
	if err != nil {
		return func() {}, err
	}
	return func() {
		// Release with a fresh context so a cancelled request still frees the lock.
		_ = lock.Release(context.Background())
	}, nil
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

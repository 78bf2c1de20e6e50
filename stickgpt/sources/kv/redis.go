package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisStorage keeps entries as plain string keys under a prefix.
type RedisStorage struct {
	rdb    *goredis.Client
	prefix string
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisStorage connects and pings the server.
func NewRedisStorage(ctx context.Context, opts RedisOptions) (*RedisStorage, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStorageFromClient(rdb, opts.Prefix), nil
}

func NewRedisStorageFromClient(rdb *goredis.Client, prefix string) *RedisStorage {
	return &RedisStorage{rdb: rdb, prefix: prefix}
}

func (r *RedisStorage) Get(ctx context.Context, name string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, r.prefix+name).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisStorage) Set(ctx context.Context, name, value string) error {
	return r.rdb.Set(ctx, r.prefix+name, value, 0).Err()
}

func (r *RedisStorage) Remove(ctx context.Context, name string) error {
	return r.rdb.Del(ctx, r.prefix+name).Err()
}

func (r *RedisStorage) Close() error {
	return r.rdb.Close()
}

package rediskv

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hongminglow/finanzas-be/internal/storage"
)

var _ storage.KeyValueStore = (*KV)(nil)

// Config holds connection settings for the redis server.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Key is the redis hash that holds every pair.
	Key string
}

// KV stores pairs as fields of one redis hash.
type KV struct {
	redisdb *redis.Client
	key     string
}

// New builds a client; no connection is made until first use.
func New(cfg Config) *KV {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	return NewWithClient(redisdb, cfg.Key)
}

// NewWithClient wraps an existing client.
func NewWithClient(redisdb *redis.Client, key string) *KV {
	if key == "" {
		key = "finanzas:session"
	}
	return &KV{redisdb: redisdb, key: key}
}

// Ping checks redis connectivity.
func (k *KV) Ping(ctx context.Context) error {
	return k.redisdb.Ping(ctx).Err()
}

// Close closes the underlying client.
func (k *KV) Close() error {
	return k.redisdb.Close()
}

func (k *KV) Get(ctx context.Context, field string) (string, bool, error) {
	v, err := k.redisdb.HGet(ctx, k.key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (k *KV) PutAll(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	fields := make(map[string]any, len(values))
	for field, v := range values {
		fields[field] = v
	}
	_, err := k.redisdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k.key, fields)
		return nil
	})
	return err
}

func (k *KV) Clear(ctx context.Context) error {
	return k.redisdb.Del(ctx, k.key).Err()
}

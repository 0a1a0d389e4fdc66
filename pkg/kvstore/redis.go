package kvstore

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/angelmondragon/pricelist/pkg/errors"
	"github.com/angelmondragon/pricelist/pkg/redis"
)

type redisKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	MSet(ctx context.Context, pairs map[string]string) error
	Del(ctx context.Context, keys ...string) error
	Key(parts ...string) string
}

// Redis stores entries as plain string keys under the client namespace.
type Redis struct {
	client redisKV
}

func NewRedis(client redisKV) (*Redis, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "redis client required")
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.client.Key(key))
	if errors.Is(err, redis.ErrNil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read "+key)
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.client.Key(key), value, 0); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write "+key)
	}
	return nil
}

func (r *Redis) SetMany(ctx context.Context, entries map[string]string) error {
	pairs := make(map[string]string, len(entries))
	for k, v := range entries {
		pairs[r.client.Key(k)] = v
	}
	if err := r.client.MSet(ctx, pairs); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write batch")
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.client.Key(key)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete "+key)
	}
	return nil
}

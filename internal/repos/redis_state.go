package repos

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisState stores session state in Redis. Session keys carry a TTL so
// abandoned sessions expire on their own; order keys do not. Any write to a
// session renews the TTL of all its keys, so a session expires as a whole.
type RedisState struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
}

func NewRedisState(client *redis.Client, sessionTTL time.Duration) *RedisState {
	return &RedisState{client: client, ttl: sessionTTL}
}

func (r *RedisState) expiry(key string) time.Duration {
	if IsSessionKey(key) {
		return r.ttl
	}
	return 0
}

// touch renews the TTL of every key of the sessions written in a batch.
func (r *RedisState) touch(ctx context.Context, pipe redis.Pipeliner, written []string) {
	if r.ttl <= 0 {
		return
	}
	seen := map[string]bool{}
	for _, k := range written {
		sid, ok := SessionOf(k)
		if !ok || seen[sid] {
			continue
		}
		seen[sid] = true
		for _, kind := range SessionKinds {
			pipe.Expire(ctx, SessionKeyPrefix(sid)+kind, r.ttl)
		}
	}
}

func (r *RedisState) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (r *RedisState) Put(ctx context.Context, key string, value []byte) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, value, r.expiry(key))
		r.touch(ctx, pipe, []string{key})
		return nil
	})
	return err
}

func (r *RedisState) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		r.touch(ctx, pipe, keys)
		return nil
	})
	return err
}

// Commit wraps the writes in MULTI/EXEC.
func (r *RedisState) Commit(ctx context.Context, puts map[string][]byte, deletes []string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range puts {
			pipe.Set(ctx, k, v, r.expiry(k))
		}
		if len(deletes) > 0 {
			pipe.Del(ctx, deletes...)
		}
		written := make([]string, 0, len(puts)+len(deletes))
		for k := range puts {
			written = append(written, k)
		}
		r.touch(ctx, pipe, append(written, deletes...))
		return nil
	})
	return err
}

func (r *RedisState) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }

func (r *RedisState) Close() error { return r.client.Close() }

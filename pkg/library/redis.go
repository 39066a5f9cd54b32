package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/flowscript/pkg/cache"
)

const (
	redisEntryPrefix = "flowscript:library:"
	redisIndexKey    = "flowscript:library-index"
)

// RedisStore keeps entries as JSON strings and their names in a set.
// Entries do not expire.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to url and verifies the connection.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	client, err := cache.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client; Close closes it.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Save(ctx context.Context, e *Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	err = cache.RetryWithBackoff(ctx, func() error {
		_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, redisEntryPrefix+e.Name, data, 0)
			p.SAdd(ctx, redisIndexKey, e.Name)
			return nil
		})
		return cache.RedisError(err)
	})
	if err != nil {
		return fmt.Errorf("save entry: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, name string) (*Entry, error) {
	var data []byte
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		data, err = r.client.Get(ctx, redisEntryPrefix+name).Bytes()
		return cache.RedisError(err)
	})
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parse entry: %w", err)
	}
	return &e, nil
}

func (r *RedisStore) List(ctx context.Context) ([]Summary, error) {
	names, err := r.client.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	sort.Strings(names)

	out := make([]Summary, 0, len(names))
	for _, name := range names {
		e, err := r.Get(ctx, name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e.Summarize())
	}
	return out, nil
}

func (r *RedisStore) Delete(ctx context.Context, name string) error {
	var removed int64
	err := cache.RetryWithBackoff(ctx, func() error {
		var del *redis.IntCmd
		_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			del = p.Del(ctx, redisEntryPrefix+name)
			p.SRem(ctx, redisIndexKey, name)
			return nil
		})
		if err == nil {
			removed = del.Val()
		}
		return cache.RedisError(err)
	})
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if removed == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return nil
}

func (r *RedisStore) Close() error { return r.client.Close() }

var _ Store = (*RedisStore)(nil)

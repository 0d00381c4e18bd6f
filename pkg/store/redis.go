package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix      = "fieldgate:gen:"
	generationsSet = "fieldgate:generations"
)

// Redis is a Store backed by a Redis server.
//
// Entries live under "fieldgate:gen:<generation>:<key>". Each
// generation additionally tracks its member keys in a Redis set so
// DeleteGeneration can enumerate them, and all generation names are
// tracked in a global set for Generations.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed store.
func NewRedis(client *redis.Client) *Redis {
	if client == nil {
		panic("redis client cannot be nil")
	}
	return &Redis{client: client}
}

func redisEntryKey(generation string, key Key) string {
	return keyPrefix + generation + ":" + key.String()
}

func redisMembersKey(generation string) string {
	return keyPrefix + generation + ":members"
}

// Put stores an entry and records key membership for the generation.
func (r *Redis) Put(ctx context.Context, generation string, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, redisEntryKey(generation, key), data, 0)
	pipe.SAdd(ctx, redisMembersKey(generation), key.String())
	pipe.SAdd(ctx, generationsSet, generation)
	if _, err := pipe.Exec(ctx); err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("redis put: %w", err)
	}

	return nil
}

// Match looks up an entry. Returns ErrCacheMiss if the key has no
// entry in the generation.
func (r *Redis) Match(ctx context.Context, generation string, key Key) (*Entry, error) {
	data, err := r.client.Get(ctx, redisEntryKey(generation, key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("match").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("match").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	CacheHits.WithLabelValues("redis").Inc()
	return &entry, nil
}

// Generations returns the names of all generations holding entries.
func (r *Redis) Generations(ctx context.Context) ([]string, error) {
	names, err := r.client.SMembers(ctx, generationsSet).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	return names, nil
}

// DeleteGeneration removes every entry of the named generation.
func (r *Redis) DeleteGeneration(ctx context.Context, generation string) error {
	members, err := r.client.SMembers(ctx, redisMembersKey(generation)).Result()
	if err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis smembers: %w", err)
	}

	pipe := r.client.TxPipeline()
	for _, member := range members {
		pipe.Del(ctx, keyPrefix+generation+":"+member)
	}
	pipe.Del(ctx, redisMembersKey(generation))
	pipe.SRem(ctx, generationsSet, generation)
	if _, err := pipe.Exec(ctx); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis delete generation: %w", err)
	}

	GenerationsDeleted.Inc()
	return nil
}

// Close closes the underlying Redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}

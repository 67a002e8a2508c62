package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// RedisStore is a Redis implementation of Store.
//
// Each record is a JSON string under prefix+"run:"+id or prefix+"graph:"+id.
// Runs are also indexed in a sorted set scored by creation time, which
// ListRuns reads newest first. With a TTL set, run keys expire and ListRuns
// drops their index entries lazily.
type RedisStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithTTL sets the expiration for run records. Graph definitions never expire.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore connects to the Redis server at address.
func NewRedisStore(address, password string, db int, opts ...RedisOption) *RedisStore {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreFromClient(client, opts...)
}

// NewRedisStoreFromClient creates a RedisStore from an existing client.
func NewRedisStoreFromClient(client *backend.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: "stepgraph:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) runKey(id string) string   { return s.prefix + "run:" + id }
func (s *RedisStore) graphKey(id string) string { return s.prefix + "graph:" + id }
func (s *RedisStore) runIndexKey() string       { return s.prefix + "runs" }

// SaveRun stores rec and indexes it by creation time.
func (s *RedisStore) SaveRun(ctx context.Context, rec RunRecord) error {
	data, err := encode(rec)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Set(ctx, s.runKey(rec.ID), data, s.ttl)
		pipe.ZAdd(ctx, s.runIndexKey(), backend.Z{
			Score:  float64(rec.CreatedAt.UnixMicro()),
			Member: rec.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save run %s to redis: %w", rec.ID, err)
	}
	return nil
}

// GetRun returns the record for id.
func (s *RedisStore) GetRun(ctx context.Context, id string) (RunRecord, error) {
	val, err := s.client.Get(ctx, s.runKey(id)).Bytes()
	if errors.Is(err, backend.Nil) {
		return RunRecord{}, ErrNotFound
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("failed to get run %s from redis: %w", id, err)
	}
	return decode[RunRecord](val)
}

// ListRuns returns records newest first.
func (s *RedisStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	ids, err := s.client.ZRevRange(ctx, s.runIndexKey(), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read run index: %w", err)
	}
	if len(ids) == 0 {
		return []RunRecord{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.runKey(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load runs from redis: %w", err)
	}

	out := make([]RunRecord, 0, len(vals))
	var expired []any
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		rec, err := decode[RunRecord]([]byte(str))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	if len(expired) > 0 {
		if err := s.client.ZRem(ctx, s.runIndexKey(), expired...).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune run index: %w", err)
		}
	}
	return out, nil
}

// SaveGraph stores rec.
func (s *RedisStore) SaveGraph(ctx context.Context, rec GraphRecord) error {
	data, err := encode(rec)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.graphKey(rec.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save graph %s to redis: %w", rec.ID, err)
	}
	return nil
}

// GetGraph returns the definition for id.
func (s *RedisStore) GetGraph(ctx context.Context, id string) (GraphRecord, error) {
	val, err := s.client.Get(ctx, s.graphKey(id)).Bytes()
	if errors.Is(err, backend.Nil) {
		return GraphRecord{}, ErrNotFound
	}
	if err != nil {
		return GraphRecord{}, fmt.Errorf("failed to get graph %s from redis: %w", id, err)
	}
	return decode[GraphRecord](val)
}

// Ping verifies the server is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

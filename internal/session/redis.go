package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix  = "boilerbrain:session:"
	snapshotKeyPrefix = "boilerbrain:snapshot:"
	defaultRedisTTL   = 24 * time.Hour
)

// RedisStore implements Store using Redis with optimistic locking.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store. Keys expire after ttl without
// reads or writes.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Create(ctx context.Context, data *Data) error {
	now := time.Now()
	data.CreatedAt = now
	data.UpdatedAt = now
	data.Version = 1

	val, err := json.Marshal(data)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, s.sessionKey(data.ID), val, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrExists
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Data, error) {
	key := s.sessionKey(id)
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var data Data
	if err := json.Unmarshal(val, &data); err != nil {
		return nil, err
	}

	// Refresh TTL on read; a failure here only shortens the session's life.
	_ = s.client.Expire(ctx, key, s.ttl).Err()

	return &data, nil
}

func (s *RedisStore) Update(ctx context.Context, data *Data) error {
	key := s.sessionKey(data.ID)

	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var stored Data
		if err := json.Unmarshal(val, &stored); err != nil {
			return err
		}
		if stored.Version != data.Version {
			return ErrVersionConflict
		}

		data.Version++
		data.UpdatedAt = time.Now()
		data.CreatedAt = stored.CreatedAt

		newVal, err := json.Marshal(data)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newVal, s.ttl)
			return nil
		})
		if errors.Is(err, redis.TxFailedErr) {
			return ErrVersionConflict
		}
		return err
	}, key)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.sessionKey(id), s.snapshotKey(id)).Err()
}

func (s *RedisStore) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}
	val, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.snapshotKey(snap.SessionID), val, s.ttl).Err()
}

func (s *RedisStore) LatestSnapshot(ctx context.Context, sessionID string) (*Snapshot, error) {
	val, err := s.client.Get(ctx, s.snapshotKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (s *RedisStore) snapshotKey(id string) string {
	return snapshotKeyPrefix + id
}

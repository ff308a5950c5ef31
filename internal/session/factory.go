package session

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ziadkadry99/boilerbrain/internal/db"
)

// StoreType represents the type of session store.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
	StoreTypeSQLite StoreType = "sqlite"
)

// Options configures NewStore.
type Options struct {
	SQLitePath     string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisTTL       time.Duration
	MemoryCapacity int
	MemoryTTL      time.Duration
	SweepSchedule  string
	Logger         *zap.Logger
}

// NewStore creates a Store of the given type.
func NewStore(storeType StoreType, opts Options) (Store, error) {
	switch storeType {
	case StoreTypeMemory, "":
		return NewSweepingMemoryStore(opts)

	case StoreTypeRedis:
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("%w: redis address is required", ErrInvalidConfig)
		}
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		return NewRedisStore(client, opts.RedisTTL), nil

	case StoreTypeSQLite:
		if opts.SQLitePath == "" {
			return nil, fmt.Errorf("%w: sqlite path is required", ErrInvalidConfig)
		}
		database, err := db.Open(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(database), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStoreType, storeType)
	}
}

// NewSweepingMemoryStore creates a MemoryStore from opts with its expiry
// sweep already scheduled.
func NewSweepingMemoryStore(opts Options) (*MemoryStore, error) {
	s := NewMemoryStore(
		WithCapacity(opts.MemoryCapacity),
		WithTTL(opts.MemoryTTL),
		WithMemoryLogger(opts.Logger),
	)
	if err := s.StartSweeper(opts.SweepSchedule); err != nil {
		return nil, fmt.Errorf("scheduling session sweep: %w", err)
	}
	return s, nil
}

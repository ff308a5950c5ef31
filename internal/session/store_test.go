package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/ziadkadry99/boilerbrain/internal/db"
	"github.com/ziadkadry99/boilerbrain/internal/diagnostic"
)

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	s := NewSQLiteStore(d)
	t.Cleanup(func() { s.Close() })
	return s
}

func newMemoryStore(t *testing.T) Store {
	t.Helper()
	s := NewMemoryStore()
	t.Cleanup(func() { s.Close() })
	return s
}

func conversation(text string) *diagnostic.Context {
	c := &diagnostic.Context{Facts: diagnostic.Facts{Manufacturer: "ideal"}}
	c.AppendTurn(diagnostic.SenderUser, text)
	return c
}

// testStoreContract exercises the behaviour every driver must share.
func testStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("get missing returns nil", func(t *testing.T) {
		s := newStore(t)
		got, err := s.Get(ctx, "nope")
		if err != nil || got != nil {
			t.Fatalf("Get(missing) = %v, %v; want nil, nil", got, err)
		}
	})

	t.Run("create then get", func(t *testing.T) {
		s := newStore(t)
		data := &Data{ID: "s1", Context: conversation("no hot water")}
		if err := s.Create(ctx, data); err != nil {
			t.Fatalf("Create() error: %v", err)
		}
		if data.Version != 1 {
			t.Errorf("Version = %d, want 1", data.Version)
		}

		got, err := s.Get(ctx, "s1")
		if err != nil || got == nil {
			t.Fatalf("Get() = %v, %v", got, err)
		}
		if len(got.Context.Turns) != 1 || got.Context.Turns[0].Text != "no hot water" {
			t.Errorf("unexpected turns: %+v", got.Context.Turns)
		}
		if got.Context.Facts.Manufacturer != "ideal" {
			t.Errorf("manufacturer = %q", got.Context.Facts.Manufacturer)
		}

		if err := s.Create(ctx, &Data{ID: "s1"}); !errors.Is(err, ErrExists) {
			t.Errorf("duplicate Create() = %v, want ErrExists", err)
		}
	})

	t.Run("update with optimistic locking", func(t *testing.T) {
		s := newStore(t)
		if err := s.Create(ctx, &Data{ID: "s1", Context: conversation("a")}); err != nil {
			t.Fatal(err)
		}

		got, _ := s.Get(ctx, "s1")
		got.Context.AppendTurn(diagnostic.SenderAssistant, "b")
		if err := s.Update(ctx, got); err != nil {
			t.Fatalf("Update() error: %v", err)
		}
		if got.Version != 2 {
			t.Errorf("Version = %d, want 2", got.Version)
		}

		stale := &Data{ID: "s1", Version: 1, Context: conversation("stale")}
		if err := s.Update(ctx, stale); !errors.Is(err, ErrVersionConflict) {
			t.Errorf("stale Update() = %v, want ErrVersionConflict", err)
		}
		if err := s.Update(ctx, &Data{ID: "missing", Version: 1}); !errors.Is(err, ErrNotFound) {
			t.Errorf("Update(missing) = %v, want ErrNotFound", err)
		}

		again, _ := s.Get(ctx, "s1")
		if len(again.Context.Turns) != 2 {
			t.Errorf("expected 2 turns after update, got %d", len(again.Context.Turns))
		}
	})

	t.Run("snapshots keep only the latest", func(t *testing.T) {
		s := newStore(t)
		if snap, err := s.LatestSnapshot(ctx, "s1"); err != nil || snap != nil {
			t.Fatalf("LatestSnapshot(none) = %v, %v", snap, err)
		}
		if err := s.SaveSnapshot(ctx, Snapshot{SessionID: "s1", Context: conversation("first")}); err != nil {
			t.Fatal(err)
		}
		if err := s.SaveSnapshot(ctx, Snapshot{SessionID: "s1", Context: conversation("second")}); err != nil {
			t.Fatal(err)
		}
		snap, err := s.LatestSnapshot(ctx, "s1")
		if err != nil || snap == nil {
			t.Fatalf("LatestSnapshot() = %v, %v", snap, err)
		}
		if snap.Context.Turns[0].Text != "second" {
			t.Errorf("snapshot text = %q, want second", snap.Context.Turns[0].Text)
		}
	})

	t.Run("delete removes session and snapshot", func(t *testing.T) {
		s := newStore(t)
		_ = s.Create(ctx, &Data{ID: "s1", Context: conversation("x")})
		_ = s.SaveSnapshot(ctx, Snapshot{SessionID: "s1", Context: conversation("x")})
		if err := s.Delete(ctx, "s1"); err != nil {
			t.Fatalf("Delete() error: %v", err)
		}
		if got, _ := s.Get(ctx, "s1"); got != nil {
			t.Error("session still present after delete")
		}
		if snap, _ := s.LatestSnapshot(ctx, "s1"); snap != nil {
			t.Error("snapshot still present after delete")
		}
	})
}

func TestSQLiteStore(t *testing.T) {
	testStoreContract(t, newSQLiteStore)
}

func TestMemoryStore(t *testing.T) {
	testStoreContract(t, newMemoryStore)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	c := conversation("original")
	_ = s.Create(ctx, &Data{ID: "s1", Context: c})

	c.AppendTurn(diagnostic.SenderUser, "mutated after create")
	got, _ := s.Get(ctx, "s1")
	got.Context.AppendTurn(diagnostic.SenderUser, "mutated after get")

	again, _ := s.Get(ctx, "s1")
	if len(again.Context.Turns) != 1 {
		t.Errorf("stored conversation was aliased: %d turns", len(again.Context.Turns))
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(WithTTL(time.Hour), WithClock(clock.Now))

	_ = s.Create(ctx, &Data{ID: "old", Context: conversation("a")})
	clock.Advance(40 * time.Minute)
	_ = s.Create(ctx, &Data{ID: "new", Context: conversation("b")})
	clock.Advance(30 * time.Minute)

	if got, _ := s.Get(ctx, "old"); got != nil {
		t.Error("expected old session to have expired")
	}
	if got, _ := s.Get(ctx, "new"); got == nil {
		t.Error("expected new session to survive")
	}

	clock.Advance(2 * time.Hour)
	if n := s.Sweep(); n != 1 {
		t.Errorf("Sweep() removed %d, want 1", n)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestMemoryStoreEvictsLeastRecentlyUpdated(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(WithCapacity(2), WithClock(clock.Now))

	_ = s.Create(ctx, &Data{ID: "a", Context: conversation("a")})
	clock.Advance(time.Second)
	_ = s.Create(ctx, &Data{ID: "b", Context: conversation("b")})
	clock.Advance(time.Second)

	a, _ := s.Get(ctx, "a")
	if err := s.Update(ctx, a); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Second)
	_ = s.Create(ctx, &Data{ID: "c", Context: conversation("c")})

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if got, _ := s.Get(ctx, "b"); got != nil {
		t.Error("expected b to be evicted")
	}
	if got, _ := s.Get(ctx, "a"); got == nil {
		t.Error("expected recently updated a to survive")
	}
}

func TestMemoryStoreSweeperStopsOnClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, err := NewSweepingMemoryStore(Options{SweepSchedule: "@every 1s"})
	if err != nil {
		t.Fatalf("NewSweepingMemoryStore() error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(context.Background(), "x"); !errors.Is(err, ErrClosed) {
		t.Errorf("Get after Close = %v, want ErrClosed", err)
	}
}

func TestNewStoreValidation(t *testing.T) {
	if _, err := NewStore(StoreTypeRedis, Options{}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("redis without address = %v, want ErrInvalidConfig", err)
	}
	if _, err := NewStore(StoreTypeSQLite, Options{}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("sqlite without path = %v, want ErrInvalidConfig", err)
	}
	if _, err := NewStore("mongo", Options{}); !errors.Is(err, ErrInvalidStoreType) {
		t.Errorf("unknown type = %v, want ErrInvalidStoreType", err)
	}

	s, err := NewStore(StoreTypeRedis, Options{RedisAddr: "localhost:6379"})
	if err != nil {
		t.Fatalf("NewStore(redis) error: %v", err)
	}
	if _, ok := s.(*RedisStore); !ok {
		t.Errorf("expected *RedisStore, got %T", s)
	}
	s.Close()
}

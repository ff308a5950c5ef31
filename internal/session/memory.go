package session

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ziadkadry99/boilerbrain/internal/logging"
)

const (
	defaultMemoryCapacity = 1000
	defaultMemoryTTL      = 2 * time.Hour
	defaultSweepSchedule  = "@every 1m"
)

type memoryEntry struct {
	data     *Data
	snapshot *Snapshot
	touched  time.Time
	elem     *list.Element
}

// MemoryStore is a bounded in-process Store. Entries untouched for longer
// than the TTL are expired, and when the capacity is reached the least
// recently updated session is evicted.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]*memoryEntry
	order    *list.List // front = most recently touched
	capacity int
	ttl      time.Duration
	now      func() time.Time
	closed   bool

	cron   *cron.Cron
	logger *zap.Logger
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithCapacity bounds the number of sessions held.
func WithCapacity(n int) MemoryOption {
	return func(s *MemoryStore) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithTTL sets how long an untouched session is kept.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// WithMemoryLogger sets the logger used by the expiry sweep.
func WithMemoryLogger(l *zap.Logger) MemoryOption {
	return func(s *MemoryStore) { s.logger = logging.OrNop(l) }
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries:  make(map[string]*memoryEntry),
		order:    list.New(),
		capacity: defaultMemoryCapacity,
		ttl:      defaultMemoryTTL,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSweeper schedules Sweep on a cron spec such as "@every 1m". Close
// stops it.
func (s *MemoryStore) StartSweeper(spec string) error {
	if spec == "" {
		spec = defaultSweepSchedule
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if n := s.Sweep(); n > 0 {
			s.logger.Debug("expired in-memory sessions", zap.Int("count", n))
		}
	}); err != nil {
		return err
	}

	s.mu.Lock()
	if s.cron != nil {
		s.cron.Stop()
	}
	s.cron = c
	s.mu.Unlock()

	c.Start()
	return nil
}

// Sweep removes expired sessions and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for e := s.order.Back(); e != nil; {
		prev := e.Prev()
		id := e.Value.(string)
		if s.entries[id].touched.After(cutoff) {
			break
		}
		s.removeLocked(id)
		removed++
		e = prev
	}
	return removed
}

// Len returns the number of sessions held.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) Create(ctx context.Context, data *Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if e, ok := s.entries[data.ID]; ok {
		if s.expiredLocked(e) {
			s.removeLocked(data.ID)
		} else if e.data != nil {
			return ErrExists
		}
	}

	now := s.now()
	data.CreatedAt = now
	data.UpdatedAt = now
	data.Version = 1

	e := s.entryLocked(data.ID)
	e.data = cloneData(data)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	e, ok := s.entries[id]
	if !ok || e.data == nil {
		return nil, nil
	}
	if s.expiredLocked(e) {
		s.removeLocked(id)
		return nil, nil
	}
	return cloneData(e.data), nil
}

func (s *MemoryStore) Update(ctx context.Context, data *Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	e, ok := s.entries[data.ID]
	if !ok || e.data == nil || s.expiredLocked(e) {
		return ErrNotFound
	}
	if e.data.Version != data.Version {
		return ErrVersionConflict
	}

	data.Version++
	data.UpdatedAt = s.now()
	data.CreatedAt = e.data.CreatedAt
	e.data = cloneData(data)
	s.touchLocked(e)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.removeLocked(id)
	return nil
}

func (s *MemoryStore) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = s.now()
	}
	snap.Context = snap.Context.Clone()
	e := s.entryLocked(snap.SessionID)
	e.snapshot = &snap
	return nil
}

func (s *MemoryStore) LatestSnapshot(ctx context.Context, sessionID string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	e, ok := s.entries[sessionID]
	if !ok || e.snapshot == nil {
		return nil, nil
	}
	if s.expiredLocked(e) {
		s.removeLocked(sessionID)
		return nil, nil
	}
	out := *e.snapshot
	out.Context = out.Context.Clone()
	return &out, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.closed = true
	s.entries = make(map[string]*memoryEntry)
	s.order.Init()
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	return nil
}

// entryLocked returns the entry for id, creating it (and evicting the least
// recently touched entry when full) if necessary. The entry is touched.
func (s *MemoryStore) entryLocked(id string) *memoryEntry {
	if e, ok := s.entries[id]; ok {
		s.touchLocked(e)
		return e
	}
	for len(s.entries) >= s.capacity {
		oldest := s.order.Back()
		if oldest == nil {
			break
		}
		s.removeLocked(oldest.Value.(string))
	}
	e := &memoryEntry{touched: s.now()}
	e.elem = s.order.PushFront(id)
	s.entries[id] = e
	return e
}

func (s *MemoryStore) touchLocked(e *memoryEntry) {
	e.touched = s.now()
	s.order.MoveToFront(e.elem)
}

func (s *MemoryStore) expiredLocked(e *memoryEntry) bool {
	return !e.touched.After(s.now().Add(-s.ttl))
}

func (s *MemoryStore) removeLocked(id string) {
	e, ok := s.entries[id]
	if !ok {
		return
	}
	s.order.Remove(e.elem)
	delete(s.entries, id)
}

func cloneData(d *Data) *Data {
	out := *d
	out.Context = d.Context.Clone()
	return &out
}

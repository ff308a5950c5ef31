// Package recovery protects conversation state: it snapshots sessions around
// external calls and hides storage failures from callers by degrading to an
// in-process store.
package recovery

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ziadkadry99/boilerbrain/internal/diagnostic"
	"github.com/ziadkadry99/boilerbrain/internal/logging"
	"github.com/ziadkadry99/boilerbrain/internal/session"
)

// Manager is the session recovery manager. All methods absorb storage
// errors; callers never see them.
type Manager struct {
	primary  session.Store
	fallback session.Store
	logger   *zap.Logger

	group    singleflight.Group
	degraded atomic.Int64
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = logging.OrNop(l) }
}

// New creates a Manager over primary, degrading to fallback when primary
// fails. fallback is normally a *session.MemoryStore; when nil a fresh
// MemoryStore is used.
func New(primary, fallback session.Store, opts ...Option) *Manager {
	if fallback == nil {
		fallback = session.NewMemoryStore()
	}
	m := &Manager{
		primary:  primary,
		fallback: fallback,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DegradedOperations returns how many storage operations fell back to the
// in-process store.
func (m *Manager) DegradedOperations() int64 {
	return m.degraded.Load()
}

// SessionState reports what GetSession learned about a session.
type SessionState int

const (
	// SessionMissing means every store answered and none knows the session.
	SessionMissing SessionState = iota
	// SessionFound means the conversation was loaded.
	SessionFound
	// SessionUnknown means the primary store could not be read and the
	// fallback holds no copy, so the session may still exist.
	SessionUnknown
)

func (s SessionState) String() string {
	switch s {
	case SessionFound:
		return "found"
	case SessionUnknown:
		return "unknown"
	}
	return "missing"
}

// CreateRecoveryPoint stores a snapshot of c for sessionID. Failures are
// logged and otherwise ignored. The write is detached from ctx
// cancellation.
func (m *Manager) CreateRecoveryPoint(ctx context.Context, sessionID string, c *diagnostic.Context) {
	ctx = context.WithoutCancel(ctx)
	snap := session.Snapshot{SessionID: sessionID, Context: c.Clone(), CreatedAt: time.Now().UTC()}

	err := m.primary.SaveSnapshot(ctx, snap)
	if err == nil {
		return
	}
	m.degrade("save snapshot", sessionID, err)
	if err := m.fallback.SaveSnapshot(ctx, snap); err != nil {
		m.logger.Error("recovery point lost", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// RecoverContext returns the latest snapshot for sessionID. Concurrent
// recoveries of the same session share one lookup, which is detached from
// the first caller's cancellation.
func (m *Manager) RecoverContext(ctx context.Context, sessionID string) (*diagnostic.Context, bool) {
	lookupCtx := context.WithoutCancel(ctx)
	v, _, _ := m.group.Do(sessionID, func() (any, error) {
		return m.latestSnapshot(lookupCtx, sessionID), nil
	})
	snap, _ := v.(*session.Snapshot)
	if snap == nil || snap.Context == nil {
		return nil, false
	}
	return snap.Context.Clone(), true
}

// latestSnapshot returns the newer of the primary and fallback snapshots.
// The fallback holds snapshots written while the primary was failing.
func (m *Manager) latestSnapshot(ctx context.Context, sessionID string) *session.Snapshot {
	primary, err := m.primary.LatestSnapshot(ctx, sessionID)
	if err != nil {
		m.degrade("load snapshot", sessionID, err)
		primary = nil
	}
	fallback, err := m.fallback.LatestSnapshot(ctx, sessionID)
	if err != nil {
		m.logger.Warn("fallback snapshot lookup failed", zap.String("session_id", sessionID), zap.Error(err))
		fallback = nil
	}
	switch {
	case primary == nil:
		return fallback
	case fallback == nil:
		return primary
	case fallback.CreatedAt.After(primary.CreatedAt):
		return fallback
	}
	return primary
}

// Bracket snapshots c, runs fn and snapshots c again, so a failure inside
// fn can be rolled back to the state before it.
func (m *Manager) Bracket(ctx context.Context, sessionID string, c *diagnostic.Context, fn func(ctx context.Context) error) error {
	m.CreateRecoveryPoint(ctx, sessionID, c)
	err := fn(ctx)
	m.CreateRecoveryPoint(ctx, sessionID, c)
	return err
}

// GetSession loads the conversation for sessionID. The state tells a
// session that does not exist apart from one that could not be read.
func (m *Manager) GetSession(ctx context.Context, sessionID string) (*diagnostic.Context, SessionState) {
	state := SessionMissing
	data, err := m.primary.Get(ctx, sessionID)
	if err != nil {
		m.degrade("get session", sessionID, err)
		state = SessionUnknown
		data = nil
	}
	if data == nil {
		data, err = m.fallback.Get(context.WithoutCancel(ctx), sessionID)
		if err != nil {
			m.logger.Warn("fallback session lookup failed", zap.String("session_id", sessionID), zap.Error(err))
			return nil, SessionUnknown
		}
	}
	if data == nil {
		return nil, state
	}
	if data.Context == nil {
		return &diagnostic.Context{}, SessionFound
	}
	return data.Context, SessionFound
}

// CreateSession stores a new conversation. It never overwrites: when the
// session already exists nothing is written and false is returned.
func (m *Manager) CreateSession(ctx context.Context, sessionID string, c *diagnostic.Context) bool {
	data := &session.Data{ID: sessionID, Context: c.Clone()}
	err := m.primary.Create(ctx, data)
	switch {
	case err == nil:
		return true
	case errors.Is(err, session.ErrExists):
		return false
	}
	m.degrade("create session", sessionID, err)

	err = m.fallback.Create(context.WithoutCancel(ctx), &session.Data{ID: sessionID, Context: c.Clone()})
	switch {
	case err == nil:
		return true
	case errors.Is(err, session.ErrExists):
		return false
	}
	m.logger.Error("session write lost", zap.String("session_id", sessionID), zap.Error(err))
	return true
}

// UpdateSession stores c as the session's conversation, creating the
// session if it does not exist.
func (m *Manager) UpdateSession(ctx context.Context, sessionID string, c *diagnostic.Context) {
	err := upsert(ctx, m.primary, sessionID, c)
	if err == nil {
		return
	}
	m.degrade("write session", sessionID, err)
	if err := upsert(context.WithoutCancel(ctx), m.fallback, sessionID, c); err != nil {
		m.logger.Error("session write lost", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// upsert replaces the stored conversation, creating the session when it
// is missing.
func upsert(ctx context.Context, store session.Store, sessionID string, c *diagnostic.Context) error {
	data, err := store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if data == nil {
		return store.Create(ctx, &session.Data{ID: sessionID, Context: c.Clone()})
	}
	data.Context = c.Clone()
	return store.Update(ctx, data)
}

// degrade records a fallback to the in-process store. Cancelled or expired
// contexts are the caller giving up, not the store failing, and are not
// counted.
func (m *Manager) degrade(op, sessionID string, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		m.logger.Debug("session store call abandoned",
			zap.String("op", op),
			zap.String("session_id", sessionID),
			zap.Error(err))
		return
	}
	m.degraded.Add(1)
	m.logger.Warn("session store unavailable, degrading to memory",
		zap.String("op", op),
		zap.String("session_id", sessionID),
		zap.Error(err))
}

// Package chat serves diagnostic conversations: it loads the session,
// records the engineer's message, runs the reliability cascade and saves
// the result, one request per session at a time.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ziadkadry99/boilerbrain/internal/assistant"
	"github.com/ziadkadry99/boilerbrain/internal/diagnostic"
	"github.com/ziadkadry99/boilerbrain/internal/logging"
	"github.com/ziadkadry99/boilerbrain/internal/recovery"
	"github.com/ziadkadry99/boilerbrain/internal/reliability"
)

// ErrEmptyMessage is returned for a blank message.
var ErrEmptyMessage = errors.New("message is empty")

// Reply is the answer to one message.
type Reply struct {
	SessionID string `json:"session_id"`
	reliability.Result
}

// Service handles chat messages.
type Service struct {
	orchestrator *reliability.Orchestrator
	recovery     *recovery.Manager
	primary      reliability.Processor
	fallback     reliability.Processor
	locks        *keyedMutex
	logger       *zap.Logger
}

// NewService creates a Service. primary and fallback are the enhanced and
// legacy processors.
func NewService(o *reliability.Orchestrator, m *recovery.Manager, primary, fallback reliability.Processor, logger *zap.Logger) *Service {
	return &Service{
		orchestrator: o,
		recovery:     m,
		primary:      primary,
		fallback:     fallback,
		locks:        newKeyedMutex(),
		logger:       logging.OrNop(logger),
	}
}

// Send answers message within sessionID, creating the session when it is
// new. An empty sessionID starts a fresh session.
func (s *Service) Send(ctx context.Context, sessionID, message string) (Reply, error) {
	if strings.TrimSpace(message) == "" {
		return Reply{}, ErrEmptyMessage
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	c, state := s.load(ctx, sessionID)
	base := len(c.Turns)
	c.AppendTurn(diagnostic.SenderUser, message)

	result := s.orchestrator.GuaranteeResponse(assistant.WithSessionID(ctx, sessionID), message, c, s.primary, s.fallback)

	// The answer is delivered even if the client has gone away, so the
	// history must be saved regardless of ctx.
	s.save(context.WithoutCancel(ctx), sessionID, c, state, c.Turns[base:])

	s.logger.Info("chat reply",
		zap.String("session_id", sessionID),
		zap.String("tier", string(result.SourceTier)),
		zap.Any("response_time_ms", result.Metadata[reliability.MetaResponseTimeMs]))
	return Reply{SessionID: sessionID, Result: result}, nil
}

// load returns the stored conversation. When the session cannot be found
// or read, the latest recovery snapshot is resumed before starting fresh.
func (s *Service) load(ctx context.Context, sessionID string) (*diagnostic.Context, recovery.SessionState) {
	c, state := s.recovery.GetSession(ctx, sessionID)
	if state == recovery.SessionFound {
		return c, state
	}
	if snap, ok := s.recovery.RecoverContext(ctx, sessionID); ok {
		s.logger.Info("session resumed from recovery snapshot",
			zap.String("session_id", sessionID),
			zap.Stringer("state", state),
			zap.Int("turns", len(snap.Turns)))
		return snap, state
	}
	return &diagnostic.Context{}, state
}

// save persists c. A session that was not found is created; if it turns
// out to exist after all, the turns added by this request are appended to
// the stored history instead of replacing it.
func (s *Service) save(ctx context.Context, sessionID string, c *diagnostic.Context, state recovery.SessionState, added []diagnostic.Turn) {
	if state == recovery.SessionFound {
		s.recovery.UpdateSession(ctx, sessionID, c)
		return
	}
	if s.recovery.CreateSession(ctx, sessionID, c) {
		return
	}

	stored, storedState := s.recovery.GetSession(ctx, sessionID)
	if storedState != recovery.SessionFound {
		s.recovery.UpdateSession(ctx, sessionID, c)
		return
	}
	s.logger.Warn("session appeared during request, merging turns",
		zap.String("session_id", sessionID),
		zap.Int("stored_turns", len(stored.Turns)),
		zap.Int("added_turns", len(added)))
	stored.Turns = append(stored.Turns, added...)
	stored.DetailMode = c.DetailMode
	s.recovery.UpdateSession(ctx, sessionID, stored)
}

// Session returns the stored conversation for sessionID.
func (s *Service) Session(ctx context.Context, sessionID string) (*diagnostic.Context, bool) {
	c, state := s.recovery.GetSession(ctx, sessionID)
	return c, state == recovery.SessionFound
}

// Metrics returns the orchestrator's reliability metrics.
func (s *Service) Metrics() *reliability.Metrics {
	return s.orchestrator.Metrics()
}

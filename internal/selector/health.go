package selector

import (
	"sync"
	"sync/atomic"
	"time"
)

// Models with more than demoteErrorRate failures over at least
// demoteMinAttempts calls are tried last.
const (
	demoteErrorRate   = 0.5
	demoteMinAttempts = 5
)

type modelHealth struct {
	success atomic.Int64
	errors  atomic.Int64

	mu        sync.Mutex
	lastError string
	lastUsed  time.Time
}

// HealthSnapshot is a point-in-time copy of one model's health.
type HealthSnapshot struct {
	SuccessCount int64     `json:"success_count"`
	ErrorCount   int64     `json:"error_count"`
	ErrorRate    float64   `json:"error_rate"`
	LastError    string    `json:"last_error,omitempty"`
	LastUsed     time.Time `json:"last_used,omitempty"`
}

// HealthTracker keeps per-model success and error counts. It is safe for
// concurrent use; the set of tracked models is fixed at construction.
type HealthTracker struct {
	models map[string]*modelHealth
}

// NewHealthTracker tracks the given model IDs.
func NewHealthTracker(ids ...string) *HealthTracker {
	h := &HealthTracker{models: make(map[string]*modelHealth, len(ids))}
	for _, id := range ids {
		h.models[id] = &modelHealth{}
	}
	return h
}

// RecordSuccess counts a successful call to id.
func (h *HealthTracker) RecordSuccess(id string) {
	m, ok := h.models[id]
	if !ok {
		return
	}
	m.success.Add(1)
	m.mu.Lock()
	m.lastUsed = time.Now()
	m.mu.Unlock()
}

// RecordError counts a failed call to id.
func (h *HealthTracker) RecordError(id string, err error) {
	m, ok := h.models[id]
	if !ok {
		return
	}
	m.errors.Add(1)
	m.mu.Lock()
	m.lastUsed = time.Now()
	if err != nil {
		m.lastError = err.Error()
	}
	m.mu.Unlock()
}

// Get returns the health snapshot for id.
func (h *HealthTracker) Get(id string) (HealthSnapshot, bool) {
	m, ok := h.models[id]
	if !ok {
		return HealthSnapshot{}, false
	}
	s := HealthSnapshot{
		SuccessCount: m.success.Load(),
		ErrorCount:   m.errors.Load(),
	}
	if total := s.SuccessCount + s.ErrorCount; total > 0 {
		s.ErrorRate = float64(s.ErrorCount) / float64(total)
	}
	m.mu.Lock()
	s.LastError = m.lastError
	s.LastUsed = m.lastUsed
	m.mu.Unlock()
	return s, true
}

// Snapshot returns the health of every tracked model.
func (h *HealthTracker) Snapshot() map[string]HealthSnapshot {
	out := make(map[string]HealthSnapshot, len(h.models))
	for id := range h.models {
		s, _ := h.Get(id)
		out[id] = s
	}
	return out
}

func (h *HealthTracker) demoted(id string) bool {
	s, ok := h.Get(id)
	if !ok {
		return false
	}
	return s.SuccessCount+s.ErrorCount >= demoteMinAttempts && s.ErrorRate > demoteErrorRate
}

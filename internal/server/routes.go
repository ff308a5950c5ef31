package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/boilerbrain/internal/chat"
	"github.com/ziadkadry99/boilerbrain/internal/diagnostic"
	"github.com/ziadkadry99/boilerbrain/internal/selector"
)

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Format    string `json:"format,omitempty"` // "html" adds rendered markup
}

type chatResponse struct {
	chat.Reply
	HTML string `json:"html,omitempty"`
}

type sessionResponse struct {
	SessionID string              `json:"session_id"`
	Context   *diagnostic.Context `json:"context"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := s.chat.Send(r.Context(), req.SessionID, req.Message)
	if errors.Is(err, chat.ErrEmptyMessage) {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if err != nil {
		s.logger.Error("chat failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := chatResponse{Reply: reply}
	if req.Format == "html" {
		html, err := s.markdown.Render(reply.ResponseText)
		if err != nil {
			s.logger.Warn("markdown render failed", zap.Error(err))
		} else {
			resp.HTML = html
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, ok := s.chat.Session(r.Context(), id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, Context: c})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.chat.Metrics().Snapshot())
}

func (s *Server) handleResetMetrics(w http.ResponseWriter, r *http.Request) {
	s.chat.Metrics().Reset()
	s.logger.Info("reliability metrics reset")
	writeJSON(w, http.StatusOK, s.chat.Metrics().Snapshot())
}

func (s *Server) handleProviderHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]selector.HealthSnapshot{})
		return
	}
	writeJSON(w, http.StatusOK, s.health.Health())
}

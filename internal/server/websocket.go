package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	SessionID string `json:"session_id"` // empty for new sessions
	Message   string `json:"message"`
}

// wsResponse is the outgoing WebSocket message format.
type wsResponse struct {
	Type       string         `json:"type"` // "response" or "error"
	SessionID  string         `json:"session_id,omitempty"`
	Content    string         `json:"content"`
	SourceTier string         `json:"source_tier,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read", zap.Error(err))
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.send(conn, wsResponse{Type: "error", Content: "invalid message format"})
			continue
		}
		if req.Message == "" {
			s.send(conn, wsResponse{Type: "error", SessionID: req.SessionID, Content: "message is required"})
			continue
		}

		reply, err := s.chat.Send(r.Context(), req.SessionID, req.Message)
		if err != nil {
			s.send(conn, wsResponse{Type: "error", SessionID: req.SessionID, Content: err.Error()})
			continue
		}
		s.send(conn, wsResponse{
			Type:       "response",
			SessionID:  reply.SessionID,
			Content:    reply.ResponseText,
			SourceTier: string(reply.SourceTier),
			Metadata:   reply.Metadata,
		})
	}
}

func (s *Server) send(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		s.logger.Warn("websocket write", zap.Error(err))
	}
}

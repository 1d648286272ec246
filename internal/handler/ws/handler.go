package ws

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/omnichat/backend/internal/service/conversation"
)

// Handler is a websocket transport for turn streaming: the client sends
// turn requests, the server pushes the turn's events as JSON frames.
type Handler struct {
	ctrl     *conversation.Controller
	upgrader websocket.Upgrader
}

// New creates a websocket handler.
func New(ctrl *conversation.Controller) *Handler {
	return &Handler{
		ctrl: ctrl,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
	}
}

type clientFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type serverFrame struct {
	Event     string                  `json:"event"`
	SessionID string                  `json:"sessionId,omitempty"`
	Turn      *conversation.TurnEvent `json:"turn,omitempty"`
	Error     string                  `json:"error,omitempty"`
}

// HandleConnection upgrades the request and serves turn requests until the
// peer disconnects. Frames are processed sequentially, so the controller's
// one-turn-at-a-time gate is reported to the client rather than hit by
// accident.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[ws] connection established from %s", r.RemoteAddr)

	for {
		var frame clientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read failed: %v", err)
			}
			return
		}

		switch frame.Type {
		case "send":
			h.handleSend(r.Context(), conn, frame.Text)
		case "ping":
			h.write(conn, serverFrame{Event: "pong"})
		default:
			h.write(conn, serverFrame{Event: "error", Error: "unknown frame type"})
		}
	}
}

func (h *Handler) handleSend(ctx context.Context, conn *websocket.Conn, text string) {
	// The end frame reports the session the turn ran in, not whichever
	// session happens to be active when the stream finishes.
	var turnSession string
	err := h.ctrl.SendTurn(ctx, text, func(event conversation.TurnEvent) {
		turnSession = event.SessionID
		evt := event
		h.write(conn, serverFrame{
			Event:     string(event.Type),
			SessionID: event.SessionID,
			Turn:      &evt,
		})
	})
	if err != nil {
		if errors.Is(err, conversation.ErrTurnInFlight) || errors.Is(err, conversation.ErrEmptyTurn) {
			h.write(conn, serverFrame{Event: "rejected", Error: err.Error()})
			return
		}
		h.write(conn, serverFrame{Event: "error", Error: err.Error()})
		return
	}

	h.write(conn, serverFrame{Event: "end", SessionID: turnSession})
}

func (h *Handler) write(conn *websocket.Conn, frame serverFrame) {
	if err := conn.WriteJSON(frame); err != nil {
		log.Printf("[ws] write failed: %v", err)
	}
}

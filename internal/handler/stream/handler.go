package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/omnichat/backend/internal/service/conversation"
	"github.com/omnichat/backend/pkg/utils"
)

// Handler streams turn updates via Server-Sent Events.
type Handler struct {
	ctrl *conversation.Controller
}

// New creates a stream handler.
func New(ctrl *conversation.Controller) *Handler {
	return &Handler{ctrl: ctrl}
}

// StreamResponse is one SSE frame.
type StreamResponse struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	MessageID string `json:"messageId,omitempty"`
	IsError   bool   `json:"isError,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStreamRequest runs one turn and forwards its updates to the client:
// start, user, delta (cumulative text), message, end. Turn rejections are
// returned so the router can map them to a status code before the stream
// opens.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	state := h.ctrl.CurrentState()
	h.sendSSE(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: state.SessionID,
	})

	err := h.ctrl.SendTurn(ctx, userMessage, func(event conversation.TurnEvent) {
		switch event.Type {
		case conversation.TurnEventUser:
			h.sendSSE(w, flusher, StreamResponse{
				Event:     "user",
				SessionID: event.SessionID,
				MessageID: event.Message.ID,
				Content:   event.Message.Text,
			})
		case conversation.TurnEventPartial:
			h.sendSSE(w, flusher, StreamResponse{
				Event:     "delta",
				SessionID: event.SessionID,
				MessageID: event.Message.ID,
				Content:   event.Message.Text,
			})
		case conversation.TurnEventFinal:
			h.sendSSE(w, flusher, StreamResponse{
				Event:     "message",
				SessionID: event.SessionID,
				MessageID: event.Message.ID,
				Content:   event.Message.Text,
				IsError:   event.Message.IsError,
			})
		}
	})
	if err != nil {
		if errors.Is(err, conversation.ErrTurnInFlight) || errors.Is(err, conversation.ErrEmptyTurn) {
			h.sendSSE(w, flusher, StreamResponse{Event: "error", Error: err.Error()})
			return nil
		}
		h.sendSSE(w, flusher, StreamResponse{Event: "error", Error: err.Error()})
		return err
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "end",
		SessionID: state.SessionID,
		Finished:  true,
	})
	return nil
}

func (h *Handler) sendSSE(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	utils.SendSSEChunk(w, flusher, response)
}

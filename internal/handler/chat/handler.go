package chat

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	chatmodel "github.com/omnichat/backend/internal/model/chat"
	"github.com/omnichat/backend/internal/service/conversation"
	"github.com/omnichat/backend/pkg/utils"
)

// Handler exposes the controller's session, mode and attachment operations
// over REST.
type Handler struct {
	ctrl *conversation.Controller
}

// New creates the chat handler.
func New(ctrl *conversation.Controller) *Handler {
	return &Handler{ctrl: ctrl}
}

// RegisterRoutes wires the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions", h.handleListSessions)
	r.Post("/sessions/new", h.handleNewChat)
	r.Post("/sessions/{sessionID}/select", h.handleSelectSession)
	r.Delete("/sessions/{sessionID}", h.handleDeleteSession)
	r.Get("/modes", h.handleListModes)
	r.Get("/suggestions", h.handleListSuggestions)
	r.Put("/mode", h.handleChangeMode)
	r.Get("/state", h.handleState)
	r.Post("/attachment", h.handleStageAttachment)
	r.Delete("/attachment", h.handleClearAttachment)
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.ctrl.Sessions())
}

func (h *Handler) handleNewChat(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.ctrl.StartNewChat(r.Context()))
}

func (h *Handler) handleSelectSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	state, err := h.ctrl.SelectSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, conversation.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "session not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, state)
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	utils.RespondJSON(w, http.StatusOK, h.ctrl.DeleteSession(r.Context(), sessionID))
}

func (h *Handler) handleListModes(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, chatmodel.Modes())
}

func (h *Handler) handleListSuggestions(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, chatmodel.Suggestions())
}

func (h *Handler) handleChangeMode(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mode, err := chatmodel.ParseMode(payload.Mode)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, h.ctrl.ChangeMode(r.Context(), mode))
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.ctrl.CurrentState())
}

// handleStageAttachment stages media for the next turn. The payload is
// spooled to a temp preview file whose path becomes the attachment's
// transient resource handle; the controller releases it when the
// attachment is replaced or discarded.
func (h *Handler) handleStageAttachment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Kind     string `json:"kind"`
		Data     []byte `json:"data"`
		MIMEType string `json:"mimeType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	kind := chatmodel.AttachmentKind(payload.Kind)
	switch kind {
	case chatmodel.AttachmentImage, chatmodel.AttachmentVideo, chatmodel.AttachmentAudio:
	default:
		utils.RespondError(w, http.StatusBadRequest, "unknown attachment kind")
		return
	}
	if len(payload.Data) == 0 {
		utils.RespondError(w, http.StatusBadRequest, "attachment data is required")
		return
	}

	attachment := &chatmodel.Attachment{
		Kind:     kind,
		Data:     payload.Data,
		MIMEType: payload.MIMEType,
	}

	if preview, err := spoolPreview(payload.Data); err != nil {
		log.Printf("[chat] spool attachment preview: %v", err)
	} else {
		attachment.URL = preview
	}

	h.ctrl.SetPendingAttachment(attachment)
	utils.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "staged"})
}

func (h *Handler) handleClearAttachment(w http.ResponseWriter, r *http.Request) {
	h.ctrl.ClearPendingAttachment()
	w.WriteHeader(http.StatusNoContent)
}

func spoolPreview(data []byte) (string, error) {
	f, err := os.CreateTemp("", "omnichat-preview-*")
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

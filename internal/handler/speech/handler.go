package speech

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/omnichat/backend/internal/service/ai"
	"github.com/omnichat/backend/pkg/utils"
)

// Handler exposes one-shot speech synthesis.
type Handler struct {
	ai *ai.Service
}

// New creates the speech handler.
func New(aiSvc *ai.Service) *Handler {
	return &Handler{ai: aiSvc}
}

// RegisterRoutes wires the speech routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/speech", h.handleSynthesize)
}

func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Text == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	audio, err := h.ai.SynthesizeSpeech(r.Context(), payload.Text)
	if err != nil {
		if errors.Is(err, ai.ErrNotInitialized) {
			utils.RespondError(w, http.StatusServiceUnavailable, "speech synthesis unavailable")
			return
		}
		utils.RespondError(w, http.StatusBadGateway, "speech synthesis failed")
		return
	}

	w.Header().Set("Content-Type", ai.SpeechAudioMIME)
	w.WriteHeader(http.StatusOK)
	w.Write(audio)
}

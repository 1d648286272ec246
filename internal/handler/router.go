package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chatHandler "github.com/omnichat/backend/internal/handler/chat"
	speechHandler "github.com/omnichat/backend/internal/handler/speech"
	streamHandler "github.com/omnichat/backend/internal/handler/stream"
	wsHandler "github.com/omnichat/backend/internal/handler/ws"
	middlewarePkg "github.com/omnichat/backend/internal/middleware"
	aiService "github.com/omnichat/backend/internal/service/ai"
	"github.com/omnichat/backend/internal/service/conversation"
	"github.com/omnichat/backend/pkg/utils"
)

// NewRouter wires HTTP routes to the conversation core and the generation
// service.
func NewRouter(ctrl *conversation.Controller, aiSvc *aiService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatH := chatHandler.New(ctrl)
	streamH := streamHandler.New(ctrl)
	speechH := speechHandler.New(aiSvc)
	wsH := wsHandler.New(ctrl)

	r.Route("/api", func(api chi.Router) {
		chatH.RegisterRoutes(api)
		speechH.RegisterRoutes(api)

		api.Get("/stream", func(w http.ResponseWriter, r *http.Request) {
			userMessage := r.URL.Query().Get("message")
			if userMessage == "" && !ctrl.CurrentState().PendingAttachment {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}

			if err := streamH.HandleStreamRequest(r.Context(), w, userMessage); err != nil {
				log.Printf("[stream] error handling request: %v", err)
			}
		})

		api.Get("/ws", wsH.HandleConnection)
	})

	return r
}

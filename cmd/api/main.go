package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/omnichat/backend/internal/config"
	"github.com/omnichat/backend/internal/handler"
	"github.com/omnichat/backend/internal/service/ai"
	"github.com/omnichat/backend/internal/service/conversation"
	"github.com/omnichat/backend/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	store := storage.NewStore(cfg.Storage.Path)
	log.Printf("session store ready at %s (%d sessions)", cfg.Storage.Path, len(store.List()))

	aiService := ai.NewService(cfg.AI, cfg.Speech)
	if cfg.AI.Enabled() {
		log.Println("generation service configured")
	} else {
		log.Println("ARK_API_KEY not set, generation disabled until configured")
	}
	if cfg.Speech.Enabled {
		log.Println("speech synthesis configured")
	} else {
		log.Println("speech credentials not set, synthesis disabled")
	}

	ctrl := conversation.New(ctx, store, aiService)

	router := handler.NewRouter(ctrl, aiService)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("OmniChat backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taskport/taskport/api"
	"github.com/taskport/taskport/config"
	"github.com/taskport/taskport/db"
	"github.com/taskport/taskport/log"
	"github.com/taskport/taskport/notifications"
	"github.com/taskport/taskport/server"
	"github.com/taskport/taskport/upstream"
	"github.com/taskport/taskport/workers/autoimport"
	"github.com/taskport/taskport/workers/reaper"
)

func main() {
	cfg := config.Get()

	// Initialize database (logs its own path on first open)
	_ = db.GetDB()

	notifService := notifications.GetService()

	// Upstream todo service client
	client := upstream.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamAPIKey)

	// HTTP server and routes
	srv := server.New(cfg, notifService)

	handlers := api.NewHandlers(api.Deps{
		Svc:             client,
		Store:           db.NewStore(),
		Notif:           notifService,
		InvalidateCache: db.InvalidateTodoCache,
		KVCount:         db.KVCountPrefix,
	})
	api.SetupRoutes(srv.Router(), handlers)

	// Background workers
	log.Info().Msg("starting background workers")
	reaperWorker := reaper.NewWorker(reaper.Config{})
	reaperWorker.Start()

	var importWorker *autoimport.Worker
	if cfg.ImportWatchDir != "" {
		importWorker = autoimport.NewWorker(autoimport.Config{
			WatchDir:    cfg.ImportWatchDir,
			Concurrency: cfg.ImportConcurrency,
			MaxFileSize: cfg.ImportMaxFileSize,
		}, client)
		if err := importWorker.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start auto-import watcher")
		}
	}

	// Start server
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	// Stop workers first (they may hold db connections)
	if importWorker != nil {
		importWorker.Stop()
	}
	reaperWorker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	// Close database
	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("database close error")
	}

	log.Info().Msg("stopped")
}

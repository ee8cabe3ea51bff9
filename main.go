package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/barleygate/barleygate/internal/api"
	"github.com/barleygate/barleygate/internal/audit"
	"github.com/barleygate/barleygate/internal/auth"
	"github.com/barleygate/barleygate/internal/config"
	"github.com/barleygate/barleygate/internal/logger"
	"github.com/barleygate/barleygate/internal/monitoring"
	"github.com/barleygate/barleygate/internal/policy"
	"github.com/barleygate/barleygate/internal/services"
	"github.com/barleygate/barleygate/internal/store"
	"github.com/barleygate/barleygate/internal/store/flatfile"
	"github.com/barleygate/barleygate/internal/store/sqlite"
	"github.com/barleygate/barleygate/internal/websocket"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set up the credential store
	var credentials store.CredentialStore
	switch cfg.StoreBackend {
	case "flatfile":
		credentials = flatfile.New(cfg.CredentialsPath)
	case "sqlite":
		credentials, err = sqlite.New(cfg.DatabasePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize credential database")
		}
	default:
		log.Fatal().Str("backend", cfg.StoreBackend).Msg("Unknown store backend")
	}
	defer credentials.Close()

	// Set up the failed-attempt audit sink
	reporter, err := audit.NewFileReporter(cfg.AuditLogPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open audit log")
	}
	defer reporter.Close()

	// Set up WebSocket Hub for the live event feed
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	eventService := services.NewEventService(hub)
	validator := policy.NewValidator(cfg.BlocklistPath)
	accountService := services.NewAccountService(credentials, validator, reporter, eventService)

	// Set up sessions
	sessions, err := auth.NewManager([]byte(cfg.SessionSecret), cfg.SessionTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize session manager")
	}

	// Set up and run the background failed-login watchdog
	watchdog, err := monitoring.NewWatchdog(eventService, cfg.WatchdogSchedule, cfg.FailedLoginAlertThreshold)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize watchdog")
	}
	go watchdog.Run()

	// Set up router
	router := api.NewRouter(sessions, hub, accountService, eventService)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("store", cfg.StoreBackend).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	watchdog.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}

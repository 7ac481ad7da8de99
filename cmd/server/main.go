package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"formassist-backend/internal/app"
	"formassist-backend/internal/config"
	"formassist-backend/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := logging.New(logging.Options{})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logging.New(logging.Options{Format: cfg.Log.Format, Debug: cfg.Log.Debug})
	log.Info().Msg("Starting FormAssist daemon...")
	if cfg.UsingDevSecret() {
		log.Warn().Msg("jwt_secret not set; using the development secret")
	}

	// 2. Open storage and assemble the components
	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer initCancel()
	core, err := app.NewCore(initCtx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}
	srv := app.NewServer(core)
	defer func() {
		if err := srv.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close store")
		}
	}()

	// 3. Configure and Start HTTP Server
	// Request contexts derive from baseCtx so open event streams end on shutdown.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	server := &http.Server{
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
		Addr:              ":" + cfg.HTTPPort,
		Handler:           srv.Handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// No WriteTimeout: event streams stay open. Other routes are bounded
		// by the router's request timeout.
		IdleTimeout: 120 * time.Second,
	}

	server.RegisterOnShutdown(cancelBase)

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Str("port", cfg.HTTPPort).Msg("Could not listen")
		}
	}()

	<-stopChan
	log.Info().Msg("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Server graceful shutdown failed")
	}
	log.Info().Msg("Server shutdown complete.")
}

// Package app assembles the configured components shared by the daemon and
// the CLI.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"formassist-backend/internal/config"
	"formassist-backend/internal/conversation"
	"formassist-backend/internal/crypto"
	"formassist-backend/internal/gateway"
	"formassist-backend/internal/logging"
	"formassist-backend/internal/models"
	"formassist-backend/internal/services"
	"formassist-backend/internal/store"
	"formassist-backend/internal/store/backend"
)

// Core is the storage, settings and AI gateway of one process.
type Core struct {
	Config   *config.Config
	Store    store.Store
	Settings *services.SettingsService
	Gateway  *gateway.Gateway
	Log      zerolog.Logger
}

// NewCore opens the store, seeds settings from the configuration on first
// start and applies the stored debug flag.
func NewCore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Core, error) {
	st, err := backend.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}

	var sealer *crypto.Sealer
	if cfg.EncryptionKey != nil {
		sealer, err = crypto.NewSealer(cfg.EncryptionKey)
	} else {
		log.Warn().Msg("No encryption_key configured; using an ephemeral key")
		sealer, err = crypto.NewEphemeralSealer()
	}
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create sealer: %w", err)
	}

	client := &http.Client{Timeout: cfg.AI.RequestTimeout}
	// Probing takes candidate settings explicitly, so the prober needs no source.
	prober := gateway.New(client, nil, log)
	settings := services.NewSettingsService(st, sealer, prober, log)
	gw := gateway.New(client, settings, log)

	if err := settings.Seed(ctx, seedRequest(cfg.AI)); err != nil {
		log.Warn().Err(err).Msg("Failed to seed settings from configuration")
	}
	if cfg.Log.Debug {
		logging.SetDebug(true)
	} else {
		settings.SyncDebug(ctx)
	}

	return &Core{Config: cfg, Store: st, Settings: settings, Gateway: gw, Log: log}, nil
}

func seedRequest(ai config.AIConfig) models.SaveSettingsRequest {
	req := models.SaveSettingsRequest{
		AIEndpoint:  ai.Endpoint,
		AIModel:     ai.Model,
		Temperature: ai.Temperature,
	}
	if ai.APIKey != "" {
		key := ai.APIKey
		req.APIKey = &key
	}
	return req
}

// NewManager creates the conversation manager of scope drawing through renderer.
func (c *Core) NewManager(scope string, renderer conversation.Renderer) *conversation.Manager {
	return conversation.NewManager(conversation.Options{
		Store:            c.Store,
		Scope:            scope,
		Dispatcher:       c.Gateway,
		Renderer:         renderer,
		RenderRetryDelay: c.Config.Render.RetryDelay,
		RenderMaxRetries: c.Config.Render.MaxRetries,
		Log:              c.Log,
	})
}

func (c *Core) Close() error {
	return c.Store.Close()
}

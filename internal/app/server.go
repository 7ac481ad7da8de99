package app

import (
	"net/http"

	"formassist-backend/internal/api"
	"formassist-backend/internal/conversation"
	"formassist-backend/internal/events"
	"formassist-backend/internal/handlers"
	"formassist-backend/internal/services"
	"formassist-backend/internal/trigger"
)

// Server is the daemon: the core plus trigger detection, sessions and the
// HTTP router.
type Server struct {
	*Core
	Hub      *events.Hub
	Detector *trigger.Detector
	Registry *conversation.Registry
	Sessions *services.SessionService
	Handler  http.Handler
}

// NewServer wires every handler on top of core. Conversation views of each
// scope are published on the hub for the session event streams.
func NewServer(core *Core) *Server {
	cfg := core.Config
	hub := events.NewHub()
	detector := trigger.NewDetector(trigger.HubNotifier{Hub: hub}, cfg.Trigger.RetryDelay, core.Log)
	registry := conversation.NewRegistry(func(scope string) *conversation.Manager {
		return core.NewManager(scope, conversation.HubRenderer{Hub: hub, Topic: conversation.ScopeTopic(scope)})
	})
	sessions := services.NewSessionService(cfg.JWTSecret, cfg.TokenExpiration, registry, core.Log)
	assist := services.NewAssistService(core.Gateway, core.Log)

	router := api.NewRouter(api.RouterDependencies{
		TriggerHandler:      handlers.NewTriggerHandler(detector, sessions, hub, 0, core.Log),
		SessionHandler:      handlers.NewSessionHandler(sessions, hub, 0, core.Log),
		SettingsHandler:     handlers.NewSettingsHandler(core.Settings, core.Log),
		AssistHandler:       handlers.NewAssistHandler(assist),
		ConversationHandler: handlers.NewConversationHandler(sessions, core.Log),
		JWTSecret:           cfg.JWTSecret,
		AllowedOrigins:      cfg.AllowedOrigins,
		Log:                 core.Log,
	})

	return &Server{
		Core:     core,
		Hub:      hub,
		Detector: detector,
		Registry: registry,
		Sessions: sessions,
		Handler:  router,
	}
}

// Close stops pending trigger deliveries and status timers, then the store.
func (s *Server) Close() error {
	s.Detector.Close()
	s.Registry.Close()
	return s.Core.Close()
}

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"formassist-backend/internal/handlers"
	"formassist-backend/internal/logging"
)

// RequestTimeout bounds every non-streaming request. It must exceed the AI
// gateway timeout so sends finish with a reply rather than a 503.
const RequestTimeout = 90 * time.Second

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	TriggerHandler      *handlers.TriggerHandler
	SessionHandler      *handlers.SessionHandler
	SettingsHandler     *handlers.SettingsHandler
	AssistHandler       *handlers.AssistHandler
	ConversationHandler *handlers.ConversationHandler

	JWTSecret      string
	AllowedOrigins []string
	Log            zerolog.Logger
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	log := logging.Component(deps.Log, "http")
	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)

	// --- CORS Configuration ---
	// The extension calls from its chrome-extension:// origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/v1", func(r chi.Router) {
		// Event streams stay open; they are excluded from the request timeout.
		r.Get("/tabs/{tabID}/events", deps.TriggerHandler.HandleTabEvents)
		r.With(JwtAuthMiddleware(deps.JWTSecret, log)).
			Get("/session/events", deps.SessionHandler.HandleSessionEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(RequestTimeout))

			// --- Public Routes (No JWT Required) ---
			r.Post("/navigations", deps.TriggerHandler.HandleNavigation)
			r.Post("/sessions", deps.SessionHandler.HandleOpenSession)
			r.Route("/settings", func(r chi.Router) {
				r.Get("/", deps.SettingsHandler.HandleGetSettings)
				r.Put("/", deps.SettingsHandler.HandleSaveSettings)
				r.Delete("/", deps.SettingsHandler.HandleClearSettings)
				r.Post("/test", deps.SettingsHandler.HandleTestConnection)
			})

			// --- Authenticated Routes (JWT Required) ---
			r.Group(func(r chi.Router) {
				r.Use(JwtAuthMiddleware(deps.JWTSecret, log))

				r.Post("/ai", deps.AssistHandler.HandleAIRequest)

				ch := deps.ConversationHandler
				r.Route("/conversations", func(r chi.Router) {
					r.Get("/", ch.HandleListConversations)
					r.Post("/", ch.HandleCreateConversation)
					r.Post("/messages", ch.HandleSendMessage)
					r.Delete("/{conversationID}", ch.HandleDeleteConversation)
					r.Post("/{conversationID}/activate", ch.HandleActivateConversation)
					r.Get("/{conversationID}/export", ch.HandleExportConversation)
				})
				r.Route("/messages/{ts}", func(r chi.Router) {
					r.Post("/apply-plan", ch.HandleApplyPlan)
					r.Post("/applied", ch.HandleApplyResult)
					r.Get("/preview", ch.HandlePreview)
					r.Get("/copy", ch.HandleCopy)
				})
			})
		})
	})

	return r
}

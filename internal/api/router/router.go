package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/solostudio/funnel-api/internal/conversations"
	"github.com/solostudio/funnel-api/internal/forms"
	"github.com/solostudio/funnel-api/internal/http/handlers"
	httpmiddleware "github.com/solostudio/funnel-api/internal/http/middleware"
	"github.com/solostudio/funnel-api/internal/voiceagent"
	"github.com/solostudio/funnel-api/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger               *logging.Logger
	FormsHandler         *forms.Handler
	ConversationsHandler *conversations.Handler
	VoiceAgentWebhook    *voiceagent.WebhookHandler
	AdminDashboard       *handlers.AdminDashboardHandler
	AdminAuthSecret      string
	MetricsHandler       http.Handler
	CORSAllowedOrigins   []string
	RateLimitRPS         float64
	RateLimitBurst       int
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RateLimitRPS > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	// Public endpoints: health, forms, webhooks, metrics.
	r.Group(func(public chi.Router) {
		public.Get("/health", handleHealth)
		if cfg.FormsHandler != nil {
			public.Mount("/forms", cfg.FormsHandler.Routes())
		}
		if cfg.VoiceAgentWebhook != nil {
			public.Post("/webhooks/voice-agent", cfg.VoiceAgentWebhook.HandleCompletion)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Admin routes, JWT-protected.
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			if cfg.ConversationsHandler != nil {
				admin.Mount("/conversations", cfg.ConversationsHandler.Routes())
			}
			if cfg.AdminDashboard != nil {
				admin.Get("/dashboard", cfg.AdminDashboard.GetDashboardOverview)
			}
		})
	}

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rivohq/rivo/internal/appointments"
	"github.com/rivohq/rivo/internal/auth"
	"github.com/rivohq/rivo/internal/autoreply"
	"github.com/rivohq/rivo/internal/catalog"
	"github.com/rivohq/rivo/internal/channels/whatsapp"
	httpmiddleware "github.com/rivohq/rivo/internal/http/middleware"
	"github.com/rivohq/rivo/internal/httpx"
	"github.com/rivohq/rivo/internal/leads"
	"github.com/rivohq/rivo/internal/notifications"
	"github.com/rivohq/rivo/internal/workspace"
	"github.com/rivohq/rivo/pkg/logging"
)

// Config holds router configuration. Nil handlers leave their routes out.
type Config struct {
	Logger              *logging.Logger
	WhatsAppWebhook     *whatsapp.WebhookHandler
	AuthHandler         *auth.Handler
	LeadsHandler        *leads.Handler
	AppointmentsHandler *appointments.Handler
	NotificationHandler *notifications.Handler
	ServicesHandler     *catalog.Handler
	WorkspaceHandler    *workspace.Handler
	ChatHandler         *autoreply.ChatHandler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
	// DefaultWorkspaceID scopes API calls that carry no workspace.
	DefaultWorkspaceID string
	// AuthLimiter throttles /api/auth per client IP when set.
	AuthLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
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

	// Public endpoints (webhooks, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/health", health)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.WhatsAppWebhook != nil {
			public.Get("/api/whatsapp/webhook", cfg.WhatsAppWebhook.HandleVerification)
			public.Post("/api/whatsapp/webhook", cfg.WhatsAppWebhook.HandleInbound)
		}
		if cfg.AuthHandler != nil {
			public.Route("/api/auth", func(a chi.Router) {
				if cfg.AuthLimiter != nil {
					a.Use(httpmiddleware.RateLimit(cfg.AuthLimiter))
				}
				a.Post("/register", cfg.AuthHandler.Register)
				a.Post("/login", cfg.AuthHandler.Login)
				a.Get("/me", cfg.AuthHandler.Me)
				a.Delete("/me", cfg.AuthHandler.Logout)
			})
		}
	})

	// Workspace-scoped API
	r.Group(func(api chi.Router) {
		api.Use(requireWorkspace(cfg.DefaultWorkspaceID))
		if cfg.LeadsHandler != nil {
			api.Get("/api/leads", cfg.LeadsHandler.ListLeads)
			api.Post("/api/leads", cfg.LeadsHandler.CreateLead)
		}
		if cfg.AppointmentsHandler != nil {
			api.Get("/api/appointments", cfg.AppointmentsHandler.List)
			api.Post("/api/appointments", cfg.AppointmentsHandler.Create)
		}
		if cfg.NotificationHandler != nil {
			api.Get("/api/notifications", cfg.NotificationHandler.List)
			api.Post("/api/notifications", cfg.NotificationHandler.Create)
			api.Patch("/api/notifications", cfg.NotificationHandler.MarkRead)
		}
		if cfg.ServicesHandler != nil {
			api.Get("/api/services", cfg.ServicesHandler.List)
			api.Post("/api/services", cfg.ServicesHandler.Create)
		}
		if cfg.WorkspaceHandler != nil {
			api.Get("/api/workspace", cfg.WorkspaceHandler.GetWorkspace)
			api.Put("/api/workspace", cfg.WorkspaceHandler.UpdateWorkspace)
		}
		if cfg.ChatHandler != nil {
			api.Get("/api/internal-chat", cfg.ChatHandler.List)
			api.Post("/api/internal-chat", cfg.ChatHandler.Send)
		}
	})

	return r
}

func health(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/rivohq/rivo/internal/api/router"
	"github.com/rivohq/rivo/internal/app/bootstrap"
	"github.com/rivohq/rivo/internal/appointments"
	"github.com/rivohq/rivo/internal/auth"
	"github.com/rivohq/rivo/internal/autoreply"
	"github.com/rivohq/rivo/internal/catalog"
	"github.com/rivohq/rivo/internal/channels/whatsapp"
	appconfig "github.com/rivohq/rivo/internal/config"
	"github.com/rivohq/rivo/internal/conversation"
	"github.com/rivohq/rivo/internal/database"
	httpmiddleware "github.com/rivohq/rivo/internal/http/middleware"
	"github.com/rivohq/rivo/internal/leads"
	"github.com/rivohq/rivo/internal/notifications"
	"github.com/rivohq/rivo/internal/notify"
	"github.com/rivohq/rivo/internal/observability/metrics"
	"github.com/rivohq/rivo/internal/workspace"
	"github.com/rivohq/rivo/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.NewWithFormat(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.Info("starting rivo API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool == nil {
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	metricsHandler, webhookMetrics := setupMetrics()

	routerCfg, err := buildRouterConfig(ctx, cfg, pool, redisClient, webhookMetrics, logger)
	if err != nil {
		logger.Error("failed to wire application", "error", err)
		os.Exit(1)
	}
	routerCfg.MetricsHandler = metricsHandler
	go routerCfg.AuthLimiter.RunEviction(ctx, time.Minute, 10*time.Minute)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		logger.Error("server error", "error", err)
	}

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics registers the webhook metrics on a private registry and
// returns its /metrics handler.
func setupMetrics() (http.Handler, *metrics.WebhookMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	webhookMetrics := metrics.NewWebhookMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), webhookMetrics
}

func connectPostgresPool(ctx context.Context, url string, logger *logging.Logger) *pgxpool.Pool {
	if url == "" {
		logger.Error("DATABASE_URL is empty")
		return nil
	}
	pool, err := database.Connect(ctx, url, database.Options{MaxConns: 10, MaxConnIdleTime: 5 * time.Minute})
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		return nil
	}
	return pool
}

// buildRouterConfig wires repositories, the auto-reply pipeline and every
// HTTP handler.
func buildRouterConfig(
	ctx context.Context,
	cfg *appconfig.Config,
	db database.PgxPool,
	redisClient *redis.Client,
	webhookMetrics *metrics.WebhookMetrics,
	logger *logging.Logger,
) (*router.Config, error) {
	workspaceRepo := workspace.NewCachedRepository(workspace.NewPostgresRepository(db), redisClient, workspace.DefaultCacheTTL, logger)
	leadsRepo := leads.NewPostgresRepository(db)
	conversationRepo := conversation.NewPostgresRepository(db)
	notificationRepo := notifications.NewPostgresRepository(db)

	authService := auth.NewService(auth.NewPostgresUserRepository(db), workspaceRepo, logger).
		WithTx(auth.PostgresTx(db))

	routerCfg := &router.Config{
		Logger:              logger,
		AuthHandler:         auth.NewHandler(authService, logger),
		LeadsHandler:        leads.NewHandler(leadsRepo, logger),
		AppointmentsHandler: appointments.NewHandler(appointments.NewPostgresRepository(db), leadsRepo, logger),
		NotificationHandler: notifications.NewHandler(notificationRepo, webhookMetrics, logger),
		ServicesHandler:     catalog.NewHandler(catalog.NewPostgresRepository(db), logger),
		WorkspaceHandler:    workspace.NewHandler(workspaceRepo, logger),
		ChatHandler:         autoreply.NewChatHandler(workspaceRepo, conversationRepo, logger),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		DefaultWorkspaceID:  cfg.DefaultWorkspaceID,
		AuthLimiter:         httpmiddleware.NewRateLimiter(cfg.AuthRateLimitPerSecond, cfg.AuthRateLimitBurst),
	}

	if !cfg.WhatsAppEnabled {
		logger.Warn("whatsapp disabled; webhook routes not mounted")
		return routerCfg, nil
	}

	resolver, err := whatsapp.NewStaticResolverFromJSON(cfg.WhatsAppPhoneMapJSON, cfg.DefaultWorkspaceID)
	if err != nil {
		return nil, err
	}

	client := whatsapp.NewClient(cfg.WhatsAppAccessToken, cfg.WhatsAppPhoneNumberID)
	client.SetGraphAPIBase(cfg.WhatsAppGraphBaseURL)

	emailSender, err := bootstrap.BuildEmailSender(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	var alerter autoreply.Alerter
	if svc := notify.NewService(emailSender, cfg.NotifyEmailRecipients, logger); svc.Enabled() {
		alerter = svc
	}

	processor, err := autoreply.NewProcessor(autoreply.Config{
		Workspaces:    workspaceRepo,
		Leads:         leadsRepo,
		Conversations: conversationRepo,
		Notifications: notificationRepo,
		Sender:        client,
		Locker:        bootstrap.BuildLocker(redisClient, logger),
		Deduper:       bootstrap.BuildDeduper(cfg, db),
		Alerter:       alerter,
		Metrics:       webhookMetrics,
		Policy:        autoreply.DeliveryPolicy{NotifyOnFailure: cfg.NotifyOnSendFailure},
		SendTimeout:   cfg.WhatsAppSendTimeout,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	routerCfg.WhatsAppWebhook = whatsapp.NewWebhookHandler(whatsapp.WebhookConfig{
		VerifyToken: cfg.WhatsAppVerifyToken,
		AppSecret:   cfg.WhatsAppAppSecret,
		Resolver:    resolver,
		Processor:   processor,
		Metrics:     webhookMetrics,
		Logger:      logger,
	})
	return routerCfg, nil
}

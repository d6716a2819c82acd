package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/solostudio/funnel-api/cmd/mainconfig"
	"github.com/solostudio/funnel-api/internal/api/router"
	appconfig "github.com/solostudio/funnel-api/internal/config"
	"github.com/solostudio/funnel-api/internal/conversations"
	"github.com/solostudio/funnel-api/internal/followup"
	"github.com/solostudio/funnel-api/internal/forms"
	"github.com/solostudio/funnel-api/internal/http/handlers"
	"github.com/solostudio/funnel-api/internal/notify"
	"github.com/solostudio/funnel-api/internal/observability/metrics"
	"github.com/solostudio/funnel-api/internal/voiceagent"
	"github.com/solostudio/funnel-api/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting funnel-api server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	reg := prometheus.NewRegistry()
	funnelMetrics := metrics.NewFunnelMetrics(reg)
	metricsHandler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	sender := buildSender(cfg, logger)
	dispatcher := notify.NewDispatcher(sender, cfg.OperatorEmail, logger)
	dispatcher.SetMetrics(funnelMetrics)

	// Form sessions live in Redis when available so drafts survive
	// restarts; otherwise they stay in process memory.
	var sessionStore forms.SessionStore = forms.NewInMemorySessionStore()
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		sessionStore = forms.NewRedisSessionStore(redis.NewClient(opts), cfg.FormSessionTTL)
		logger.Info("form sessions backed by redis", "addr", cfg.RedisAddr)
	}

	ctx := context.Background()

	var conversationRepo conversations.Repository = conversations.NewInMemoryRepository()
	var adminDB *sql.DB
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		conversationRepo = conversations.NewPostgresRepository(pool)

		adminDB, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open admin db", "error", err)
			os.Exit(1)
		}
		defer adminDB.Close()
	} else {
		logger.Warn("DATABASE_URL not set, conversation records are in-memory only")
	}

	followupService := followup.NewService(dispatcher, logger)

	formsHandler := forms.NewHandler(sessionStore, dispatcher, cfg.SuccessResetDelay, funnelMetrics, logger)
	conversationsHandler := conversations.NewHandler(conversationRepo, logger)
	webhookHandler := voiceagent.NewWebhookHandler(cfg.VoiceAgentWebhookSecret, conversationRepo, followupService, logger)
	webhookHandler.SetMetrics(funnelMetrics)

	var dashboardHandler *handlers.AdminDashboardHandler
	if adminDB != nil {
		dashboardHandler = handlers.NewAdminDashboardHandler(adminDB, logger)
	}

	r := router.New(&router.Config{
		Logger:               logger,
		FormsHandler:         formsHandler,
		ConversationsHandler: conversationsHandler,
		VoiceAgentWebhook:    webhookHandler,
		AdminDashboard:       dashboardHandler,
		AdminAuthSecret:      cfg.AdminJWTSecret,
		MetricsHandler:       metricsHandler,
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		RateLimitRPS:         float64(cfg.RateLimitRPS),
		RateLimitBurst:       cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildSender picks the email provider. "auto" prefers SendGrid, then
// SES, then the logging stub.
func buildSender(cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	sendgridSender := func() notify.EmailSender {
		s := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if s == nil {
			return nil
		}
		return s
	}
	sesSender := func() notify.EmailSender {
		if cfg.SESFromEmail == "" {
			return nil
		}
		awsCfg, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
		if err != nil {
			logger.Error("failed to load AWS config for SES", "error", err)
			return nil
		}
		s := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
		if s == nil {
			return nil
		}
		return s
	}

	switch cfg.EmailProvider {
	case "sendgrid":
		if s := sendgridSender(); s != nil {
			return s
		}
		logger.Warn("EMAIL_PROVIDER=sendgrid but no API key, falling back to stub")
	case "ses":
		if s := sesSender(); s != nil {
			return s
		}
		logger.Warn("EMAIL_PROVIDER=ses but SES not configured, falling back to stub")
	case "stub":
	default: // auto
		if s := sendgridSender(); s != nil {
			logger.Info("email provider selected", "provider", "sendgrid")
			return s
		}
		if s := sesSender(); s != nil {
			logger.Info("email provider selected", "provider", "ses")
			return s
		}
		logger.Warn("no email provider configured, using stub sender")
	}
	return notify.NewStubEmailSender(logger)
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"eventcrm/config"
	"eventcrm/docs"
	"eventcrm/internal/adapters/auth"
	"eventcrm/internal/adapters/email"
	"eventcrm/internal/adapters/linktoken"
	deliveryhttp "eventcrm/internal/delivery/http"
	"eventcrm/internal/delivery/http/controllers"
	"eventcrm/internal/delivery/http/middleware"
	"eventcrm/internal/repository/postgres"
	"eventcrm/internal/services"
)

const shutdownTimeout = 15 * time.Second

// @title Event CRM API
// @version 1.0
// @description Event participation, user segments and bulk email for the community CRM.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()
	pingCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return err
	}

	codec, err := linktoken.New(cfg.LinkToken.Keys, cfg.LinkToken.ActiveKey, cfg.LinkToken.Location)
	if err != nil {
		return err
	}
	mailer, err := email.NewMailer(cfg.Mailer, logger)
	if err != nil {
		return err
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(reg)

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	participationRepo := postgres.NewParticipationRepository(db)
	attributionRepo := postgres.NewAttributionRepository(db)
	sendLogRepo := postgres.NewSendLogRepository(db)

	// Services
	timeout := cfg.RequestTimeout
	eventService := services.NewEventService(eventRepo, participationRepo, timeout)
	attributionService := services.NewAttributionService(attributionRepo, logger, timeout)
	segmentService := services.NewSegmentService(userRepo, timeout)
	participationService := services.NewParticipationService(services.ParticipationDeps{
		EventRepo:         eventRepo,
		ParticipationRepo: participationRepo,
		UserRepo:          userRepo,
		Codec:             codec,
		Attribution:       attributionService,
		Events:            eventService,
		Metrics:           metrics,
		Logger:            logger,
	}, timeout)
	bulkMailService := services.NewBulkMailService(services.BulkMailDeps{
		Segments:      segmentService,
		EventRepo:     eventRepo,
		SendLogs:      sendLogRepo,
		Codec:         codec,
		Mailer:        mailer,
		Renderer:      renderer,
		PublicBaseURL: cfg.PublicBaseURL,
		Metrics:       metrics,
		Logger:        logger,
	}, timeout)
	authService := services.NewAuthService(userRepo, auth.NewBcryptHasher(auth.DefaultBcryptCost), auth.NewJWTIssuer(cfg.JWTSecret), cfg.JWTExpiry, timeout)

	router := deliveryhttp.NewRouter(deliveryhttp.Controllers{
		Auth:          controllers.NewAuthController(logger, authService),
		Events:        controllers.NewEventController(logger, eventService),
		Participation: controllers.NewParticipationController(logger, participationService),
		Users:         controllers.NewUserController(logger, segmentService),
		Emails:        controllers.NewEmailController(logger, bulkMailService),
		SendLogs:      controllers.NewSendLogController(logger, services.NewSendLogService(sendLogRepo, timeout)),
		Attributions:  controllers.NewAttributionController(logger, attributionService),
	}, auth.NewJWTVerifier(cfg.JWTSecret), reg, logger)

	if u, err := url.Parse(cfg.PublicBaseURL); err == nil {
		docs.SwaggerInfo.Host = u.Host
	}
	handler := middleware.LoggingMiddleware(logger, middleware.CORS(cfg.CORSAllowedOrigins, router))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", server.Addr, "env", cfg.Environment, "email_provider", cfg.Mailer.Provider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	return server.Shutdown(shutdownCtx)
}

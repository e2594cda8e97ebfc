package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/admissions-api/internal/config"
	"github.com/jwalitptl/admissions-api/internal/email"
	"github.com/jwalitptl/admissions-api/internal/handler/application"
	"github.com/jwalitptl/admissions-api/internal/handler/auth"
	"github.com/jwalitptl/admissions-api/internal/handler/enrollment"
	"github.com/jwalitptl/admissions-api/internal/handler/health"
	"github.com/jwalitptl/admissions-api/internal/handler/messages"
	"github.com/jwalitptl/admissions-api/internal/handler/news"
	promhandler "github.com/jwalitptl/admissions-api/internal/handler/prometheus"
	studentHandler "github.com/jwalitptl/admissions-api/internal/handler/student"
	"github.com/jwalitptl/admissions-api/internal/handler/workspace"
	"github.com/jwalitptl/admissions-api/internal/middleware"
	"github.com/jwalitptl/admissions-api/internal/repository/postgres"
	"github.com/jwalitptl/admissions-api/internal/router"
	"github.com/jwalitptl/admissions-api/internal/service/admission"
	"github.com/jwalitptl/admissions-api/internal/service/audience"
	authService "github.com/jwalitptl/admissions-api/internal/service/auth"
	"github.com/jwalitptl/admissions-api/internal/service/composer"
	"github.com/jwalitptl/admissions-api/internal/service/dispatch"
	"github.com/jwalitptl/admissions-api/internal/service/history"
	"github.com/jwalitptl/admissions-api/internal/service/selection"
	studentService "github.com/jwalitptl/admissions-api/internal/service/student"
	pkgauth "github.com/jwalitptl/admissions-api/pkg/auth"
	"github.com/jwalitptl/admissions-api/pkg/logger"
	"github.com/jwalitptl/admissions-api/pkg/metrics"
	"github.com/jwalitptl/admissions-api/pkg/security"
	"github.com/jwalitptl/admissions-api/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Console:    cfg.Log.Console,
	})
	log.Logger = appLogger.ZL

	gin.SetMode(gin.ReleaseMode)
	validator.RegisterGin()

	// Initialize database
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.NewWithRegistry("admissions", registry)

	sender, err := email.NewSender(cfg.Email, appLogger.ZL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize email sender")
	}

	// Initialize repositories
	base := postgres.NewBaseRepository(db)
	studentRepo := postgres.NewStudentRepository(db)
	applicantRepo := postgres.NewApplicantRepository(db)
	documentRepo := postgres.NewDocumentRepository(db)
	contentRepo := postgres.NewContentRepository(db)
	sendRepo := postgres.NewMessageSendRepository(base)
	communicationRepo := postgres.NewCommunicationRepository(db)
	adminRepo := postgres.NewAdminRepository(db)
	matriculas := postgres.NewMatriculaSequence(db)

	// Initialize services
	jwtSvc := pkgauth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	authSvc := authService.NewService(adminRepo, jwtSvc, security.NewBcryptHasher(0))
	resolver := audience.NewResolver(studentRepo, applicantRepo, documentRepo)
	content := composer.NewContentResolver(contentRepo)
	engine := dispatch.NewEngine(resolver, content, sender, sendRepo, dispatch.Config{
		BatchSize: cfg.Dispatch.BatchSize,
		SiteURL:   cfg.Site.URL,
	}, appLogger, appMetrics)
	historySvc := history.NewService(sendRepo)
	studentSvc := studentService.NewService(studentRepo, applicantRepo, matriculas, appLogger)
	admissionSvc := admission.NewService(applicantRepo, documentRepo, communicationRepo, studentSvc, sender, appLogger)

	// Setup router
	r := router.NewRouter(
		middleware.NewAuthMiddleware(authSvc),
		router.Handlers{
			Auth:        auth.NewHandler(authSvc),
			Enrollment:  enrollment.NewHandler(admissionSvc),
			Messages:    messages.NewHandler(resolver, content, engine, historySvc),
			Workspace:   workspace.NewHandler(selection.NewStore(cfg.Dispatch.WorkspaceTTL), resolver, content, engine),
			Application: application.NewHandler(admissionSvc),
			Student:     studentHandler.NewHandler(studentSvc),
			News:        news.NewHandler(engine, content, historySvc),
			Health:      health.NewHandler(db),
			Metrics:     promhandler.New(registry),
		},
		router.RouterConfig{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			RequestTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			MaxBodyBytes:   cfg.Server.MaxBodyBytes,
			EnrollmentLimiter: middleware.NewRateLimiter(middleware.RateLimiterConfig{
				RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
				Burst:             cfg.RateLimit.Burst,
			}),
		},
	)
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("email_provider", cfg.Email.Provider).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pawtrail/petcare-api/internal/config"
	"github.com/pawtrail/petcare-api/internal/email"
	authHandler "github.com/pawtrail/petcare-api/internal/handler/auth"
	healthHandler "github.com/pawtrail/petcare-api/internal/handler/health"
	medicalHandler "github.com/pawtrail/petcare-api/internal/handler/medical"
	petHandler "github.com/pawtrail/petcare-api/internal/handler/pet"
	shareHandler "github.com/pawtrail/petcare-api/internal/handler/share"
	"github.com/pawtrail/petcare-api/internal/middleware"
	"github.com/pawtrail/petcare-api/internal/repository/postgres"
	"github.com/pawtrail/petcare-api/internal/router"
	accesslogService "github.com/pawtrail/petcare-api/internal/service/accesslog"
	authService "github.com/pawtrail/petcare-api/internal/service/auth"
	authzService "github.com/pawtrail/petcare-api/internal/service/authz"
	eventService "github.com/pawtrail/petcare-api/internal/service/event"
	medicalService "github.com/pawtrail/petcare-api/internal/service/medical"
	petService "github.com/pawtrail/petcare-api/internal/service/pet"
	shareService "github.com/pawtrail/petcare-api/internal/service/share"
	"github.com/pawtrail/petcare-api/pkg/auth"
	"github.com/pawtrail/petcare-api/pkg/logger"
	"github.com/pawtrail/petcare-api/pkg/metrics"
	"github.com/pawtrail/petcare-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	baseRepo := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(baseRepo)
	petRepo := postgres.NewPetRepository(baseRepo)
	caregiverRepo := postgres.NewCaregiverRepository(baseRepo)
	recordRepo := postgres.NewMedicalRecordRepository(baseRepo)
	shareRepo := postgres.NewShareRepository(baseRepo)
	accessLogRepo := postgres.NewAccessLogRepository(baseRepo)
	outboxRepo := postgres.NewOutboxRepository(baseRepo)

	jwtSvc, err := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiryHours) * time.Hour,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token service")
	}

	mailer := newMailer(cfg, appLogger)
	m := metrics.NewMetrics("petcare", "api")

	// Services
	authzSvc := authzService.NewService(petRepo, caregiverRepo, recordRepo, m)
	eventSvc := eventService.NewService(outboxRepo, appLogger)
	auditSvc := accesslogService.NewService(accessLogRepo, m)
	authSvc := authService.NewService(userRepo, jwtSvc, security.NewBcryptHasher(12), mailer, appLogger)
	petSvc := petService.NewService(petRepo, caregiverRepo, userRepo, authzSvc, eventSvc, appLogger)
	medicalSvc := medicalService.NewService(recordRepo, authzSvc, auditSvc)
	shareSvc := shareService.NewService(shareRepo, recordRepo, authzSvc, auditSvc, eventSvc, mailer, appLogger, m, cfg.Server.BaseURL)

	// Handlers
	authH := authHandler.NewHandler(authSvc)
	petH := petHandler.NewHandler(petSvc)
	medicalH := medicalHandler.NewHandler(medicalSvc)
	shareH := shareHandler.NewHandler(shareSvc)
	healthH := healthHandler.NewHandler(db)

	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)

	r := router.NewRouter(authMiddleware, authH, petH, medicalH, shareH, healthH, router.Config{
		RateLimitRPS:   cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst: cfg.RateLimit.Burst,
		Timeout:        time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		CORSConfig:     middleware.DefaultCORSConfig(),
	})
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	appLogger.Info("server started", "port", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info("server exited")
}

// newMailer falls back to a no-op sender when SMTP is not configured,
// so local development does not require a mail server.
func newMailer(cfg *config.Config, l *logger.Logger) email.Service {
	if cfg.SMTP.Host == "" {
		l.Warn("SMTP not configured, share notifications disabled")
		return email.NoopService{}
	}
	return email.NewSMTPService(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		BaseURL:  cfg.Server.BaseURL,
	})
}

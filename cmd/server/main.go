package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/oauth"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/ratelimit"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/storage"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	logging.Setup(cfg.AppEnv)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(db)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.NewJSONHandler(os.Stdout, cfg.AppEnv),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	logging.StartCleanup(ctx, db, logging.DefaultRetention)

	// Picture storage
	pictureStore, err := storage.NewS3Store(ctx, cfg)
	if err != nil {
		slog.Error("picture storage setup failed", "error", err)
		os.Exit(1)
	}

	// Rate limit counters: Redis when configured, process memory otherwise
	var limiterStorage fiber.Storage
	var pingRedis handlers.PingFunc
	if cfg.RedisURL != "" {
		redisStorage, err := ratelimit.NewRedisStorage(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("redis unavailable, rate limits kept in memory", "error", err)
		} else {
			limiterStorage = redisStorage
			pingRedis = redisStorage.Ping
			defer redisStorage.Close()
		}
	}

	// Identity providers
	var google services.IdentityProvider
	if cfg.GoogleEnabled() {
		google = oauth.NewGoogleProvider(cfg)
	}
	var apple services.AppleIdentityVerifier
	if len(cfg.AppleClientIDs) > 0 {
		verifier, err := oauth.NewAppleVerifier(cfg.AppleClientIDs)
		if err != nil {
			slog.Error("apple sign in disabled", "error", err)
		} else {
			apple = verifier
			defer verifier.Close()
		}
	}

	// Services
	accountRepo := repository.NewAccountRepository(db)
	accountService := services.NewAccountService(
		accountRepo,
		services.NewPasswordHasher(cfg.BcryptCost),
		services.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry),
		services.NewPictureService(pictureStore, int64(cfg.PictureMaxBytes), cfg.PictureSize),
	)
	federatedService := services.NewFederatedService(accountService, oauth.NewStateManager(cfg.JWTSecret, cfg.OAuthStateTTL), google, apple)
	analyticsService := services.NewAnalyticsService(accountRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(accountService, federatedService, cfg)
	accountHandler := handlers.NewAccountHandler(accountService)
	adminHandler := handlers.NewAdminHandler(accountService, analyticsService)
	healthHandler := handlers.NewHealthHandler(func(ctx context.Context) error {
		return database.Ping(ctx, db)
	}, pingRedis)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.PictureMaxBytes + 1024*1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${respHeader:X-Request-ID}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())
	app.Use(metrics.Middleware())

	// Routes
	routes.Setup(app, cfg, accountRepo, ratelimit.NewTiers(cfg, limiterStorage),
		authHandler, accountHandler, adminHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	cancel()
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error",
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"action", c.Method()+" "+c.Path(),
			"error", err.Error(),
		)
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}

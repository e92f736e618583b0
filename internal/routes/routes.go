package routes

import (
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/ratelimit"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	accounts middleware.AccountFinder,
	limits *ratelimit.Tiers,
	authHandler *handlers.AuthHandler,
	accountHandler *handlers.AccountHandler,
	adminHandler *handlers.AdminHandler,
	healthHandler *handlers.HealthHandler,
) {
	// Prometheus scrape endpoint, outside /api and its limiters
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	api.Use(limits.General)

	api.Get("/health", healthHandler.Check)

	// Auth: public, stricter limit
	auth := api.Group("/auth", limits.Auth)
	auth.Post("/signup", authHandler.Signup)
	auth.Post("/login", authHandler.Login)
	auth.Get("/google", authHandler.GoogleBegin)
	auth.Get("/google/callback", authHandler.GoogleCallback)
	auth.Post("/apple", authHandler.AppleSignIn)

	// Own account (JWT required)
	account := api.Group("/account", middleware.JWTProtected(cfg))
	account.Get("", accountHandler.Get)
	account.Patch("", accountHandler.Update)
	account.Post("/complete", accountHandler.Complete)
	account.Put("/password", accountHandler.ChangePassword)
	account.Post("/picture", limits.Upload, accountHandler.AttachPicture)
	account.Delete("/picture", accountHandler.DetachPicture)

	// Admin (JWT + admin required)
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(accounts, cfg))
	admin.Get("/accounts", adminHandler.ListAccounts)
	admin.Get("/accounts/:id", adminHandler.GetAccount)
	admin.Get("/analytics/summary", adminHandler.Summary)
	admin.Get("/analytics/gender", adminHandler.Gender)
	admin.Get("/analytics/age", adminHandler.Age)
	admin.Get("/analytics/registrations", adminHandler.Registrations)
}

package ratelimit

import (
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Tiers holds the three limiters mounted by the router.
type Tiers struct {
	General fiber.Handler
	Auth    fiber.Handler
	Upload  fiber.Handler
}

// NewTiers builds sliding-window per-IP limiters. A nil storage keeps
// counters in process memory.
func NewTiers(cfg *config.Config, storage fiber.Storage) *Tiers {
	return &Tiers{
		General: New("general", cfg.RateLimitGeneral, cfg.RateLimitWindow, storage),
		Auth:    New("auth", cfg.RateLimitAuth, cfg.RateLimitWindow, storage),
		Upload:  New("upload", cfg.RateLimitUpload, cfg.RateLimitWindow, storage),
	}
}

// New returns a limiter allowing max requests per window for each client IP.
// The tier name keeps counters of different tiers apart in shared storage.
func New(tier string, max int, window time.Duration, storage fiber.Storage) fiber.Handler {
	if window <= 0 {
		window = time.Minute
	}
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        window,
		LimiterMiddleware: limiter.SlidingWindow{},
		Storage:           storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return tier + ":" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			slog.Warn("rate limit reached", "tier", tier, "ip", c.IP(), "path", c.Path())
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Error: true, Message: "Too many requests, please try again later",
			})
		},
	})
}

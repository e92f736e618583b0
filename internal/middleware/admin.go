package middleware

import (
	"context"
	"crypto/subtle"
	"slices"
	"strings"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// AccountFinder loads the account behind a token so its stored role is authoritative.
type AccountFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// AdminRequired is a unified admin middleware that checks:
// 1. Config-based admin token header
// 2. Config-based admin emails/IDs
// 3. The stored account role
func AdminRequired(accounts AccountFinder, cfg *config.Config) fiber.Handler {
	adminEmails := config.ParseCSV(strings.ToLower(cfg.AdminEmails))
	adminUserIDs := config.ParseCSV(cfg.AdminUserIDs)

	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" {
			if subtle.ConstantTimeCompare([]byte(c.Get("X-Admin-Token")), []byte(cfg.AdminToken)) == 1 {
				return c.Next()
			}
		}

		claims, err := tokenClaims(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		email, _ := claims["email"].(string)
		sub, _ := claims["sub"].(string)

		if slices.Contains(adminEmails, models.NormalizeEmail(email)) || slices.Contains(adminUserIDs, sub) {
			return c.Next()
		}

		if id, err := uuid.Parse(sub); err == nil {
			if account, err := accounts.FindByID(c.UserContext(), id); err == nil && account.Role == models.RoleAdmin {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}
}

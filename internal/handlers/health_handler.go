package handlers

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// PingFunc checks a dependency. A nil PingFunc means the dependency is not in use.
type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	pingDB    PingFunc
	pingRedis PingFunc
}

func NewHealthHandler(pingDB, pingRedis PingFunc) *HealthHandler {
	return &HealthHandler{pingDB: pingDB, pingRedis: pingRedis}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	resp := dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        "ok",
	}
	status := fiber.StatusOK

	if err := h.pingDB(ctx); err != nil {
		resp.Status = "degraded"
		resp.DB = "unhealthy: " + err.Error()
		status = fiber.StatusServiceUnavailable
	}
	if h.pingRedis != nil {
		resp.Redis = "ok"
		if err := h.pingRedis(ctx); err != nil {
			resp.Status = "degraded"
			resp.Redis = "unhealthy: " + err.Error()
		}
	}
	return c.Status(status).JSON(resp)
}

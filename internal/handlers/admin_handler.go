package handlers

import (
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AdminHandler struct {
	accounts  *services.AccountService
	analytics *services.AnalyticsService
}

func NewAdminHandler(accounts *services.AccountService, analytics *services.AnalyticsService) *AdminHandler {
	return &AdminHandler{accounts: accounts, analytics: analytics}
}

func (h *AdminHandler) ListAccounts(c *fiber.Ctx) error {
	var q dto.ListAccountsQuery
	if err := c.QueryParser(&q); err != nil {
		return badRequest(c, "Invalid query parameters")
	}

	resp, err := h.accounts.ListAccounts(c.UserContext(), &q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *AdminHandler) GetAccount(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid account ID")
	}

	resp, err := h.accounts.GetAccount(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *AdminHandler) Summary(c *fiber.Ctx) error {
	resp, err := h.analytics.Summary(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *AdminHandler) Gender(c *fiber.Ctx) error {
	resp, err := h.analytics.GenderDistribution(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *AdminHandler) Age(c *fiber.Ctx) error {
	resp, err := h.analytics.AgeBuckets(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *AdminHandler) Registrations(c *fiber.Ctx) error {
	days := c.QueryInt("days", services.DefaultTrendDays)

	resp, err := h.analytics.DailyRegistrations(c.UserContext(), days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

package handlers

import (
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// AccountHandler serves the authenticated caller's own account.
type AccountHandler struct {
	accounts *services.AccountService
}

func NewAccountHandler(accounts *services.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

func (h *AccountHandler) Get(c *fiber.Ctx) error {
	id, err := middleware.AccountID(c)
	if err != nil {
		return unauthorized(c)
	}

	resp, err := h.accounts.GetAccount(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *AccountHandler) Complete(c *fiber.Ctx) error {
	id, err := middleware.AccountID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CompleteProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.accounts.CompleteProfile(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// Update accepts JSON, or a multipart form that may carry a new picture.
func (h *AccountHandler) Update(c *fiber.Ctx) error {
	id, err := middleware.AccountID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	picture, closePicture, err := pictureFromForm(c)
	if err != nil {
		return badRequest(c, "Invalid picture upload")
	}
	defer closePicture()

	resp, err := h.accounts.UpdateProfile(c.UserContext(), id, &req, picture)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *AccountHandler) ChangePassword(c *fiber.Ctx) error {
	id, err := middleware.AccountID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.accounts.ChangePassword(c.UserContext(), id, &req); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password updated successfully"})
}

func (h *AccountHandler) AttachPicture(c *fiber.Ctx) error {
	id, err := middleware.AccountID(c)
	if err != nil {
		return unauthorized(c)
	}

	picture, closePicture, err := pictureFromForm(c)
	if err != nil {
		return badRequest(c, "Invalid picture upload")
	}
	defer closePicture()

	resp, err := h.accounts.AttachPicture(c.UserContext(), id, picture)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *AccountHandler) DetachPicture(c *fiber.Ctx) error {
	id, err := middleware.AccountID(c)
	if err != nil {
		return unauthorized(c)
	}

	resp, err := h.accounts.DetachPicture(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

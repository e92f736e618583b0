package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/services"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v2"
)

// respondError maps service errors onto status codes. Server errors are
// logged and never leak their details to the client.
func respondError(c *fiber.Ctx, err error) error {
	resp := dto.ErrorResponse{Error: true}
	status := fiber.StatusInternalServerError

	switch {
	case errors.Is(err, services.ErrValidation):
		status = fiber.StatusBadRequest
		resp.Message, resp.Fields = validationDetails(err)
	case errors.Is(err, services.ErrDuplicateEmail):
		status = fiber.StatusConflict
		resp.Message = "Email is already registered"
	case errors.Is(err, services.ErrInvalidCredentials):
		status = fiber.StatusUnauthorized
		resp.Message = "Invalid email or password"
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
		resp.Message = "Account not found"
	case errors.Is(err, services.ErrUnauthorized):
		status = fiber.StatusUnauthorized
		resp.Message = "Unauthorized"
	case errors.Is(err, services.ErrNothingToDelete):
		status = fiber.StatusNotFound
		resp.Message = "No profile picture to delete"
	case errors.Is(err, services.ErrProviderDisabled):
		status = fiber.StatusNotImplemented
		resp.Message = "Sign-in provider is not configured"
	case errors.Is(err, services.ErrUpstream):
		status = fiber.StatusBadGateway
		resp.Message = "Upstream service unavailable"
	default:
		resp.Message = "Internal server error"
	}

	if status >= fiber.StatusInternalServerError {
		slog.Error("request failed",
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"action", c.Method()+" "+c.Route().Path,
			"error", err.Error(),
		)
	}
	return c.Status(status).JSON(resp)
}

func validationDetails(err error) (string, map[string]string) {
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		fields := make(map[string]string, len(fieldErrs))
		for name, fe := range fieldErrs {
			fields[name] = fe.Error()
		}
		return "Validation failed", fields
	}
	var ve *services.ValidationError
	if errors.As(err, &ve) && ve.Err != nil {
		return ve.Err.Error(), nil
	}
	return "Validation failed", nil
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

package handlers

import (
	"net/url"
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

const stateCookie = "oauth_state"

type AuthHandler struct {
	accounts  *services.AccountService
	federated *services.FederatedService
	cfg       *config.Config
}

func NewAuthHandler(accounts *services.AccountService, federated *services.FederatedService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{accounts: accounts, federated: federated, cfg: cfg}
}

// Signup accepts JSON, or a multipart form when a picture is attached.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	picture, closePicture, err := pictureFromForm(c)
	if err != nil {
		return badRequest(c, "Invalid picture upload")
	}
	defer closePicture()

	resp, err := h.accounts.Signup(c.UserContext(), &req, picture)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.accounts.Login(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// GoogleBegin redirects to Google. The state also goes into an HttpOnly
// cookie so the callback can prove it returns to the same browser.
func (h *AuthHandler) GoogleBegin(c *fiber.Ctx) error {
	redirect, state, err := h.federated.BeginGoogle()
	if err != nil {
		return respondError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/api/auth/google",
		MaxAge:   int(h.cfg.OAuthStateTTL / time.Second),
		Secure:   c.Protocol() == "https",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(redirect, fiber.StatusFound)
}

func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	cookieState := c.Cookies(stateCookie)
	c.ClearCookie(stateCookie)

	if c.Query("error") != "" {
		return unauthorized(c)
	}

	resp, err := h.federated.CompleteGoogle(c.UserContext(), c.Query("code"), c.Query("state"), cookieState)
	if err != nil {
		return respondError(c, err)
	}

	if h.cfg.FrontendURL != "" {
		q := url.Values{}
		q.Set("token", resp.Token)
		q.Set("profile_complete", strconv.FormatBool(resp.Account.ProfileComplete))
		return c.Redirect(h.cfg.FrontendURL+"/oauth/callback?"+q.Encode(), fiber.StatusFound)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) AppleSignIn(c *fiber.Ctx) error {
	var req dto.AppleSignInRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.federated.AppleSignIn(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

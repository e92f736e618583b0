package dto

import (
	"time"

	v "github.com/ahmetcoskunkizilkaya/accounts-backend/internal/validation"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SignupRequest is bound from JSON or from a multipart form carrying a picture.
type SignupRequest struct {
	Email    string  `json:"email" form:"email"`
	Password string  `json:"password" form:"password"`
	Name     *string `json:"name,omitempty" form:"name"`
	Age      *int    `json:"age,omitempty" form:"age"`
	Gender   *string `json:"gender,omitempty" form:"gender"`
}

func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, v.EmailRules...),
		validation.Field(&r.Password, v.PasswordRules...),
		validation.Field(&r.Name, v.NameRules...),
		validation.Field(&r.Age, v.AgeRules...),
		validation.Field(&r.Gender, v.GenderRules...),
	)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate only checks the email. A blank password is a credential mismatch,
// not malformed input.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
	)
}

// AppleSignInRequest carries the identity token from the native Apple flow.
// Apple only reveals the user's name to the client, on first authorization.
type AppleSignInRequest struct {
	IdentityToken string `json:"identity_token"`
	FullName      string `json:"full_name,omitempty"`
}

func (r AppleSignInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IdentityToken, validation.Required.Error("identity token is required")),
	)
}

type AuthResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Account   AccountResponse `json:"account"`
}

type ErrorResponse struct {
	Error   bool              `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
	Redis     string `json:"redis,omitempty"`
}

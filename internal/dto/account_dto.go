package dto

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/models"
	v "github.com/ahmetcoskunkizilkaya/accounts-backend/internal/validation"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

type AccountResponse struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	Name            *string    `json:"name,omitempty"`
	Age             *int       `json:"age,omitempty"`
	Gender          *string    `json:"gender,omitempty"`
	Picture         *string    `json:"picture,omitempty"`
	Provenance      string     `json:"provenance"`
	ProfileComplete bool       `json:"profile_complete"`
	HasPassword     bool       `json:"has_password"`
	Role            string     `json:"role"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func NewAccountResponse(a *models.Account) AccountResponse {
	return AccountResponse{
		ID:              a.ID,
		Email:           a.Email,
		Name:            a.Name,
		Age:             a.Age,
		Gender:          a.Gender,
		Picture:         a.Picture,
		Provenance:      string(a.Provenance),
		ProfileComplete: a.ProfileComplete,
		HasPassword:     a.HasPassword(),
		Role:            a.Role,
		LastLoginAt:     a.LastLoginAt,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// CompleteProfileRequest requires age and gender together. Password may only
// be sent by a federated account that has none yet.
type CompleteProfileRequest struct {
	Age      *int    `json:"age"`
	Gender   *string `json:"gender"`
	Password *string `json:"password,omitempty"`
}

func (r CompleteProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Age, append([]validation.Rule{validation.Required.Error("age is required")}, v.AgeRules...)...),
		validation.Field(&r.Gender, append([]validation.Rule{validation.Required.Error("gender is required")}, v.GenderRules...)...),
		validation.Field(&r.Password, validation.When(r.Password != nil, v.PasswordRules...)),
	)
}

// UpdateProfileRequest holds the optional fields of a profile update. Nil means "leave as is".
type UpdateProfileRequest struct {
	Name   *string `json:"name,omitempty" form:"name"`
	Age    *int    `json:"age,omitempty" form:"age"`
	Gender *string `json:"gender,omitempty" form:"gender"`
}

func (r UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, v.NameRules...),
		validation.Field(&r.Age, v.AgeRules...),
		validation.Field(&r.Gender, v.GenderRules...),
	)
}

func (r UpdateProfileRequest) Empty() bool {
	return r.Name == nil && r.Age == nil && r.Gender == nil
}

type ChangePasswordRequest struct {
	CurrentPassword *string `json:"current_password,omitempty"`
	NewPassword     string  `json:"new_password"`
}

func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NewPassword, v.PasswordRules...),
	)
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ListAccountsQuery is bound from the admin listing query string.
type ListAccountsQuery struct {
	Page       int    `query:"page"`
	Limit      int    `query:"limit"`
	Search     string `query:"search"`
	Provenance string `query:"provenance"`
	Complete   *bool  `query:"complete"`
}

func (q ListAccountsQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Page, validation.Min(0)),
		validation.Field(&q.Limit, validation.Min(0), validation.Max(MaxPageLimit)),
		validation.Field(&q.Search, validation.Length(0, v.MaxEmailLen)),
		validation.Field(&q.Provenance, validation.In(string(models.ProvenanceLocal), string(models.ProvenanceFederated))),
	)
}

// Normalize fills page defaults.
func (q *ListAccountsQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageLimit
	}
}

type AccountListResponse struct {
	Accounts []AccountResponse `json:"accounts"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Provenance records how an account first came into existence.
type Provenance string

const (
	ProvenanceLocal     Provenance = "local"
	ProvenanceFederated Provenance = "federated"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var ErrLocalWithoutCredential = errors.New("local account requires a password hash")

// Account is the persisted user identity.
type Account struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email           string     `gorm:"not null;size:255;uniqueIndex:idx_accounts_email" json:"email"`
	Name            *string    `gorm:"size:100" json:"name,omitempty"`
	PasswordHash    *string    `gorm:"size:72" json:"-"`
	Age             *int       `json:"age,omitempty"`
	Gender          *string    `gorm:"size:20;index" json:"gender,omitempty"`
	Picture         *string    `gorm:"size:1024" json:"picture,omitempty"`
	Provenance      Provenance `gorm:"size:20;not null;default:'local'" json:"provenance"`
	FederatedID     *string    `gorm:"size:255;uniqueIndex:idx_accounts_federated_id" json:"-"`
	ProfileComplete bool       `gorm:"not null;default:false" json:"profile_complete"`
	Role            string     `gorm:"size:20;default:'user'" json:"role"`
	LastLoginAt     *time.Time `gorm:"index" json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NormalizeEmail lower-cases and trims an address so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HasPassword reports whether a local credential is attached.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != nil && *a.PasswordHash != ""
}

// RecomputeProfile derives ProfileComplete from age and gender.
func (a *Account) RecomputeProfile() {
	a.ProfileComplete = a.Age != nil && a.Gender != nil
}

// BeforeSave keeps the derived and provenance invariants on every write.
func (a *Account) BeforeSave(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.Email = NormalizeEmail(a.Email)
	if a.Role == "" {
		a.Role = RoleUser
	}
	a.RecomputeProfile()
	if a.Provenance == ProvenanceLocal && !a.HasPassword() {
		return ErrLocalWithoutCredential
	}
	return nil
}

func (Account) TableName() string {
	return "accounts"
}

// Package validation holds the single set of input rules shared by signup,
// profile completion, profile update and password change.
package validation

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	MinAge         = 13
	MaxAge         = 120
	MinPasswordLen = 6
	// bcrypt ignores input past 72 bytes.
	MaxPasswordLen = 72
	MaxEmailLen    = 255
	MaxNameLen     = 100
)

const (
	GenderMale           = "male"
	GenderFemale         = "female"
	GenderOther          = "other"
	GenderPreferNotToSay = "prefer-not-to-say"
)

// Genders lists the accepted gender values in their normalised form.
var Genders = []string{GenderMale, GenderFemale, GenderOther, GenderPreferNotToSay}

var (
	EmailRules = []validation.Rule{
		validation.Required.Error("email is required"),
		validation.Length(3, MaxEmailLen),
		is.EmailFormat.Error("must be a valid email address"),
	}
	PasswordRules = []validation.Rule{
		validation.Required.Error("password is required"),
		validation.Length(MinPasswordLen, MaxPasswordLen).
			Error("password must be between 6 and 72 characters"),
	}
	AgeRules = []validation.Rule{
		validation.NilOrNotEmpty.Error("age must be between 13 and 120"),
		validation.Min(MinAge).Error("age must be between 13 and 120"),
		validation.Max(MaxAge).Error("age must be between 13 and 120"),
	}
	GenderRules = []validation.Rule{
		validation.By(validGender),
	}
	NameRules = []validation.Rule{
		validation.By(validName),
	}
)

// NormalizeGender lower-cases and trims a gender value.
func NormalizeGender(g string) string {
	return strings.ToLower(strings.TrimSpace(g))
}

// Email validates an address.
func Email(email string) error {
	return validation.Validate(email, EmailRules...)
}

// Password validates a new secret.
func Password(password string) error {
	return validation.Validate(password, PasswordRules...)
}

// Age validates an age value.
func Age(age int) error {
	return validation.Validate(age, AgeRules...)
}

// Gender validates a gender value, case-insensitively.
func Gender(gender string) error {
	return validation.Validate(gender, GenderRules...)
}

// Name validates a display name.
func Name(name string) error {
	return validation.Validate(name, NameRules...)
}

func validGender(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		if p, isPtr := value.(*string); isPtr && p != nil {
			s = *p
		} else {
			return nil
		}
	}
	normalized := NormalizeGender(s)
	for _, g := range Genders {
		if normalized == g {
			return nil
		}
	}
	return errors.New("gender must be one of: male, female, other, prefer-not-to-say")
}

func validName(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		if p, isPtr := value.(*string); isPtr && p != nil {
			s = *p
		} else {
			return nil
		}
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return errors.New("name cannot be blank")
	}
	if len([]rune(trimmed)) > MaxNameLen {
		return errors.New("name must be at most 100 characters")
	}
	return nil
}

package services

import (
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenService issues HS256 access tokens whose subject is the account id.
// Requests verify them through middleware.JWTProtected.
type TokenService struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, expiry time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), expiry: expiry, now: time.Now}
}

// Issue signs a token for the account and returns it with its expiry.
func (s *TokenService) Issue(account *models.Account) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.expiry)
	claims := jwt.MapClaims{
		"sub":        account.ID.String(),
		"email":      account.Email,
		"role":       account.Role,
		"provenance": string(account.Provenance),
		"iat":        now.Unix(),
		"exp":        expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// SubjectFromClaims extracts the account id from the sub claim of a verified token.
func SubjectFromClaims(claims jwt.Claims) (uuid.UUID, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return uuid.Nil, ErrUnauthorized
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrUnauthorized
	}
	return id, nil
}

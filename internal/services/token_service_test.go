package services

import (
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// verifyToken checks a token the way the JWT middleware does.
func verifyToken(s *TokenService, raw string) (uuid.UUID, error) {
	token, err := jwt.Parse(raw, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return uuid.Nil, ErrUnauthorized
	}
	return SubjectFromClaims(token.Claims)
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService("secret", 7*24*time.Hour)
	account := &models.Account{ID: uuid.New(), Email: "a@b.com", Role: models.RoleUser, Provenance: models.ProvenanceLocal}

	token, expiresAt, err := svc.Issue(account)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiresAt, time.Minute)

	sub, err := verifyToken(svc, token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, sub)
}

func TestTokenService_Rejects(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	account := &models.Account{ID: uuid.New()}

	foreign, _, err := NewTokenService("other", time.Hour).Issue(account)
	require.NoError(t, err)
	_, err = verifyToken(svc, foreign)
	assert.ErrorIs(t, err, ErrUnauthorized)

	past := NewTokenService("secret", time.Hour)
	past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := past.Issue(account)
	require.NoError(t, err)
	_, err = verifyToken(svc, expired)
	assert.ErrorIs(t, err, ErrUnauthorized)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": account.ID.String()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = verifyToken(svc, none)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSubjectFromClaims(t *testing.T) {
	_, err := SubjectFromClaims(jwt.MapClaims{"sub": "not-a-uuid"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	id := uuid.New()
	got, err := SubjectFromClaims(jwt.MapClaims{"sub": id.String()})
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(4)
	hash, err := h.Hash("abcdef")
	require.NoError(t, err)
	assert.True(t, h.Matches(hash, "abcdef"))
	assert.False(t, h.Matches(hash, "abcdeg"))
	assert.False(t, h.Matches("garbage", "abcdef"))
}

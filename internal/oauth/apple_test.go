package oauth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAppleVerifier(t *testing.T) (*AppleVerifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwksJSON, err := json.Marshal(map[string]interface{}{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": "test-kid",
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}},
	})
	require.NoError(t, err)

	jwks, err := keyfunc.NewJSON(jwksJSON)
	require.NoError(t, err)
	return NewAppleVerifierWithKeyfunc(jwks.Keyfunc, []string{"com.example.app"}), key
}

func signApple(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = "test-kid"
	s, err := tok.SignedString(key)
	require.NoError(t, err)
	return s
}

func appleClaimsFor(aud string) jwt.MapClaims {
	return jwt.MapClaims{
		"iss":            appleIssuer,
		"aud":            aud,
		"sub":            "001122.abc",
		"email":          "hidden@privaterelay.appleid.com",
		"email_verified": "true",
		"iat":            time.Now().Unix(),
		"exp":            time.Now().Add(time.Hour).Unix(),
	}
}

func TestAppleVerifier_Valid(t *testing.T) {
	v, key := newTestAppleVerifier(t)

	identity, err := v.Verify(context.Background(), signApple(t, key, appleClaimsFor("com.example.app")), " Jane Doe ")
	require.NoError(t, err)

	assert.Equal(t, "apple:001122.abc", identity.FederatedID())
	assert.Equal(t, "hidden@privaterelay.appleid.com", identity.Email)
	assert.True(t, identity.EmailVerified)
	assert.Equal(t, "Jane Doe", identity.Name)
}

func TestAppleVerifier_WrongAudience(t *testing.T) {
	v, key := newTestAppleVerifier(t)

	_, err := v.Verify(context.Background(), signApple(t, key, appleClaimsFor("com.other.app")), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAppleVerifier_WrongIssuer(t *testing.T) {
	v, key := newTestAppleVerifier(t)
	claims := appleClaimsFor("com.example.app")
	claims["iss"] = "https://evil.example.com"

	_, err := v.Verify(context.Background(), signApple(t, key, claims), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAppleVerifier_Expired(t *testing.T) {
	v, key := newTestAppleVerifier(t)
	claims := appleClaimsFor("com.example.app")
	claims["exp"] = time.Now().Add(-time.Minute).Unix()

	_, err := v.Verify(context.Background(), signApple(t, key, claims), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAppleVerifier_ForeignKey(t *testing.T) {
	v, _ := newTestAppleVerifier(t)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), signApple(t, other, appleClaimsFor("com.example.app")), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBoolClaim(t *testing.T) {
	assert.True(t, boolClaim(true))
	assert.True(t, boolClaim("true"))
	assert.False(t, boolClaim("nope"))
	assert.False(t, boolClaim(nil))
}

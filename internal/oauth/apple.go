package oauth

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ProviderApple = "apple"
	appleIssuer   = "https://appleid.apple.com"
	appleJWKSURL  = "https://appleid.apple.com/auth/keys"
)

type appleClaims struct {
	Email         string      `json:"email"`
	EmailVerified interface{} `json:"email_verified"`
	jwt.RegisteredClaims
}

// AppleVerifier validates Sign in with Apple identity tokens.
type AppleVerifier struct {
	keyfunc   jwt.Keyfunc
	clientIDs []string
	jwks      *keyfunc.JWKS
}

// NewAppleVerifier fetches Apple's JWKS and keeps it refreshed in the background.
func NewAppleVerifier(clientIDs []string) (*AppleVerifier, error) {
	jwks, err := keyfunc.Get(appleJWKSURL, keyfunc.Options{
		RefreshInterval:   24 * time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			slog.Error("apple jwks refresh failed", "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch apple jwks: %w", err)
	}
	v := NewAppleVerifierWithKeyfunc(jwks.Keyfunc, clientIDs)
	v.jwks = jwks
	return v, nil
}

func NewAppleVerifierWithKeyfunc(kf jwt.Keyfunc, clientIDs []string) *AppleVerifier {
	return &AppleVerifier{keyfunc: kf, clientIDs: clientIDs}
}

// Close stops the background JWKS refresh.
func (v *AppleVerifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// Verify checks the token and returns the identity it asserts. Apple only
// sends the user's name to the app on first authorization, so the client
// passes it alongside.
func (v *AppleVerifier) Verify(_ context.Context, identityToken, fullName string) (*Identity, error) {
	claims := &appleClaims{}
	token, err := jwt.ParseWithClaims(identityToken, claims, v.keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(appleIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !slices.ContainsFunc(claims.Audience, func(aud string) bool {
		return slices.Contains(v.clientIDs, aud)
	}) {
		return nil, fmt.Errorf("%w: unexpected audience %v", ErrInvalidToken, claims.Audience)
	}

	return &Identity{
		Provider:      ProviderApple,
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: boolClaim(claims.EmailVerified),
		Name:          strings.TrimSpace(fullName),
	}, nil
}

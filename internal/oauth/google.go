package oauth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/config"
)

const ProviderGoogle = "google"

type idTokenValidator func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// GoogleProvider runs the authorization-code exchange and validates the
// returned ID token against Google's signing keys.
type GoogleProvider struct {
	oauth    *oauth2.Config
	validate idTokenValidator
}

func NewGoogleProvider(cfg *config.Config) *GoogleProvider {
	return newGoogleProvider(&oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}, idtoken.Validate)
}

func newGoogleProvider(cfg *oauth2.Config, validate idTokenValidator) *GoogleProvider {
	return &GoogleProvider{oauth: cfg, validate: validate}
}

func (p *GoogleProvider) Name() string { return ProviderGoogle }

// AuthCodeURL is where the browser is sent to start the flow.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
}

// Exchange trades the callback code for a verified identity.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, ErrMissingToken
	}

	payload, err := p.validate(ctx, rawIDToken, p.oauth.ClientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return &Identity{
		Provider:      ProviderGoogle,
		Subject:       payload.Subject,
		Email:         stringClaim(payload.Claims, "email"),
		EmailVerified: boolClaim(payload.Claims["email_verified"]),
		Name:          stringClaim(payload.Claims, "name"),
		Picture:       stringClaim(payload.Claims, "picture"),
	}, nil
}

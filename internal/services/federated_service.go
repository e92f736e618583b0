package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/oauth"
)

// FederatedService runs the provider side of federated login and hands the
// verified identity to the account service. Begin and Complete share nothing
// but the signed state value.
type FederatedService struct {
	accounts *AccountService
	states   *oauth.StateManager
	google   IdentityProvider
	apple    AppleIdentityVerifier
}

func NewFederatedService(accounts *AccountService, states *oauth.StateManager, google IdentityProvider, apple AppleIdentityVerifier) *FederatedService {
	return &FederatedService{
		accounts: accounts,
		states:   states,
		google:   google,
		apple:    apple,
	}
}

// BeginGoogle returns the authorization URL to redirect to and the state
// embedded in it.
func (s *FederatedService) BeginGoogle() (redirectURL, state string, err error) {
	if s.google == nil {
		return "", "", ErrProviderDisabled
	}
	state, err = s.states.Issue(s.google.Name())
	if err != nil {
		return "", "", err
	}
	return s.google.AuthCodeURL(state), state, nil
}

// CompleteGoogle verifies the returned state against the copy the browser
// kept, exchanges the code and signs the identity in.
func (s *FederatedService) CompleteGoogle(ctx context.Context, code, state, cookieState string) (*dto.AuthResponse, error) {
	if s.google == nil {
		return nil, ErrProviderDisabled
	}
	if code == "" {
		return nil, invalid(fieldError("code", errors.New("authorization code is required")))
	}
	if state == "" || state != cookieState {
		s.fail(s.google.Name())
		return nil, ErrUnauthorized
	}
	if err := s.states.Verify(state, s.google.Name()); err != nil {
		s.fail(s.google.Name())
		return nil, ErrUnauthorized
	}

	identity, err := s.google.Exchange(ctx, code)
	if err != nil {
		s.fail(s.google.Name())
		return nil, providerError(s.google.Name(), err)
	}
	return s.accounts.FederatedLogin(ctx, identity)
}

// AppleSignIn verifies a native identity token and signs the identity in.
func (s *FederatedService) AppleSignIn(ctx context.Context, req *dto.AppleSignInRequest) (*dto.AuthResponse, error) {
	if s.apple == nil {
		return nil, ErrProviderDisabled
	}
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	identity, err := s.apple.Verify(ctx, req.IdentityToken, req.FullName)
	if err != nil {
		s.fail(oauth.ProviderApple)
		return nil, providerError(oauth.ProviderApple, err)
	}
	return s.accounts.FederatedLogin(ctx, identity)
}

func (s *FederatedService) fail(provider string) {
	metrics.Logins.WithLabelValues(provider, metrics.OutcomeFailure).Inc()
}

// providerError separates rejected credentials from a provider we could not reach.
func providerError(provider string, err error) error {
	if errors.Is(err, oauth.ErrInvalidToken) || errors.Is(err, oauth.ErrMissingToken) {
		slog.Warn("federated identity rejected", "provider", provider, "error", err)
		return ErrUnauthorized
	}
	slog.Error("identity provider failure", "provider", provider, "error", err)
	return upstream(provider, err)
}

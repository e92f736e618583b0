package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/oauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFederatedEnv(t *testing.T, google *fakeProvider, apple *fakeAppleVerifier) (*testEnv, *FederatedService) {
	t.Helper()
	env := newTestEnv(t)
	var provider IdentityProvider
	if google != nil {
		provider = google
	}
	var verifier AppleIdentityVerifier
	if apple != nil {
		verifier = apple
	}
	return env, NewFederatedService(env.svc, oauth.NewStateManager("state-secret", time.Minute), provider, verifier)
}

func TestGoogleFlow(t *testing.T) {
	google := &fakeProvider{identity: googleIdentity("abc", "g@b.com")}
	env, svc := newFederatedEnv(t, google, nil)

	redirect, state, err := svc.BeginGoogle()
	require.NoError(t, err)
	assert.Contains(t, redirect, state)

	resp, err := svc.CompleteGoogle(context.Background(), "the-code", state, state)
	require.NoError(t, err)
	assert.Equal(t, "g@b.com", resp.Account.Email)
	assert.Equal(t, []string{"the-code"}, google.codes)
	assert.Equal(t, 1, env.accounts.count())
}

func TestCompleteGoogle_Rejections(t *testing.T) {
	google := &fakeProvider{identity: googleIdentity("abc", "g@b.com")}
	env, svc := newFederatedEnv(t, google, nil)
	_, state, err := svc.BeginGoogle()
	require.NoError(t, err)

	_, err = svc.CompleteGoogle(context.Background(), "", state, state)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CompleteGoogle(context.Background(), "code", state, "")
	assert.ErrorIs(t, err, ErrUnauthorized, "cookie must match")

	_, err = svc.CompleteGoogle(context.Background(), "code", "forged", "forged")
	assert.ErrorIs(t, err, ErrUnauthorized)

	assert.Empty(t, google.codes, "no exchange happens before the state checks out")
	assert.Zero(t, env.accounts.count())
}

func TestCompleteGoogle_ProviderErrors(t *testing.T) {
	google := &fakeProvider{}
	_, svc := newFederatedEnv(t, google, nil)
	_, state, err := svc.BeginGoogle()
	require.NoError(t, err)

	google.err = oauth.ErrInvalidToken
	_, err = svc.CompleteGoogle(context.Background(), "code", state, state)
	assert.ErrorIs(t, err, ErrUnauthorized)

	google.err = errors.New("dial tcp: i/o timeout")
	_, err = svc.CompleteGoogle(context.Background(), "code", state, state)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestProvidersDisabled(t *testing.T) {
	_, svc := newFederatedEnv(t, nil, nil)

	_, _, err := svc.BeginGoogle()
	assert.ErrorIs(t, err, ErrProviderDisabled)

	_, err = svc.AppleSignIn(context.Background(), &dto.AppleSignInRequest{IdentityToken: "x"})
	assert.ErrorIs(t, err, ErrProviderDisabled)
}

func TestAppleSignIn(t *testing.T) {
	apple := &fakeAppleVerifier{identity: &oauth.Identity{
		Provider:      oauth.ProviderApple,
		Subject:       "001.apple",
		Email:         "relay@privaterelay.appleid.com",
		EmailVerified: true,
		Name:          "Jane",
	}}
	env, svc := newFederatedEnv(t, nil, apple)

	_, err := svc.AppleSignIn(context.Background(), &dto.AppleSignInRequest{})
	assert.ErrorIs(t, err, ErrValidation)

	resp, err := svc.AppleSignIn(context.Background(), &dto.AppleSignInRequest{IdentityToken: "token", FullName: "Jane"})
	require.NoError(t, err)
	assert.Equal(t, "federated", resp.Account.Provenance)
	assert.Equal(t, 1, env.accounts.count())

	apple.identity, apple.err = nil, oauth.ErrInvalidToken
	_, err = svc.AppleSignIn(context.Background(), &dto.AppleSignInRequest{IdentityToken: "token"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

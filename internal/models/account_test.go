package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestAccount_RecomputeProfile(t *testing.T) {
	tests := []struct {
		name   string
		age    *int
		gender *string
		want   bool
	}{
		{"neither", nil, nil, false},
		{"age only", ptr(30), nil, false},
		{"gender only", nil, ptr("other"), false},
		{"both", ptr(30), ptr("female"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Account{Age: tt.age, Gender: tt.gender, ProfileComplete: !tt.want}
			a.RecomputeProfile()
			assert.Equal(t, tt.want, a.ProfileComplete)
		})
	}
}

func TestAccount_BeforeSave(t *testing.T) {
	a := &Account{
		Email:           "  Someone@Example.COM ",
		PasswordHash:    ptr("hash"),
		Provenance:      ProvenanceLocal,
		ProfileComplete: true,
	}

	require.NoError(t, a.BeforeSave(nil))
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, "someone@example.com", a.Email)
	assert.Equal(t, RoleUser, a.Role)
	assert.False(t, a.ProfileComplete)
}

func TestAccount_BeforeSave_LocalNeedsPassword(t *testing.T) {
	a := &Account{Email: "a@b.com", Provenance: ProvenanceLocal}
	assert.ErrorIs(t, a.BeforeSave(nil), ErrLocalWithoutCredential)

	fed := &Account{Email: "a@b.com", Provenance: ProvenanceFederated}
	assert.NoError(t, fed.BeforeSave(nil))
}

package oauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const stateAudience = "oauth_state"

type stateClaims struct {
	Provider string `json:"prv"`
	jwt.RegisteredClaims
}

// StateManager issues self-contained, signed state values so the callback can
// be checked without any server-side session.
type StateManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewStateManager(secret string, ttl time.Duration) *StateManager {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (m *StateManager) TTL() time.Duration { return m.ttl }

// Issue returns a fresh state bound to provider.
func (m *StateManager) Issue(provider string) (string, error) {
	now := m.now()
	claims := stateClaims{
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Audience:  jwt.ClaimStrings{stateAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify checks signature, expiry, audience and provider binding.
func (m *StateManager) Verify(state, provider string) error {
	claims := &stateClaims{}
	token, err := jwt.ParseWithClaims(state, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(stateAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid || claims.Provider != provider {
		return ErrInvalidState
	}
	return nil
}

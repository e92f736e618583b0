// Package oauth verifies external identities: Google through the
// authorization-code flow and Apple through native identity tokens.
package oauth

import (
	"errors"
	"strconv"
)

var (
	ErrInvalidState = errors.New("invalid or expired oauth state")
	ErrMissingToken = errors.New("provider response carried no id_token")
	ErrInvalidToken = errors.New("identity token rejected")
)

// Identity is an externally verified identity.
type Identity struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// FederatedID is the provider-qualified correlation key stored on accounts.
func (i *Identity) FederatedID() string {
	return i.Provider + ":" + i.Subject
}

// boolClaim reads a claim that providers send either as a JSON bool or a string.
func boolClaim(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	}
	return false
}

func stringClaim(claims map[string]interface{}, key string) string {
	s, _ := claims[key].(string)
	return s
}

package auth

import (
	"crypto/subtle"

	domsvc "GridPulse/internal/domain/service"
)

// StaticTokenAuthorizer checks mutating requests against one shared operator
// token. An empty configured token denies everything, so a deployment that
// forgets to set it fails closed.
type StaticTokenAuthorizer struct {
	token string
}

func NewStaticTokenAuthorizer(token string) *StaticTokenAuthorizer {
	return &StaticTokenAuthorizer{token: token}
}

var _ domsvc.Authorizer = (*StaticTokenAuthorizer)(nil)

func (a *StaticTokenAuthorizer) Allow(token string) bool {
	if a.token == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a.token), []byte(token)) == 1
}

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/jwtauth"
)

// ErrNoOwner is returned when the verified token carries no subject
var ErrNoOwner = errors.New("token has no subject")

// OwnerFromContext returns the caller id from the verified JWT "sub" claim
func OwnerFromContext(ctx context.Context) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", err
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrNoOwner
	}
	return sub, nil
}

// Authenticated verifies bearer tokens and rejects requests without a
// valid one with 401.
func Authenticated(auth *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	verifier := jwtauth.Verifier(auth)
	return func(next http.Handler) http.Handler {
		return verifier(jwtauth.Authenticator(next))
	}
}

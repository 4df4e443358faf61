package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/media-catalog/internal/model"
	"github.com/sakif/media-catalog/internal/repository"
)

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the current-user value.
type contextKey string

const currentUserKey contextKey = "currentUser"

// unauthorizedBody is the single response body for every authentication
// failure. Missing header, malformed header, bad signature, expired token
// and deleted user are indistinguishable to the caller, so the credential
// chain can't be probed step by step.
const unauthorizedBody = `{"message":"Unauthorised"}`

var errMissingToken = errors.New("auth: missing or malformed bearer token")

// RequireAuth enforces bearer-token authentication on protected routes.
//
// Single pass per request:
//  1. Require an "Authorization: Bearer <token>" header.
//  2. Validate the token signature and expiry.
//  3. Look up the subject in the user store; a token can outlive its user.
//  4. Attach the resolved *model.User to the request context.
//
// The context is the only channel by which "current user" identity reaches
// the downstream services.
func RequireAuth(tokens *TokenService, users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolveUser(r, tokens, users)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(unauthorizedBody))
				return
			}

			ctx := context.WithValue(r.Context(), currentUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser retrieves the authenticated user from the request context.
// Returns (nil, false) on routes that didn't pass through RequireAuth.
func CurrentUser(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(currentUserKey).(*model.User)
	return user, ok && user != nil
}

// resolveUser performs the header, token and user lookup chain. Any failure is
// reported to the client identically; the specific cause is only visible
// here.
func resolveUser(r *http.Request, tokens *TokenService, users repository.UserRepository) (*model.User, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, errMissingToken
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errMissingToken
	}

	userID, err := tokens.Validate(parts[1])
	if err != nil {
		return nil, err
	}

	user, err := users.GetUserByID(r.Context(), userID)
	if err != nil {
		return nil, err
	}

	return user, nil
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/forgo/hangman/api/internal/model"
)

// PrincipalResolver turns a bearer credential into the caller's user ID
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, credential string) (string, error)
}

// bearerToken extracts the credential from an Authorization header
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// Auth returns a middleware that requires a resolvable bearer credential
func Auth(resolver PrincipalResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				model.NewUnauthorizedError("missing authorization header").WriteJSON(w)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				model.NewUnauthorizedError("invalid authorization header format").WriteJSON(w)
				return
			}

			userID, err := resolver.ResolvePrincipal(r.Context(), token)
			if err != nil || userID == "" {
				model.NewUnauthorizedError("invalid or expired token").WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// OptionalAuth is like Auth but doesn't require authentication.
// It will set the user ID in context if a valid token is present.
func OptionalAuth(resolver PrincipalResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := resolver.ResolvePrincipal(r.Context(), token)
			if err != nil || userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns ctx carrying the authenticated user ID
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID extracts the user ID from context
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// Package middleware provides HTTP middleware for the live-server gateway:
// session loading, request IDs, login throttling and security headers.
package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ruilibao/live-server/session"
)

// contextKey is the private type for request context keys
type contextKey string

const (
	sessionKey   contextKey = "session"
	RequestIDKey contextKey = "request_id"
)

// SessionMiddleware loads the client's session from its cookie into the
// request context. It never creates sessions; login handlers do that
// lazily. An expired or unknown cookie is treated as no session.
func SessionMiddleware(store session.Store, cookieName string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := store.Get(r.Context(), cookie.Value)
			if err != nil {
				if !errors.Is(err, session.ErrNotFound) {
					logger.Error("Session lookup failed", zap.Error(err))
				}
				next.ServeHTTP(w, r)
				return
			}

			// Record activity so the inactivity deadline moves forward.
			if err := store.Save(r.Context(), sess); err != nil {
				logger.Error("Failed to touch session", zap.Error(err))
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests whose session carries no user. It runs
// after SessionMiddleware on protected routes.
func RequireAuth(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := GetSession(r.Context())
			if !ok || sess.CurrentUser() == nil {
				logger.Debug("Unauthenticated request rejected",
					zap.String("path", r.URL.Path))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				if _, err := w.Write([]byte(`{"success":false,"message":"not logged in"}`)); err != nil {
					logger.Error("Failed to write auth error response", zap.Error(err))
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetSession extracts the session from the request context
func GetSession(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*session.Session)
	return sess, ok
}

// RequestIDMiddleware adds a unique request ID to each request context
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := generateRequestID()

			w.Header().Set("X-Request-ID", requestID)

			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// generateRequestID creates a random request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

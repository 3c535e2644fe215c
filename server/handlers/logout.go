package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ruilibao/live-server/auth"
	"github.com/ruilibao/live-server/config"
	"github.com/ruilibao/live-server/metrics"
	"github.com/ruilibao/live-server/server/middleware"
)

// Logout handles GET /logout: destroys the session, expires its cookie
// and redirects to the login entry point. Calling it with no live session
// is not an error.
func Logout(authn *auth.Authenticator, sessCfg *config.SessionConfig, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := middleware.GetSession(r.Context())
		if ok {
			if err := authn.Logout(r.Context(), sess); err != nil {
				// The session may already be gone; log and continue to
				// the redirect either way.
				logger.Error("Failed to destroy session", zap.Error(err))
			} else if sess.CurrentUser() != nil {
				metrics.ActiveSessions.Dec()
				metrics.LogoutsTotal.Inc()
			}
		}

		http.SetCookie(w, &http.Cookie{
			Name:     sessCfg.CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   sessCfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})

		http.Redirect(w, r, "/login", http.StatusFound)
	}
}

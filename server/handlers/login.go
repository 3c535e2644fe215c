package handlers

import (
	"net"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/ruilibao/live-server/auth"
	"github.com/ruilibao/live-server/config"
	"github.com/ruilibao/live-server/metrics"
	"github.com/ruilibao/live-server/server/middleware"
	"github.com/ruilibao/live-server/session"
)

// AjaxLogin handles POST /ajaxlogin: verifies credentials and returns a
// structured {success, message} result. Failures go through the shared
// classifier, so the message here and the form banner are always the same
// for the same failure.
func AjaxLogin(authn *auth.Authenticator, sessions session.Store, sessCfg *config.SessionConfig, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.PostFormValue("username")
		password := r.PostFormValue("password")

		sess, created, err := ensureSession(w, r, sessions, sessCfg)
		if err != nil {
			logger.Error("Failed to establish session", zap.Error(err))
			metrics.LoginAttemptsTotal.WithLabelValues(auth.KindUnexpected.String()).Inc()
			SendResponse(w, logger, http.StatusInternalServerError, ResponseModel{Success: false, Message: auth.MsgServerBusy})
			return
		}

		_, err = authn.Authenticate(r.Context(), sess, username, password, clientAddr(r))
		if err != nil {
			msg, kind := auth.Classify(err)
			logLoginFailure(logger, kind, err, username)
			metrics.LoginAttemptsTotal.WithLabelValues(kind.String()).Inc()
			SendResponse(w, logger, http.StatusOK, ResponseModel{Success: false, Message: msg})
			return
		}

		if created {
			metrics.ActiveSessions.Inc()
		}
		metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
		SendResponse(w, logger, http.StatusOK, ResponseModel{Success: true, Message: "login successful"})
	}
}

// FormLogin handles POST /login: same verification as AjaxLogin, but the
// outcome travels as a redirect. Failures land back on the login page with
// the classified message as the error banner.
func FormLogin(authn *auth.Authenticator, sessions session.Store, sessCfg *config.SessionConfig, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.PostFormValue("username")
		password := r.PostFormValue("password")

		sess, created, err := ensureSession(w, r, sessions, sessCfg)
		if err != nil {
			logger.Error("Failed to establish session", zap.Error(err))
			metrics.LoginAttemptsTotal.WithLabelValues(auth.KindUnexpected.String()).Inc()
			http.Redirect(w, r, "/login?error="+url.QueryEscape(auth.MsgServerBusy), http.StatusFound)
			return
		}

		_, err = authn.Authenticate(r.Context(), sess, username, password, clientAddr(r))
		if err != nil {
			msg, kind := auth.Classify(err)
			logLoginFailure(logger, kind, err, username)
			metrics.LoginAttemptsTotal.WithLabelValues(kind.String()).Inc()
			http.Redirect(w, r, "/login?error="+url.QueryEscape(msg), http.StatusFound)
			return
		}

		if created {
			metrics.ActiveSessions.Inc()
		}
		metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

// LoginPage handles GET /login, the login entry point. A classified error
// message from a failed form submit arrives in the error query parameter
// and is echoed back as the page-level banner.
func LoginPage(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		banner := r.URL.Query().Get("error")
		if banner != "" {
			SendResponse(w, logger, http.StatusOK, ResponseModel{Success: false, Message: banner})
			return
		}
		SendResponse(w, logger, http.StatusOK, ResponseModel{Success: true, Message: "please log in"})
	}
}

// SessionInfo handles GET /session for the front end. The route sits
// behind RequireAuth, so a session with a user is guaranteed here.
func SessionInfo(logger *zap.Logger) http.HandlerFunc {
	type sessionInfo struct {
		Username string `json:"username"`
		UserType string `json:"user_type"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := middleware.GetSession(r.Context())
		user := sess.CurrentUser()
		SendJSONResponse(w, logger, sessionInfo{
			Username: user.Username,
			UserType: sess.UserType(),
		})
	}
}

// Index handles GET /: authenticated clients get the main entry, everyone
// else is sent to the login page.
func Index(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := middleware.GetSession(r.Context())
		if !ok || sess.CurrentUser() == nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		SendResponse(w, logger, http.StatusOK, ResponseModel{Success: true, Message: "welcome " + sess.CurrentUser().Username})
	}
}

// ensureSession returns the request's session, creating one and setting
// its cookie when the client has none yet. Sessions are created lazily on
// the login paths only.
func ensureSession(w http.ResponseWriter, r *http.Request, sessions session.Store, sessCfg *config.SessionConfig) (*session.Session, bool, error) {
	if sess, ok := middleware.GetSession(r.Context()); ok {
		return sess, false, nil
	}

	sess, err := sessions.Create(r.Context())
	if err != nil {
		return nil, false, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessCfg.CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   sessCfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	return sess, true, nil
}

// clientAddr derives the client address for the last-login record.
// Forwarded headers are already honored upstream by chi's RealIP
// middleware, which rewrites RemoteAddr.
func clientAddr(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// logLoginFailure logs expected failures at debug level and unexpected
// ones at error level.
func logLoginFailure(logger *zap.Logger, kind auth.Kind, err error, username string) {
	if kind == auth.KindUnexpected {
		logger.Error("Login failed unexpectedly",
			zap.String("username", username),
			zap.Error(err))
		return
	}
	logger.Debug("Login failed",
		zap.String("username", username),
		zap.String("kind", kind.String()))
}

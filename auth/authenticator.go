package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ruilibao/live-server/session"
	"github.com/ruilibao/live-server/users"
)

// Authenticator verifies submitted credentials against the credential
// store, enforces the per-username attempt limit, and on success binds the
// user into the session and records the login on the user record.
type Authenticator struct {
	users    users.Store
	sessions session.Store
	tracker  *AttemptTracker
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(userStore users.Store, sessionStore session.Store, tracker *AttemptTracker, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		users:    userStore,
		sessions: sessionStore,
		tracker:  tracker,
		logger:   logger,
		now:      time.Now,
	}
}

// Authenticate verifies (username, password) and establishes the session
// on success. Failures are returned as *Error values carrying their Kind;
// any other error means something unexpected broke below us.
//
// Check order: account existence, locked flag, attempt limit, password.
// A locked account fails as locked even when the password is correct.
func (a *Authenticator) Authenticate(ctx context.Context, sess *session.Session, username, password, clientAddr string) (*users.User, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	if username == "" {
		a.logger.Debug("Login with empty username rejected")
		return nil, ErrUnknownAccount
	}

	// A session that already carries this user was authenticated through
	// the cached verification path; reuse the record instead of asking
	// the store again. Persistent session stores strip the password hash
	// from the wire format, so a rehydrated record forces a fresh lookup.
	var user *users.User
	fromSession := false
	if bound := sess.CurrentUser(); bound != nil && bound.Username == username && bound.PasswordHash != "" {
		user = bound
		fromSession = true
	} else {
		u, err := a.users.GetByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, users.ErrNotFound) {
				a.logger.Debug("Login for unknown username", zap.String("username", username))
				return nil, ErrUnknownAccount
			}
			return nil, fmt.Errorf("credential store lookup failed: %w", err)
		}
		user = u
	}

	// Locked wins over everything but an unknown account, including a
	// correct password.
	if user.Locked {
		a.logger.Debug("Login for locked account", zap.String("username", username))
		return nil, ErrLockedAccount
	}

	if a.tracker.RecordAttempt(username) {
		a.logger.Debug("Login attempt refused by rate limit", zap.String("username", username))
		return nil, NewRateLimitedError(a.tracker.Message())
	}

	if !user.CheckPassword(password) {
		a.logger.Debug("Login with incorrect password", zap.String("username", username))
		return nil, ErrIncorrectCredentials
	}

	a.tracker.Reset(username)

	// Bind only if absent; a racing duplicate submit binds the same user
	// and last-write-wins is acceptable.
	if !fromSession {
		user = sess.BindUserIfAbsent(user)
	}

	// The last-login write happens on every successful login, not only
	// the first one in a session.
	loginTime := a.now().UTC()
	if err := a.users.UpdateLastLogin(ctx, user.ID, loginTime, clientAddr); err != nil {
		return nil, fmt.Errorf("failed to record login for user %d: %w", user.ID, err)
	}
	user.LastLoginTime = loginTime
	user.LastLoginIP = clientAddr

	if err := a.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session %s: %w", sess.ID, err)
	}

	a.logger.Debug("Login succeeded",
		zap.String("username", username),
		zap.String("user_type", user.UserType),
		zap.String("client_addr", clientAddr))

	return user, nil
}

// Logout destroys the session. It is idempotent: logging out with no live
// session is not an error.
func (a *Authenticator) Logout(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return nil
	}
	if err := a.sessions.Destroy(ctx, sess.ID); err != nil {
		return fmt.Errorf("failed to destroy session %s: %w", sess.ID, err)
	}
	a.logger.Debug("Session destroyed", zap.String("session_id", sess.ID))
	return nil
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ruilibao/live-server/auth"
	"github.com/ruilibao/live-server/config"
	"github.com/ruilibao/live-server/server/middleware"
	"github.com/ruilibao/live-server/session"
	sessionmemory "github.com/ruilibao/live-server/session/memory"
	"github.com/ruilibao/live-server/users"
)

type stubUserStore struct {
	records  map[string]*users.User
	getCalls int
}

func (s *stubUserStore) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	s.getCalls++
	u, ok := s.records[username]
	if !ok {
		return nil, users.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *stubUserStore) Create(ctx context.Context, u *users.User) error { return nil }

func (s *stubUserStore) UpdateLastLogin(ctx context.Context, id int64, loginTime time.Time, loginIP string) error {
	for _, u := range s.records {
		if u.ID == id {
			u.LastLoginTime = loginTime
			u.LastLoginIP = loginIP
			return nil
		}
	}
	return users.ErrNotFound
}

func (s *stubUserStore) SetLocked(ctx context.Context, username string, locked bool) error {
	return nil
}

func (s *stubUserStore) Close() error { return nil }

type loginEnv struct {
	router    chi.Router
	userStore *stubUserStore
	sessions  session.Store
	sessCfg   config.SessionConfig
}

func newLoginEnv(t *testing.T) *loginEnv {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	userStore := &stubUserStore{records: map[string]*users.User{
		"alice": {ID: 1, Username: "alice", PasswordHash: string(hash), UserType: "admin"},
		"carol": {ID: 2, Username: "carol", PasswordHash: string(hash), UserType: "member", Locked: true},
	}}

	logger := zap.NewNop()
	sessions := sessionmemory.NewMemoryStore(time.Minute, logger)
	t.Cleanup(func() { sessions.Close() })

	sessCfg := config.SessionConfig{CookieName: "LIVESESSIONID", Timeout: time.Minute}
	tracker := auth.NewAttemptTracker(5, time.Minute)
	authn := auth.NewAuthenticator(userStore, sessions, tracker, logger)

	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(sessions, sessCfg.CookieName, logger))
	r.Post("/ajaxlogin", AjaxLogin(authn, sessions, &sessCfg, logger))
	r.Post("/login", FormLogin(authn, sessions, &sessCfg, logger))
	r.Get("/login", LoginPage(logger))
	r.Get("/logout", Logout(authn, &sessCfg, logger))
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(logger))
		r.Get("/session", SessionInfo(logger))
	})

	return &loginEnv{router: r, userStore: userStore, sessions: sessions, sessCfg: sessCfg}
}

func (e *loginEnv) postLogin(t *testing.T, path, username, password string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeModel(t *testing.T, rec *httptest.ResponseRecorder) ResponseModel {
	t.Helper()
	var model ResponseModel
	if err := json.NewDecoder(rec.Body).Decode(&model); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return model
}

func TestAjaxLoginSuccess(t *testing.T) {
	env := newLoginEnv(t)

	rec := env.postLogin(t, "/ajaxlogin", "alice", "secret", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	model := decodeModel(t, rec)
	if !model.Success {
		t.Fatalf("expected success, got %q", model.Message)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("login must set a session cookie")
	}

	// The session now answers for the logged-in user.
	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.AddCookie(cookies[0])
	rec2 := httptest.NewRecorder()
	env.router.ServeHTTP(rec2, req)

	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 from /session, got %d", rec2.Code)
	}
	if !strings.Contains(rec2.Body.String(), "alice") {
		t.Errorf("session info must name the user: %s", rec2.Body.String())
	}

	// The last-login write happened.
	if env.userStore.records["alice"].LastLoginTime.IsZero() {
		t.Error("login must record the last-login time")
	}
}

func TestAjaxLoginFailures(t *testing.T) {
	tests := []struct {
		name        string
		username    string
		password    string
		expectedMsg string
	}{
		{
			name:        "unknown username",
			username:    "mallory",
			password:    "secret",
			expectedMsg: "username/password incorrect",
		},
		{
			name:        "wrong password",
			username:    "alice",
			password:    "wrong",
			expectedMsg: "username/password incorrect",
		},
		{
			name:        "locked account with correct password",
			username:    "carol",
			password:    "secret",
			expectedMsg: "account is locked",
		},
		{
			name:        "empty username",
			username:    "",
			password:    "secret",
			expectedMsg: "username/password incorrect",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newLoginEnv(t)
			rec := env.postLogin(t, "/ajaxlogin", tt.username, tt.password, nil)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			model := decodeModel(t, rec)
			if model.Success {
				t.Fatal("expected failure")
			}
			if model.Message != tt.expectedMsg {
				t.Errorf("expected message %q, got %q", tt.expectedMsg, model.Message)
			}
		})
	}
}

func TestFormLoginRedirects(t *testing.T) {
	env := newLoginEnv(t)

	// Failure: back to the login page with the classified banner.
	rec := env.postLogin(t, "/login", "alice", "wrong", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/login?error=") {
		t.Fatalf("expected redirect to login with error, got %q", loc)
	}
	if !strings.Contains(loc, url.QueryEscape("username/password incorrect")) {
		t.Errorf("banner must carry the classified message, got %q", loc)
	}

	// Success: to the main page.
	rec = env.postLogin(t, "/login", "alice", "secret", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("expected redirect to /, got %q", loc)
	}
}

func TestLoginPageBanner(t *testing.T) {
	env := newLoginEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/login?error="+url.QueryEscape("account is locked"), nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	model := decodeModel(t, rec)
	if model.Success || model.Message != "account is locked" {
		t.Errorf("expected banner to echo the error, got %+v", model)
	}
}

// Re-authentication in the same session must skip the lookup used for the
// user-to-session binding but still record the login.
func TestAjaxLoginIdempotentRebind(t *testing.T) {
	env := newLoginEnv(t)

	rec := env.postLogin(t, "/ajaxlogin", "alice", "secret", nil)
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("first login must set a cookie")
	}
	callsAfterFirst := env.userStore.getCalls
	env.userStore.records["alice"].LastLoginIP = ""

	rec2 := env.postLogin(t, "/ajaxlogin", "alice", "secret", cookies)
	if model := decodeModel(t, rec2); !model.Success {
		t.Fatalf("second login failed: %q", model.Message)
	}

	if env.userStore.getCalls != callsAfterFirst {
		t.Errorf("second login must not look the user up again (calls %d -> %d)", callsAfterFirst, env.userStore.getCalls)
	}
	if env.userStore.records["alice"].LastLoginIP == "" {
		t.Error("second login must still record the last-login fields")
	}
}

func TestLogout(t *testing.T) {
	env := newLoginEnv(t)

	rec := env.postLogin(t, "/ajaxlogin", "alice", "secret", nil)
	cookies := rec.Result().Cookies()

	// Logout redirects to the login entry point.
	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec2 := httptest.NewRecorder()
	env.router.ServeHTTP(rec2, req)

	if rec2.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec2.Code)
	}
	if loc := rec2.Header().Get("Location"); loc != "/login" {
		t.Errorf("expected redirect to /login, got %q", loc)
	}

	// The session is gone: any session read reports no current user.
	req = httptest.NewRequest(http.MethodGet, "/session", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec3 := httptest.NewRecorder()
	env.router.ServeHTTP(rec3, req)
	if rec3.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", rec3.Code)
	}
}

func TestLogoutWithoutSession(t *testing.T) {
	env := newLoginEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Errorf("logout without a session must still redirect, got %d", rec.Code)
	}
}

func TestSessionInfoRequiresAuth(t *testing.T) {
	env := newLoginEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

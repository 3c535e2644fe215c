// Package session defines the server-side session model and the store
// interface that keeps authenticated client state between requests.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/ruilibao/live-server/users"
)

// Common session store errors
var (
	ErrNotFound = errors.New("session not found")
)

// Attribute keys used in the session wire format
const (
	CurrentUserKey = "currentUser"
	UserTypeKey    = "userType"
)

// Session represents a single client's server-side state. A session that
// carries a user is an authenticated session; one without a user is not.
type Session struct {
	ID string

	mu           sync.RWMutex
	user         *users.User
	userType     string
	attrs        map[string]string
	lastActivity time.Time
}

// New creates an unauthenticated session with the given identifier.
func New(id string) *Session {
	return &Session{
		ID:           id,
		attrs:        make(map[string]string),
		lastActivity: time.Now().UTC(),
	}
}

// CurrentUser returns the bound user, or nil if the session is unauthenticated.
func (s *Session) CurrentUser() *users.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// UserType returns the bound user's type tag, or the empty string.
func (s *Session) UserType() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userType
}

// BindUser binds a user and its type tag into the session, overwriting any
// previous binding.
func (s *Session) BindUser(u *users.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
	s.userType = u.UserType
}

// BindUserIfAbsent binds the user only when no user is bound yet and returns
// the user that ends up bound. Concurrent binds for the same session resolve
// last-write-wins; racing callers are expected to bind the same user.
func (s *Session) BindUserIfAbsent(u *users.User) *users.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil {
		return s.user
	}
	s.user = u
	s.userType = u.UserType
	return u
}

// Value returns a generic session attribute.
func (s *Session) Value(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.attrs[key]
	return v, ok
}

// SetValue stores a generic session attribute.
func (s *Session) SetValue(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs[key] = value
}

// LastActivity returns the time of the most recent Touch.
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// Touch records request activity, deferring inactivity expiry.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now().UTC()
}

// sessionRecord is the JSON wire format used by persistent stores.
type sessionRecord struct {
	ID           string            `json:"id"`
	CurrentUser  *users.User       `json:"currentUser,omitempty"`
	UserType     string            `json:"userType,omitempty"`
	Attrs        map[string]string `json:"attrs,omitempty"`
	LastActivity time.Time         `json:"last_activity"`
}

// MarshalJSON implements json.Marshaler.
func (s *Session) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(sessionRecord{
		ID:           s.ID,
		CurrentUser:  s.user,
		UserType:     s.userType,
		Attrs:        s.attrs,
		LastActivity: s.lastActivity,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Session) UnmarshalJSON(data []byte) error {
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ID = rec.ID
	s.user = rec.CurrentUser
	s.userType = rec.UserType
	s.attrs = rec.Attrs
	if s.attrs == nil {
		s.attrs = make(map[string]string)
	}
	s.lastActivity = rec.LastActivity
	return nil
}

// Store defines the interface for session storage operations
type Store interface {
	// Create allocates a new session with a fresh opaque identifier
	Create(ctx context.Context) (*Session, error)

	// Get retrieves a live session by identifier; expired or unknown
	// identifiers yield ErrNotFound
	Get(ctx context.Context, id string) (*Session, error)

	// Save persists the session's current state and refreshes its
	// inactivity deadline
	Save(ctx context.Context, sess *Session) error

	// Destroy removes the session; destroying an unknown session is not
	// an error
	Destroy(ctx context.Context, id string) error

	// Close releases the store's resources
	Close() error
}

package session

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ruilibao/live-server/users"
)

// The redis store round-trips sessions as JSON; the bound user and its
// type tag must survive.
func TestSessionJSONRoundTrip(t *testing.T) {
	sess := New("abc-123")
	sess.BindUser(&users.User{ID: 5, Username: "alice", UserType: "anchor"})
	sess.SetValue("theme", "dark")

	raw, err := json.Marshal(sess)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var got Session
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if got.ID != "abc-123" {
		t.Errorf("expected id abc-123, got %q", got.ID)
	}
	user := got.CurrentUser()
	if user == nil || user.Username != "alice" || user.ID != 5 {
		t.Fatalf("bound user lost in round trip: %+v", user)
	}
	if got.UserType() != "anchor" {
		t.Errorf("expected user type anchor, got %q", got.UserType())
	}
	if v, ok := got.Value("theme"); !ok || v != "dark" {
		t.Errorf("attribute lost in round trip: %q %v", v, ok)
	}
}

// The password hash must never enter the session wire format.
func TestSessionJSONOmitsPasswordHash(t *testing.T) {
	sess := New("abc-123")
	sess.BindUser(&users.User{ID: 5, Username: "alice", PasswordHash: "bcrypt-hash"})

	raw, err := json.Marshal(sess)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	if strings.Contains(string(raw), "bcrypt-hash") {
		t.Errorf("password hash leaked into wire format: %s", raw)
	}
}

package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ruilibao/live-server/users"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "users.sqlite3"), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndGetByUsername(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u := &users.User{Username: "alice", PasswordHash: "hash", UserType: "admin"}
	if err := store.Create(ctx, u); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if u.ID == 0 {
		t.Error("create must assign an id")
	}

	got, err := store.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ID != u.ID || got.Username != "alice" || got.PasswordHash != "hash" || got.UserType != "admin" {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.Locked {
		t.Error("new user must not be locked")
	}
}

func TestGetUnknownUsername(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetByUsername(context.Background(), "nobody")
	if !errors.Is(err, users.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateDuplicateUsername(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, &users.User{Username: "alice", PasswordHash: "h1"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	err := store.Create(ctx, &users.User{Username: "alice", PasswordHash: "h2"})
	if !errors.Is(err, users.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestUpdateLastLogin(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u := &users.User{Username: "alice", PasswordHash: "hash"}
	if err := store.Create(ctx, u); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	loginTime := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	if err := store.UpdateLastLogin(ctx, u.ID, loginTime, "203.0.113.7"); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := store.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !got.LastLoginTime.Equal(loginTime) {
		t.Errorf("expected last login %v, got %v", loginTime, got.LastLoginTime)
	}
	if got.LastLoginIP != "203.0.113.7" {
		t.Errorf("expected last login IP 203.0.113.7, got %q", got.LastLoginIP)
	}
}

func TestUpdateLastLoginUnknownID(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateLastLogin(context.Background(), 999, time.Now(), "10.0.0.1")
	if !errors.Is(err, users.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetLocked(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u := &users.User{Username: "alice", PasswordHash: "hash"}
	if err := store.Create(ctx, u); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := store.SetLocked(ctx, "alice", true); err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	got, err := store.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !got.Locked {
		t.Error("user must be locked")
	}

	if err := store.SetLocked(ctx, "alice", false); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	got, err = store.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Locked {
		t.Error("user must be unlocked")
	}

	if err := store.SetLocked(ctx, "nobody", true); !errors.Is(err, users.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown user, got %v", err)
	}
}

package auth

import (
	"fmt"
	"sync"
	"time"
)

// AttemptTracker counts consecutive failed login attempts per username
// inside a sliding window. Once the threshold is reached, further attempts
// for that username are refused until the window expires. Counters for
// different usernames are independent.
type AttemptTracker struct {
	mu        sync.Mutex
	threshold int
	window    time.Duration
	records   map[string]*attemptRecord
	now       func() time.Time
}

type attemptRecord struct {
	count       int
	windowStart time.Time
}

// NewAttemptTracker creates a tracker that refuses attempts after
// threshold consecutive failures within window. A threshold of zero
// disables tracking.
func NewAttemptTracker(threshold int, window time.Duration) *AttemptTracker {
	return &AttemptTracker{
		threshold: threshold,
		window:    window,
		records:   make(map[string]*attemptRecord),
		now:       time.Now,
	}
}

// RecordAttempt registers a verification attempt for the username and
// reports whether the attempt must be refused because the threshold was
// already reached within the window. The check and the increment happen
// under one lock so concurrent attempts cannot slip past the limit.
func (t *AttemptTracker) RecordAttempt(username string) bool {
	if t.threshold <= 0 {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	rec, ok := t.records[username]
	if !ok || now.Sub(rec.windowStart) > t.window {
		t.records[username] = &attemptRecord{count: 1, windowStart: now}
		return false
	}

	rec.count++
	return rec.count > t.threshold
}

// Reset clears the counter for a username after a successful login.
func (t *AttemptTracker) Reset(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, username)
}

// Message returns the user-facing text for refused attempts. It is passed
// through classification verbatim.
func (t *AttemptTracker) Message() string {
	return fmt.Sprintf("excessive login attempts, retry after %s", t.window)
}

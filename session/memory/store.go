// Package memory implements an in-process session store with inactivity
// expiry. Suitable for a single trusted backend process.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ruilibao/live-server/session"
)

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
	ttl      time.Duration
	logger   *zap.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates an in-memory session store. Sessions idle for
// longer than ttl behave as absent and are swept in the background.
func NewMemoryStore(ttl time.Duration, logger *zap.Logger) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*session.Session),
		ttl:      ttl,
		logger:   logger,
		stop:     make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

func (s *MemoryStore) Create(ctx context.Context) (*session.Session, error) {
	sess := session.New(uuid.NewString())

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, session.ErrNotFound
	}

	if s.expired(sess) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, session.ErrNotFound
	}

	return sess, nil
}

func (s *MemoryStore) Save(ctx context.Context, sess *session.Session) error {
	sess.Touch()

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) Destroy(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

func (s *MemoryStore) expired(sess *session.Session) bool {
	return s.ttl > 0 && time.Since(sess.LastActivity()) > s.ttl
}

func (s *MemoryStore) sweepLoop() {
	interval := s.ttl
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if s.ttl > 0 && time.Since(sess.LastActivity()) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		s.logger.Debug("Swept expired sessions", zap.Int("removed", removed))
	}
}

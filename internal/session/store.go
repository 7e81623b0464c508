// Package session keeps one form controller per browser session.
package session

import (
	"context"
	"sync"
	"time"

	"promo-console/internal/form"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Factory creates the controller for a new session.
type Factory func(sessionID string) *form.Controller

type entry struct {
	controller *form.Controller
	lastSeen   time.Time
}

// Store maps session ids to controllers and evicts idle sessions.
type Store struct {
	factory Factory
	ttl     time.Duration
	now     func() time.Time
	logger  zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewStore creates a store whose sessions expire after ttl without use.
func NewStore(factory Factory, ttl time.Duration, logger zerolog.Logger) *Store {
	return &Store{
		factory:  factory,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.With().Str("component", "session-store").Logger(),
		sessions: make(map[string]*entry),
	}
}

// Get returns the controller for id, creating a session with a new id when
// id is unknown or malformed. The returned id is the one to hand back to
// the browser.
func (s *Store) Get(id string) (string, *form.Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if _, err := uuid.Parse(id); err == nil {
		if e, ok := s.sessions[id]; ok {
			e.lastSeen = now
			return id, e.controller
		}
	}

	id = uuid.NewString()
	controller := s.factory(id)
	s.sessions[id] = &entry{controller: controller, lastSeen: now}

	s.logger.Debug().Str("session", id).Int("sessions", len(s.sessions)).Msg("session created")

	return id, controller
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Evict removes sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Store) Evict() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	evicted := 0
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}

	if evicted > 0 {
		s.logger.Info().Int("evicted", evicted).Int("sessions", len(s.sessions)).Msg("idle sessions evicted")
	}

	return evicted
}

// Run evicts idle sessions every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Evict()
		}
	}
}

package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payment-checkout/internal/telemetry"
)

var ErrSessionNotFound = errors.New("checkout session not found")

// ControllerFactory builds the controller owned by a new session.
type ControllerFactory func(sessionID string) *SubmissionController

type session struct {
	controller *SubmissionController
	lastSeen   time.Time
}

// SessionRegistry keeps one SubmissionController per browser checkout.
// Sessions that have not been used for ttl are dropped by Sweep unless an
// attempt is still in flight.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*session
	ttl      time.Duration
	factory  ControllerFactory
	now      func() time.Time
}

func NewSessionRegistry(ttl time.Duration, factory ControllerFactory) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*session),
		ttl:      ttl,
		factory:  factory,
		now:      time.Now,
	}
}

func (r *SessionRegistry) Create() *SubmissionController {
	id := uuid.NewString()
	ctrl := r.factory(id)

	r.mu.Lock()
	r.sessions[id] = &session{controller: ctrl, lastSeen: r.now()}
	r.mu.Unlock()

	return ctrl
}

func (r *SessionRegistry) Get(id string) (*SubmissionController, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.lastSeen = r.now()
	return s.controller, nil
}

func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep removes expired sessions and reports how many were dropped.
func (r *SessionRegistry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) && !s.controller.State().Busy() {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps periodically until ctx is done.
func (r *SessionRegistry) Run(ctx context.Context) {
	interval := r.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				telemetry.Logger.Info("Expired checkout sessions removed", zap.Int("count", n))
			}
		}
	}
}

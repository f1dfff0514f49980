package session

import (
	"context"
	"sync"
	"time"

	"staybook/internal/payment"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/signal"

	"github.com/google/uuid"
)

// BackendFactory returns the backend clients for a bearer token.
type BackendFactory func(token string) Backend

// Registry owns every live session. It expires idle sessions and relays the
// shared status signal to the history fetcher of each session.
type Registry struct {
	backend   BackendFactory
	validator *payment.FormValidator
	shared    signal.Signal
	hub       *signal.MemorySignal
	settings  Settings
	idleTTL   time.Duration
	log       *logger.Logger
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(backend BackendFactory, shared signal.Signal, settings Settings, idleTTL time.Duration, log *logger.Logger) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	log = log.Component("session_registry")
	return &Registry{
		backend:   backend,
		validator: payment.NewFormValidator(log),
		shared:    shared,
		hub:       signal.NewMemorySignal(),
		settings:  settings,
		idleTTL:   idleTTL,
		log:       log,
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
		sessions:  make(map[string]*Session),
	}
}

func (r *Registry) Create(userID, token string) (*Session, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("userId is required")
	}

	id := uuid.NewString()
	s, err := newSession(id, userID, r.backend(token), r.validator, r.shared, r.hub, r.settings, r.log)
	if err != nil {
		return nil, apperrors.Internal("failed to create session", err)
	}

	r.mu.Lock()
	r.sessions[id] = s
	count := len(r.sessions)
	r.mu.Unlock()

	s.History.Start(r.ctx)

	r.log.Info("session created", "session_id", id, "user_id", userID, "active_sessions", count)
	return s, nil
}

// Get returns a live session and marks it as used.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return nil, apperrors.NotFoundWithID("Session", id)
	}
	s.touch(r.now())
	return s, nil
}

func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return apperrors.NotFoundWithID("Session", id)
	}
	s.close()
	r.log.Info("session closed", "session_id", id)
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)

	var expired []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.close()
		r.log.Info("session expired", "session_id", s.ID, "last_seen", s.LastSeen())
	}
	return len(expired)
}

// Run relays shared signal touches to every session and sweeps idle ones
// until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	touches, err := r.shared.Subscribe(ctx)
	if err != nil {
		r.log.Warn("status signal subscription failed, sessions rely on polling", "error", err)
	}

	interval := max(r.idleTTL/4, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.log.Debug("idle sessions swept", "count", n)
			}
		case ts, ok := <-touches:
			if !ok {
				touches = nil
				continue
			}
			r.log.Debug("booking status signal received", "at", ts)
			_, _ = r.hub.Touch(ctx)
		}
	}
}

// Close ends every session.
func (r *Registry) Close() {
	r.cancel()

	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
	r.log.Info("session registry closed", "sessions", len(sessions))
}

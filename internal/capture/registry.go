package capture

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Registry owns the live measurement sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Tracker
	order    []string

	timeout   time.Duration
	marker    string
	max       int
	now       func() time.Time
	onCapture func(Capture)
}

type Option func(*Registry)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithOnCapture registers a callback run once per captured test.
func WithOnCapture(fn func(Capture)) Option {
	return func(r *Registry) { r.onCapture = fn }
}

// WithMaxSessions bounds how many sessions are kept; the oldest go first.
func WithMaxSessions(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.max = n
		}
	}
}

// NewRegistry creates a registry whose sessions wait at most timeout for
// results. marker is the status text that signals completion.
func NewRegistry(timeout time.Duration, marker string, opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*Tracker),
		timeout:  timeout,
		marker:   marker,
		max:      1000,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Begin starts a new session in the Waiting state.
func (r *Registry) Begin() *Tracker {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictLocked()

	t := newTracker(uuid.New().String(), r.marker, r.timeout, r.now, r.onCapture)
	t.Begin()
	r.sessions[t.id] = t
	r.order = append(r.order, t.id)

	log.Info().Str("session", t.id).Int("sessions", len(r.sessions)).Msg("session started")
	return t
}

// Get looks up a live session by id. Sessions that timed out waiting are
// dropped and reported as missing.
func (r *Registry) Get(id string) (*Tracker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.dropStaleLocked()

	t, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	if t.Expired() {
		r.removeLocked(id)
		return nil, false
	}
	return t, true
}

// Counts returns the number of sessions in each state.
func (r *Registry) Counts() map[State]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := map[State]int{Idle: 0, Waiting: 0, Captured: 0}
	for _, t := range r.sessions {
		counts[t.State()]++
	}
	return counts
}

// evictLocked drops sessions untouched for a full timeout after they stopped
// waiting, then the oldest ones while over capacity.
func (r *Registry) evictLocked() {
	r.dropStaleLocked()

	for len(r.order) >= r.max {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.sessions, oldest)
		log.Warn().Str("session", oldest).Int("max_sessions", r.max).Msg("session limit reached, dropping oldest")
	}
}

func (r *Registry) dropStaleLocked() {
	now := r.now()
	kept := r.order[:0]
	for _, id := range r.order {
		t := r.sessions[id]
		if t.stale(now, r.timeout) {
			delete(r.sessions, id)
			log.Debug().Str("session", id).Msg("session evicted")
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
}

func (r *Registry) removeLocked(id string) {
	delete(r.sessions, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	log.Debug().Str("session", id).Msg("expired session removed")
}

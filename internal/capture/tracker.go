// Package capture detects the completion of an externally driven speed test
// and interprets its results exactly once per session.
package capture

import (
	"strings"
	"sync"
	"time"

	"github.com/bilal/speedcheck/internal/interpret"
	"github.com/rs/zerolog/log"
)

type State string

const (
	Idle     State = "IDLE"
	Waiting  State = "WAITING"
	Captured State = "CAPTURED"
)

// Outcome describes what a single Observe call did.
type Outcome string

const (
	OutcomeCaptured  Outcome = "captured"
	OutcomeWaiting   Outcome = "waiting"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIdle      Outcome = "idle"
	OutcomeExpired   Outcome = "expired"
)

// Event is a state-change notification from the measurement widget. Status
// is its free-form status line; Results, when present, is the raw results
// object.
type Event struct {
	Status  string         `json:"status,omitempty"`
	Results map[string]any `json:"results,omitempty"`
}

// Capture is the interpreted outcome of a completed session.
type Capture struct {
	SessionID  string                `json:"session_id"`
	CapturedAt time.Time             `json:"captured_at"`
	Result     interpret.Result      `json:"result"`
	Raw        interpret.Measurement `json:"-"`
}

// Tracker follows one measurement session through Idle, Waiting and
// Captured. It is safe for concurrent use.
type Tracker struct {
	mu sync.Mutex

	id     string
	state  State
	marker string

	timeout  time.Duration
	deadline time.Time
	touched  time.Time
	now      func() time.Time

	capture   *Capture
	done      chan struct{}
	onCapture func(Capture)
	expired   bool
}

func newTracker(id, marker string, timeout time.Duration, now func() time.Time, onCapture func(Capture)) *Tracker {
	return &Tracker{
		id:        id,
		state:     Idle,
		marker:    marker,
		timeout:   timeout,
		touched:   now(),
		now:       now,
		done:      make(chan struct{}),
		onCapture: onCapture,
	}
}

func (t *Tracker) ID() string { return t.id }

// Begin arms the tracker for a new test. Any previous capture is discarded.
func (t *Tracker) Begin() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if t.state == Captured {
		t.done = make(chan struct{})
	}
	t.state = Waiting
	t.expired = false
	t.capture = nil
	t.deadline = now.Add(t.timeout)
	t.touched = now

	log.Debug().Str("session", t.id).Time("deadline", t.deadline).Msg("session waiting for results")
}

// Reset returns the tracker to Idle, hiding any captured result.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == Captured {
		t.done = make(chan struct{})
	}
	t.state = Idle
	t.expired = false
	t.capture = nil
	t.touched = t.now()
}

// State returns the current state, expiring a stale Waiting session first.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.expireLocked()
	return t.state
}

// Observe feeds one event into the tracker. The first event carrying results
// with a positive download speed while Waiting captures the session; the
// registered callback runs once, outside the lock.
func (t *Tracker) Observe(ev Event) (Capture, Outcome) {
	t.mu.Lock()

	if t.expireLocked() {
		t.mu.Unlock()
		return Capture{}, OutcomeExpired
	}

	switch t.state {
	case Idle:
		t.mu.Unlock()
		return Capture{}, OutcomeIdle
	case Captured:
		c := *t.capture
		t.mu.Unlock()
		return c, OutcomeDuplicate
	}

	now := t.now()
	t.touched = now

	if ev.Results == nil {
		if t.isTerminal(ev.Status) {
			log.Debug().Str("session", t.id).Str("status", ev.Status).Msg("completion signalled, awaiting results")
		}
		t.mu.Unlock()
		return Capture{}, OutcomeWaiting
	}

	m := interpret.NormalizeRaw(ev.Results)
	if m.Download <= 0 {
		t.mu.Unlock()
		return Capture{}, OutcomeWaiting
	}

	c := Capture{
		SessionID:  t.id,
		CapturedAt: now,
		Result:     interpret.Interpret(m),
		Raw:        m,
	}
	t.state = Captured
	t.capture = &c
	close(t.done)
	cb := t.onCapture
	t.mu.Unlock()

	log.Info().
		Str("session", c.SessionID).
		Str("overall", string(c.Result.OverallRating)).
		Str("limiting_factor", string(c.Result.LimitingFactor)).
		Msg("session captured")

	if cb != nil {
		cb(c)
	}
	return c, OutcomeCaptured
}

// Result returns the captured interpretation, if any.
func (t *Tracker) Result() (Capture, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Captured || t.capture == nil {
		return Capture{}, false
	}
	return *t.capture, true
}

// Done is closed when the current test is captured.
func (t *Tracker) Done() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

func (t *Tracker) isTerminal(status string) bool {
	return t.marker != "" && strings.Contains(status, t.marker)
}

// expireLocked moves a Waiting session past its deadline back to Idle.
func (t *Tracker) expireLocked() bool {
	if t.state != Waiting || t.now().Before(t.deadline) {
		return false
	}
	t.state = Idle
	t.expired = true
	log.Warn().Str("session", t.id).Msg("session expired before results arrived")
	return true
}

// Expired reports whether the last test timed out without results.
func (t *Tracker) Expired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.expireLocked()
	return t.expired
}

// stale reports whether the tracker has been untouched for longer than ttl.
func (t *Tracker) stale(now time.Time, ttl time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == Waiting {
		return !now.Before(t.deadline.Add(ttl))
	}
	return now.Sub(t.touched) >= ttl
}

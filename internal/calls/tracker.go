package calls

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"feedback-call-platform/internal/metrics"
)

// StatusClient is the client-side contract with the call-provisioning backend
// used by the lifecycle tracker. No provider HTTP details outside the adapter.
type StatusClient interface {
	// CreateCall provisions an ad hoc call and returns the backend call id.
	CreateCall(ctx context.Context, rec CallRecord) (string, error)
	// InitiateCall requests execution of a provisioned call. Ack only.
	InitiateCall(ctx context.Context, callID string) error
	// CallStatus returns the raw provider status string for a call.
	CallStatus(ctx context.Context, callID string) (string, error)
}

// Notifier receives exactly one call-finished event per tracked call.
type Notifier func(callID string, status CallStatus)

var (
	ErrNotFound    = errors.New("calls: not found")
	ErrNotReady    = errors.New("calls: call is not in the ready state")
	ErrNotTerminal = errors.New("calls: call is not in a terminal state")
	ErrClosed      = errors.New("calls: tracker is closed")
)

// PollingSession owns the recurring status poll for one transient call.
// Exactly one session exists per actively tracked call; Cancel is idempotent
// and releases the session's timer goroutine.
type PollingSession struct {
	CallID string

	stop chan struct{}
	once sync.Once
}

func (s *PollingSession) Cancel() {
	s.once.Do(func() { close(s.stop) })
}

// TrackerConfig tunes the lifecycle tracker.
type TrackerConfig struct {
	// PollInterval is the status poll cadence; defaults to 3s.
	PollInterval time.Duration
	// OnFinished is invoked once per call on its terminal transition.
	OnFinished Notifier
}

// Tracker owns the state machine for tracked calls and the polling sessions
// that advance them.
//
// Lifecycle: ready -> ringing -> in_progress -> completed | failed.
// Terminal states are absorbing. All observed statuses, whether from a poll
// tick or a list refresh, go through the single apply path so the
// monotonicity rule is enforced uniformly across writers.
type Tracker struct {
	client StatusClient
	notify Notifier
	log    *slog.Logger

	pollInterval time.Duration
	clock        func() time.Time

	mu       sync.Mutex
	calls    map[string]TrackedCall
	sessions map[string]*PollingSession
	closed   bool
}

func NewTracker(client StatusClient, cfg TrackerConfig, log *slog.Logger) *Tracker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{
		client:       client,
		notify:       cfg.OnFinished,
		log:          log,
		pollInterval: cfg.PollInterval,
		clock:        time.Now,
		calls:        make(map[string]TrackedCall),
		sessions:     make(map[string]*PollingSession),
	}
}

// Create provisions a new call at the backend and records it in the ready
// state. No execution and no polling is started here.
func (t *Tracker) Create(ctx context.Context, rec CallRecord) (TrackedCall, error) {
	if err := rec.Validate(); err != nil {
		return TrackedCall{}, err
	}

	id, err := t.client.CreateCall(ctx, rec)
	if err != nil {
		return TrackedCall{}, err
	}

	now := t.clock().UTC()
	c := TrackedCall{ID: id, Status: StatusReady, Record: rec, CreatedAt: now, UpdatedAt: now}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return TrackedCall{}, ErrClosed
	}
	t.calls[id] = c
	return c, nil
}

// Initiate requests execution of a ready call. On success the call becomes
// transient and a polling session starts; on request failure the call moves
// directly to failed and is never polled.
func (t *Tracker) Initiate(ctx context.Context, callID string) (TrackedCall, error) {
	t.mu.Lock()
	c, ok := t.calls[callID]
	if !ok {
		t.mu.Unlock()
		return TrackedCall{}, ErrNotFound
	}
	if c.Status != StatusReady {
		t.mu.Unlock()
		return TrackedCall{}, ErrNotReady
	}
	t.mu.Unlock()

	if err := t.client.InitiateCall(ctx, callID); err != nil {
		t.log.Warn("call initiation failed", "call_id", callID, "err", err)
		t.apply(callID, StatusFailed)
		c, _ = t.Get(callID)
		return c, nil
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return TrackedCall{}, ErrClosed
	}
	c = t.calls[callID]
	if _, live := t.sessions[callID]; live || c.Status != StatusReady {
		// Lost a race with another initiate for the same call.
		t.mu.Unlock()
		return c, nil
	}
	c.Status = StatusRinging
	c.UpdatedAt = t.clock().UTC()
	t.calls[callID] = c

	s := &PollingSession{CallID: callID, stop: make(chan struct{})}
	t.sessions[callID] = s
	t.mu.Unlock()

	go t.pollLoop(s)
	return c, nil
}

// Reset discards local tracking data for a terminal call so the tracker can
// accept a new create. Rejected while the call is ready or transient.
func (t *Tracker) Reset(callID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.calls[callID]
	if !ok {
		return ErrNotFound
	}
	if !c.Status.IsTerminal() {
		return ErrNotTerminal
	}
	delete(t.calls, callID)
	return nil
}

func (t *Tracker) Get(callID string) (TrackedCall, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.calls[callID]
	if !ok {
		return TrackedCall{}, ErrNotFound
	}
	return c, nil
}

// List returns tracked calls ordered by creation time.
func (t *Tracker) List() []TrackedCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TrackedCall, 0, len(t.calls))
	for _, c := range t.calls {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// HasTransient reports whether any tracked call is still ringing or in progress.
func (t *Tracker) HasTransient() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.calls {
		if c.Status.IsTransient() {
			return true
		}
	}
	return false
}

// Reap removes terminal calls last updated before the retention cutoff and
// returns how many were pruned.
func (t *Tracker) Reap(olderThan time.Duration) int {
	cutoff := t.clock().UTC().Add(-olderThan)
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for id, c := range t.calls {
		if c.Status.IsTerminal() && c.UpdatedAt.Before(cutoff) {
			delete(t.calls, id)
			n++
		}
	}
	return n
}

// Close cancels every live polling session. Tracked state is retained so
// callers can still inspect the final list.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	sessions := make([]*PollingSession, 0, len(t.sessions))
	for _, s := range t.sessions {
		sessions = append(sessions, s)
	}
	t.sessions = make(map[string]*PollingSession)
	t.mu.Unlock()

	for _, s := range sessions {
		s.Cancel()
	}
}

func (t *Tracker) pollLoop(s *PollingSession) {
	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			t.pollTick(s)
		}
	}
}

// pollTick fetches the current status once. Transport errors are logged and
// swallowed; the session polls again at the next tick with no backoff.
func (t *Tracker) pollTick(s *PollingSession) {
	metrics.PollTicksTotal.Inc()

	raw, err := t.client.CallStatus(context.Background(), s.CallID)
	if err != nil {
		metrics.PollErrorsTotal.Inc()
		t.log.Warn("status poll failed", "call_id", s.CallID, "err", err)
		return
	}

	st, err := ParseCallStatus(raw)
	if err != nil {
		metrics.PollErrorsTotal.Inc()
		t.log.Warn("status poll returned unknown status", "call_id", s.CallID, "raw", raw)
		return
	}
	t.apply(s.CallID, st)
}

// apply is the single write path for observed statuses. It enforces the
// monotonic transition rule, cancels the polling session on a terminal
// transition, and emits the one-time call-finished notification.
func (t *Tracker) apply(callID string, st CallStatus) {
	t.mu.Lock()
	c, ok := t.calls[callID]
	if !ok || !c.Status.CanTransitionTo(st) {
		t.mu.Unlock()
		return
	}
	c.Status = st
	c.UpdatedAt = t.clock().UTC()
	t.calls[callID] = c

	var sess *PollingSession
	if st.IsTerminal() {
		sess = t.sessions[callID]
		delete(t.sessions, callID)
	}
	t.mu.Unlock()

	if !st.IsTerminal() {
		return
	}
	if sess != nil {
		sess.Cancel()
	}
	metrics.TerminalTransitionsTotal.WithLabelValues(string(st)).Inc()
	if t.notify != nil {
		t.notify(callID, st)
	}
}

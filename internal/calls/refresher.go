package calls

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"feedback-call-platform/internal/metrics"
)

// StatusUpdate is one observed status from a list refresh fetch.
type StatusUpdate struct {
	CallID string
	Status CallStatus
}

// FetchFunc re-fetches statuses for the currently displayed call list.
type FetchFunc func(ctx context.Context) ([]StatusUpdate, error)

// NewStatusFetch adapts the per-call status query into a whole-list fetch over
// the tracker's current non-terminal calls. Per-call failures are skipped; a
// later cycle picks them up.
func NewStatusFetch(client StatusClient, t *Tracker, log *slog.Logger) FetchFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(ctx context.Context) ([]StatusUpdate, error) {
		var out []StatusUpdate
		for _, c := range t.List() {
			if c.Status.IsTerminal() {
				continue
			}
			raw, err := client.CallStatus(ctx, c.ID)
			if err != nil {
				log.Warn("list refresh fetch failed for call", "call_id", c.ID, "err", err)
				continue
			}
			st, err := ParseCallStatus(raw)
			if err != nil {
				log.Warn("list refresh got unknown status", "call_id", c.ID, "raw", raw)
				continue
			}
			out = append(out, StatusUpdate{CallID: c.ID, Status: st})
		}
		return out, nil
	}
}

type refreshState int

const (
	refreshIdle refreshState = iota
	refreshPolling
)

// Refresher keeps the displayed call list fresh while any call is transient.
//
// It is an explicit two-state machine (idle, polling) with guarded
// transitions: starting while already polling and stopping while idle are
// both no-ops. Every fetch result flows through the tracker's monotonic
// apply, so a refresh completing after a terminal transition cannot re-apply
// stale data.
type Refresher struct {
	tracker  *Tracker
	fetch    FetchFunc
	interval time.Duration
	log      *slog.Logger

	mu    sync.Mutex
	state refreshState
	stop  chan struct{}
}

func NewRefresher(t *Tracker, fetch FetchFunc, interval time.Duration, log *slog.Logger) *Refresher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Refresher{tracker: t, fetch: fetch, interval: interval, log: log}
}

// Evaluate inspects the tracked list and starts or stops the refresh timer
// accordingly. Safe to call from anywhere, any number of times.
func (r *Refresher) Evaluate() {
	if r.tracker.HasTransient() {
		r.start()
		return
	}
	r.stopTimer()
}

// RefreshNow runs the shared fetch routine once and re-evaluates, independent
// of the timer's own cadence.
func (r *Refresher) RefreshNow(ctx context.Context) error {
	metrics.RefreshCyclesTotal.Inc()

	updates, err := r.fetch(ctx)
	if err != nil {
		r.log.Warn("list refresh failed", "err", err)
		return err
	}
	for _, u := range updates {
		r.tracker.apply(u.CallID, u.Status)
	}
	r.Evaluate()
	return nil
}

// Stop forces the timer off, regardless of list state. Used on shutdown.
func (r *Refresher) Stop() {
	r.stopTimer()
}

// Running reports whether the refresh timer is active.
func (r *Refresher) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == refreshPolling
}

func (r *Refresher) start() {
	r.mu.Lock()
	if r.state == refreshPolling {
		r.mu.Unlock()
		return
	}
	r.state = refreshPolling
	r.stop = make(chan struct{})
	stop := r.stop
	r.mu.Unlock()

	go r.loop(stop)
}

func (r *Refresher) stopTimer() {
	r.mu.Lock()
	if r.state == refreshIdle {
		r.mu.Unlock()
		return
	}
	r.state = refreshIdle
	close(r.stop)
	r.stop = nil
	r.mu.Unlock()
}

func (r *Refresher) loop(stop chan struct{}) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			_ = r.RefreshNow(context.Background())
		}
	}
}

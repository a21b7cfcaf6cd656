package calls

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Reaper prunes terminal tracked calls after a retention period so the
// tracker map does not grow without bound on long-running processes.
type Reaper struct {
	engine    *cron.Cron
	tracker   *Tracker
	retention time.Duration
	log       *slog.Logger
}

func NewReaper(t *Tracker, retention time.Duration, log *slog.Logger) *Reaper {
	if log == nil {
		log = slog.Default()
	}
	return &Reaper{
		engine:    cron.New(),
		tracker:   t,
		retention: retention,
		log:       log,
	}
}

func (r *Reaper) Start() error {
	_, err := r.engine.AddFunc("@every 1m", func() {
		if n := r.tracker.Reap(r.retention); n > 0 {
			r.log.Info("pruned terminal calls", "count", n)
		}
	})
	if err != nil {
		return err
	}
	r.engine.Start()
	return nil
}

func (r *Reaper) Stop() {
	ctx := r.engine.Stop()
	<-ctx.Done()
}

package usecase

import (
	"context"
	"sync"
	"time"

	"BondPulse/pkg/logger"
	"BondPulse/pkg/queue"
)

// RefreshJobType is the queue message type that triggers a snapshot refresh.
const RefreshJobType = "screener.refresh"

// Refresher drives periodic snapshot refreshes and serves on-demand refresh
// requests from the job queue.
type Refresher struct {
	screener *Screener
	log      *logger.Logger
	interval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewRefresher(screener *Screener, log *logger.Logger, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Refresher{screener: screener, log: log, interval: interval}
}

// Start refreshes once immediately, then on every tick until Stop.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.running = true
	r.done = make(chan struct{})
	r.mu.Unlock()

	go r.loop(ctx)
}

func (r *Refresher) loop(ctx context.Context) {
	defer close(r.done)

	if err := r.screener.Refresh(ctx); err != nil {
		r.log.Error("initial refresh failed", logger.Error(err))
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.screener.Refresh(ctx); err != nil {
				r.log.Error("scheduled refresh failed", logger.Error(err))
			}
		}
	}
}

// Stop halts the periodic loop and waits for the in-flight run.
func (r *Refresher) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	r.cancel()
	done := r.done
	r.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RefreshJob is the queue job wrapper for on-demand refreshes enqueued by
// the HTTP API.
type RefreshJob struct {
	screener *Screener
	log      *logger.Logger
}

func NewRefreshJob(screener *Screener, log *logger.Logger) *RefreshJob {
	return &RefreshJob{screener: screener, log: log}
}

func (j *RefreshJob) Name() string { return "screener-refresh" }

func (j *RefreshJob) Type() string { return RefreshJobType }

func (j *RefreshJob) Handle(ctx context.Context, payload interface{}) error {
	j.log.Info("on-demand refresh requested")
	return j.screener.Refresh(ctx)
}

var _ queue.Job = (*RefreshJob)(nil)

// Package jobs runs periodic housekeeping: persisting derived order statuses
// and deactivating expired sessions.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"woodshop/internal/logger"
	"woodshop/internal/metrics"
)

// StatusRefresher persists derived order statuses.
type StatusRefresher interface {
	RefreshStatuses(today time.Time) (int64, error)
}

// SessionExpirer deactivates sessions past their expiry.
type SessionExpirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// Config holds cron specs for each job. An empty spec disables the job.
type Config struct {
	OrderStatusSpec   string
	SessionExpirySpec string
}

// Scheduler wraps a cron runner with the application's jobs.
type Scheduler struct {
	cron     *cron.Cron
	orders   StatusRefresher
	sessions SessionExpirer
	now      func() time.Time
}

// NewScheduler registers the jobs named in cfg. Invalid specs are returned as errors.
func NewScheduler(cfg Config, orders StatusRefresher, sessions SessionExpirer) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		orders:   orders,
		sessions: sessions,
		now:      func() time.Time { return time.Now().UTC() },
	}

	if cfg.OrderStatusSpec != "" {
		if _, err := s.cron.AddFunc(cfg.OrderStatusSpec, func() { s.RefreshOrderStatuses() }); err != nil {
			return nil, fmt.Errorf("invalid order status schedule %q: %w", cfg.OrderStatusSpec, err)
		}
	}
	if cfg.SessionExpirySpec != "" {
		if _, err := s.cron.AddFunc(cfg.SessionExpirySpec, func() { s.ExpireSessions(context.Background()) }); err != nil {
			return nil, fmt.Errorf("invalid session expiry schedule %q: %w", cfg.SessionExpirySpec, err)
		}
	}
	return s, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		logger.Get().Warn("scheduler stopped before running jobs finished")
	}
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// RefreshOrderStatuses runs the order status job once.
func (s *Scheduler) RefreshOrderStatuses() {
	n, err := s.orders.RefreshStatuses(s.now())
	if err != nil {
		metrics.JobRunsTotal.WithLabelValues("order_status_refresh", "failed").Inc()
		logger.Get().Errorw("order status refresh failed", "error", err)
		return
	}
	metrics.JobRunsTotal.WithLabelValues("order_status_refresh", "ok").Inc()
	logger.Get().Infow("order statuses refreshed", "updated", n)
}

// ExpireSessions runs the session expiry job once.
func (s *Scheduler) ExpireSessions(ctx context.Context) {
	n, err := s.sessions.ExpireStale(ctx)
	if err != nil {
		metrics.JobRunsTotal.WithLabelValues("session_expiry", "failed").Inc()
		logger.Get().Errorw("session expiry failed", "error", err)
		return
	}
	metrics.JobRunsTotal.WithLabelValues("session_expiry", "ok").Inc()
	if n > 0 {
		logger.Get().Infow("stale sessions deactivated", "count", n)
	}
}

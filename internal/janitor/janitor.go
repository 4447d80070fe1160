// Package janitor periodically removes events that no user owns. Such rows
// are left behind when a create or delete is interrupted between the event
// write and the owned-set write.
package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"scheduler/internal/metrics"
)

// OrphanRemover deletes unreferenced events and reports how many went.
type OrphanRemover interface {
	DeleteOrphans(ctx context.Context) (int64, error)
}

// Janitor runs the orphan cleanup on a fixed interval.
type Janitor struct {
	repo     OrphanRemover
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// Option configures a Janitor.
type Option func(*Janitor)

// WithMetrics records cleanup results on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(j *Janitor) { j.metrics = m }
}

// WithTimeout bounds a single cleanup run. Defaults to one minute.
func WithTimeout(d time.Duration) Option {
	return func(j *Janitor) { j.timeout = d }
}

// New creates a janitor. An interval of zero disables it.
func New(repo OrphanRemover, interval time.Duration, logger zerolog.Logger, opts ...Option) *Janitor {
	j := &Janitor{
		repo:     repo,
		interval: interval,
		timeout:  time.Minute,
		logger:   logger.With().Str("component", "janitor").Logger(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Run schedules cleanups until ctx is cancelled, then waits for an
// in-progress run to finish.
func (j *Janitor) Run(ctx context.Context) error {
	if j.interval <= 0 {
		j.logger.Info().Msg("cleanup disabled")
		<-ctx.Done()
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", j.interval), func() { j.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule cleanup: %w", err)
	}

	c.Start()
	j.logger.Info().Dur("interval", j.interval).Msg("cleanup scheduled")

	<-ctx.Done()
	<-c.Stop().Done()
	j.logger.Info().Msg("cleanup stopped")
	return nil
}

// RunOnce performs a single cleanup and returns the number of events removed.
func (j *Janitor) RunOnce(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	start := time.Now()
	n, err := j.repo.DeleteOrphans(ctx)
	if err != nil {
		j.logger.Error().Err(err).Msg("cleanup failed")
		if j.metrics != nil {
			j.metrics.CleanupErrors.Inc()
		}
		return 0
	}

	if j.metrics != nil {
		j.metrics.OrphansDeleted.Add(float64(n))
	}
	j.logger.Info().
		Int64("deleted", n).
		Dur("took", time.Since(start)).
		Msg("cleanup finished")
	return n
}

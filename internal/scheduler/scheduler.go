// Package scheduler runs the periodic background jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"healthbuddy/internal/observability"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Job names, also used as metric labels.
const (
	JobDailyMotivation = "daily-motivation"
	JobTrialSweep      = "trial-sweep"
)

// ProfileLister lists users that have a profile.
type ProfileLister interface {
	ListUserIDs(ctx context.Context) ([]string, error)
}

// Motivator sends one user their daily motivational notification.
type Motivator interface {
	SendDailyMotivation(ctx context.Context, userID string) error
}

// TrialSweeper expires finished trials.
type TrialSweeper interface {
	ExpireTrials(ctx context.Context) (int, error)
}

type Config struct {
	MotivationSpec string
	TrialSweepSpec string
	// JobTimeout bounds a single run. Zero means 10 minutes.
	JobTimeout time.Duration
}

type Scheduler struct {
	cron      *cron.Cron
	profiles  ProfileLister
	motivator Motivator
	trials    TrialSweeper
	timeout   time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
}

func New(cfg Config, profiles ProfileLister, motivator Motivator, trials TrialSweeper) (*Scheduler, error) {
	timeout := cfg.JobTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		profiles:  profiles,
		motivator: motivator,
		trials:    trials,
		timeout:   timeout,
		ctx:       ctx,
		cancel:    cancel,
	}

	if cfg.MotivationSpec != "" {
		if _, err := s.cron.AddFunc(cfg.MotivationSpec, func() { s.run(JobDailyMotivation, s.DailyMotivation) }); err != nil {
			cancel()
			return nil, fmt.Errorf("invalid %s schedule %q: %w", JobDailyMotivation, cfg.MotivationSpec, err)
		}
	}
	if cfg.TrialSweepSpec != "" {
		if _, err := s.cron.AddFunc(cfg.TrialSweepSpec, func() { s.run(JobTrialSweep, s.TrialSweep) }); err != nil {
			cancel()
			return nil, fmt.Errorf("invalid %s schedule %q: %w", JobTrialSweep, cfg.TrialSweepSpec, err)
		}
	}
	return s, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Entries reports the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) run(name string, job func(context.Context) (int, error)) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	ctx = observability.WithCorrelationID(ctx, uuid.NewString())

	start := time.Now()
	observability.LogAsyncOperationStart(ctx, name, nil)
	n, err := job(ctx)
	if err != nil {
		observability.ScheduledJobRuns.WithLabelValues(name, "error").Inc()
		observability.LogAsyncOperationError(ctx, name, err, map[string]interface{}{"processed": n})
		return
	}
	observability.ScheduledJobRuns.WithLabelValues(name, "ok").Inc()
	observability.LogAsyncOperationEnd(ctx, name, map[string]interface{}{
		"processed":   n,
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

// DailyMotivation notifies every user with a profile. A failure for one user
// is logged and the run continues.
func (s *Scheduler) DailyMotivation(ctx context.Context) (int, error) {
	ids, err := s.profiles.ListUserIDs(ctx)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if err := s.motivator.SendDailyMotivation(ctx, id); err != nil {
			observability.LogAsyncOperationError(ctx, JobDailyMotivation, err, map[string]interface{}{"user_id": id})
			continue
		}
		sent++
	}
	return sent, nil
}

// TrialSweep expires trials whose end date has passed.
func (s *Scheduler) TrialSweep(ctx context.Context) (int, error) {
	return s.trials.ExpireTrials(ctx)
}

// Package worker runs the periodic background jobs.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tapearn/internal/cache"
	"tapearn/internal/domain"
	"tapearn/internal/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
)

const jobTimeout = 25 * time.Second

var JobRuns = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "tapearn_job_runs_total", Help: "Background job runs"},
	[]string{"job", "result"},
)

func init() {
	prometheus.MustRegister(JobRuns)
}

type LeaderboardRebuilder interface {
	RebuildLeaderboard(ctx context.Context) (int, error)
}

type PendingSource interface {
	StalePending(ctx context.Context, age time.Duration) ([]domain.Withdrawal, error)
}

type PendingNotifier interface {
	NotifyPendingDigest(ctx context.Context, pending []domain.Withdrawal)
}

// Config holds cron specs with a seconds field. An empty spec disables the job.
type Config struct {
	LeaderboardSpec   string
	PendingDigestSpec string
	PendingAge        time.Duration
}

type Scheduler struct {
	cron     *cron.Cron
	cfg      Config
	board    LeaderboardRebuilder
	pending  PendingSource
	notifier PendingNotifier
	log      *slog.Logger
}

// New registers the jobs. notifier may be nil when the bot is off, which
// disables the pending digest.
func New(cfg Config, board LeaderboardRebuilder, pending PendingSource, notifier PendingNotifier) (*Scheduler, error) {
	if cfg.PendingAge <= 0 {
		cfg.PendingAge = time.Hour
	}
	log := logger.With("component", "worker")
	cl := cronLogger{log}
	s := &Scheduler{
		cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cl)), cron.WithLogger(cl)),
		cfg:      cfg,
		board:    board,
		pending:  pending,
		notifier: notifier,
		log:      log,
	}

	if cfg.LeaderboardSpec != "" && board != nil {
		if _, err := s.cron.AddFunc(cfg.LeaderboardSpec, s.job("leaderboard_rebuild", s.RebuildLeaderboard)); err != nil {
			return nil, fmt.Errorf("leaderboard job: %w", err)
		}
	}
	if cfg.PendingDigestSpec != "" && pending != nil && notifier != nil {
		if _, err := s.cron.AddFunc(cfg.PendingDigestSpec, s.job("pending_digest", s.DigestPending)); err != nil {
			return nil, fmt.Errorf("pending digest job: %w", err)
		}
	}
	return s, nil
}

// Jobs is the number of registered jobs.
func (s *Scheduler) Jobs() int { return len(s.cron.Entries()) }

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", "jobs", s.Jobs())
}

// Stop waits for running jobs or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
		s.log.Info("scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out")
	}
}

func (s *Scheduler) job(name string, run func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		if err := run(ctx); err != nil {
			JobRuns.WithLabelValues(name, "error").Inc()
			s.log.Error("job failed", "job", name, "error", err)
			return
		}
		JobRuns.WithLabelValues(name, "ok").Inc()
		s.log.Debug("job done", "job", name, "took", time.Since(start))
	}
}

// RebuildLeaderboard reloads the Redis ranking. Without Redis it does nothing.
func (s *Scheduler) RebuildLeaderboard(ctx context.Context) error {
	n, err := s.board.RebuildLeaderboard(ctx)
	if errors.Is(err, cache.ErrDisabled) {
		return nil
	}
	if err != nil {
		return err
	}
	s.log.Info("leaderboard rebuilt", "accounts", n)
	return nil
}

// DigestPending reminds admins of withdrawals older than PendingAge.
func (s *Scheduler) DigestPending(ctx context.Context) error {
	list, err := s.pending.StalePending(ctx, s.cfg.PendingAge)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return nil
	}
	s.log.Info("sending pending withdrawal digest", "count", len(list))
	s.notifier.NotifyPendingDigest(ctx, list)
	return nil
}

// cronLogger routes cron's own logging to slog.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}

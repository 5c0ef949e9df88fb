// Package scheduler runs the periodic background jobs of the daemon: pulling
// the authoritative state from the remote service, recording the daily
// review digest and purging expired cache entries.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/phrazzld/vocab-trainer/internal/redact"
)

// ErrUnknownJob is returned by RunNow for a job that was never registered.
var ErrUnknownJob = errors.New("unknown job")

// Job is a named unit of periodic work.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Observer is told about every job run.
type Observer interface {
	ObserveJob(job string, err error)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithObserver reports job runs to o.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) { s.observer = o }
}

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// Scheduler manages scheduled jobs for the application.
type Scheduler struct {
	cron     *gocron.Scheduler
	logger   *slog.Logger
	observer Observer

	mu     sync.Mutex
	jobs   map[string]Job
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler working in UTC.
func New(opts ...Option) *Scheduler {
	cron := gocron.NewScheduler(time.UTC)
	cron.TagsUnique()

	s := &Scheduler{
		cron:   cron,
		logger: slog.Default(),
		jobs:   make(map[string]Job),
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "scheduler"))
	return s
}

// Register adds job. A job with a zero interval is disabled and skipped.
// Runs of one job never overlap, and the first run happens one interval
// after Start.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Run == nil {
		return fmt.Errorf("job needs a name and a run function")
	}
	if job.Interval <= 0 {
		s.logger.Info("job disabled", slog.String("job", job.Name))
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.jobs[job.Name]; dup {
		return fmt.Errorf("job %q already registered", job.Name)
	}

	_, err := s.cron.Every(job.Interval).
		Tag(job.Name).
		SingletonMode().
		WaitForSchedule().
		Do(func() { _ = s.run(job) })
	if err != nil {
		return fmt.Errorf("failed to schedule job %q: %w", job.Name, err)
	}
	s.jobs[job.Name] = job

	s.logger.Info("job scheduled",
		slog.String("job", job.Name),
		slog.Duration("interval", job.Interval))
	return nil
}

// Start begins running all scheduled jobs in the background. Job runs get a
// context derived from ctx that is cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.cron.StartAsync()
}

// Stop cancels running jobs and terminates the schedule.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.cron.Stop()
}

// RunNow runs the named job synchronously, outside the schedule.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.run(job)
}

// Jobs lists the names of the registered jobs.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

func (s *Scheduler) run(job Job) error {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	start := time.Now()
	err := job.Run(ctx)
	if s.observer != nil {
		s.observer.ObserveJob(job.Name, err)
	}

	log := s.logger.With(slog.String("job", job.Name), slog.Duration("duration", time.Since(start)))
	if err != nil {
		log.Warn("job failed", redact.ErrAttr(err))
		return err
	}
	log.Debug("job finished")
	return nil
}

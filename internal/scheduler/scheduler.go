package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron"
	"github.com/rs/zerolog"

	"github.com/stanstork/leadwatch-api/internal/metrics"
)

// Job is a named task run on a fixed interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler owns every server-side interval. A job never overlaps itself: a
// tick that arrives while the previous run is still going is skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
	jobs    map[string]func()
}

func New(logger zerolog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(),
		logger: logger.With().Str("component", "scheduler").Logger(),
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]func()),
	}
}

func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Run == nil {
		return fmt.Errorf("job requires a name and a run function")
	}
	if job.Interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", job.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %s already registered", job.Name)
	}

	run := s.guard(job)
	if err := s.cron.AddFunc("@every "+job.Interval.String(), run); err != nil {
		return fmt.Errorf("schedule job %s: %w", job.Name, err)
	}
	s.jobs[job.Name] = run
	s.logger.Info().Str("job", job.Name).Dur("interval", job.Interval).Msg("job scheduled")
	return nil
}

// Trigger runs a registered job immediately, subject to the same overlap
// guard as scheduled ticks. It returns false for unknown jobs.
func (s *Scheduler) Trigger(name string) bool {
	s.mu.Lock()
	run, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return false
	}
	go run()
	return true
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Int("jobs", len(s.jobs)).Msg("scheduler started")
}

// Stop cancels the shared context, stops new ticks and waits for running jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	s.cron.Stop()
	s.wg.Wait()
	s.logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) guard(job Job) func() {
	var running atomic.Bool
	logger := s.logger.With().Str("job", job.Name).Logger()

	return func() {
		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			return
		}
		s.wg.Add(1)
		s.mu.Unlock()
		defer s.wg.Done()

		if !running.CompareAndSwap(false, true) {
			logger.Warn().Msg("previous run still in progress, skipping tick")
			return
		}
		defer running.Store(false)

		start := time.Now()
		err := job.Run(s.ctx)
		metrics.RecordScheduledJob(job.Name, err)
		if err != nil {
			logger.Error().Err(err).Dur("took", time.Since(start)).Msg("job failed")
			return
		}
		logger.Debug().Dur("took", time.Since(start)).Msg("job finished")
	}
}

// Package scheduler runs 1board's periodic maintenance jobs on top of
// gocron: rebuilding the cached leaderboard and reconciling achievements.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/nexus-academicus/1board/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOB INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Job defines the interface that all scheduled jobs must implement.
type Job interface {
	// Name returns the unique name of the job.
	Name() string

	// Description returns a human-readable description of the job.
	Description() string

	// Run executes the job. The context is cancelled when the scheduler stops
	// or the job timeout expires.
	Run(ctx context.Context) error
}

// JobResult contains the result of a job execution.
type JobResult struct {
	JobName     string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Success     bool
	Error       error
}

var (
	ErrNilJob           = errors.New("scheduler: job is nil")
	ErrJobAlreadyExists = errors.New("scheduler: job already registered")
	ErrJobNotFound      = errors.New("scheduler: job not found")
	ErrInvalidInterval  = errors.New("scheduler: interval must be positive")
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

// Config contains configuration for the Scheduler.
type Config struct {
	Logger   *logger.Logger
	Timezone *time.Location

	// JobTimeout bounds a single run. Zero means no timeout.
	JobTimeout time.Duration

	// HistorySize is how many results are kept for inspection.
	HistorySize int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timezone:    time.UTC,
		JobTimeout:  5 * time.Minute,
		HistorySize: 100,
	}
}

// Scheduler registers Jobs with gocron and records their results.
type Scheduler struct {
	cron   gocron.Scheduler
	log    *logger.Logger
	config Config

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	jobs    map[string]registered
	history []JobResult
	onDone  func(JobResult)
}

type registered struct {
	job      Job
	cronJob  gocron.Job
	schedule string
}

// New creates a Scheduler. Call Start to begin running jobs.
func New(config Config) (*Scheduler, error) {
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	if config.Timezone == nil {
		config.Timezone = time.UTC
	}
	if config.HistorySize <= 0 {
		config.HistorySize = 100
	}

	cron, err := gocron.NewScheduler(gocron.WithLocation(config.Timezone))
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron,
		log:    config.Logger.With(logger.Component("scheduler")),
		config: config,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]registered),
	}, nil
}

// Every registers job to run at a fixed interval. With immediate set the
// first run happens as soon as the scheduler starts.
func (s *Scheduler) Every(job Job, interval time.Duration, immediate bool) error {
	if interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}
	opts := []gocron.JobOption{}
	if immediate {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}
	return s.register(job, gocron.DurationJob(interval), "every "+interval.String(), opts...)
}

// Cron registers job with a five-field crontab expression.
func (s *Scheduler) Cron(job Job, expr string) error {
	return s.register(job, gocron.CronJob(expr, false), "cron "+expr)
}

func (s *Scheduler) register(job Job, def gocron.JobDefinition, schedule string, extra ...gocron.JobOption) error {
	if job == nil {
		return ErrNilJob
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}

	opts := append([]gocron.JobOption{
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}, extra...)

	cj, err := s.cron.NewJob(def, gocron.NewTask(func() { s.execute(job) }), opts...)
	if err != nil {
		return fmt.Errorf("scheduler: register %s: %w", name, err)
	}

	s.jobs[name] = registered{job: job, cronJob: cj, schedule: schedule}
	s.log.Info("job registered",
		logger.JobName(name),
		logger.String("schedule", schedule),
		logger.String("description", job.Description()),
	)
	return nil
}

// Start begins executing registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", logger.Int("jobs", len(s.ListJobs())))
}

// Stop cancels running jobs and waits for gocron to shut down.
func (s *Scheduler) Stop() error {
	s.cancel()
	if err := s.cron.Shutdown(); err != nil {
		return fmt.Errorf("scheduler: shutdown: %w", err)
	}
	s.log.Info("scheduler stopped")
	return nil
}

// OnJobComplete sets a hook called after every run.
func (s *Scheduler) OnJobComplete(fn func(JobResult)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDone = fn
}

// RunNow executes a registered job synchronously, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) (JobResult, error) {
	s.mu.RLock()
	reg, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return JobResult{}, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.run(ctx, reg.job), nil
}

func (s *Scheduler) execute(job Job) {
	s.run(s.ctx, job)
}

func (s *Scheduler) run(parent context.Context, job Job) JobResult {
	ctx := parent
	if s.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, s.config.JobTimeout)
		defer cancel()
	}

	result := JobResult{JobName: job.Name(), StartedAt: time.Now()}
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("job panicked: %v", r)
			}
		}()
		return job.Run(ctx)
	}()
	result.CompletedAt = time.Now()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)
	result.Success = err == nil
	result.Error = err

	if err != nil {
		s.log.Error("job failed", logger.JobName(job.Name()), logger.Latency(result.Duration), logger.Err(err))
	} else {
		s.log.Info("job completed", logger.JobName(job.Name()), logger.Latency(result.Duration))
	}

	s.mu.Lock()
	s.history = append(s.history, result)
	if over := len(s.history) - s.config.HistorySize; over > 0 {
		s.history = s.history[over:]
	}
	hook := s.onDone
	s.mu.Unlock()

	if hook != nil {
		hook(result)
	}
	return result
}

// ══════════════════════════════════════════════════════════════════════════════
// INSPECTION
// ══════════════════════════════════════════════════════════════════════════════

// JobInfo describes a registered job.
type JobInfo struct {
	Name        string
	Description string
	Schedule    string
	NextRun     time.Time
	LastRun     time.Time
}

// ListJobs returns registered jobs sorted by name.
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for name, reg := range s.jobs {
		info := JobInfo{Name: name, Description: reg.job.Description(), Schedule: reg.schedule}
		if next, err := reg.cronJob.NextRun(); err == nil {
			info.NextRun = next
		}
		if last, err := reg.cronJob.LastRun(); err == nil {
			info.LastRun = last
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// History returns up to limit most recent results, newest last.
func (s *Scheduler) History(limit int) []JobResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	out := make([]JobResult, limit)
	copy(out, s.history[len(s.history)-limit:])
	return out
}

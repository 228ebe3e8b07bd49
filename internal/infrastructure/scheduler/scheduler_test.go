package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcJob struct {
	name string
	runs atomic.Int32
	fn   func(ctx context.Context) error
}

func (j *funcJob) Name() string        { return j.name }
func (j *funcJob) Description() string { return "test job " + j.name }
func (j *funcJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.fn != nil {
		return j.fn(ctx)
	}
	return nil
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New(DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestScheduler_Registration(t *testing.T) {
	s := newTestScheduler(t)

	require.NoError(t, s.Every(&funcJob{name: "b"}, time.Hour, false))
	require.NoError(t, s.Cron(&funcJob{name: "a"}, "0 3 * * *"))

	assert.ErrorIs(t, s.Every(&funcJob{name: "a"}, time.Hour, false), ErrJobAlreadyExists)
	assert.ErrorIs(t, s.Every(&funcJob{name: "c"}, 0, false), ErrInvalidInterval)
	assert.ErrorIs(t, s.Every(nil, time.Hour, false), ErrNilJob)
	assert.Error(t, s.Cron(&funcJob{name: "d"}, "not a cron"))

	jobs := s.ListJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "a", jobs[0].Name)
	assert.Equal(t, "cron 0 3 * * *", jobs[0].Schedule)
	assert.Equal(t, "every 1h0m0s", jobs[1].Schedule)
}

func TestScheduler_RunNowRecordsHistory(t *testing.T) {
	s := newTestScheduler(t)
	boom := errors.New("boom")

	ok := &funcJob{name: "ok"}
	bad := &funcJob{name: "bad", fn: func(context.Context) error { return boom }}
	panics := &funcJob{name: "panics", fn: func(context.Context) error { panic("nope") }}
	for _, j := range []Job{ok, bad, panics} {
		require.NoError(t, s.Every(j, time.Hour, false))
	}

	var hooked []string
	s.OnJobComplete(func(r JobResult) { hooked = append(hooked, r.JobName) })

	res, err := s.RunNow(context.Background(), "ok")
	require.NoError(t, err)
	assert.True(t, res.Success)

	res, err = s.RunNow(context.Background(), "bad")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Error, boom)

	res, err = s.RunNow(context.Background(), "panics")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error.Error(), "panicked")

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	hist := s.History(2)
	require.Len(t, hist, 2)
	assert.Equal(t, "bad", hist[0].JobName)
	assert.Equal(t, "panics", hist[1].JobName)
	assert.Equal(t, []string{"ok", "bad", "panics"}, hooked)
}

func TestScheduler_RunsImmediately(t *testing.T) {
	s := newTestScheduler(t)
	job := &funcJob{name: "tick"}
	require.NoError(t, s.Every(job, time.Hour, true))

	s.Start()
	assert.Eventually(t, func() bool { return job.runs.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)
}

func TestScheduler_JobTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JobTimeout = 20 * time.Millisecond
	s, err := New(cfg)
	require.NoError(t, err)
	defer s.Stop()

	slow := &funcJob{name: "slow", fn: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	require.NoError(t, s.Every(slow, time.Hour, false))

	res, err := s.RunNow(context.Background(), "slow")
	require.NoError(t, err)
	assert.ErrorIs(t, res.Error, context.DeadlineExceeded)
}

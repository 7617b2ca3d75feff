package system_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"taskboard/system"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingJob struct {
	ticks atomic.Int32
	panic bool
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Tick(ctx context.Context) {
	n := j.ticks.Add(1)
	if j.panic && n == 1 {
		panic("first tick")
	}
}

func TestScheduler_RunsJobUntilStopped(t *testing.T) {
	job := &countingJob{}
	s := system.NewScheduler(zap.NewNop())
	require.NoError(t, s.Register(job, 0, 10*time.Millisecond))
	s.Start(context.Background())

	require.Eventually(t, func() bool { return job.ticks.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	stopped := job.ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, job.ticks.Load())
}

func TestScheduler_WaitsForInitialDelay(t *testing.T) {
	job := &countingJob{}
	s := system.NewScheduler(zap.NewNop())
	require.NoError(t, s.Register(job, time.Hour, time.Hour))
	s.Start(context.Background())

	time.Sleep(20 * time.Millisecond)
	s.Stop()
	assert.Zero(t, job.ticks.Load())
}

func TestScheduler_SurvivesPanickingTick(t *testing.T) {
	job := &countingJob{panic: true}
	s := system.NewScheduler(zap.NewNop())
	require.NoError(t, s.Register(job, 0, 10*time.Millisecond))
	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool { return job.ticks.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_StopsWithParentContext(t *testing.T) {
	job := &countingJob{}
	s := system.NewScheduler(zap.NewNop())
	require.NoError(t, s.Register(job, 0, 10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	require.Eventually(t, func() bool { return job.ticks.Load() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_RejectsNonPositiveInterval(t *testing.T) {
	s := system.NewScheduler(zap.NewNop())
	assert.Error(t, s.Register(&countingJob{}, 0, 0))
	assert.Error(t, s.Register(&countingJob{}, 0, -time.Second))

	s.Start(context.Background())
	s.Stop()
}

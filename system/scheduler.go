package system

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a unit of periodic background work.
type Job interface {
	Name() string
	Tick(ctx context.Context)
}

type scheduledJob struct {
	job      Job
	delay    time.Duration
	interval time.Duration
}

// Scheduler runs each registered job once after its initial delay and then
// on a fixed interval. Every job has its own goroutine, so a job never
// overlaps with itself.
type Scheduler struct {
	Logger *zap.Logger

	jobs   []scheduledJob
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{Logger: logger}
}

// Register must be called before Start.
func (s *Scheduler) Register(job Job, delay, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive, got %s", job.Name(), interval)
	}
	s.jobs = append(s.jobs, scheduledJob{job: job, delay: delay, interval: interval})
	return nil
}

func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, j)
	}
}

// Stop cancels every job and waits for in-flight ticks to return.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, j scheduledJob) {
	defer s.wg.Done()
	log := s.Logger.With(zap.String("job", j.job.Name()))

	timer := time.NewTimer(j.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	s.tick(ctx, log, j.job)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("job stopped")
			return
		case <-ticker.C:
			s.tick(ctx, log, j.job)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, log *zap.Logger, job Job) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("job panicked", zap.Any("panic", p))
		}
	}()
	job.Tick(ctx)
}

package cronjob

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is one scheduled task. It gets a context bounded by the job timeout.
type Job struct {
	Name     string
	Schedule string
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		logger: logger,
	}
}

// Add registers job. Standard five-field specs and descriptors such as
// "@every 5m" are accepted.
func (s *Scheduler) Add(job Job) error {
	if job.Timeout <= 0 {
		job.Timeout = time.Minute
	}
	_, err := s.cron.AddFunc(job.Schedule, func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", job.Name, job.Schedule, err)
	}
	s.logger.Info("cron job registered", zap.String("job", job.Name), zap.String("schedule", job.Schedule))
	return nil
}

func (s *Scheduler) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), job.Timeout)
	defer cancel()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Warn("cron job failed", zap.String("job", job.Name), zap.Error(err))
		return
	}
	s.logger.Debug("cron job done", zap.String("job", job.Name), zap.Duration("took", time.Since(start)))
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits for running jobs to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

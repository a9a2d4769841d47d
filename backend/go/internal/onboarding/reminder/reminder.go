// Package reminder runs the periodic maintenance of the bot process: nudging
// stalled users, dropping idle flood control entries and pruning old exports.
package reminder

import (
	"context"
	"fmt"
	"time"

	"OnboardingBuddy/backend/go/internal/models"
	"OnboardingBuddy/backend/go/pkg/logger"
)

// Job is one periodic task. It returns a count for the log line.
type Job struct {
	Name string
	Run  func(ctx context.Context) (int, error)
}

// Scheduler runs its jobs on every tick.
type Scheduler struct {
	interval time.Duration
	jobs     []Job
	logger   *logger.Logger
}

// New creates a scheduler. A non-positive interval defaults to one hour.
func New(interval time.Duration, log *logger.Logger, jobs ...Job) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{interval: interval, jobs: jobs, logger: log}
}

// Run blocks until ctx is cancelled. Jobs run once right away and then on
// every tick. A failing job does not stop the others.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.WithPayload(map[string]interface{}{
		"interval": s.interval.String(),
		"jobs":     len(s.jobs),
	}).Info("maintenance scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("maintenance scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce runs every job a single time.
func (s *Scheduler) RunOnce(ctx context.Context) {
	for _, job := range s.jobs {
		if ctx.Err() != nil {
			return
		}
		s.run(ctx, job)
	}
}

func (s *Scheduler) run(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithError(models.ErrorInfo{Message: fmt.Sprint(r), Type: "panic"}).
				Error("maintenance job " + job.Name + " panicked")
		}
	}()
	n, err := job.Run(ctx)
	if err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "job_error"}).
			Error("maintenance job " + job.Name + " failed")
		return
	}
	if n > 0 {
		s.logger.WithPayload(map[string]interface{}{"job": job.Name, "count": n}).Info("maintenance job finished")
	}
}

// Counted adapts a job that only reports a count.
func Counted(name string, fn func() int) Job {
	return Job{Name: name, Run: func(context.Context) (int, error) { return fn(), nil }}
}

// Listed adapts a job that returns the affected names.
func Listed(name string, fn func() ([]string, error)) Job {
	return Job{Name: name, Run: func(context.Context) (int, error) {
		items, err := fn()
		return len(items), err
	}}
}

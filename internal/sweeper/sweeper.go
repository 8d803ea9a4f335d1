// Package sweeper runs the periodic jobs that expire presence and typing
// records.
package sweeper

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"pairchat/internal/clock"
	"pairchat/internal/observability"
)

// JobFunc performs one sweep against now and reports how many records it changed.
type JobFunc func(ctx context.Context, now time.Time) (int64, error)

// Job is a named sweep.
type Job struct {
	Name string
	Run  JobFunc
}

// Sweeper runs its jobs every interval.
type Sweeper struct {
	interval time.Duration
	clock    clock.Clock
	jobs     []Job
}

// New builds a Sweeper. A non-positive interval falls back to one minute.
func New(interval time.Duration, clk clock.Clock, jobs ...Job) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{interval: interval, clock: clk, jobs: jobs}
}

// Start runs every job once, then again on each tick until ctx is done.
func (s *Sweeper) Start(ctx context.Context) error {
	log.Printf("sweeper started interval=%s jobs=%d", s.interval, len(s.jobs))
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("sweeper stopped: %v", ctx.Err())
			return nil
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce executes every job against the clock's current time. Job errors are
// logged and counted and do not stop the remaining jobs.
func (s *Sweeper) RunOnce(ctx context.Context) map[string]int64 {
	now := s.clock.Now()
	results := make(map[string]int64, len(s.jobs))
	for _, job := range s.jobs {
		changed, err := s.runJob(ctx, job, now)
		if err != nil {
			continue
		}
		results[job.Name] = changed
	}
	return results
}

func (s *Sweeper) runJob(ctx context.Context, job Job, now time.Time) (int64, error) {
	ctx, span := otel.Tracer("pairchat/sweeper").Start(ctx, "sweeper."+job.Name)
	defer span.End()

	start := time.Now()
	changed, err := job.Run(ctx, now)
	observability.ObserveSweep(job.Name, changed, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Printf("sweeper job failed job=%s err=%v", job.Name, err)
		return 0, err
	}
	span.SetAttributes(attribute.Int64("sweeper.changed", changed))
	if changed > 0 {
		log.Printf("sweeper job done job=%s changed=%d", job.Name, changed)
	}
	return changed, nil
}

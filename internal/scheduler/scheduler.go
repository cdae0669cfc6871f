// Package scheduler triggers recurring digest runs.
package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs a job on a standard five-field cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	location *time.Location
}

func New(spec, timezone string, job func()) (*Scheduler, error) {
	if job == nil {
		return nil, errors.New("job must not be nil")
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}

	// SkipIfStillRunning: a slow run must not overlap the next one.
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	c.Schedule(schedule, cron.FuncJob(job))

	return &Scheduler{cron: c, schedule: schedule, location: loc}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// NextAfter returns the first activation strictly after t.
func (s *Scheduler) NextAfter(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.location))
}

func (s *Scheduler) Location() *time.Location {
	return s.location
}

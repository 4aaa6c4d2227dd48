package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Clock holds the reference date that every pipeline call receives as
// "today". It only moves when Roll runs.
type Clock struct {
	mu    sync.RWMutex
	today time.Time
	loc   *time.Location
	now   func() time.Time
}

// NewClock returns a clock set to the current date in loc.
func NewClock(loc *time.Location, now func() time.Time) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	c := &Clock{loc: loc, now: now}
	c.Roll()
	return c
}

// Today returns the reference date as a UTC midnight.
func (c *Clock) Today() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.today
}

// Roll sets the reference date to the current calendar day in the clock's
// location and reports whether it changed.
func (c *Clock) Roll() bool {
	y, m, d := c.now().In(c.loc).Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	c.mu.Lock()
	defer c.mu.Unlock()
	if day.Equal(c.today) {
		return false
	}
	c.today = day
	return true
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron  *cron.Cron
	Clock *Clock
	log   zerolog.Logger

	mu     sync.Mutex
	onRoll []func(today time.Time)
}

// NewScheduler creates a Scheduler whose cron expressions run in loc.
func NewScheduler(clock *Clock, loc *time.Location, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:  cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		Clock: clock,
		log:   log.With().Str("component", "scheduler").Logger(),
	}
}

// RegisterAll registers the reference-date roll.
func (s *Scheduler) RegisterAll(rollCron string) error {
	if _, err := s.Cron.AddFunc(rollCron, s.rollTask); err != nil {
		return fmt.Errorf("register roll task: %w", err)
	}
	return nil
}

// OnRoll registers fn to run after the reference date moves to a new day.
func (s *Scheduler) OnRoll(fn func(today time.Time)) {
	s.mu.Lock()
	s.onRoll = append(s.onRoll, fn)
	s.mu.Unlock()
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Time("today", s.Clock.Today()).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) rollTask() {
	if !s.Clock.Roll() {
		return
	}
	today := s.Clock.Today()
	s.log.Info().Str("today", today.Format("2006-01-02")).Msg("reference date rolled")

	s.mu.Lock()
	hooks := append([]func(time.Time){}, s.onRoll...)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn(today)
	}
}

// internal/poller/scheduler.go
package poller

import (
	"errors"
	"time"
)

// Target is what the scheduler polls.
// Poll sends one measurement query for the current function and reports
// whether anything was sent. A false return (e.g. the link is busy with
// another request) leaves the poll due on the next tick.
type Target interface {
	Poll() (bool, error)
}

// Config is the minimal runtime config the scheduler needs.
type Config struct {
	Interval time.Duration
}

// Scheduler is a dumb, tick-driven poller.
// It owns the last-poll timestamp and nothing else.
type Scheduler struct {
	cfg    Config
	target Target
	last   time.Time
}

// New creates a scheduler whose first poll is due one interval after start.
func New(cfg Config, target Target, start time.Time) (*Scheduler, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if target == nil {
		return nil, errors.New("poller: target required")
	}
	return &Scheduler{cfg: cfg, target: target, last: start}, nil
}

// OnTick issues at most one query when an interval has elapsed since the
// last poll. Missed intervals are not made up.
// A failed send still counts as a poll: there is no retry.
func (s *Scheduler) OnTick(now time.Time) (bool, error) {
	if now.Sub(s.last) < s.cfg.Interval {
		return false, nil
	}

	sent, err := s.target.Poll()
	if !sent && err == nil {
		return false, nil
	}
	s.last = now
	return sent, err
}

// Restart makes the next poll due one interval after t.
func (s *Scheduler) Restart(t time.Time) {
	s.last = t
}

// LastPoll is the time of the last issued query (or the start time).
func (s *Scheduler) LastPoll() time.Time {
	return s.last
}

// Interval is the configured polling period.
func (s *Scheduler) Interval() time.Duration {
	return s.cfg.Interval
}

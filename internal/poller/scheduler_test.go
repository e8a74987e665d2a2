// internal/poller/scheduler_test.go
package poller

import (
	"errors"
	"testing"
	"time"
)

type fakeTarget struct {
	polls int
	busy  bool
	err   error
}

func (f *fakeTarget) Poll() (bool, error) {
	if f.busy {
		return false, nil
	}
	f.polls++
	if f.err != nil {
		return true, f.err
	}
	return true, nil
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{Interval: 0}, &fakeTarget{}, time.Time{}); err == nil {
		t.Fatalf("expected interval error")
	}
	if _, err := New(Config{Interval: time.Second}, nil, time.Time{}); err == nil {
		t.Fatalf("expected target error")
	}
}

func TestOnTick_NoCatchUp(t *testing.T) {
	start := time.Unix(0, 0)
	tgt := &fakeTarget{}

	s, err := New(Config{Interval: ms(100)}, tgt, start)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	var issued []int
	for _, at := range []int{0, 50, 100, 150, 250} {
		sent, err := s.OnTick(start.Add(ms(at)))
		if err != nil {
			t.Fatalf("tick %d err=%v", at, err)
		}
		if sent {
			issued = append(issued, at)
		}
	}

	if len(issued) != 2 || issued[0] != 100 || issued[1] != 250 {
		t.Fatalf("queries issued at %v, want [100 250]", issued)
	}
	if tgt.polls != 2 {
		t.Fatalf("polls=%d want=2", tgt.polls)
	}
}

func TestOnTick_AtMostOnePerTick(t *testing.T) {
	start := time.Unix(0, 0)
	tgt := &fakeTarget{}

	s, _ := New(Config{Interval: ms(100)}, tgt, start)

	// Ten intervals elapsed: still exactly one query.
	s.OnTick(start.Add(ms(1000)))
	if tgt.polls != 1 {
		t.Fatalf("polls=%d want=1", tgt.polls)
	}
	if !s.LastPoll().Equal(start.Add(ms(1000))) {
		t.Fatalf("last poll not advanced to the tick time")
	}
	s.OnTick(start.Add(ms(1050)))
	if tgt.polls != 1 {
		t.Fatalf("polls=%d want=1", tgt.polls)
	}
}

func TestOnTick_BusyTargetStaysDue(t *testing.T) {
	start := time.Unix(0, 0)
	tgt := &fakeTarget{busy: true}

	s, _ := New(Config{Interval: ms(100)}, tgt, start)

	if sent, _ := s.OnTick(start.Add(ms(100))); sent {
		t.Fatalf("busy target reported a send")
	}
	tgt.busy = false
	if sent, _ := s.OnTick(start.Add(ms(110))); !sent {
		t.Fatalf("deferred poll should fire on the next tick")
	}
}

func TestOnTick_FailedSendIsNotRetried(t *testing.T) {
	start := time.Unix(0, 0)
	tgt := &fakeTarget{err: errors.New("write failed")}

	s, _ := New(Config{Interval: ms(100)}, tgt, start)

	if _, err := s.OnTick(start.Add(ms(100))); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := s.OnTick(start.Add(ms(150))); err != nil {
		t.Fatalf("no retry expected before the next interval, err=%v", err)
	}
	if tgt.polls != 1 {
		t.Fatalf("polls=%d want=1", tgt.polls)
	}
}

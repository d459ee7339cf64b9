package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// virtualClock advances only when told to, so due-time logic is tested
// without real waits.
type virtualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newVirtualClock() *virtualClock {
	return &virtualClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *virtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *virtualClock) After(time.Duration) <-chan time.Time {
	return make(chan time.Time)
}

func (c *virtualClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func TestRecurringTaskRunsWhenDue(t *testing.T) {
	clock := newVirtualClock()
	s := New(clock, slog.Default())

	runs := 0
	s.Schedule("pipeline", func(context.Context) error {
		runs++
		return nil
	}, 10*time.Minute)

	ctx := context.Background()

	s.RunDue(ctx)
	if runs != 0 {
		t.Fatalf("task ran before its first due time: %d runs", runs)
	}

	clock.advance(10 * time.Minute)
	s.RunDue(ctx)
	if runs != 1 {
		t.Fatalf("expected 1 run, got %d", runs)
	}

	// Not yet due again.
	s.RunDue(ctx)
	if runs != 1 {
		t.Fatalf("task re-ran before the next interval: %d runs", runs)
	}

	clock.advance(10 * time.Minute)
	s.RunDue(ctx)
	if runs != 2 {
		t.Fatalf("expected 2 runs, got %d", runs)
	}
}

func TestOneShotTaskIsRemovedAfterRun(t *testing.T) {
	clock := newVirtualClock()
	s := New(clock, slog.Default())

	runs := 0
	s.ScheduleOnce("refresh", func(context.Context) error {
		runs++
		return nil
	}, time.Minute)

	ctx := context.Background()

	clock.advance(time.Minute)
	s.RunDue(ctx)

	if runs != 1 {
		t.Fatalf("expected 1 run, got %d", runs)
	}

	if statuses := s.Status(); len(statuses) != 0 {
		t.Fatalf("expected the one-shot task to be removed, got %+v", statuses)
	}

	clock.advance(time.Hour)
	s.RunDue(ctx)

	if runs != 1 {
		t.Fatalf("one-shot task ran again: %d runs", runs)
	}
}

func TestFailingTaskIsRescheduled(t *testing.T) {
	clock := newVirtualClock()
	s := New(clock, slog.Default())

	runs := 0
	s.Schedule("flaky", func(context.Context) error {
		runs++
		return errors.New("boom")
	}, time.Minute)

	ctx := context.Background()

	clock.advance(time.Minute)
	s.RunDue(ctx)
	clock.advance(time.Minute)
	s.RunDue(ctx)

	if runs != 2 {
		t.Fatalf("expected the failing task to keep running, got %d runs", runs)
	}
}

func TestPanickingTaskDoesNotStopScheduler(t *testing.T) {
	clock := newVirtualClock()
	s := New(clock, slog.Default())

	panics := 0
	others := 0

	s.Schedule("a_panics", func(context.Context) error {
		panics++
		panic("boom")
	}, time.Minute)
	s.Schedule("b_runs", func(context.Context) error {
		others++
		return nil
	}, time.Minute)

	clock.advance(time.Minute)
	s.RunDue(context.Background())

	if panics != 1 || others != 1 {
		t.Fatalf("expected both tasks to run, got panics=%d others=%d", panics, others)
	}
}

func TestRunDueExecutesInIDOrder(t *testing.T) {
	clock := newVirtualClock()
	s := New(clock, slog.Default())

	var order []string
	record := func(id string) TaskFunc {
		return func(context.Context) error {
			order = append(order, id)
			return nil
		}
	}

	s.Schedule("b", record("b"), time.Minute)
	s.Schedule("a", record("a"), time.Minute)
	s.Schedule("c", record("c"), time.Minute)

	clock.advance(time.Minute)
	s.RunDue(context.Background())

	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("unexpected execution order: %v", order)
	}
}

func TestCancel(t *testing.T) {
	clock := newVirtualClock()
	s := New(clock, slog.Default())

	s.Schedule("doomed", func(context.Context) error { return nil }, time.Minute)

	if !s.Cancel("doomed") {
		t.Fatal("expected cancel of an existing task to succeed")
	}

	if s.Cancel("doomed") {
		t.Fatal("expected cancel of a missing task to fail")
	}

	if statuses := s.Status(); len(statuses) != 0 {
		t.Fatalf("expected no tasks, got %+v", statuses)
	}
}

func TestStatusTracksRunCounts(t *testing.T) {
	clock := newVirtualClock()
	s := New(clock, slog.Default())

	s.Schedule("counted", func(context.Context) error { return nil }, time.Minute)

	ctx := context.Background()

	clock.advance(time.Minute)
	s.RunDue(ctx)
	clock.advance(time.Minute)
	s.RunDue(ctx)

	statuses := s.Status()
	if len(statuses) != 1 {
		t.Fatalf("expected one status, got %d", len(statuses))
	}

	status := statuses[0]
	if status.ID != "counted" || status.RunCount != 2 {
		t.Fatalf("unexpected status: %+v", status)
	}

	if !status.NextRun.After(clock.Now()) {
		t.Fatalf("expected next run in the future, got %v at %v", status.NextRun, clock.Now())
	}
}

package scheduler

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"
)

// TickInterval is how often the loop checks for due tasks.
const TickInterval = time.Minute

// Clock abstracts wall time so the loop is testable without real waits.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock returns the wall-clock implementation used in production.
func SystemClock() Clock { return systemClock{} }

// TaskFunc is a unit of scheduled work. Errors are logged and never stop the
// loop or disable the task.
type TaskFunc func(ctx context.Context) error

type task struct {
	id       string
	fn       TaskFunc
	interval time.Duration // zero means one-shot
	nextRun  time.Time
	lastRun  time.Time
	runCount int
}

// TaskStatus is a read-only snapshot of one scheduled task.
type TaskStatus struct {
	ID       string
	Interval time.Duration
	NextRun  time.Time
	LastRun  time.Time
	RunCount int
}

// Scheduler runs named background tasks on a fixed tick, fully independent of
// the chat-handling path. Due tasks execute synchronously in the loop
// goroutine, so the same task never runs re-entrantly; a slow task delays the
// next check but never double-fires.
type Scheduler struct {
	clock Clock
	log   *slog.Logger

	mu    sync.Mutex
	tasks map[string]*task

	cancel context.CancelFunc
	done   chan struct{}
}

func New(clock Clock, log *slog.Logger) *Scheduler {
	if clock == nil {
		clock = SystemClock()
	}

	return &Scheduler{
		clock: clock,
		log:   log,
		tasks: make(map[string]*task),
	}
}

// Schedule registers (or replaces) a recurring task. The first run happens one
// interval from now.
func (s *Scheduler) Schedule(id string, fn TaskFunc, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[id] = &task{
		id:       id,
		fn:       fn,
		interval: interval,
		nextRun:  s.clock.Now().Add(interval),
	}

	s.log.Info("Scheduled recurring task",
		"taskID", id,
		"interval", interval)
}

// ScheduleOnce registers a task that runs once after delay and is then
// removed.
func (s *Scheduler) ScheduleOnce(id string, fn TaskFunc, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[id] = &task{
		id:      id,
		fn:      fn,
		nextRun: s.clock.Now().Add(delay),
	}

	s.log.Info("Scheduled one-shot task",
		"taskID", id,
		"delay", delay)
}

// Cancel removes a task. It reports whether the task existed.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return false
	}

	delete(s.tasks, id)
	s.log.Info("Cancelled task",
		"taskID", id)

	return true
}

// Status returns a snapshot of every scheduled task, ordered by ID.
func (s *Scheduler) Status() []TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := slices.Sorted(maps.Keys(s.tasks))

	statuses := make([]TaskStatus, 0, len(ids))
	for _, id := range ids {
		t := s.tasks[id]
		statuses = append(statuses, TaskStatus{
			ID:       t.id,
			Interval: t.interval,
			NextRun:  t.nextRun,
			LastRun:  t.lastRun,
			RunCount: t.runCount,
		})
	}

	return statuses
}

// Start launches the background loop. It returns immediately; Stop waits for
// the loop to exit.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx)

	s.log.InfoContext(ctx, "Scheduler is started",
		"tickInterval", TickInterval)
}

func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}

	s.cancel()
	<-s.done
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			s.log.InfoContext(ctx, "Scheduler context is done",
				"error", ctx.Err())

			return
		case <-s.clock.After(TickInterval):
			s.RunDue(ctx)
		}
	}
}

// RunDue executes every task whose next-run time has passed, sequentially and
// in ID order. Exported for the loop and for tests driving a virtual clock.
func (s *Scheduler) RunDue(ctx context.Context) {
	now := s.clock.Now()

	s.mu.Lock()
	var due []*task
	for _, t := range s.tasks {
		if !t.nextRun.After(now) {
			due = append(due, t)
		}
	}
	slices.SortFunc(due, func(a, b *task) int {
		return cmp.Compare(a.id, b.id)
	})
	s.mu.Unlock()

	for _, t := range due {
		s.execute(ctx, t)
	}
}

// execute runs one task, recovers panics, and reschedules recurring tasks on
// both success and failure. One-shot tasks are removed after their run.
func (s *Scheduler) execute(ctx context.Context, t *task) {
	s.mu.Lock()
	t.lastRun = s.clock.Now()
	t.runCount++
	s.mu.Unlock()

	s.log.InfoContext(ctx, "Executing task",
		"taskID", t.id,
		"runCount", t.runCount)

	if err := s.invoke(ctx, t); err != nil {
		s.log.ErrorContext(ctx, "Task execution failed",
			"error", err,
			"taskID", t.id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if t.interval > 0 {
		t.nextRun = s.clock.Now().Add(t.interval)
	} else {
		delete(s.tasks, t.id)
	}
}

func (s *Scheduler) invoke(ctx context.Context, t *task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", t.id, r)
		}
	}()

	return t.fn(ctx)
}

package taskrunner

import (
	"container/heap"
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/petermattis/goid"
	"go.uber.org/zap"

	"github.com/wippyai/flutter-host/errors"
)

// TaskRunner serializes deferred work onto a single platform goroutine.
// Any goroutine may post; only the platform goroutine executes.
type TaskRunner struct {
	mu     sync.Mutex
	tasks  taskHeap
	seq    uint64
	owner  int64
	now    func() time.Time
	wake   func()
	signal chan struct{}
}

// Option configures a TaskRunner.
type Option func(*TaskRunner)

// WithWake sets a hook called when a task is posted from another goroutine,
// for example to interrupt a native event wait.
func WithWake(fn func()) Option {
	return func(r *TaskRunner) {
		r.wake = fn
	}
}

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(r *TaskRunner) {
		r.now = now
	}
}

// New creates a runner owned by the calling goroutine, which becomes the
// platform thread.
func New(opts ...Option) *TaskRunner {
	r := &TaskRunner{
		owner:  goid.Get(),
		now:    time.Now,
		signal: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunsTasksOnCurrentThread reports whether the caller is the platform goroutine.
func (r *TaskRunner) RunsTasksOnCurrentThread() bool {
	return goid.Get() == r.owner
}

// Now returns the runner's current time.
func (r *TaskRunner) Now() time.Time {
	return r.now()
}

// PostTask schedules fn to run on the platform goroutine no earlier than due.
// Tasks with equal due times run in posting order.
func (r *TaskRunner) PostTask(due time.Time, fn func()) {
	r.mu.Lock()
	r.seq++
	heap.Push(&r.tasks, &task{due: due, seq: r.seq, run: fn})
	r.mu.Unlock()

	if !r.RunsTasksOnCurrentThread() {
		r.notify()
	}
}

// Post schedules fn to run on the platform goroutine as soon as possible.
func (r *TaskRunner) Post(fn func()) {
	r.PostTask(r.now(), fn)
}

func (r *TaskRunner) notify() {
	select {
	case r.signal <- struct{}{}:
	default:
	}
	if r.wake != nil {
		r.wake()
	}
}

// Len returns the number of queued tasks.
func (r *TaskRunner) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// ExecuteTasks runs every task that is due, in order, and returns the due
// time of the earliest remaining task. ok is false when the queue is empty.
// Tasks posted while executing wait for the next call.
func (r *TaskRunner) ExecuteTasks() (next time.Time, ok bool) {
	if !r.RunsTasksOnCurrentThread() {
		panic(errors.ThreadAffinity("ExecuteTasks"))
	}

	now := r.now()
	var due []*task

	r.mu.Lock()
	for len(r.tasks) > 0 && !r.tasks[0].due.After(now) {
		due = append(due, heap.Pop(&r.tasks).(*task))
	}
	r.mu.Unlock()

	for _, t := range due {
		r.execute(t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.tasks) == 0 {
		return time.Time{}, false
	}
	return r.tasks[0].due, true
}

// execute isolates a single task so a panic cannot starve the queue.
func (r *TaskRunner) execute(t *task) {
	defer func() {
		if rec := recover(); rec != nil {
			Logger().Error("platform task panicked",
				zap.Uint64("seq", t.seq),
				zap.Any("panic", rec),
				zap.Stack("stack"))
		}
	}()
	t.run()
}

// Run drives the runner until ctx is done. It must be called on the
// platform goroutine and keeps that goroutine on its OS thread.
func (r *TaskRunner) Run(ctx context.Context) error {
	if !r.RunsTasksOnCurrentThread() {
		panic(errors.ThreadAffinity("Run"))
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		next, ok := r.ExecuteTasks()
		var timeout <-chan time.Time
		if ok {
			wait := next.Sub(r.now())
			if wait <= 0 {
				continue
			}
			timer.Reset(wait)
			timeout = timer.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.signal:
		case <-timeout:
		}
		timer.Stop()
	}
}

package asyncrt

import (
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// taskStatus enumerates the CAS-guarded lifecycle spec.md section 3
// names. Modeled on the teacher's FastState (eventloop/state.go): a plain
// integer behind atomic CAS, Store reserved for the irreversible
// transitions, no validation on the hot path.
type taskStatus uint32

const (
	statusIdle taskStatus = iota
	statusScheduled
	statusRunning
	statusNotified
	statusComplete
	statusCancelled
)

func (s taskStatus) String() string {
	switch s {
	case statusIdle:
		return "Idle"
	case statusScheduled:
		return "Scheduled"
	case statusRunning:
		return "Running"
	case statusNotified:
		return "Notified"
	case statusComplete:
		return "Complete"
	case statusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

type statusWord struct {
	v atomic.Uint32
}

func (s *statusWord) load() taskStatus     { return taskStatus(s.v.Load()) }
func (s *statusWord) store(v taskStatus)   { s.v.Store(uint32(v)) }
func (s *statusWord) cas(from, to taskStatus) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}

// runnable is the non-generic scheduling facet of a Task[T] — the
// erasure point spec.md section 9 asks for, so local/global queues can
// hold heterogeneous task types behind one interface while each task's
// own Poll stays monomorphic.
type runnable interface {
	run(w *worker)
	wake()
	cancel()
}

// Outcome is the settled result of a spawned task: either the future's
// output value, or an error — ErrCancelled if the task was aborted before
// or during its run, or a *PanickedError if Poll panicked.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Task is the heap-allocated record spec.md section 3 describes: a
// future payload, an atomic status word, and a join slot. Go's garbage
// collector retires the reference-count half of that description — see
// DESIGN.md.
type Task[T any] struct {
	future Future[T]
	status statusWord
	rt     *Runtime

	mu        sync.Mutex
	done      bool
	outcome   Outcome[T]
	joinWaker Waker
}

func newTask[T any](rt *Runtime, f Future[T]) *Task[T] {
	t := &Task[T]{future: f, rt: rt}
	t.status.store(statusScheduled)
	return t
}

// run is called by a worker popping this task off a queue. It is the one
// place that calls Poll, enforcing the at-most-one-poll invariant via the
// Running status: the CAS below fails for a task that was concurrently
// cancelled while merely Scheduled, so a cancelled-before-its-turn task is
// never polled at all.
func (t *Task[T]) run(w *worker) {
	if !t.status.cas(statusScheduled, statusRunning) {
		return
	}

	if t.status.load() == statusCancelled {
		t.settle(Outcome[T]{Err: ErrCancelled})
		return
	}

	cx := &Context{waker: taskWaker{t}, worker: w, rt: t.rt}
	value, status, err := t.poll(cx)
	if err != nil {
		t.settle(Outcome[T]{Err: err})
		return
	}

	switch status {
	case Ready:
		t.settle(Outcome[T]{Value: value})
	default:
		t.exitRunning(w)
	}
}

// poll drives the future exactly once, recovering a panic into a
// *PanickedError rather than letting it cross back into the worker loop
// (spec.md section 7: a panic aborts the task, it does not crash the
// worker).
func (t *Task[T]) poll(cx *Context) (value T, status Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanickedError{Value: r, Stack: debug.Stack()}
		}
	}()
	value, status = t.future.Poll(cx)
	return
}

// exitRunning resolves the Running state on a Pending return: back to
// Idle if nothing happened while running, straight back onto a queue if a
// wake raced us (Notified), or settled if cancellation raced us instead.
func (t *Task[T]) exitRunning(w *worker) {
	if t.status.cas(statusRunning, statusIdle) {
		return
	}
	if t.status.cas(statusNotified, statusScheduled) {
		t.enqueue(w)
		return
	}
	if t.status.load() == statusCancelled {
		t.settle(Outcome[T]{Err: ErrCancelled})
	}
}

// enqueue places the task back on a run queue. w is non-nil only when the
// caller is itself the worker goroutine currently driving this task (the
// exitRunning race in run()): that push lands on w's own local queue, the
// single producer allowed to call pushOwner on it.
//
// w is nil when enqueue is reached from wake(), which is callable from any
// goroutine — the io-driver firing a reactor or timer waker, or a peer
// worker's task. localQueue.pushOwner is single-producer; a remote
// goroutine pushing onto some other worker's queue would race that
// worker's own pushOwner/popOwner calls on the same tail index. So a nil w
// always goes to the global queue instead.
func (t *Task[T]) enqueue(w *worker) {
	if w != nil {
		w.pushLocal(t)
		return
	}
	t.rt.enqueueGlobal(t)
}

// wake implements the runnable facet invoked by taskWaker.Wake: the
// Idle→Scheduled / Running→Notified CAS pair spec.md section 3 describes.
// Safe to call from any goroutine at any time, including after the task
// has settled, in which case it is a no-op.
func (t *Task[T]) wake() {
	for {
		switch t.status.load() {
		case statusIdle:
			if t.status.cas(statusIdle, statusScheduled) {
				t.enqueue(nil)
				return
			}
		case statusRunning:
			if t.status.cas(statusRunning, statusNotified) {
				return
			}
		default:
			// Scheduled, Notified, Complete, Cancelled: already queued for
			// a future poll, or settled. Nothing to do.
			return
		}
	}
}

// cancel marks the task Cancelled. An Idle or queued task is settled
// immediately so the join resolves promptly instead of waiting on an
// unrelated wake; a Running task is marked Cancelled so its exit path
// settles once the in-flight poll returns, per spec.md section 4.1: "in-
// flight polls are not interrupted".
func (t *Task[T]) cancel() {
	for {
		switch s := t.status.load(); s {
		case statusComplete, statusCancelled:
			return
		case statusIdle, statusScheduled, statusNotified:
			if t.status.cas(s, statusCancelled) {
				t.settle(Outcome[T]{Err: ErrCancelled})
				return
			}
		case statusRunning:
			if t.status.cas(statusRunning, statusCancelled) {
				return
			}
		}
	}
}

func (t *Task[T]) settle(o Outcome[T]) {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return
	}
	t.done = true
	t.outcome = o
	if o.Err == ErrCancelled {
		t.status.store(statusCancelled)
		if c, ok := t.future.(cancelable); ok {
			c.cancelFuture()
		}
	} else {
		t.status.store(statusComplete)
	}
	w := t.joinWaker
	t.joinWaker = nil
	t.future = nil
	t.mu.Unlock()
	if w != nil {
		w.Wake()
	}
}

// JoinHandle is the pollable handle spec.md section 6 names for a
// spawned task's eventual result. It is itself a Future[Outcome[T]]:
// polling it installs the current context's waker into the task's join
// slot if the task hasn't settled yet, exactly as spec.md section 4.1
// describes join's poll contract.
type JoinHandle[T any] struct {
	task *Task[T]
}

func (h *JoinHandle[T]) Poll(cx *Context) (Outcome[T], Status) {
	t := h.task
	t.mu.Lock()
	if t.done {
		o := t.outcome
		t.mu.Unlock()
		return o, Ready
	}
	t.joinWaker = cx.Waker()
	t.mu.Unlock()
	return Outcome[T]{}, Pending
}

// Abort requests cooperative cancellation of the underlying task. It does
// not block and does not guarantee the task has stopped by the time it
// returns — only that the task's status has been set Cancelled and the
// next scheduled run (or the in-flight one's exit) will settle the join
// with ErrCancelled.
func (h *JoinHandle[T]) Abort() { h.task.cancel() }

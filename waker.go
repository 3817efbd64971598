package asyncrt

// Waker is the opaque handle spec.md section 3 describes: a pair of
// (task, vtable) collapsed here into a single interface value, since Go
// closures and interface values already carry their own "vtable" and
// capture their own referent. Wake is safe to call from any goroutine at
// any time, including after the task it targets has completed, in which
// case it is a no-op. Wake never blocks.
type Waker interface {
	Wake()
}

// noopWaker satisfies the Waker contract for contexts that never need a
// real wake-up, such as tests that only ever expect Ready on the first
// call. It is the value behind NoOpWaker.
type noopWaker struct{}

func (noopWaker) Wake() {}

// NoOpWaker is a Waker whose Wake does nothing. It is never installed by
// the runtime itself; it exists for futures and tests driven outside any
// runtime that still need a valid, contract-satisfying Context.
var NoOpWaker Waker = noopWaker{}

// taskWaker is the Waker a task's own Context carries while it is being
// polled. Invoking it runs the task's wake transition (task.go): the
// Idle→Scheduled / Running→Notified CAS pair, and, on the former,
// re-enqueueing the task.
type taskWaker struct {
	t runnable
}

func (w taskWaker) Wake() { w.t.wake() }

// WakerFunc adapts a plain function to the Waker interface, for futures
// that bridge to callback-based APIs without a task of their own. (BlockOn
// uses its own blockOnWaker type instead, see runtime.go.)
type WakerFunc func()

func (f WakerFunc) Wake() { f() }

// Package asyncrt implements the core asynchronous runtime of a
// general-purpose concurrency library: a work-stealing scheduler driven by
// a non-blocking I/O reactor and a hierarchical timer wheel.
//
// # Architecture
//
// The runtime is built around a [Runtime] handle that owns a pool of
// worker goroutines, each with its own local run queue, plus a shared
// global injection queue, an I/O [Reactor], and a hierarchical timer
// wheel. Work is represented as [Task] values wrapping a user-supplied
// [Future][T]: a state machine polled via Poll until it reports Ready.
//
// Three primitives are exposed:
//   - [Runtime.Spawn] and [SpawnValue] schedule a future for execution and
//     return a [JoinHandle] for its eventual result.
//   - [BlockOn] drives a future to completion on the calling goroutine,
//     independent of the worker pool.
//   - Inside a future's Poll method, [Context.Waker] returns a [Waker] that
//     re-schedules the task when invoked, and [SpawnFrom] schedules a new
//     task directly onto the calling worker's local queue.
//
// # Platform Support
//
// I/O readiness is implemented using platform-native mechanisms:
//   - Linux: epoll
//   - Darwin/BSD: kqueue
//   - Windows: WSAPoll, the readiness-based analogue of poll(2) — see
//     DESIGN.md for why this, rather than IOCP, backs a generic
//     register/reregister/deregister reactor
//
// # Thread Safety
//
// [Runtime.Spawn], [SpawnValue], [Waker.Wake], and [JoinHandle.Abort] are
// safe to call from any goroutine, including from inside a task's own
// Poll method. [Future.Poll] is never called concurrently for the same
// task: a wake that arrives while the task is running is recorded, not
// re-entered, and the worker re-polls once on the next iteration of the
// poll loop instead.
//
// # Usage
//
//	rt, err := asyncrt.NewBuilder().WorkerCount(4).Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Stop()
//
//	h, err := asyncrt.SpawnValue[int](rt, asyncrt.FuncFuture[int](func() (int, error) {
//	    return 1 + 2, nil
//	}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result := asyncrt.BlockOn[asyncrt.Outcome[int]](rt, h)
//	fmt.Println(result.Value, result.Err)
package asyncrt

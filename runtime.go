package asyncrt

import (
	"sync"
	"sync/atomic"
	"time"
)

// ioDriverIdleTimeout bounds how long the dedicated reactor-driving
// goroutine blocks in park() when no timer is armed, so it still wakes up
// periodically to notice Stop even with no fd or timer activity at all.
const ioDriverIdleTimeout = time.Second

// Runtime is the handle spec.md section 2 describes as the sum of its
// components: a fixed pool of worker goroutines (component E) sharing one
// global injection queue (component C) and one Reactor (component D),
// plus a timer wheel (component D's companion). Construct one with
// NewBuilder().Build().
type Runtime struct {
	cfg *config

	workers []*worker
	global  *globalQueue

	reactor *Reactor
	timer   *timerWheel
	metrics *runtimeMetrics

	stopping atomic.Bool
	searching atomic.Int32

	ioDriverDone chan struct{}
	startWG      sync.WaitGroup
	stopOnce     sync.Once
}

// newRuntime builds and starts every component a resolved config asks for,
// returning once every worker goroutine has started and signaled it is up.
func newRuntime(cfg *config) (*Runtime, error) {
	rt := &Runtime{cfg: cfg, global: newGlobalQueue()}

	if cfg.enableIO {
		r, err := newReactor()
		if err != nil {
			return nil, &IoRegistrationFailedError{FD: -1, Cause: err}
		}
		rt.reactor = r
	}
	if cfg.enableTimer {
		rt.timer = newTimerWheel(time.Now())
	}
	if cfg.meter != nil {
		m, err := newRuntimeMetrics(rt, cfg.meter)
		if err != nil {
			cfg.logger.warn("metrics instrument registration failed", err, nil)
		} else {
			rt.metrics = m
		}
	}

	rt.workers = make([]*worker, cfg.workerCount)
	rt.startWG.Add(cfg.workerCount)
	for i := 0; i < cfg.workerCount; i++ {
		w := newWorker(rt, i)
		rt.workers[i] = w
		go func() {
			rt.startWG.Done()
			w.run()
		}()
	}
	rt.startWG.Wait()

	if rt.reactor != nil || rt.timer != nil {
		rt.ioDriverDone = make(chan struct{})
		go rt.runIoDriver()
	}

	return rt, nil
}

// runIoDriver is the dedicated background goroutine that owns park/advance
// calls against the shared Reactor and timer wheel (see DESIGN.md for why
// this is one goroutine per Runtime rather than one per worker: a single
// epoll/kqueue/WSAPoll instance already multiplexes an unbounded number of
// fds, so replicating it per worker would only add syscalls with no
// concurrency benefit, and it decouples the OS readiness wait from each
// worker's own lost-wake-up-safe parker).
func (rt *Runtime) runIoDriver() {
	defer close(rt.ioDriverDone)
	for !rt.stopping.Load() {
		timeout := ioDriverIdleTimeout
		if rt.timer != nil {
			if dl, ok := rt.timer.nextDeadline(); ok {
				if d := time.Until(dl); d < timeout {
					if d < 0 {
						d = 0
					}
					timeout = d
				}
			}
		}

		if rt.reactor != nil {
			if err := rt.reactor.park(timeout); err != nil {
				rt.cfg.logger.warn("reactor park failed", err, nil)
			}
		} else {
			time.Sleep(timeout)
		}

		if rt.timer != nil {
			rt.timer.advance(time.Now())
		}
	}
}

// wakeIoDriver breaks a blocked park() call early, used whenever a sleep
// arms a timer-wheel entry, so the driver recomputes its park timeout.
func (rt *Runtime) wakeIoDriver() {
	if rt.reactor != nil {
		rt.reactor.wakeUp()
	}
}

// Spawn schedules f to run on the global queue, for use from outside any
// worker goroutine (spec.md section 6's free function form).
func (rt *Runtime) Spawn(f Future[struct{}]) (*JoinHandle[struct{}], error) {
	return spawn(rt, f)
}

// SpawnValue is Spawn generalized over a non-empty result type, since Go's
// lack of method-level type parameters means Runtime.Spawn can't itself be
// generic; call this directly when the future's output matters.
func SpawnValue[T any](rt *Runtime, f Future[T]) (*JoinHandle[T], error) {
	return spawn(rt, f)
}

func spawn[T any](rt *Runtime, f Future[T]) (*JoinHandle[T], error) {
	if rt.stopping.Load() {
		return nil, ErrSpawnRejected
	}
	t := newTask(rt, f)
	rt.enqueueGlobal(t)
	return &JoinHandle[T]{task: t}, nil
}

// SpawnFrom schedules f onto the local queue of the worker currently
// polling cx, for cache-local fan-out from inside a running task (spec.md
// section 6's "spawn from within a future" form). Falls back to the
// global queue if cx is not associated with a worker (for example, when
// called from BlockOn's driver).
func SpawnFrom[T any](cx *Context, f Future[T]) (*JoinHandle[T], error) {
	if cx.worker == nil {
		return spawn(cx.rt, f)
	}
	rt := cx.worker.rt
	if rt.stopping.Load() {
		return nil, ErrSpawnRejected
	}
	t := newTask(rt, f)
	cx.worker.pushLocal(t)
	return &JoinHandle[T]{task: t}, nil
}

// enqueueGlobal pushes r onto the global queue and wakes one parked
// worker, if any is idle and not already mid-steal-search — the searching
// counter avoids a thundering herd where every parked worker wakes for a
// single new task.
func (rt *Runtime) enqueueGlobal(r runnable) {
	rt.global.push(r)
	rt.wakeOneParked()
}

func (rt *Runtime) enqueueGlobalBatch(rs []runnable) {
	if len(rs) == 0 {
		return
	}
	rt.global.pushBatch(rs)
	rt.wakeOneParked()
}

func (rt *Runtime) wakeOneParked() {
	if rt.searching.Load() > 0 {
		return
	}
	for _, w := range rt.workers {
		if w.parked.Load() {
			w.parker.wake()
			return
		}
	}
}

// blockOnWaker wakes a BlockOn call's private parker; it never touches the
// task scheduling machinery, since BlockOn drives its future directly
// rather than spawning a Task for it.
type blockOnWaker struct {
	p *parker
}

func (w blockOnWaker) Wake() { w.p.wake() }

// BlockOn drives f to completion on the calling goroutine, independent of
// the worker pool — the resolution spec.md's Open Question on blocking
// entry points settles on (see DESIGN.md): a dedicated single-use parker,
// not a borrowed worker slot, so calling BlockOn never blocks a pool
// worker out of the steal rotation.
func BlockOn[T any](rt *Runtime, f Future[T]) T {
	p := newParker()
	cx := &Context{waker: blockOnWaker{p}, rt: rt}
	for {
		v, status := f.Poll(cx)
		if status == Ready {
			return v
		}
		p.wait(ioDriverIdleTimeout, func() bool { return false })
	}
}

// Stop signals every worker to exit its poll loop once its current task
// (if any) finishes, cancels whatever is left in the global queue and each
// worker's local queue, stops the io driver and closes the reactor, and
// blocks until everything has wound down. The timer wheel is left as it
// is; entries still in it are not fired or cancelled. Calling Stop more than once is safe; only the
// first call has effect.
func (rt *Runtime) Stop() {
	rt.stopOnce.Do(func() {
		rt.stopping.Store(true)
		for _, w := range rt.workers {
			w.parker.wake()
		}
		for _, w := range rt.workers {
			<-w.done
		}
		for _, r := range rt.global.drain() {
			r.cancel()
		}
		if rt.ioDriverDone != nil {
			<-rt.ioDriverDone
		}
		if rt.reactor != nil {
			if err := rt.reactor.close(); err != nil {
				rt.cfg.logger.warn("reactor close failed", err, nil)
			}
		}
		rt.metrics.close()
	})
}

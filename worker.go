package asyncrt

import (
	"math/rand/v2"
	"sync/atomic"
	"time"
)

// globalPullInterval bounds global-to-local latency (spec.md section 4.2
// step 2): every N local pops, a worker checks the global queue even if
// its own queue is still nonempty, so externally-spawned work is never
// starved by a worker that keeps re-feeding itself via local LIFO pushes.
// N≈61 is the value spec.md itself suggests.
const globalPullInterval = 61

// workerParkSafety bounds how long a parked worker can go without
// rechecking the stop flag, as a safety net on top of the generation-
// counted parker — the wake-up protocol is the load-bearing mechanism,
// this is only a backstop against a bug in it stranding a worker forever.
const workerParkSafety = time.Second

// worker is the OS thread (Go: goroutine, parked via the OS scheduler
// rather than spinning) spec.md section 2 component E describes: it owns
// one local run queue and drives the poll loop in section 4.2.
type worker struct {
	idx    int
	rt     *Runtime
	local  *localQueue
	parker *parker
	parked atomic.Bool
	done   chan struct{}
}

func newWorker(rt *Runtime, idx int) *worker {
	return &worker{
		idx:    idx,
		rt:     rt,
		local:  newLocalQueue(rt.cfg.localQueueCapacity),
		parker: newParker(),
		done:   make(chan struct{}),
	}
}

// pushLocal places r on this worker's own local queue, waking it if it is
// currently parked. Only ever called by w's own goroutine — SpawnFrom
// calls it for the owning worker it runs on, and Task.enqueue calls it
// only when its w argument is the worker currently driving that task's
// run() — localQueue.pushOwner is single-producer and would race a
// cross-thread caller.
func (w *worker) pushLocal(r runnable) {
	w.local.pushOwner(r, w.rt)
	if w.parked.Load() {
		w.parker.wake()
	}
}

// run is the worker's poll loop, spec.md section 4.2.
func (w *worker) run() {
	defer close(w.done)
	if onStart := w.rt.cfg.onThreadStart; onStart != nil {
		onStart(w.idx)
	}

	var ticks uint64
	for !w.rt.stopping.Load() {
		ticks++
		if ticks%globalPullInterval == 0 {
			w.pullGlobal()
		}

		if r := w.local.popOwner(); r != nil {
			r.run(w)
			continue
		}

		if w.pullGlobal() {
			continue
		}

		w.rt.searching.Add(1)
		found := w.stealFromPeers()
		w.rt.searching.Add(-1)
		if found {
			continue
		}

		w.parkOnce()
	}

	w.drainSelf()
}

// pullGlobal refills the local queue with one batch pulled from the
// runtime's global queue.
func (w *worker) pullGlobal() bool {
	n := len(w.local.buf)/2 + 1
	batch := w.rt.global.popBatch(n)
	for _, r := range batch {
		w.local.pushOwner(r, w.rt)
	}
	if len(batch) > 0 {
		w.rt.metrics.recordGlobalPull()
		return true
	}
	return false
}

// stealFromPeers tries every peer worker once, in a random order starting
// point, per spec.md section 4.2 step 3's "bounded random sequence of
// peers". Grounded on the worker/steal vocabulary of the GopherCon Africa
// 2025 toy scheduler (other_examples/toysched7.go), reimplemented with a
// real CAS-based steal instead of that sketch's mutex-guarded slice pop.
func (w *worker) stealFromPeers() bool {
	peers := w.rt.workers
	n := len(peers)
	if n <= 1 {
		return false
	}
	start := rand.IntN(n)
	for i := 0; i < n; i++ {
		p := peers[(start+i)%n]
		if p == w {
			continue
		}
		if p.local.steal(w.local, w.rt) > 0 {
			w.rt.metrics.recordSteal()
			return true
		}
	}
	return false
}

// parkOnce is step 4 of the worker loop: park until woken by new work or
// the stop signal. recheck runs under the parker's own lock, closing the
// lost-wake-up hole between "queues looked empty" and "actually asleep".
func (w *worker) parkOnce() {
	w.parked.Store(true)
	w.parker.wait(workerParkSafety, func() bool {
		return w.rt.stopping.Load() || w.rt.global.len() > 0 || w.local.len() > 0
	})
	w.parked.Store(false)
}

// drainSelf cancels every task left in this worker's local queue once its
// loop has exited, per spec.md section 4.5's shutdown contract.
func (w *worker) drainSelf() {
	for _, r := range w.local.drain() {
		r.cancel()
	}
}

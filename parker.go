package asyncrt

import (
	"sync"
	"time"
)

// parker is a generation-counted condition variable. It exists to close
// the lost-wake-up hole spec.md section 4.2 calls out by name: wake()
// cannot make progress past recheck's lock acquisition, so a wake that
// lands between a worker's last queue check and the moment it actually
// goes to sleep is never missed. Grounded on the teacher's FastState
// (eventloop/state.go) in spirit — a small atomically-guarded state
// machine — adapted here to a blocking wait instead of pure CAS, since a
// parked worker must actually sleep rather than spin.
type parker struct {
	mu   sync.Mutex
	cond *sync.Cond
	gen  uint64
}

func newParker() *parker {
	p := &parker{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// wait blocks until wake is called, the timeout elapses, or recheck
// (evaluated under the parker's own lock, so it cannot race a concurrent
// wake) reports that there is already work to do.
func (p *parker) wait(timeout time.Duration, recheck func() bool) {
	p.mu.Lock()
	startGen := p.gen
	if recheck() {
		p.mu.Unlock()
		return
	}
	if timeout <= 0 {
		for p.gen == startGen {
			p.cond.Wait()
		}
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	timer := time.AfterFunc(timeout, p.wake)
	defer timer.Stop()

	p.mu.Lock()
	for p.gen == startGen {
		p.cond.Wait()
	}
	p.mu.Unlock()
}

// wake advances the generation and broadcasts, releasing every waiter
// blocked since before this call.
func (p *parker) wake() {
	p.mu.Lock()
	p.gen++
	p.cond.Broadcast()
	p.mu.Unlock()
}

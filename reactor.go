package asyncrt

import (
	"sync"
	"time"
)

// wakeupSource is the self-pipe every platform backend constructs: a
// dedicated fd the Reactor always keeps registered for InterestRead, so
// that another goroutine can break a blocking park() wait through
// Reactor.wakeUp rather than stall it until the next natural readiness
// event or timeout. Implementations
// live in wakeup_linux.go, wakeup_darwin.go, wakeup_windows.go.
type wakeupSource interface {
	readFD() int
	wake()
	drain()
	close() error
}

// Token identifies one registration with the Reactor, spec.md section 4.3's
// handle returned by register and consumed by reregister/deregister.
type Token uint64

// ioSlot is one entry in the Reactor's registration slab: the fd it
// watches, which directions are currently of interest, and the waker
// installed for each direction the last time a future polled Pending on
// it. park fires read and write wakers exactly once each time their
// direction becomes ready (take-on-fire: the slot is cleared immediately
// after firing, so a future must re-register interest on its next Pending
// return, same discipline as a task's own Waker).
type ioSlot struct {
	fd       int
	interest Interest
	readWk   Waker
	writeWk  Waker
	live     bool
}

// Reactor is the single shared OS-readiness facility spec.md section 4.3
// describes, wrapping whichever platformPoller the platform file provides
// behind a token-indexed registration slab. It is driven by one dedicated
// background goroutine per Runtime (see runtime.go) rather than per
// worker, since a single epoll/kqueue instance already multiplexes an
// arbitrary number of fds — running one per worker would only multiply
// syscalls for no added concurrency.
type Reactor struct {
	mu     sync.Mutex
	poller platformPoller
	wake   wakeupSource
	wakeTk Token

	slots   []ioSlot
	freeIdx []int
}

func newReactor() (*Reactor, error) {
	poller, err := newPlatformPoller()
	if err != nil {
		return nil, err
	}
	wk, err := newWakeupSource()
	if err != nil {
		_ = poller.close()
		return nil, err
	}
	r := &Reactor{poller: poller, wake: wk}
	if err := r.poller.add(wk.readFD(), InterestRead); err != nil {
		_ = wk.close()
		_ = poller.close()
		return nil, err
	}
	r.slots = append(r.slots, ioSlot{fd: wk.readFD(), interest: InterestRead, live: true})
	r.wakeTk = Token(0)
	return r, nil
}

// register adds fd to the reactor with no interest yet installed; the
// first Pending poll against a read or write future calls reregister to
// arm the direction it actually needs.
func (r *Reactor) register(fd int) (Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.allocSlot()
	r.slots[idx] = ioSlot{fd: fd, live: true}
	if err := r.poller.add(fd, 0); err != nil {
		r.slots[idx].live = false
		r.freeIdx = append(r.freeIdx, idx)
		return 0, err
	}
	return Token(idx), nil
}

func (r *Reactor) allocSlot() int {
	if n := len(r.freeIdx); n > 0 {
		idx := r.freeIdx[n-1]
		r.freeIdx = r.freeIdx[:n-1]
		return idx
	}
	r.slots = append(r.slots, ioSlot{})
	return len(r.slots) - 1
}

// reregisterRead installs w as the waker to fire the next time tok's fd
// becomes readable, arming InterestRead with the poller if it wasn't
// already armed.
func (r *Reactor) reregisterRead(tok Token, w Waker) error {
	return r.reregister(tok, InterestRead, w, true)
}

// reregisterWrite is reregisterRead's write-direction counterpart.
func (r *Reactor) reregisterWrite(tok Token, w Waker) error {
	return r.reregister(tok, InterestWrite, w, false)
}

func (r *Reactor) reregister(tok Token, dir Interest, w Waker, isRead bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := int(tok)
	if idx < 0 || idx >= len(r.slots) || !r.slots[idx].live {
		return errBadToken
	}
	slot := &r.slots[idx]
	if isRead {
		slot.readWk = w
	} else {
		slot.writeWk = w
	}
	newInterest := slot.interest | dir
	if newInterest == slot.interest {
		return nil
	}
	slot.interest = newInterest
	return r.poller.modify(slot.fd, slot.interest)
}

// deregister removes tok's fd from the poller and frees the slot for
// reuse. Any waker still installed is dropped without firing — callers
// that hold the token are assumed to no longer care about it.
func (r *Reactor) deregister(tok Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := int(tok)
	if idx < 0 || idx >= len(r.slots) || !r.slots[idx].live {
		return errBadToken
	}
	fd := r.slots[idx].fd
	r.slots[idx] = ioSlot{}
	r.freeIdx = append(r.freeIdx, idx)
	return r.poller.remove(fd)
}

// park blocks for at most timeout waiting for readiness on any registered
// fd, firing (and clearing, per the take-on-fire discipline) every waker
// whose direction became ready. The self-pipe's own readiness is drained
// and otherwise ignored — its only job is unblocking this call promptly
// from another goroutine.
func (r *Reactor) park(timeout time.Duration) error {
	events, err := r.poller.wait(timeout)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	var fired []Waker
	r.mu.Lock()
	for _, ev := range events {
		if ev.fd == r.wake.readFD() {
			r.wake.drain()
			continue
		}
		for i := range r.slots {
			slot := &r.slots[i]
			if !slot.live || slot.fd != ev.fd {
				continue
			}
			if ev.ready&InterestRead != 0 && slot.readWk != nil {
				fired = append(fired, slot.readWk)
				slot.readWk = nil
				slot.interest &^= InterestRead
			}
			if ev.ready&InterestWrite != 0 && slot.writeWk != nil {
				fired = append(fired, slot.writeWk)
				slot.writeWk = nil
				slot.interest &^= InterestWrite
			}
			_ = r.poller.modify(slot.fd, slot.interest)
		}
	}
	r.mu.Unlock()

	for _, w := range fired {
		w.Wake()
	}
	return nil
}

// wakeUp breaks a concurrent or future park() call out of its wait. It is
// called through Runtime.wakeIoDriver whenever a sleep arms a timer-wheel
// entry, so the io driver recomputes its park timeout.
func (r *Reactor) wakeUp() { r.wake.wake() }

func (r *Reactor) close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err1 := r.wake.close()
	err2 := r.poller.close()
	if err1 != nil {
		return err1
	}
	return err2
}

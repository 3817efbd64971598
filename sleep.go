package asyncrt

import "time"

// sleepFuture is the Future Sleep and Deadline both construct: unarmed
// until its first poll (so a task that's cancelled before ever running
// never touches the timer wheel at all), then a single timer-wheel entry
// keyed on the polling task's own waker.
type sleepFuture struct {
	rt       *Runtime
	deadline time.Time
	armed    bool
	handle   TimerHandle
}

// Sleep returns a future that resolves once d has elapsed. Equivalent to
// spec.md section 4.4's sleep(duration) constructor.
func Sleep(rt *Runtime, d time.Duration) Future[struct{}] {
	return &sleepFuture{rt: rt, deadline: time.Now().Add(d)}
}

// Deadline returns a future that resolves at the given absolute time, or
// immediately if that time has already passed.
func Deadline(rt *Runtime, at time.Time) Future[struct{}] {
	return &sleepFuture{rt: rt, deadline: at}
}

func (s *sleepFuture) Poll(cx *Context) (struct{}, Status) {
	now := time.Now()
	if !now.Before(s.deadline) {
		return struct{}{}, Ready
	}
	if !s.armed {
		h, err := s.rt.timer.insert(s.deadline, cx.Waker())
		if err != nil {
			panic(err)
		}
		s.handle = h
		s.armed = true
		s.rt.wakeIoDriver()
	}
	return struct{}{}, Pending
}

// cancelFuture releases this sleep's timer-wheel entry when its task is
// cancelled before the deadline arrives, so an aborted long sleep doesn't
// sit in the wheel until it would otherwise have fired.
func (s *sleepFuture) cancelFuture() {
	if s.armed {
		s.rt.timer.cancel(s.handle)
		s.armed = false
	}
}

//go:build darwin

package asyncrt

import (
	"time"

	"golang.org/x/sys/unix"
)

// kqueuePoller adapts kqueue to platformPoller. Grounded on the teacher's
// FastPoller (eventloop/poller_darwin.go): EVFILT_READ/EVFILT_WRITE
// kevents with EV_ADD/EV_DELETE, simplified from its dynamic
// fd-indexed-callback array to the Reactor's own token slab.
type kqueuePoller struct {
	kq       int
	eventBuf [256]unix.Kevent_t
}

func newPlatformPoller() (platformPoller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(kq)
	return &kqueuePoller{kq: kq}, nil
}

func kevents(fd int, interest Interest, flags uint16) []unix.Kevent_t {
	var out []unix.Kevent_t
	if interest&InterestRead != 0 {
		out = append(out, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: flags})
	}
	if interest&InterestWrite != 0 {
		out = append(out, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: flags})
	}
	return out
}

func (p *kqueuePoller) add(fd int, interest Interest) error {
	ev := kevents(fd, interest, unix.EV_ADD|unix.EV_ENABLE)
	if len(ev) == 0 {
		return nil
	}
	_, err := unix.Kevent(p.kq, ev, nil, nil)
	return err
}

func (p *kqueuePoller) modify(fd int, interest Interest) error {
	// kqueue has no direct "replace interest" call; drop both filters and
	// re-add the ones that are actually wanted.
	_, _ = unix.Kevent(p.kq, kevents(fd, InterestRead|InterestWrite, unix.EV_DELETE), nil, nil)
	return p.add(fd, interest)
}

func (p *kqueuePoller) remove(fd int) error {
	_, err := unix.Kevent(p.kq, kevents(fd, InterestRead|InterestWrite, unix.EV_DELETE), nil, nil)
	return err
}

func (p *kqueuePoller) wait(timeout time.Duration) ([]ioReadyEvent, error) {
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}
	n, err := unix.Kevent(p.kq, nil, p.eventBuf[:], ts)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}

	byFD := make(map[int]Interest, n)
	for i := 0; i < n; i++ {
		ev := p.eventBuf[i]
		fd := int(ev.Ident)
		switch ev.Filter {
		case unix.EVFILT_READ:
			byFD[fd] |= InterestRead
		case unix.EVFILT_WRITE:
			byFD[fd] |= InterestWrite
		}
	}
	out := make([]ioReadyEvent, 0, len(byFD))
	for fd, ready := range byFD {
		out = append(out, ioReadyEvent{fd: fd, ready: ready})
	}
	return out, nil
}

func (p *kqueuePoller) close() error {
	return unix.Close(p.kq)
}

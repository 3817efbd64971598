//go:build windows

package asyncrt

import (
	"sync"
	"time"

	"golang.org/x/sys/windows"
)

// wsaPollPoller adapts Windows' WSAPoll to platformPoller. The teacher's
// own Windows backend (eventloop/poller_windows.go) drives a true IOCP —
// a completion-based facility, not a readiness one. IOCP has no notion of
// "tell me when fd X is readable" for an arbitrary, possibly-foreign
// socket; it reports completions of operations it issued itself. A
// registration-slab reactor needs readiness, so this backend uses WSAPoll
// instead, the direct Windows analogue of poll(2) — see DESIGN.md.
type wsaPollPoller struct {
	mu    sync.Mutex
	fds   map[int]Interest
	order []int
}

func newPlatformPoller() (platformPoller, error) {
	return &wsaPollPoller{fds: make(map[int]Interest)}, nil
}

func (p *wsaPollPoller) add(fd int, interest Interest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.fds[fd]; !ok {
		p.order = append(p.order, fd)
	}
	p.fds[fd] = interest
	return nil
}

func (p *wsaPollPoller) modify(fd int, interest Interest) error {
	return p.add(fd, interest)
}

func (p *wsaPollPoller) remove(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.fds, fd)
	for i, f := range p.order {
		if f == fd {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return nil
}

func interestToPollEvents(i Interest) int16 {
	var ev int16
	if i&InterestRead != 0 {
		ev |= windows.POLLRDNORM
	}
	if i&InterestWrite != 0 {
		ev |= windows.POLLWRNORM
	}
	return ev
}

func (p *wsaPollPoller) wait(timeout time.Duration) ([]ioReadyEvent, error) {
	p.mu.Lock()
	fds := make([]windows.WSAPollFd, len(p.order))
	for i, fd := range p.order {
		fds[i] = windows.WSAPollFd{Fd: windows.Handle(fd), Events: interestToPollEvents(p.fds[fd])}
	}
	p.mu.Unlock()

	if len(fds) == 0 {
		// WSAPoll with zero fds does not block; sleep out the timeout
		// ourselves so an empty reactor still behaves like a real park.
		if timeout > 0 {
			time.Sleep(timeout)
		}
		return nil, nil
	}

	timeoutMs := int32(-1)
	if timeout >= 0 {
		timeoutMs = int32(timeout.Milliseconds())
	}
	n, err := windows.WSAPoll(fds, timeoutMs)
	if err != nil || n <= 0 {
		return nil, err
	}

	out := make([]ioReadyEvent, 0, n)
	for _, f := range fds {
		var ready Interest
		if f.REvents&(windows.POLLRDNORM|windows.POLLHUP|windows.POLLERR) != 0 {
			ready |= InterestRead
		}
		if f.REvents&windows.POLLWRNORM != 0 {
			ready |= InterestWrite
		}
		if ready != 0 {
			out = append(out, ioReadyEvent{fd: int(f.Fd), ready: ready})
		}
	}
	return out, nil
}

func (p *wsaPollPoller) close() error {
	return nil
}

//go:build linux

package asyncrt

import (
	"time"

	"golang.org/x/sys/unix"
)

// epollPoller adapts epoll to platformPoller. Grounded directly on the
// teacher's FastPoller (eventloop/poller_linux.go): same epoll_create1 /
// epoll_ctl / epoll_wait calls, simplified from the teacher's direct
// fixed-size-array-indexed callback dispatch (which suits its
// single-loop, single-consumer design) to the token-slab-owned waker
// model the Reactor needs for a multi-worker runtime.
type epollPoller struct {
	epfd     int
	eventBuf [256]unix.EpollEvent
}

func newPlatformPoller() (platformPoller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollPoller{epfd: epfd}, nil
}

func interestToEpoll(i Interest) uint32 {
	var ev uint32
	if i&InterestRead != 0 {
		ev |= unix.EPOLLIN
	}
	if i&InterestWrite != 0 {
		ev |= unix.EPOLLOUT
	}
	return ev
}

func epollToInterest(ev uint32) Interest {
	var i Interest
	if ev&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
		i |= InterestRead
	}
	if ev&(unix.EPOLLOUT|unix.EPOLLERR) != 0 {
		i |= InterestWrite
	}
	return i
}

func (p *epollPoller) add(fd int, interest Interest) error {
	ev := &unix.EpollEvent{Events: interestToEpoll(interest), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, ev)
}

func (p *epollPoller) modify(fd int, interest Interest) error {
	ev := &unix.EpollEvent{Events: interestToEpoll(interest), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, ev)
}

func (p *epollPoller) remove(fd int) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) wait(timeout time.Duration) ([]ioReadyEvent, error) {
	timeoutMs := -1
	if timeout >= 0 {
		timeoutMs = int(timeout.Milliseconds())
	}
	n, err := unix.EpollWait(p.epfd, p.eventBuf[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	out := make([]ioReadyEvent, n)
	for i := 0; i < n; i++ {
		out[i] = ioReadyEvent{
			fd:    int(p.eventBuf[i].Fd),
			ready: epollToInterest(p.eventBuf[i].Events),
		}
	}
	return out, nil
}

func (p *epollPoller) close() error {
	return unix.Close(p.epfd)
}

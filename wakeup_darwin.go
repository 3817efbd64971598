//go:build darwin

package asyncrt

import "golang.org/x/sys/unix"

// pipeWakeup is the self-pipe spec.md section 4.3 requires on a platform
// without eventfd: a connected pipe(2) pair, read end registered with the
// reactor at construction, write end used by any thread to break the
// poller out of a blocking kevent wait. Grounded on the teacher's
// createWakeFd for darwin (eventloop/wakeup_darwin.go).
type pipeWakeup struct {
	r, w int
}

func newWakeupSource() (wakeupSource, error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return nil, err
	}
	unix.CloseOnExec(fds[0])
	unix.CloseOnExec(fds[1])
	_ = unix.SetNonblock(fds[0], true)
	_ = unix.SetNonblock(fds[1], true)
	return &pipeWakeup{r: fds[0], w: fds[1]}, nil
}

func (p *pipeWakeup) readFD() int { return p.r }

func (p *pipeWakeup) wake() {
	_, _ = unix.Write(p.w, []byte{1})
}

func (p *pipeWakeup) drain() {
	var buf [64]byte
	for {
		if _, err := unix.Read(p.r, buf[:]); err != nil {
			return
		}
	}
}

func (p *pipeWakeup) close() error {
	_ = unix.Close(p.w)
	return unix.Close(p.r)
}

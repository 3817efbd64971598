//go:build linux

package asyncrt

import "golang.org/x/sys/unix"

// eventfdWakeup is the self-pipe spec.md section 4.3 requires: a single
// fd, always registered with the reactor at construction, that any thread
// can write to in order to break the poller out of a blocking wait.
// Grounded on the teacher's createWakeFd (eventloop/wakeup_linux.go).
type eventfdWakeup struct {
	fd int
}

func newWakeupSource() (wakeupSource, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	return &eventfdWakeup{fd: fd}, nil
}

func (w *eventfdWakeup) readFD() int { return w.fd }

func (w *eventfdWakeup) wake() {
	var buf [8]byte
	buf[7] = 1
	_, _ = unix.Write(w.fd, buf[:])
}

func (w *eventfdWakeup) drain() {
	var buf [8]byte
	for {
		if _, err := unix.Read(w.fd, buf[:]); err != nil {
			return
		}
	}
}

func (w *eventfdWakeup) close() error {
	return unix.Close(w.fd)
}

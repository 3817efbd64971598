//go:build !windows

package asyncrt

import "golang.org/x/sys/unix"

// AsyncFd pairs a raw file descriptor with a reactor registration, giving
// callers Future-based readiness notifications instead of a blocking
// read/write call — the I/O object spec.md section 4.3 describes as
// owning its registration token and responsible for deregistering it.
// Deregistering and closing are separate steps: Deregister removes the
// reactor registration but does not close fd, and Close closes fd but does
// not deregister it.
type AsyncFd struct {
	rt    *Runtime
	fd    int
	token Token
}

// NewAsyncFd registers fd with rt's reactor for on-demand read/write
// readiness notification.
func NewAsyncFd(rt *Runtime, fd int) (*AsyncFd, error) {
	if rt.reactor == nil {
		return nil, errReactorClosed
	}
	tok, err := rt.reactor.register(fd)
	if err != nil {
		return nil, &IoRegistrationFailedError{FD: fd, Cause: err}
	}
	return &AsyncFd{rt: rt, fd: fd, token: tok}, nil
}

// FD returns the underlying file descriptor.
func (a *AsyncFd) FD() int { return a.fd }

// Readable returns a future that resolves once fd has become readable.
// Every future from Readable and Writable shares this AsyncFd's single
// reactor registration, which holds one waker per direction: awaiting both
// directions concurrently is fine, but a second pending Readable replaces
// the first one's waker.
func (a *AsyncFd) Readable() Future[struct{}] { return &fdReadyFuture{fd: a, write: false} }

// Writable is Readable's write-direction counterpart.
func (a *AsyncFd) Writable() Future[struct{}] { return &fdReadyFuture{fd: a, write: true} }

// Deregister removes fd's registration from the reactor. It does not
// close fd.
func (a *AsyncFd) Deregister() error { return a.rt.reactor.deregister(a.token) }

// Read is a thin non-blocking read shim; callers are expected to have
// already observed readiness via Readable().
func (a *AsyncFd) Read(buf []byte) (int, error) { return unix.Read(a.fd, buf) }

// Write is Read's write-direction counterpart.
func (a *AsyncFd) Write(buf []byte) (int, error) { return unix.Write(a.fd, buf) }

// Close closes the underlying fd directly, bypassing deregistration —
// callers that still hold a live registration should call Deregister
// first.
func (a *AsyncFd) Close() error { return unix.Close(a.fd) }

// fdReadyFuture is the Future Readable/Writable construct: unarmed on its
// first poll (installs a waker with the reactor and returns Pending), then
// Ready on the next poll once the reactor's take-on-fire discipline has
// fired that waker.
type fdReadyFuture struct {
	fd    *AsyncFd
	write bool
	armed bool
}

func (f *fdReadyFuture) Poll(cx *Context) (struct{}, Status) {
	if f.armed {
		f.armed = false
		return struct{}{}, Ready
	}
	var err error
	if f.write {
		err = f.fd.rt.reactor.reregisterWrite(f.fd.token, cx.Waker())
	} else {
		err = f.fd.rt.reactor.reregisterRead(f.fd.token, cx.Waker())
	}
	if err != nil {
		panic(err)
	}
	f.armed = true
	return struct{}{}, Pending
}

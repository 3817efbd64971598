//go:build windows

package asyncrt

import (
	"net"
	"time"

	"golang.org/x/sys/windows"
)

// loopbackWakeup is the self-pipe equivalent on Windows, where WSAPoll
// (poller_windows.go) only accepts sockets, not anonymous pipes: a
// connected loopback TCP pair, one end registered with the reactor at
// construction, the other written to by any thread to break WSAPoll out
// of a blocking wait. The teacher's Windows backend (eventloop/
// poller_windows.go) uses the same loopback-socket trick for its IOCP
// wake-up path.
type loopbackWakeup struct {
	ln       net.Listener
	readConn *net.TCPConn
	wConn    net.Conn
}

func newWakeupSource() (wakeupSource, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	wConn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		_ = ln.Close()
		return nil, err
	}
	conn, err := ln.Accept()
	if err != nil {
		_ = ln.Close()
		_ = wConn.Close()
		return nil, err
	}
	return &loopbackWakeup{ln: ln, readConn: conn.(*net.TCPConn), wConn: wConn}, nil
}

func (w *loopbackWakeup) readFD() int {
	raw, err := w.readConn.SyscallConn()
	if err != nil {
		return -1
	}
	var h windows.Handle
	_ = raw.Control(func(fd uintptr) { h = windows.Handle(fd) })
	return int(h)
}

func (w *loopbackWakeup) wake() {
	_, _ = w.wConn.Write([]byte{1})
}

func (w *loopbackWakeup) drain() {
	buf := make([]byte, 64)
	_ = w.readConn.SetReadDeadline(time.Now())
	for {
		n, err := w.readConn.Read(buf)
		if n == 0 || err != nil {
			break
		}
	}
	_ = w.readConn.SetReadDeadline(time.Time{})
}

func (w *loopbackWakeup) close() error {
	_ = w.readConn.Close()
	_ = w.wConn.Close()
	return w.ln.Close()
}

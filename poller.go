package datetimed

import (
	"errors"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// Poller waits for any of a fixed set of UDP sockets to become readable.
type Poller struct {
	fds []unix.PollFd
}

// NewPoller builds a Poller over conns. The conns must stay open for as long
// as the Poller is used, the descriptors are borrowed from them.
func NewPoller(conns []*net.UDPConn) (*Poller, error) {
	p := &Poller{fds: make([]unix.PollFd, 0, len(conns))}

	for _, conn := range conns {
		rc, err := conn.SyscallConn()
		if err != nil {
			return nil, err
		}

		var fd int
		if err := rc.Control(func(f uintptr) { fd = int(f) }); err != nil {
			return nil, err
		}

		p.fds = append(p.fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
	}

	return p, nil
}

// Wait blocks until at least one socket is readable or timeout passes.
// It returns the indexes of the ready sockets, in the order they were given
// to NewPoller. An empty result means the timeout passed.
func (p *Poller) Wait(timeout time.Duration) ([]int, error) {
	for i := range p.fds {
		p.fds[i].Revents = 0
	}

	n, err := unix.Poll(p.fds, int(timeout.Milliseconds()))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return nil, nil
		}
		return nil, err
	}

	ready := make([]int, 0, n)
	for i, fd := range p.fds {
		if fd.Revents&unix.POLLNVAL != 0 {
			return nil, net.ErrClosed
		}
		// Errors are reported as ready so the read surfaces them.
		if fd.Revents&(unix.POLLIN|unix.POLLERR) != 0 {
			ready = append(ready, i)
		}
	}

	return ready, nil
}

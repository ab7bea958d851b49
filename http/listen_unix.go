//go:build unix

package http

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// Listen opens an IPv4 TCP listener on addr with SO_REUSEADDR and a fixed
// accept backlog. Pending connections beyond the backlog are left to the
// kernel.
func Listen(addr string, backlog int) (net.Listener, error) {
	if backlog <= 0 {
		backlog = DefaultBacklog
	}

	tcpAddr, err := net.ResolveTCPAddr("tcp4", addr)
	if err != nil {
		return nil, err
	}

	sa := &unix.SockaddrInet4{Port: tcpAddr.Port}
	if ip := tcpAddr.IP.To4(); ip != nil {
		copy(sa.Addr[:], ip)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("http: socket: %w", err)
	}
	unix.CloseOnExec(fd)

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("http: setsockopt: %w", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("http: bind %s: %w", addr, err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("http: listen %s: %w", addr, err)
	}

	// FileListener dups the descriptor, so the file is closed either way.
	file := os.NewFile(uintptr(fd), "tcp4:"+addr)
	defer file.Close()

	return net.FileListener(file)
}

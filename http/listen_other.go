//go:build !unix

package http

import "net"

// Listen opens a TCP listener on addr. The backlog is left to the platform.
func Listen(addr string, backlog int) (net.Listener, error) {
	return net.Listen("tcp4", addr)
}

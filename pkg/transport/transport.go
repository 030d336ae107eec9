// Package transport supplies the external RPC collaborator spec.md §6.1
// scopes out of the core: the open/close/read/write/select/cancel
// callbacks a character-device front end would drive pkg/socket through.
// It has no grant or copy_to/copy_from primitives: callers pass plain
// byte slices in place of memory grants. Production IPC transports are out of scope (spec.md §1); this
// package's MemTransport is an in-memory double standing in for one, in
// the same spirit as the teacher's pkg/can.Bus interface standing in for
// a real CAN adapter.
package transport

import "github.com/josephrewald/uxsockd/pkg/socket"

// IOResult is delivered to a blocked caller once a suspended read or
// write call resolves.
type IOResult struct {
	N   int
	Err error
}

// AcceptResult is delivered to a blocked caller once a suspended accept
// call resolves, carrying the freshly accepted handle in place of
// IOResult's byte count.
type AcceptResult struct {
	Handle socket.Handle
	Err    error
}

// Transport is the minimal RPC surface a front end drives the socket
// core through. Every call may block (if nonblock is false and the
// core's immediate attempt would block) or return immediately.
type Transport interface {
	Open(owner int) (socket.Handle, error)
	Close(h socket.Handle) error
	Read(h socket.Handle, buf []byte, nonblock bool) (int, error)
	Write(h socket.Handle, buf []byte, nonblock bool) (int, error)
	Select(h socket.Handle, ops socket.OpMask, nonblock bool) (socket.OpMask, error)
	Cancel(h socket.Handle, requestID string) error
}

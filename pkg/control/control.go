// Package control drives the socket core (pkg/socket) through the
// external lifecycle operations spec.md §6.2 calls out as collaborators
// rather than core responsibilities: bind, connect, listen, accept,
// shutdown, and socket options. It never mutates a Slot directly; its one
// direct read (the listener's type in Accept) is taken under the table
// lock. Every mutation goes through pkg/socket's control-plane seam, following
// the original driver's uds_bind/uds_connect/uds_listen/uds_accept
// control routines.
package control

import (
	"log/slog"

	"github.com/josephrewald/uxsockd/pkg/socket"
)

// Control wires a socket.Table to the transport-facing lifecycle calls.
// It holds no socket state of its own; every field it touches lives in
// the Table.
type Control struct {
	table  *socket.Table
	logger *slog.Logger
}

// Option configures a Control at construction time.
type Option func(*Control)

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Control) { c.logger = logger }
}

// New builds a Control driving table.
func New(table *socket.Table, opts ...Option) *Control {
	c := &Control{table: table, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Socket assigns a freshly opened handle's type, mirroring the POSIX
// socket(2) call that fixes type for the handle's lifetime.
func (c *Control) Socket(h socket.Handle, typ socket.SockType) error {
	return c.table.SetType(h, typ)
}

// Bind assigns h's local address.
func (c *Control) Bind(h socket.Handle, path string) error {
	if err := c.table.Bind(h, path); err != nil {
		return err
	}
	c.logger.Debug("socket bound", "handle", h, "path", path)
	return nil
}

// Listen marks a bound stream/seqpacket socket as a listener.
func (c *Control) Listen(h socket.Handle, backlog int) error {
	if err := c.table.Listen(h, backlog); err != nil {
		return err
	}
	c.logger.Debug("socket listening", "handle", h, "backlog", backlog)
	return nil
}

// Connect attempts to queue h onto the backlog of the listener bound to
// path. If the backlog is full, a non-blocking call returns
// ErrInProgress; a blocking call is recorded as suspended and returns
// ErrSuspended, and the caller waits for ReplyControl.
func (c *Control) Connect(h socket.Handle, path string, req socket.Requester, nonblock bool) error {
	queued, err := c.table.Connect(h, path)
	if err != nil {
		return err
	}
	if queued {
		return nil
	}
	if nonblock {
		return socket.ErrInProgress
	}
	return c.table.SetSuspendConnect(h, req)
}

// Accept pops the first occupied backlog entry (lowest index) off listener,
// opens a new socket for it, and links the two as peers. If the backlog
// is empty, the accept is recorded as suspended.
func (c *Control) Accept(listener socket.Handle, owner int, req socket.Requester, nonblock bool) (socket.Handle, error) {
	child, ok, err := c.table.Accept(listener)
	if err != nil {
		return 0, err
	}
	if !ok {
		if nonblock {
			return 0, socket.ErrWouldBlock
		}
		return 0, c.table.SetSuspendAccept(listener, owner, req)
	}
	accepted, err := c.table.Open(owner)
	if err != nil {
		c.table.ClearChild(listener)
		return 0, err
	}
	c.table.Lock()
	listenerType := c.table.Slot(listener).Type
	c.table.Unlock()
	if err := c.table.SetType(accepted, listenerType); err != nil {
		c.table.ClearChild(listener)
		return 0, err
	}
	if err := c.table.LinkPeer(accepted, child); err != nil {
		c.table.ClearChild(listener)
		return 0, err
	}
	c.table.ClearChild(listener)
	c.logger.Debug("connection accepted", "listener", listener, "accepted", accepted, "child", child)
	return accepted, nil
}

// Shutdown clears the read and/or write halves of h.
func (c *Control) Shutdown(h socket.Handle, readHalf, writeHalf bool) error {
	var how socket.Mode
	if readHalf {
		how |= socket.ModeRead
	}
	if writeHalf {
		how |= socket.ModeWrite
	}
	return c.table.Shutdown(h, how)
}

// SetPeerCredentials queues credentials as h's pending ancillary payload
// (SCM_CREDENTIALS-style), delivered with h's next receive.
func (c *Control) SetPeerCredentials(h socket.Handle, creds socket.Credentials) error {
	return c.table.SetAncillary(h, &socket.Ancillary{Creds: &creds})
}

// SetSendTarget records a datagram socket's default destination address.
func (c *Control) SetSendTarget(h socket.Handle, path string) error {
	return c.table.SetTarget(h, path)
}

// PeerSource returns the address h last received a datagram from.
func (c *Control) PeerSource(h socket.Handle) (socket.Addr, error) {
	return c.table.Source(h)
}

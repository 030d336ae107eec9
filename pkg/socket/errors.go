package socket

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// ErrSuspended is returned by Table.Read/Write/Connect-style wrappers
// when a call couldn't complete immediately and has been recorded as the
// socket's pending operation. The caller must wait for the matching
// Replier callback rather than treat this as a real error. It carries
// no Errno/unix.Errno mapping of its own.
var ErrSuspended = errors.New("uxsockd: operation suspended, awaiting callback")

// Errno is a domain-level error code for the socket core, modeled on the
// teacher's ODR/SDOAbortCode pattern: a small typed enum that implements
// error and maps onto a concrete host errno for callers that need one.
type Errno int8

const (
	ErrOK Errno = iota
	ErrBadHandle
	ErrNotOpen
	ErrNoSlots
	ErrNoMemory
	ErrPipeBroken
	ErrNotConnected
	ErrConnReset
	ErrMessageTooLarge
	ErrNoSuchFile
	ErrWouldBlock
	ErrInProgress
	ErrInterrupted
	ErrTransientCopyFailure
	ErrNameTooLong
)

var description = map[Errno]string{
	ErrOK:                   "success",
	ErrBadHandle:            "handle out of range",
	ErrNotOpen:              "socket not open",
	ErrNoSlots:              "no free socket slots",
	ErrNoMemory:             "could not allocate socket buffer",
	ErrPipeBroken:           "broken pipe",
	ErrNotConnected:         "socket is not connected",
	ErrConnReset:            "connection reset by peer",
	ErrMessageTooLarge:      "message too large for buffer",
	ErrNoSuchFile:           "no receiver bound to target address",
	ErrWouldBlock:           "operation would block",
	ErrInProgress:           "connect already in progress",
	ErrInterrupted:          "operation interrupted",
	ErrTransientCopyFailure: "transient memory copy failure",
	ErrNameTooLong:          "path name too long",
}

// errno is a stand-in for the host platform's numeric codes, per spec's
// error taxonomy mapping: domain names translate to concrete unix.Errno
// values so a transport layer can hand a real errno back to its caller.
var errno = map[Errno]unix.Errno{
	ErrBadHandle:            unix.EBADF,
	ErrNotOpen:              unix.EINVAL,
	ErrNoSlots:              unix.ENFILE,
	ErrNoMemory:             unix.ENOMEM,
	ErrPipeBroken:           unix.EPIPE,
	ErrNotConnected:         unix.ENOTCONN,
	ErrConnReset:            unix.ECONNRESET,
	ErrMessageTooLarge:      unix.EMSGSIZE,
	ErrNoSuchFile:           unix.ENOENT,
	ErrWouldBlock:           unix.EAGAIN,
	ErrInProgress:           unix.EINPROGRESS,
	ErrInterrupted:          unix.EINTR,
	ErrTransientCopyFailure: unix.EFAULT,
	ErrNameTooLong:          unix.ENAMETOOLONG,
}

func (e Errno) Error() string {
	d, ok := description[e]
	if !ok {
		return fmt.Sprintf("socket error %d (unknown)", int8(e))
	}
	return fmt.Sprintf("socket error %d (%s)", int8(e), d)
}

// Sys returns the host unix.Errno this domain error maps to, for
// transports that must return a concrete errno to their caller.
func (e Errno) Sys() unix.Errno {
	return errno[e]
}

// IsWouldBlockMarker reports whether err is the internal would-block
// signal used by perform_read/perform_write before the caller decides
// whether to suspend or translate it into WouldBlock/InProgress.
func IsWouldBlockMarker(err error) bool {
	e, ok := err.(Errno)
	return ok && e == ErrWouldBlock
}

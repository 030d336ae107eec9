package socket

import "github.com/josephrewald/uxsockd/internal/ring"

// Handle is a small integer index into the socket table. Handle 0 is
// reserved for the root device; live sockets occupy [1, N).
type Handle int

// Requester identifies the endpoint and memory grant behind a pending or
// completed operation, standing in for the transport's (endpoint, grant)
// pair (spec §6.1). RequestID disambiguates concurrent requests from the
// same endpoint for cancel.
type Requester struct {
	Endpoint  int
	Grant     int
	RequestID string
}

// SockType is the POSIX-ish socket type assigned by the control plane on
// first use.
type SockType uint8

const (
	TypeUnset SockType = iota
	TypeStream
	TypeSeqPacket
	TypeDgram
)

func (t SockType) String() string {
	switch t {
	case TypeStream:
		return "stream"
	case TypeSeqPacket:
		return "seqpacket"
	case TypeDgram:
		return "dgram"
	default:
		return "unset"
	}
}

// Mode bits gate whether a socket's read/write halves are still open.
type Mode uint8

const (
	ModeRead Mode = 1 << iota
	ModeWrite
)

// State is the slot's coarse lifecycle state.
type State uint8

const (
	StateFree State = iota
	StateInUse
)

// SuspendKind names the one blocking operation a slot may have pending.
// Modeled as a sum type (spec §9): Suspended carries both the kind and
// its single payload, making "two kinds at once" or "payload without a
// kind" unrepresentable.
type SuspendKind uint8

const (
	SuspendNone SuspendKind = iota
	SuspendRead
	SuspendWrite
	SuspendConnect
	SuspendAccept
)

// Suspended records a deferred request: at most one per slot. Buf is the
// in-memory stand-in for the transport's memory grant (the destination
// for a suspended read, the source for a suspended write). A real
// grant-based transport would instead re-resolve (endpoint, grant) on
// each retry via copy_to/copy_from. Owner carries the accepting
// process's identity for a suspended ACCEPT, since completing it later
// opens a brand-new slot that needs one.
type Suspended struct {
	Kind      SuspendKind
	Requester Requester
	Size      int // requested byte count, for READ/WRITE
	Buf       []byte
	Owner     int // owner for the new accepted socket, for ACCEPT
}

// Addr is a path-style UNIX domain address.
type Addr struct {
	Bound bool
	Path  string
}

// Ancillary is the pending out-of-band payload (passed descriptors and
// credentials) queued to accompany the next receive.
type Ancillary struct {
	FDs   []int
	Creds *Credentials
}

func (a *Ancillary) Empty() bool {
	return a == nil || (len(a.FDs) == 0 && a.Creds == nil)
}

// Credentials are the peer credentials optionally attached to a datagram
// or connection, mirroring SO_PEERCRED-style ancillary data.
type Credentials struct {
	PID int
	UID int
	GID int
}

const backlogEmpty Handle = -1
const noPeer Handle = -1

// Slot is one entry of the socket table (spec §3). Exactly one live
// object per handle; FREE slots carry no meaningful fields beyond State.
type Slot struct {
	State State
	Owner int // identity of the owning process/endpoint

	Type SockType
	Mode Mode

	Buf *ring.Buffer

	Addr   Addr // local bind name
	Target Addr // datagram send destination
	Source Addr // last-received datagram origin

	Peer Handle // -1 if none

	Listening   bool
	Backlog     []Handle
	BacklogSize int

	Child Handle // connecting socket mid-accept, -1 otherwise

	Ancillary *Ancillary

	Err Errno // sticky error, consumed by next I/O

	Suspended Suspended

	SelEndpoint int
	SelOps      OpMask
}

// OpMask is a bitmask over {RD, WR, ERR} plus a NOTIFY bit (spec §4.5).
// Select takes the notify request as a separate argument and does not
// read OpNotify.
type OpMask uint8

const (
	OpRead OpMask = 1 << iota
	OpWrite
	OpErr
	OpNotify
)

func newFreeSlot(backlogSize int) Slot {
	backlog := make([]Handle, backlogSize)
	for i := range backlog {
		backlog[i] = backlogEmpty
	}
	return Slot{
		State:       StateFree,
		Peer:        noPeer,
		Child:       backlogEmpty,
		Backlog:     backlog,
		BacklogSize: backlogSize,
	}
}

// reset restores a slot to its freshly-opened defaults (spec §4.1),
// installing buf as its ring buffer and reusing the backlog slice when
// its capacity is large enough.
func (s *Slot) reset(owner int, buf *ring.Buffer, backlogSize int) {
	buf.Reset()
	s.State = StateInUse
	s.Owner = owner
	s.Type = TypeUnset
	s.Mode = ModeRead | ModeWrite
	s.Buf = buf
	s.Addr = Addr{}
	s.Target = Addr{}
	s.Source = Addr{}
	s.Peer = noPeer
	s.Listening = false
	if cap(s.Backlog) < backlogSize {
		s.Backlog = make([]Handle, backlogSize)
	} else {
		s.Backlog = s.Backlog[:backlogSize]
	}
	for i := range s.Backlog {
		s.Backlog[i] = backlogEmpty
	}
	s.BacklogSize = backlogSize
	s.Child = backlogEmpty
	s.Ancillary = nil
	s.Err = ErrOK
	s.Suspended = Suspended{}
	s.SelEndpoint = 0
	s.SelOps = 0
}

// free zeroes a slot back to FREE, per spec §4.2's "memory zeroed".
func (s *Slot) free() {
	*s = Slot{State: StateFree, Peer: noPeer, Child: backlogEmpty}
}

func (s *Slot) connected() bool {
	return s.Peer != noPeer
}

// Package socket implements the core of the UNIX-domain-socket driver: a
// fixed-size socket table, ring-buffered peer-to-peer data path, and the
// suspend/wake/cancel/select coordination that lets one blocking
// operation per socket survive across separate transport calls.
//
// The package is deliberately transport-agnostic: it never touches a
// wire or a real character device. Callers drive it through Open/Close/
// Read/Write/Select/Cancel and supply a Replier so the core can deliver
// deferred replies once a suspended operation completes.
package socket

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/josephrewald/uxsockd/internal/ring"
	"github.com/josephrewald/uxsockd/pkg/config"
)

// Replier lets the core deliver a reply to a request that was deferred
// because it returned WOULD_BLOCK_MARKER (spec §5). A transport (or a
// test double) implements this to unblock the original caller once
// unsuspendLocked resolves the pending operation.
type Replier interface {
	ReplyIO(r Requester, n int, err error)
	ReplyControl(r Requester, err error)
	ReplyAccept(r Requester, accepted Handle, err error)
	ReplySelect(endpoint int, ops OpMask)
}

// noopReplier discards every reply; used when a Table is built without a
// transport attached (e.g. unit tests that only inspect slot state).
type noopReplier struct{}

func (noopReplier) ReplyIO(Requester, int, error)        {}
func (noopReplier) ReplyControl(Requester, error)        {}
func (noopReplier) ReplyAccept(Requester, Handle, error) {}
func (noopReplier) ReplySelect(int, OpMask)              {}

// Table is the fixed-size socket table (spec §3–§4.1). Handle 0 is
// reserved for the root device and never appears in slots.
type Table struct {
	mu sync.Mutex

	slots  []Slot // index 0 unused
	sizing config.Sizing

	replier Replier
	logger  *slog.Logger
	metrics Metrics

	exitLeft  int
	draining  bool
	onDrained func()
}

// Option configures a Table at construction time.
type Option func(*Table)

// WithReplier attaches the transport-facing callback used to deliver
// deferred replies.
func WithReplier(r Replier) Option {
	return func(t *Table) { t.replier = r }
}

// WithLogger overrides the default slog logger, mirroring the teacher's
// constructor-injected *slog.Logger (e.g. NewBusManager).
func WithLogger(logger *slog.Logger) Option {
	return func(t *Table) { t.logger = logger }
}

// NewTable allocates a Table sized per sizing.TableSize. Handle 0 is
// reserved, so the table holds sizing.TableSize-1 usable slots.
func NewTable(sizing config.Sizing, opts ...Option) *Table {
	t := &Table{
		slots:   make([]Slot, sizing.TableSize),
		sizing:  sizing,
		replier: noopReplier{},
		logger:  slog.Default(),
	}
	for i := range t.slots {
		t.slots[i] = newFreeSlot(sizing.KMax)
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Lock/Unlock expose the table-wide mutex to pkg/control, which must
// observe and mutate slot fields atomically with respect to core
// operations (spec §6.2 and §9's "wrap the whole dispatch in a mutex").
func (t *Table) Lock()   { t.mu.Lock() }
func (t *Table) Unlock() { t.mu.Unlock() }

func (t *Table) valid(h Handle) bool {
	return h >= 1 && int(h) < len(t.slots)
}

// Slot returns a pointer to the slot for h without validity checks; the
// caller must already hold the table lock and have checked validity (via
// CheckOpen or valid). Exported for pkg/control's seam access.
func (t *Table) Slot(h Handle) *Slot {
	return &t.slots[h]
}

// CheckOpen validates a handle and returns its slot, or the appropriate
// BAD_HANDLE / NOT_OPEN error.
func (t *Table) CheckOpen(h Handle) (*Slot, error) {
	if !t.valid(h) {
		return nil, ErrBadHandle
	}
	slot := &t.slots[h]
	if slot.State != StateInUse {
		return nil, ErrNotOpen
	}
	return slot, nil
}

// fatalf aborts the driver on an internal contract violation (spec §7,
// §9: "fatal-on-impossible"). A corrupted state machine must not be
// papered over.
func (t *Table) fatalf(format string, args ...any) {
	t.logger.Error(fmt.Sprintf(format, args...))
	panic(fmt.Sprintf("uxsockd: fatal internal invariant violation: "+format, args...))
}

// newBuffer returns a freshly-allocated ring buffer of the table's
// configured size, the open-time equivalent of the original driver's
// per-socket mmap allocation.
func (t *Table) newBuffer() *ring.Buffer {
	return ring.New(t.sizing.BufferSize)
}

// Len reports the number of usable slots (excludes the reserved handle 0).
func (t *Table) Len() int { return len(t.slots) - 1 }

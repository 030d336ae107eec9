package transport

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/josephrewald/uxsockd/pkg/socket"
)

// MemTransport is an in-memory Transport double: one instance stands in
// for one connected client (endpoint), blocking calls on a channel until
// the matching socket.Replier callback fires instead of performing real
// inter-process memory grants. Grounded on the teacher's in-memory CAN
// bus double used by its own driver tests (pkg/can's bus registry
// pattern, generalized here to request/reply channels instead of frame
// broadcast).
type MemTransport struct {
	table    *socket.Table
	endpoint int
	logger   *slog.Logger

	mu            sync.Mutex
	pendingIO     map[string]chan IOResult
	pendingCtl    map[string]chan error
	pendingAccept map[string]chan AcceptResult
	selectWake    chan socket.OpMask
}

// NewMemTransport builds a MemTransport representing endpoint against
// table. Each logical client should get its own MemTransport so
// Requester.Endpoint values stay distinct.
func NewMemTransport(table *socket.Table, endpoint int, logger *slog.Logger) *MemTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemTransport{
		table:         table,
		endpoint:      endpoint,
		logger:        logger,
		pendingIO:     make(map[string]chan IOResult),
		pendingCtl:    make(map[string]chan error),
		pendingAccept: make(map[string]chan AcceptResult),
		selectWake:    make(chan socket.OpMask, 1),
	}
}

func (m *MemTransport) newRequester() socket.Requester {
	return socket.Requester{Endpoint: m.endpoint, RequestID: uuid.NewString()}
}

func (m *MemTransport) Open(owner int) (socket.Handle, error) {
	return m.table.Open(owner)
}

func (m *MemTransport) Close(h socket.Handle) error {
	return m.table.Close(h)
}

func (m *MemTransport) Read(h socket.Handle, buf []byte, nonblock bool) (int, error) {
	req := m.newRequester()
	ch := m.registerIO(req.RequestID)
	n, err := m.table.Read(h, req, buf, nonblock)
	if err != socket.ErrSuspended {
		m.unregisterIO(req.RequestID)
		return n, err
	}
	result := <-ch
	return result.N, result.Err
}

func (m *MemTransport) Write(h socket.Handle, buf []byte, nonblock bool) (int, error) {
	req := m.newRequester()
	ch := m.registerIO(req.RequestID)
	n, err := m.table.Write(h, req, buf, nonblock)
	if err != socket.ErrSuspended {
		m.unregisterIO(req.RequestID)
		return n, err
	}
	result := <-ch
	return result.N, result.Err
}

func (m *MemTransport) Select(h socket.Handle, ops socket.OpMask, nonblock bool) (socket.OpMask, error) {
	ready, err := m.table.Select(h, ops, m.endpoint, !nonblock)
	if err != nil || ready != 0 || nonblock {
		return ready, err
	}
	return <-m.selectWake, nil
}

func (m *MemTransport) Cancel(h socket.Handle, requestID string) error {
	return m.table.Cancel(h, socket.Requester{Endpoint: m.endpoint, RequestID: requestID})
}

// NewControlRequester mints a Requester for a connect/accept call that
// may suspend. AwaitControl blocks until the matching ReplyControl
// arrives (connect); AwaitAccept blocks until the matching ReplyAccept
// arrives (accept). Together they let pkg/control's blocking Connect/Accept calls
// ride the same request/reply channel plumbing as Read/Write.
func (m *MemTransport) NewControlRequester() socket.Requester {
	return m.newRequester()
}

func (m *MemTransport) AwaitControl(requestID string) error {
	ch := make(chan error, 1)
	m.mu.Lock()
	m.pendingCtl[requestID] = ch
	m.mu.Unlock()
	return <-ch
}

// AwaitAccept blocks until the matching ReplyAccept arrives, for a
// blocking Accept call whose backlog was empty.
func (m *MemTransport) AwaitAccept(requestID string) (socket.Handle, error) {
	ch := make(chan AcceptResult, 1)
	m.mu.Lock()
	m.pendingAccept[requestID] = ch
	m.mu.Unlock()
	r := <-ch
	return r.Handle, r.Err
}

func (m *MemTransport) registerIO(id string) chan IOResult {
	ch := make(chan IOResult, 1)
	m.mu.Lock()
	m.pendingIO[id] = ch
	m.mu.Unlock()
	return ch
}

func (m *MemTransport) unregisterIO(id string) {
	m.mu.Lock()
	delete(m.pendingIO, id)
	m.mu.Unlock()
}

// ReplyIO implements socket.Replier, delivering a resolved read/write to
// whichever goroutine is blocked waiting on r.RequestID.
func (m *MemTransport) ReplyIO(r socket.Requester, n int, err error) {
	m.mu.Lock()
	ch, ok := m.pendingIO[r.RequestID]
	delete(m.pendingIO, r.RequestID)
	m.mu.Unlock()
	if !ok {
		m.logger.Warn("reply for unknown or already-cancelled request", "request_id", r.RequestID)
		return
	}
	ch <- IOResult{N: n, Err: err}
}

// ReplyControl implements socket.Replier for connect completions.
func (m *MemTransport) ReplyControl(r socket.Requester, err error) {
	m.mu.Lock()
	ch, ok := m.pendingCtl[r.RequestID]
	delete(m.pendingCtl, r.RequestID)
	m.mu.Unlock()
	if !ok {
		return
	}
	ch <- err
}

// ReplyAccept implements socket.Replier for accept completions, delivering
// the newly accepted handle to whichever goroutine is blocked on r.RequestID.
func (m *MemTransport) ReplyAccept(r socket.Requester, accepted socket.Handle, err error) {
	m.mu.Lock()
	ch, ok := m.pendingAccept[r.RequestID]
	delete(m.pendingAccept, r.RequestID)
	m.mu.Unlock()
	if !ok {
		return
	}
	ch <- AcceptResult{Handle: accepted, Err: err}
}

// ReplySelect implements socket.Replier, waking a blocked Select call
// for this transport's endpoint.
func (m *MemTransport) ReplySelect(endpoint int, ops socket.OpMask) {
	if endpoint != m.endpoint {
		return
	}
	select {
	case m.selectWake <- ops:
	default:
	}
}

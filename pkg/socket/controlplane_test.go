package socket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindListenConnectAcceptPairsPeers(t *testing.T) {
	table, _ := newTestTable()

	listener, err := table.Open(1)
	require.NoError(t, err)
	require.NoError(t, table.SetType(listener, TypeStream))
	require.NoError(t, table.Bind(listener, "/srv.sock"))
	require.NoError(t, table.Listen(listener, 1))

	client, err := table.Open(2)
	require.NoError(t, err)
	require.NoError(t, table.SetType(client, TypeStream))
	queued, err := table.Connect(client, "/srv.sock")
	require.NoError(t, err)
	assert.True(t, queued)

	child, ok, err := table.Accept(listener)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, client, child)

	accepted, err := table.Open(1)
	require.NoError(t, err)
	require.NoError(t, table.SetType(accepted, TypeStream))
	require.NoError(t, table.LinkPeer(accepted, child))

	assert.Equal(t, client, table.Slot(accepted).Peer)
	assert.Equal(t, accepted, table.Slot(client).Peer)
}

func TestConnectToUnboundPathFails(t *testing.T) {
	table, _ := newTestTable()
	client, err := table.Open(1)
	require.NoError(t, err)
	require.NoError(t, table.SetType(client, TypeStream))
	_, err = table.Connect(client, "/nope.sock")
	assert.Equal(t, ErrNoSuchFile, err)
}

func TestConnectReturnsNotQueuedWhenBacklogFull(t *testing.T) {
	table, _ := newTestTable()
	listener, err := table.Open(1)
	require.NoError(t, err)
	require.NoError(t, table.SetType(listener, TypeStream))
	require.NoError(t, table.Bind(listener, "/srv.sock"))
	require.NoError(t, table.Listen(listener, 1))

	c1, _ := table.Open(2)
	require.NoError(t, table.SetType(c1, TypeStream))
	queued, err := table.Connect(c1, "/srv.sock")
	require.NoError(t, err)
	assert.True(t, queued)

	c2, _ := table.Open(3)
	require.NoError(t, table.SetType(c2, TypeStream))
	queued, err = table.Connect(c2, "/srv.sock")
	require.NoError(t, err)
	assert.False(t, queued)
}

func TestShutdownWriteHalfWakesBlockedReader(t *testing.T) {
	table, rep := newTestTable()
	a, b := linkStream(table)

	_, err := table.Read(a, Requester{Endpoint: 1, RequestID: "r1"}, make([]byte, 4), false)
	require.Equal(t, ErrSuspended, err)

	require.NoError(t, table.Shutdown(b, ModeWrite))

	require.Len(t, rep.io, 1)
	assert.Equal(t, 0, rep.io[0].n)
	assert.NoError(t, rep.io[0].err)
}

func TestSetTypeIsIdempotentButRejectsChange(t *testing.T) {
	table, _ := newTestTable()
	h, err := table.Open(1)
	require.NoError(t, err)
	require.NoError(t, table.SetType(h, TypeDgram))
	require.NoError(t, table.SetType(h, TypeDgram))

	assert.Panics(t, func() {
		_ = table.SetType(h, TypeStream)
	})
}

func TestBindRejectsPathLongerThanUnixPathMax(t *testing.T) {
	table, _ := newTestTable()
	h, err := table.Open(1)
	require.NoError(t, err)

	longPath := make([]byte, table.sizing.UnixPathMax+1)
	for i := range longPath {
		longPath[i] = 'a'
	}
	assert.Equal(t, ErrNameTooLong, table.Bind(h, string(longPath)))
}

func TestSetTargetRejectsPathLongerThanUnixPathMax(t *testing.T) {
	table, _ := newTestTable()
	h, err := table.Open(1)
	require.NoError(t, err)
	require.NoError(t, table.SetType(h, TypeDgram))

	longPath := make([]byte, table.sizing.UnixPathMax+1)
	for i := range longPath {
		longPath[i] = 'a'
	}
	assert.Equal(t, ErrNameTooLong, table.SetTarget(h, string(longPath)))
}

// TestBlockedAcceptWakesOnConnect covers review fix (c): a listener
// suspended in Accept with an empty backlog must be woken the moment a
// later Connect queues a connector against it, delivered via ReplyAccept.
func TestBlockedAcceptWakesOnConnect(t *testing.T) {
	table, rep := newTestTable()

	listener, err := table.Open(1)
	require.NoError(t, err)
	require.NoError(t, table.SetType(listener, TypeStream))
	require.NoError(t, table.Bind(listener, "/srv.sock"))
	require.NoError(t, table.Listen(listener, 1))

	_, ok, err := table.Accept(listener)
	require.NoError(t, err)
	require.False(t, ok)
	acceptReq := Requester{Endpoint: 1, RequestID: "accept-1"}
	require.Equal(t, ErrSuspended, table.SetSuspendAccept(listener, 1, acceptReq))
	assert.Equal(t, SuspendAccept, table.Slot(listener).Suspended.Kind)

	client, err := table.Open(2)
	require.NoError(t, err)
	require.NoError(t, table.SetType(client, TypeStream))
	queued, err := table.Connect(client, "/srv.sock")
	require.NoError(t, err)
	assert.True(t, queued)

	require.Len(t, rep.accepts, 1)
	assert.NoError(t, rep.accepts[0].err)
	assert.Equal(t, acceptReq, rep.accepts[0].req)
	accepted := rep.accepts[0].accepted
	assert.NotZero(t, accepted)
	assert.Equal(t, client, table.Slot(accepted).Peer)
	assert.Equal(t, accepted, table.Slot(client).Peer)
	assert.Equal(t, SuspendNone, table.Slot(listener).Suspended.Kind)
	assert.Equal(t, backlogEmpty, table.Slot(listener).Child)
}

// TestBlockedConnectRetriedWhenAcceptFreesBacklog covers review fix (d):
// a connector suspended against a full backlog must be re-queued and
// woken once a later Accept pops a slot free.
func TestBlockedConnectRetriedWhenAcceptFreesBacklog(t *testing.T) {
	table, _ := newTestTable()

	listener, err := table.Open(1)
	require.NoError(t, err)
	require.NoError(t, table.SetType(listener, TypeStream))
	require.NoError(t, table.Bind(listener, "/srv.sock"))
	require.NoError(t, table.Listen(listener, 1))

	c1, err := table.Open(2)
	require.NoError(t, err)
	require.NoError(t, table.SetType(c1, TypeStream))
	queued, err := table.Connect(c1, "/srv.sock")
	require.NoError(t, err)
	require.True(t, queued)

	c2, err := table.Open(3)
	require.NoError(t, err)
	require.NoError(t, table.SetType(c2, TypeStream))
	queued, err = table.Connect(c2, "/srv.sock")
	require.NoError(t, err)
	require.False(t, queued)
	require.Equal(t, listener, table.Slot(c2).Peer)
	connectReq := Requester{Endpoint: 3, RequestID: "connect-2"}
	require.Equal(t, ErrSuspended, table.SetSuspendConnect(c2, connectReq))

	child, ok, err := table.Accept(listener)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, c1, child)

	assert.Equal(t, SuspendNone, table.Slot(c2).Suspended.Kind)
	assert.Equal(t, c2, table.Slot(listener).Backlog[0])
}

func TestCancelRequiresMatchingEndpoint(t *testing.T) {
	table, rep := newTestTable()
	listener, err := table.Open(1)
	require.NoError(t, err)
	require.NoError(t, table.SetType(listener, TypeStream))
	require.NoError(t, table.Bind(listener, "/srv.sock"))
	require.NoError(t, table.Listen(listener, 1))

	req := Requester{Endpoint: 1, RequestID: "accept-1"}
	require.Equal(t, ErrSuspended, table.SetSuspendAccept(listener, 1, req))

	require.NoError(t, table.Cancel(listener, Requester{Endpoint: 99, RequestID: "accept-1"}))
	assert.Equal(t, SuspendAccept, table.Slot(listener).Suspended.Kind)
	assert.Empty(t, rep.accepts)

	require.NoError(t, table.Cancel(listener, req))
	assert.Equal(t, SuspendNone, table.Slot(listener).Suspended.Kind)
	require.Len(t, rep.accepts, 1)
	assert.Equal(t, ErrInterrupted, rep.accepts[0].err)
	assert.Equal(t, backlogEmpty, table.Slot(listener).Child)
}

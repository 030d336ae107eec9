package socket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancelInterruptsSuspendedRead(t *testing.T) {
	table, rep := newTestTable()
	a, _ := linkStream(table)

	_, err := table.Read(a, Requester{Endpoint: 1, RequestID: "r1"}, make([]byte, 4), false)
	require.Equal(t, ErrSuspended, err)

	require.NoError(t, table.Cancel(a, Requester{Endpoint: 1, RequestID: "r1"}))

	require.Len(t, rep.io, 1)
	assert.Equal(t, ErrInterrupted, rep.io[0].err)
	assert.Equal(t, SuspendNone, table.Slot(a).Suspended.Kind)
}

func TestCancelWithMismatchedRequestIDIsNoop(t *testing.T) {
	table, rep := newTestTable()
	a, _ := linkStream(table)

	_, err := table.Read(a, Requester{Endpoint: 1, RequestID: "r1"}, make([]byte, 4), false)
	require.Equal(t, ErrSuspended, err)

	require.NoError(t, table.Cancel(a, Requester{Endpoint: 1, RequestID: "stale"}))

	assert.Empty(t, rep.io)
	assert.Equal(t, SuspendRead, table.Slot(a).Suspended.Kind)
}

func TestCancelOnSocketWithNothingPendingIsNoop(t *testing.T) {
	table, _ := newTestTable()
	a, _ := linkStream(table)
	assert.NoError(t, table.Cancel(a, Requester{Endpoint: 1, RequestID: "whatever"}))
}

func TestCancelOnBadHandleReturnsError(t *testing.T) {
	table, _ := newTestTable()
	err := table.Cancel(Handle(99), Requester{Endpoint: 1, RequestID: "x"})
	assert.Equal(t, ErrBadHandle, err)
}

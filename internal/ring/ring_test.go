package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	b := New(8)
	n := b.Write([]byte("hello"), nil)
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, b.Len())

	dst := make([]byte, 10)
	n = b.Read(dst)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(dst[:5]))
	assert.True(t, b.Empty())
}

func TestWriteStopsAtCapacity(t *testing.T) {
	b := New(4)
	n := b.Write([]byte("abcdef"), nil)
	assert.Equal(t, 4, n)
	assert.True(t, b.Full())
	assert.Equal(t, 0, b.Free())
}

func TestWrapAroundReadWrite(t *testing.T) {
	b := New(4)
	require.Equal(t, 3, b.Write([]byte("abc"), nil))
	dst := make([]byte, 2)
	require.Equal(t, 2, b.Read(dst))
	require.Equal(t, "ab", string(dst))
	// head is now at index 2, size 1 ("c"); writing 3 more bytes wraps
	require.Equal(t, 3, b.Write([]byte("def"), nil))
	out := make([]byte, 4)
	n := b.Read(out)
	assert.Equal(t, 4, n)
	assert.Equal(t, "cdef", string(out))
	assert.True(t, b.Empty())
}

func TestDiscardResetsPosOnEmpty(t *testing.T) {
	b := New(4)
	b.Write([]byte("ab"), nil)
	b.Discard(2)
	assert.True(t, b.Empty())
	// internal pos must have reset; verify indirectly via a subsequent
	// write+read cycle that would otherwise wrap unexpectedly
	b.Write([]byte("cd"), nil)
	out := make([]byte, 2)
	b.Read(out)
	assert.Equal(t, "cd", string(out))
}

func TestPeekDoesNotConsume(t *testing.T) {
	b := New(4)
	b.Write([]byte("xy"), nil)
	dst := make([]byte, 2)
	n := b.Peek(dst)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, b.Len())
}

func TestZeroLengthOperationsAreNoops(t *testing.T) {
	b := New(4)
	assert.Equal(t, 0, b.Write(nil, nil))
	assert.Equal(t, 0, b.Read(nil))
	b.Discard(0)
	assert.True(t, b.Empty())
}

package socket

// Metrics accumulates coarse operational counters for a Table. It carries
// no behavior of its own; Table.Metrics returns a point-in-time Snapshot
// safe to publish to an external sink (an ambient operator-visibility
// concern, not part of the original driver, added for observability
// parity with the rest of the stack).
type Metrics struct {
	opens  uint64
	closes uint64

	bytesRead    [3]uint64 // indexed by SockType - 1
	bytesWritten [3]uint64

	wouldBlocks uint64
	cancels     uint64
}

// Snapshot is an immutable copy of a Metrics value for reporting.
type Snapshot struct {
	Opens          uint64
	Closes         uint64
	StreamBytesIn  uint64
	StreamBytesOut uint64
	SeqBytesIn     uint64
	SeqBytesOut    uint64
	DgramBytesIn   uint64
	DgramBytesOut  uint64
	WouldBlocks    uint64
	Cancels        uint64
}

// Metrics returns a snapshot of the table's counters.
func (t *Table) Metrics() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := t.metrics
	return Snapshot{
		Opens:          m.opens,
		Closes:         m.closes,
		StreamBytesIn:  m.bytesRead[TypeStream-1],
		StreamBytesOut: m.bytesWritten[TypeStream-1],
		SeqBytesIn:     m.bytesRead[TypeSeqPacket-1],
		SeqBytesOut:    m.bytesWritten[TypeSeqPacket-1],
		DgramBytesIn:   m.bytesRead[TypeDgram-1],
		DgramBytesOut:  m.bytesWritten[TypeDgram-1],
		WouldBlocks:    m.wouldBlocks,
		Cancels:        m.cancels,
	}
}

func (m *Metrics) recordRead(typ SockType, n int) {
	if typ == TypeUnset {
		return
	}
	m.bytesRead[typ-1] += uint64(n)
}

func (m *Metrics) recordWrite(typ SockType, n int) {
	if typ == TypeUnset {
		return
	}
	m.bytesWritten[typ-1] += uint64(n)
}

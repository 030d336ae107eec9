package socket

// PerformRead implements the pure read logic of spec §4.3. When pretend
// is true it computes the would-be result without touching any state
// (used by Select; unsuspendLocked re-runs it with pretend false). It never suspends by
// itself. Callers translate a WOULD_BLOCK_MARKER result into suspension
// or WOULD_BLOCK as appropriate.
//
// Returns the byte count on success, or an Errno. ErrWouldBlock is
// overloaded as the WOULD_BLOCK_MARKER of the spec; callers must check
// IsWouldBlockMarker before treating it as a literal would-block error to
// surface to a non-blocking caller.
func (t *Table) PerformRead(h Handle, dst []byte, pretend bool) (int, error) {
	slot, err := t.CheckOpen(h)
	if err != nil {
		return 0, err
	}
	if len(dst) == 0 {
		return 0, nil
	}
	if slot.Mode&ModeRead == 0 {
		return 0, ErrPipeBroken
	}

	if slot.Buf.Empty() {
		if slot.Peer == noPeer {
			switch slot.Type {
			case TypeStream, TypeSeqPacket:
				if slot.Err == ErrConnReset {
					if !pretend {
						slot.Err = ErrOK
					}
					return 0, ErrConnReset
				}
				return 0, ErrNotConnected
			}
			// DGRAM with no peer link: fall through to would-block.
		} else {
			peer := &t.slots[slot.Peer]
			if peer.Mode&ModeWrite == 0 {
				// Peer's write half is shut and our buffer is still
				// empty: end of stream.
				return 0, nil
			}
		}
		if !pretend && slot.Peer != noPeer && t.slots[slot.Peer].Suspended.Kind == SuspendWrite {
			t.fatalf("read found empty buffer on %d while peer %d is suspended on write", h, slot.Peer)
		}
		return 0, ErrWouldBlock
	}

	n := len(dst)
	if n > slot.Buf.Len() {
		n = slot.Buf.Len()
	}
	if pretend {
		return n, nil
	}

	slot.Buf.Read(dst[:n])
	t.metrics.recordRead(slot.Type, n)

	if slot.Peer != noPeer {
		peer := &t.slots[slot.Peer]
		if peer.Suspended.Kind == SuspendWrite {
			t.unsuspendLocked(slot.Peer)
		}
		if peer.SelOps&OpWrite != 0 && !slot.Buf.Full() {
			t.fireSelect(slot.Peer, OpWrite)
		}
	}

	return n, nil
}

// Read is the transport-facing wrapper around PerformRead: on
// WOULD_BLOCK_MARKER it either records the suspension (blocking caller)
// or clears it and reports WOULD_BLOCK (non-blocking caller), per spec
// §4.3's wrapper description.
func (t *Table) Read(h Handle, req Requester, dst []byte, nonblock bool) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, err := t.PerformRead(h, dst, false)
	if err != ErrWouldBlock {
		return n, err
	}

	slot, checkErr := t.CheckOpen(h)
	if checkErr != nil {
		return 0, checkErr
	}
	if nonblock {
		t.metrics.wouldBlocks++
		return 0, ErrWouldBlock
	}
	slot.Suspended = Suspended{Kind: SuspendRead, Requester: req, Size: len(dst), Buf: dst}
	return 0, ErrSuspended
}

package socket

// PerformWrite implements the pure write logic of spec §4.4. Like
// PerformRead, pretend computes the would-be result without touching
// state. Returns the byte count actually (or notionally) written, or an
// Errno. ErrWouldBlock again doubles as WOULD_BLOCK_MARKER.
func (t *Table) PerformWrite(h Handle, src []byte, pretend bool) (int, error) {
	slot, err := t.CheckOpen(h)
	if err != nil {
		return 0, err
	}
	if len(src) == 0 {
		return 0, nil
	}
	if slot.Mode&ModeWrite == 0 {
		return 0, ErrPipeBroken
	}
	if slot.Type != TypeStream && len(src) > slot.Buf.Cap() {
		return 0, ErrMessageTooLarge
	}

	var dest Handle
	switch slot.Type {
	case TypeStream, TypeSeqPacket:
		if slot.Peer == noPeer {
			if slot.Err == ErrConnReset {
				if !pretend {
					slot.Err = ErrOK
				}
				return 0, ErrConnReset
			}
			return 0, ErrNotConnected
		}
		if t.slots[slot.Peer].Peer == noPeer {
			// Still connecting: the peer's listener has not yet linked
			// back, so there's nowhere to deliver bytes.
			return 0, ErrWouldBlock
		}
		dest = slot.Peer
	default: // TypeDgram
		target, ok := t.findBoundDgram(slot.Target)
		if !ok {
			return 0, ErrNoSuchFile
		}
		dest = target
	}

	destSlot := &t.slots[dest]
	if destSlot.Mode&ModeRead == 0 {
		return 0, ErrPipeBroken
	}

	if slot.Type == TypeDgram && !destSlot.Buf.Empty() {
		// Coalescing rule: silently drop, sender still sees success.
		return len(src), nil
	}

	full := destSlot.Buf.Full()
	boundaryBlocked := slot.Type == TypeSeqPacket && !destSlot.Buf.Empty()
	if full || boundaryBlocked {
		if !pretend && destSlot.Suspended.Kind == SuspendRead {
			t.fatalf("write found destination %d full while it is suspended on read", dest)
		}
		return 0, ErrWouldBlock
	}

	n := len(src)
	if slot.Type == TypeStream {
		if free := destSlot.Buf.Free(); n > free {
			n = free
		}
	}
	if pretend {
		return n, nil
	}

	destSlot.Buf.Write(src[:n], nil)
	t.metrics.recordWrite(slot.Type, n)
	if slot.Type == TypeDgram {
		destSlot.Source = slot.Addr
	}

	if destSlot.Suspended.Kind == SuspendRead {
		t.unsuspendLocked(dest)
	}
	if destSlot.SelOps&OpRead != 0 && destSlot.Buf.Len() > 0 {
		t.fireSelect(dest, OpRead)
	}

	return n, nil
}

// findBoundDgram scans the table for a DGRAM socket bound to target's
// path. Linear scan, O(N): acceptable for the small table sizes this
// driver targets (spec §9); a path->handle index would be the first
// thing to add if N grows.
func (t *Table) findBoundDgram(target Addr) (Handle, bool) {
	if !target.Bound {
		return 0, false
	}
	for h := 1; h < len(t.slots); h++ {
		slot := &t.slots[h]
		if slot.State == StateInUse && slot.Type == TypeDgram &&
			slot.Addr.Bound && slot.Addr.Path == target.Path {
			return Handle(h), true
		}
	}
	return 0, false
}

// Write is the transport-facing wrapper around PerformWrite, mirroring
// Read's suspend/nonblock handling.
func (t *Table) Write(h Handle, req Requester, src []byte, nonblock bool) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, err := t.PerformWrite(h, src, false)
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
	slot.Suspended = Suspended{Kind: SuspendWrite, Requester: req, Size: len(src), Buf: src}
	return 0, ErrSuspended
}

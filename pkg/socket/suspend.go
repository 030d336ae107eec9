package socket

// unsuspendLocked re-attempts a socket's single pending operation now
// that some state change might have unblocked it (spec §4.6). Must be
// called with the table lock held, and only when the caller already
// knows the slot actually has a pending Suspended entry worth retrying
// (callers check Suspended.Kind before calling).
func (t *Table) unsuspendLocked(h Handle) {
	slot := &t.slots[h]
	pending := slot.Suspended

	switch pending.Kind {
	case SuspendRead:
		n, err := t.PerformRead(h, pending.Buf, false)
		if err == ErrWouldBlock {
			return
		}
		slot.Suspended = Suspended{}
		t.replier.ReplyIO(pending.Requester, n, err)

	case SuspendWrite:
		n, err := t.PerformWrite(h, pending.Buf, false)
		if err == ErrWouldBlock {
			return
		}
		slot.Suspended = Suspended{}
		t.replier.ReplyIO(pending.Requester, n, err)

	case SuspendConnect:
		// Resolved by LinkPeer pairing the peer link directly; it calls
		// here afterwards, and this clears Suspended and notifies.
		slot.Suspended = Suspended{}
		t.replier.ReplyControl(pending.Requester, nil)

	case SuspendAccept:
		child, popped := t.popBacklogLocked(slot)
		if !popped {
			return // spurious wake, backlog emptied out from under us
		}
		accepted, err := t.openLocked(pending.Owner)
		if err == nil {
			if typeErr := t.setTypeLocked(accepted, slot.Type); typeErr != nil {
				t.fatalf("accepted socket %d rejected listener %d's type: %v", accepted, h, typeErr)
			}
			t.linkPeerLocked(accepted, child)
		}
		slot.Child = backlogEmpty
		t.retryPendingConnectsLocked(h)
		slot.Suspended = Suspended{}
		t.replier.ReplyAccept(pending.Requester, accepted, err)

	case SuspendNone:
		// Spurious wake: nothing was pending. Not fatal on its own.
		// Multiple unrelated events can race to call unsuspendLocked on
		// the same handle.

	default:
		t.fatalf("socket %d has unknown suspend kind %d", h, pending.Kind)
	}
}

// Cancel aborts a socket's pending suspended operation (spec §4.6's
// CANCEL), replying WOULD_BLOCK_MARKER-turned-EINTR to the original
// caller. Per spec §9's open question, a cancelled CONNECT leaves any
// backlog linkage it already made in place; it is still the control
// plane's job to decide whether that counts as connected.
func (t *Table) Cancel(h Handle, req Requester) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot, err := t.CheckOpen(h)
	if err != nil {
		return err
	}
	if slot.Suspended.Kind == SuspendNone {
		return nil
	}
	if slot.Suspended.Requester.RequestID != req.RequestID || slot.Suspended.Requester.Endpoint != req.Endpoint {
		return nil
	}

	pending := slot.Suspended
	slot.Suspended = Suspended{}
	t.metrics.cancels++

	switch pending.Kind {
	case SuspendRead, SuspendWrite:
		t.replier.ReplyIO(pending.Requester, 0, ErrInterrupted)
	case SuspendAccept:
		slot.Child = backlogEmpty
		t.replier.ReplyAccept(pending.Requester, 0, ErrInterrupted)
	default:
		t.replier.ReplyControl(pending.Requester, ErrInterrupted)
	}
	return nil
}

// resetLocked tears down the peer side of a socket that's about to
// disappear out from under it (its peer closed, or its listener closed
// while it was still backlog-queued). Any pending suspended operation on
// h is force-completed with CONNRESET so the blocked caller unblocks
// instead of hanging forever (spec §4.2/§7's sticky-CONNRESET rule).
func (t *Table) resetLocked(h Handle) {
	slot := &t.slots[h]
	if slot.State != StateInUse {
		return
	}

	slot.Peer = noPeer
	slot.Err = ErrConnReset

	pending := slot.Suspended
	slot.Suspended = Suspended{}

	switch pending.Kind {
	case SuspendRead, SuspendWrite:
		t.replier.ReplyIO(pending.Requester, 0, ErrConnReset)
	case SuspendConnect:
		t.replier.ReplyControl(pending.Requester, ErrConnReset)
	case SuspendAccept:
		slot.Child = backlogEmpty
		t.replier.ReplyAccept(pending.Requester, 0, ErrConnReset)
	case SuspendNone:
	default:
		t.fatalf("socket %d has unknown suspend kind %d during reset", h, pending.Kind)
	}

	if slot.SelOps != 0 {
		endpoint := slot.SelEndpoint
		ops := slot.SelOps
		slot.SelOps = 0
		t.replier.ReplySelect(endpoint, ops|OpErr)
	}
}

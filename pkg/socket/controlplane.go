package socket

// This file is the seam pkg/control drives the core through (spec §6.2:
// "the contract by which bind/connect/listen/accept/shutdown routines
// observe and mutate slot fields"). Every mutation a control-plane
// routine needs goes through one of these methods rather than poking
// Slot fields directly, so the invariants stay enforced in one place.

// SetType assigns a socket's type exactly once, on first use (spec §3's
// "type fixed at first bind/connect/socket-equivalent call").
func (t *Table) SetType(h Handle, typ SockType) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.setTypeLocked(h, typ)
}

// setTypeLocked is SetType's body without the lock, for callers (like
// unsuspendLocked completing an ACCEPT) that already hold it.
func (t *Table) setTypeLocked(h Handle, typ SockType) error {
	slot, err := t.CheckOpen(h)
	if err != nil {
		return err
	}
	if slot.Type != TypeUnset && slot.Type != typ {
		t.fatalf("socket %d attempted to change type from %s to %s", h, slot.Type, typ)
	}
	slot.Type = typ
	return nil
}

// Bind assigns a socket's local address. A socket may only be bound
// once; rebinding is rejected rather than silently overwritten. path
// longer than the table's configured UnixPathMax is rejected outright,
// mirroring a real UNIX domain socket's ENAMETOOLONG.
func (t *Table) Bind(h Handle, path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	slot, err := t.CheckOpen(h)
	if err != nil {
		return err
	}
	if len(path) > t.sizing.UnixPathMax {
		return ErrNameTooLong
	}
	if slot.Addr.Bound {
		return ErrInProgress
	}
	slot.Addr = Addr{Bound: true, Path: path}
	return nil
}

// Listen marks a bound stream/seqpacket socket as a listener, able to
// accumulate connecting peers in its backlog up to backlogSize entries
// (clamped to the table's K_MAX).
func (t *Table) Listen(h Handle, backlogSize int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	slot, err := t.CheckOpen(h)
	if err != nil {
		return err
	}
	if !slot.Addr.Bound || slot.Type == TypeDgram {
		return ErrNotConnected
	}
	if backlogSize <= 0 || backlogSize > len(slot.Backlog) {
		backlogSize = len(slot.Backlog)
	}
	slot.Listening = true
	slot.BacklogSize = backlogSize
	return nil
}

// findListener locates a listening socket bound to path.
func (t *Table) findListener(path string) (Handle, bool) {
	for h := 1; h < len(t.slots); h++ {
		slot := &t.slots[h]
		if slot.State == StateInUse && slot.Listening &&
			slot.Addr.Bound && slot.Addr.Path == path {
			return Handle(h), true
		}
	}
	return 0, false
}

// Connect attempts to enqueue h onto the backlog of the listener bound to
// path. The connecting socket's Peer is set to the listener (the "still
// connecting" placeholder checked elsewhere as peer.Peer == noPeer) as
// soon as the listener is found, whether or not there was room to queue
// it, so the "a connecting socket always has a peer" invariant holds
// even while h is still waiting (spec §3). ok reports whether h was
// actually queued; if not, the caller should suspend with
// SetSuspendConnect, and a later Accept freeing a backlog slot will
// retry it (retryPendingConnectsLocked).
func (t *Table) Connect(h Handle, path string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	slot, err := t.CheckOpen(h)
	if err != nil {
		return false, err
	}
	listener, ok := t.findListener(path)
	if !ok {
		return false, ErrNoSuchFile
	}
	slot.Peer = listener
	return t.tryQueueConnectLocked(h, listener), nil
}

// tryQueueConnectLocked enqueues h onto listener's backlog if a slot is
// free, waking a listener blocked in Accept or firing its registered
// select notification. Reports whether h was queued. Used by both a
// fresh Connect and retryPendingConnectsLocked's retry after Accept
// frees a slot.
func (t *Table) tryQueueConnectLocked(h, listener Handle) bool {
	listenerSlot := &t.slots[listener]
	slotIdx := -1
	for i := 0; i < listenerSlot.BacklogSize; i++ {
		if listenerSlot.Backlog[i] == backlogEmpty {
			slotIdx = i
			break
		}
	}
	if slotIdx == -1 {
		return false
	}
	listenerSlot.Backlog[slotIdx] = h
	if listenerSlot.Suspended.Kind == SuspendAccept {
		t.unsuspendLocked(listener)
	}
	if listenerSlot.SelOps&OpRead != 0 {
		t.fireSelect(listener, OpRead)
	}
	return true
}

// Accept pops the first occupied (lowest-index) connecting handle off
// listener's backlog, recording it as listener's in-progress child (spec §4.6) until
// the caller finishes linking it with ClearChild. ok is false (with no
// error) if the backlog is currently empty; the caller should suspend
// with SetSuspendAccept.
func (t *Table) Accept(listener Handle) (Handle, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	slot, err := t.CheckOpen(listener)
	if err != nil {
		return 0, false, err
	}
	if !slot.Listening {
		return 0, false, ErrNotConnected
	}
	child, popped := t.popBacklogLocked(slot)
	if !popped {
		return 0, false, nil
	}
	t.retryPendingConnectsLocked(listener)
	return child, true, nil
}

// popBacklogLocked pops the first occupied (lowest-index) connecting
// handle off listener's backlog and records it as listener's pending child. Must be
// called with the table lock held.
func (t *Table) popBacklogLocked(listener *Slot) (Handle, bool) {
	for i := 0; i < listener.BacklogSize; i++ {
		if listener.Backlog[i] != backlogEmpty {
			child := listener.Backlog[i]
			listener.Backlog[i] = backlogEmpty
			listener.Child = child
			return child, true
		}
	}
	return 0, false
}

// retryPendingConnectsLocked re-attempts one socket suspended on CONNECT
// against listener, now that Accept has just freed a backlog slot (spec
// §4.6's other half of unsuspend: a connector blocked on a full backlog
// unblocks once room opens up). At most one connector is woken per freed
// slot; linear scan, the same style as findListener.
func (t *Table) retryPendingConnectsLocked(listener Handle) {
	for h := 1; h < len(t.slots); h++ {
		cand := &t.slots[h]
		if cand.State != StateInUse || cand.Suspended.Kind != SuspendConnect || cand.Peer != listener {
			continue
		}
		if !t.tryQueueConnectLocked(Handle(h), listener) {
			return
		}
		pending := cand.Suspended
		cand.Suspended = Suspended{}
		t.replier.ReplyControl(pending.Requester, nil)
		return
	}
}

// ClearChild clears listener's record of an in-progress accept (spec
// §4.6), called once the open-and-link that a popped backlog entry
// started has finished, successfully or not.
func (t *Table) ClearChild(listener Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	slot, err := t.CheckOpen(listener)
	if err != nil {
		return err
	}
	slot.Child = backlogEmpty
	return nil
}

// LinkPeer pairs two open sockets as each other's connected peer,
// replacing the connecting socket's listener placeholder (spec §3's
// "exactly one peer" invariant). If the connecting side had a CONNECT
// suspended, it is woken here.
func (t *Table) LinkPeer(a, b Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.linkPeerLocked(a, b)
}

// linkPeerLocked is LinkPeer's body without the lock, for callers (like
// unsuspendLocked completing an ACCEPT) that already hold it.
func (t *Table) linkPeerLocked(a, b Handle) error {
	slotA, err := t.CheckOpen(a)
	if err != nil {
		return err
	}
	slotB, err := t.CheckOpen(b)
	if err != nil {
		return err
	}
	slotA.Peer = b
	slotB.Peer = a
	if slotA.Suspended.Kind == SuspendConnect {
		t.unsuspendLocked(a)
	}
	if slotB.Suspended.Kind == SuspendConnect {
		t.unsuspendLocked(b)
	}
	return nil
}

// SetSuspendConnect and SetSuspendAccept record a pending control-plane
// blocking operation on a socket, for pkg/control to call when Connect or
// Accept cannot complete immediately. SetSuspendAccept also records owner,
// the identity to assign the new socket once the accept completes later.
func (t *Table) SetSuspendConnect(h Handle, req Requester) error {
	return t.setControlSuspend(h, Suspended{Kind: SuspendConnect, Requester: req})
}

func (t *Table) SetSuspendAccept(h Handle, owner int, req Requester) error {
	return t.setControlSuspend(h, Suspended{Kind: SuspendAccept, Requester: req, Owner: owner})
}

func (t *Table) setControlSuspend(h Handle, pending Suspended) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	slot, err := t.CheckOpen(h)
	if err != nil {
		return err
	}
	if slot.Suspended.Kind != SuspendNone {
		t.fatalf("socket %d already has a pending operation of kind %d", h, slot.Suspended.Kind)
	}
	slot.Suspended = pending
	return ErrSuspended
}

// Shutdown clears the given mode bits (spec §6.2's shutdown routine),
// waking whichever side of the peer link is now unblocked by the
// resulting EOF/PIPE_BROKEN transition.
func (t *Table) Shutdown(h Handle, how Mode) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	slot, err := t.CheckOpen(h)
	if err != nil {
		return err
	}
	slot.Mode &^= how

	if slot.Peer == noPeer {
		return nil
	}
	peer := &t.slots[slot.Peer]
	if how&ModeWrite != 0 && peer.Suspended.Kind == SuspendRead {
		t.unsuspendLocked(slot.Peer)
	}
	if how&ModeRead != 0 && peer.Suspended.Kind == SuspendWrite {
		t.unsuspendLocked(slot.Peer)
	}
	if peer.SelOps != 0 {
		t.fireSelect(slot.Peer, peer.SelOps)
	}
	return nil
}

// SetAncillary queues out-of-band data (passed descriptors, credentials)
// to accompany the socket's next receive.
func (t *Table) SetAncillary(h Handle, anc *Ancillary) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	slot, err := t.CheckOpen(h)
	if err != nil {
		return err
	}
	slot.Ancillary = anc
	return nil
}

// TakeAncillary returns and clears whatever ancillary data is queued on
// h, for a transport to attach to the next delivered message.
func (t *Table) TakeAncillary(h Handle) (*Ancillary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	slot, err := t.CheckOpen(h)
	if err != nil {
		return nil, err
	}
	anc := slot.Ancillary
	slot.Ancillary = nil
	return anc, nil
}

// SetTarget records a datagram socket's default send destination (the
// address passed to connect on a DGRAM socket, or to sendto per-call).
// path longer than the table's configured UnixPathMax is rejected.
func (t *Table) SetTarget(h Handle, path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	slot, err := t.CheckOpen(h)
	if err != nil {
		return err
	}
	if len(path) > t.sizing.UnixPathMax {
		return ErrNameTooLong
	}
	slot.Target = Addr{Bound: true, Path: path}
	return nil
}

// Source returns the address a datagram socket last received from.
func (t *Table) Source(h Handle) (Addr, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	slot, err := t.CheckOpen(h)
	if err != nil {
		return Addr{}, err
	}
	return slot.Source, nil
}

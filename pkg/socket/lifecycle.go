package socket

// Open allocates the smallest free handle >= 1, acquires a fresh ring
// buffer, and initializes the slot to its documented defaults (spec
// §4.1). Returns ErrNoSlots if the table is full.
func (t *Table) Open(owner int) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.openLocked(owner)
}

// openLocked is Open's body without the lock, for callers (like
// unsuspendLocked) that already hold it. Must be called with the table
// lock held.
func (t *Table) openLocked(owner int) (Handle, error) {
	for h := 1; h < len(t.slots); h++ {
		if t.slots[h].State == StateFree {
			buf := t.newBuffer()
			t.slots[h].reset(owner, buf, t.sizing.KMax)
			t.metrics.opens++
			t.logger.Debug("socket opened", "handle", h, "owner", owner)
			return Handle(h), nil
		}
	}
	return 0, ErrNoSlots
}

// Close tears the slot down per spec §4.2: unlinks it from whatever
// backlog or peer referenced it, discards ancillary data, releases the
// buffer, and zeroes the slot. Counts down the termination drain if one
// is in progress.
func (t *Table) Close(h Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closeLocked(h)
}

func (t *Table) closeLocked(h Handle) error {
	if !t.valid(h) {
		return ErrBadHandle
	}
	slot := &t.slots[h]
	if slot.State != StateInUse {
		return ErrNotOpen
	}

	switch {
	case slot.Peer != noPeer && t.slots[slot.Peer].Peer == noPeer:
		// Connecting socket queued on a listener.
		listener := &t.slots[slot.Peer]
		if !listener.Listening {
			t.fatalf("socket %d connecting to non-listening peer %d", h, slot.Peer)
		}
		t.removeFromBacklog(listener, h)
	case slot.Peer != noPeer:
		t.resetLocked(slot.Peer)
	case slot.Listening:
		for _, child := range slot.Backlog {
			if child != backlogEmpty {
				t.resetLocked(child)
			}
		}
	}

	slot.Ancillary = nil
	slot.free()
	t.metrics.closes++
	t.logger.Debug("socket closed", "handle", h)

	if t.draining && t.exitLeft > 0 {
		t.exitLeft--
		if t.exitLeft == 0 && t.onDrained != nil {
			t.onDrained()
		}
	}
	return nil
}

func (t *Table) removeFromBacklog(listener *Slot, h Handle) {
	for i, child := range listener.Backlog {
		if child == h {
			listener.Backlog[i] = backlogEmpty
			return
		}
	}
}

// BeginDrain counts every INUSE slot and arranges for onDrained to be
// invoked once the last one closes, immediately if none are open
// (spec §4.7).
func (t *Table) BeginDrain(onDrained func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.draining = true
	t.onDrained = onDrained
	count := 0
	for h := 1; h < len(t.slots); h++ {
		if t.slots[h].State == StateInUse {
			count++
		}
	}
	t.exitLeft = count
	if count == 0 && onDrained != nil {
		onDrained()
	}
}

package socket

// Select implements spec §4.5. It evaluates ops against the socket's
// current state using the pretend path of PerformRead/PerformWrite (so
// select never consumes data or mutates buffers), returning the subset of
// ops that are ready now. If none are ready and notify is set, it
// remembers endpoint/ops so a later state change can wake the caller via
// ReplySelect. fireSelect performs that wake-up.
func (t *Table) Select(h Handle, ops OpMask, endpoint int, notify bool) (OpMask, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot, err := t.CheckOpen(h)
	if err != nil {
		return 0, err
	}

	ready := t.pollLocked(h, slot, ops)
	if ready != 0 || !notify {
		slot.SelOps = 0
		return ready, nil
	}

	slot.SelEndpoint = endpoint
	slot.SelOps = ops
	return 0, nil
}

// pollLocked evaluates which of ops are currently satisfied without
// mutating any socket state, must be called with the table lock held.
func (t *Table) pollLocked(h Handle, slot *Slot, ops OpMask) OpMask {
	var ready OpMask

	if ops&OpRead != 0 {
		if slot.Listening {
			if t.backlogHasConnection(slot) {
				ready |= OpRead
			}
		} else if _, rerr := t.PerformRead(h, make([]byte, 1), true); rerr != ErrWouldBlock {
			// Any outcome other than WOULD_BLOCK_MARKER is read-ready,
			// including a positive count, end-of-stream (0, nil), and
			// errors that will surface on the real read (spec §4.5).
			ready |= OpRead
		}
	}

	if ops&OpWrite != 0 {
		if _, werr := t.PerformWrite(h, []byte{0}, true); werr != ErrWouldBlock {
			ready |= OpWrite
		}
	}

	if ops&OpErr != 0 && slot.Err != ErrOK {
		ready |= OpErr
	}

	return ready
}

func (t *Table) backlogHasConnection(slot *Slot) bool {
	for _, child := range slot.Backlog {
		if child != backlogEmpty {
			return true
		}
	}
	return false
}

// fireSelect wakes a socket registered for notify on the given op, if
// that op is among the ones it asked for. Delivers via the attached
// Replier and clears the pending registration (edge-triggered, per spec
// §4.5).
func (t *Table) fireSelect(h Handle, op OpMask) {
	slot := &t.slots[h]
	if slot.SelOps&op == 0 {
		return
	}
	endpoint := slot.SelEndpoint
	slot.SelOps = 0
	t.replier.ReplySelect(endpoint, op)
}

package pool

// Reallocate grows or shrinks a head-end block. old must have been
// produced by a previous head-end Allocate or Reallocate on this pool;
// that is a caller-side contract the arena does not verify beyond the
// cheap offset check that identifies the fast path.
//
// If old is the most recently allocated head-end block, it is grown or
// shrunk in place (§4.3 fast path). Otherwise a new head-end block is
// allocated, old's bytes are copied over, and old's space is left
// leaked until the next Reset or Destroy — reallocating anything but the
// most recent block is expected to be rare.
func (p *Pool) Reallocate(old Block, newSize uint32) (Block, error) {
	if p.destroyed {
		return Block{}, ErrDestroyed
	}

	// Guards against pathological inputs: reject any newSize that would
	// leave no margin against overflow once rounded.
	if newSize > ^uint32(0)-2*Align {
		return Block{}, ErrOverflow
	}

	oldSize := old.Size
	if p.head == round(old.Offset+oldSize) {
		newHead := round(old.Offset + newSize)
		if newHead > p.tail {
			return Block{}, ErrOutOfCapacity
		}
		if oldSize > newSize {
			clear(p.buffer[old.Offset+newSize : old.Offset+oldSize])
		}
		p.head = newHead
		return Block{Offset: old.Offset, Size: newSize}, nil
	}

	next, err := p.Allocate(newSize, false)
	if err != nil {
		return Block{}, err
	}

	n := oldSize
	if avail := round(newSize); avail < n {
		n = avail
	}
	copy(p.buffer[next.Offset:next.Offset+n], p.buffer[old.Offset:old.Offset+n])
	clear(p.buffer[old.Offset : old.Offset+oldSize])

	return next, nil
}

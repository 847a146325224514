package tlsf

import "unsafe"

// VisitAllRegions calls handleBlock for every block of every pool, in slot order and then in
// address order, skipping the sentinels. ptr is the block's payload and size its usable size.
// Iteration stops at the first error, which is returned.
//
// handleBlock must not allocate from or free to the control.
func (c *Control) VisitAllRegions(handleBlock func(slot int, ptr unsafe.Pointer, size int, free bool) error) error {
	for _, p := range c.pools {
		if p == nil {
			continue
		}

		for b := (block{pool: p, off: 0}); !b.isLast(); b = b.next() {
			err := handleBlock(p.slot, b.payload(), b.size(), b.isFree())
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// PoolOffset returns the slot of the pool containing ptr and ptr's offset from the start of
// that pool. ptr must be a live allocation of this control, or a payload pointer reported by
// VisitAllRegions.
func (c *Control) PoolOffset(ptr unsafe.Pointer) (slot int, offset int) {
	b := c.blockFromPayload(ptr)
	return b.pool.slot, b.off + headerSize
}

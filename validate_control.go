package tlsf

import (
	"github.com/dolthub/swiss"
	"github.com/pkg/errors"
)

// Validate walks every pool and every free list and returns an error describing the first
// inconsistency found. It is expensive and meant for tests and debugging.
func (c *Control) Validate() error {
	if c.SumFreeSize() > c.Size() {
		return errors.New("invalid control free size")
	}

	freeBlocks := swiss.NewMap[blockRef, struct{}](uint32(c.blocksFreeCount + 1))

	var calculatedSize, calculatedFreeSize, calculatedAllocSize int
	var allocCount, freeCount, poolCount int

	for slot, p := range c.pools {
		if p == nil {
			continue
		}
		if slot == 0 {
			return errors.New("slot 0 must never hold a pool")
		}
		if p.slot != slot {
			return errors.Errorf("pool in slot %d believes it is in slot %d", slot, p.slot)
		}
		if c.poolsByBase == nil {
			return errors.Errorf("pool %d is registered but the base index is empty", slot)
		}
		if indexed, ok := c.poolsByBase.Get(uintptr(p.base)); !ok || indexed != p {
			return errors.Errorf("pool %d is missing from the base index", slot)
		}

		poolCount++
		calculatedSize += p.length

		prevFree := false
		prevOff := 0
		b := block{pool: p, off: 0}
		for ; !b.isLast(); b = b.next() {
			if b.off+headerSize+b.size() > p.length-headerSize {
				return errors.Errorf("block at offset %d of pool %d runs past the pool sentinel", b.off, slot)
			}
			if b.headerSlot() != slot {
				return errors.Errorf("block at offset %d of pool %d is stamped with slot %d", b.off, slot, b.headerSlot())
			}
			if b.size() < BlockSizeMin {
				return errors.Errorf("block at offset %d of pool %d has size %d, below the minimum of %d", b.off, slot, b.size(), BlockSizeMin)
			}
			if b.isPrevFree() != prevFree {
				return errors.Errorf("block at offset %d of pool %d disagrees with its predecessor about whether it is free", b.off, slot)
			}
			if prevFree && b.prev().off != prevOff {
				return errors.Errorf("block at offset %d of pool %d has a boundary tag pointing at %d rather than %d", b.off, slot, b.prev().off, prevOff)
			}

			if b.isFree() {
				if prevFree {
					return errors.Errorf("block at offset %d of pool %d and its predecessor are both free", b.off, slot)
				}

				freeCount++
				calculatedFreeSize += b.size()
				freeBlocks.Put(b.ref(), struct{}{})
			} else {
				allocCount++
				calculatedAllocSize += b.size()
			}

			prevFree = b.isFree()
			prevOff = b.off
		}

		if b.off != p.length-headerSize {
			return errors.Errorf("the sentinel of pool %d is at offset %d, but it should be at %d", slot, b.off, p.length-headerSize)
		}
		if b.isFree() {
			return errors.Errorf("the sentinel of pool %d is marked free", slot)
		}
		if b.isPrevFree() != prevFree {
			return errors.Errorf("the sentinel of pool %d disagrees with its predecessor about whether it is free", slot)
		}
	}

	nilSlots := 0
	for slot := 1; slot < len(c.pools); slot++ {
		if c.pools[slot] == nil {
			nilSlots++
		}
	}
	if nilSlots != len(c.freeSlots) {
		return errors.Errorf("%d pool slots are empty, but %d are listed as free", nilSlots, len(c.freeSlots))
	}
	for _, slot := range c.freeSlots {
		if slot <= 0 || slot >= len(c.pools) || c.pools[slot] != nil {
			return errors.Errorf("slot %d is listed as free, but it is not an empty slot", slot)
		}
	}

	var freeListCount int
	for fl := 0; fl < flCount; fl++ {
		flBit := c.flBitmap&(1<<fl) != 0
		if flBit != (c.slBitmap[fl] != 0) {
			return errors.Errorf("first level %d bitmap bit does not match its second level bitmap %#x", fl, c.slBitmap[fl])
		}

		for sl := 0; sl < slCount; sl++ {
			slBit := c.slBitmap[fl]&(1<<sl) != 0
			head := c.blocks[fl][sl]
			if slBit != (head != nullRef) {
				return errors.Errorf("class (%d, %d) bitmap bit does not match its free list", fl, sl)
			}

			prev := nullRef
			for ref := head; ref != nullRef; {
				if ref.slot() >= len(c.pools) || c.pools[ref.slot()] == nil {
					return errors.Errorf("class (%d, %d) lists a block in unknown pool %d", fl, sl, ref.slot())
				}
				if !freeBlocks.Has(ref) {
					return errors.Errorf("class (%d, %d) lists the block at offset %d of pool %d, which is not a free block", fl, sl, ref.offset(), ref.slot())
				}
				freeBlocks.Delete(ref)

				b := c.blockAt(ref)
				if blockFl, blockSl := mapping(b.size()); blockFl != fl || blockSl != sl {
					return errors.Errorf("block at offset %d of pool %d has size %d and belongs in class (%d, %d), but it is listed in class (%d, %d)", b.off, ref.slot(), b.size(), blockFl, blockSl, fl, sl)
				}
				if b.prevFree() != prev {
					return errors.Errorf("block at offset %d of pool %d has a broken previous free link", b.off, ref.slot())
				}

				freeListCount++
				prev = ref
				ref = b.nextFree()
			}
		}
	}

	if freeListCount != freeCount {
		return errors.Errorf("the number of free blocks in the pools and the number of blocks in the free lists do not match! free list size: %d, pool free blocks: %d", freeListCount, freeCount)
	}

	if poolCount != c.poolCount {
		return errors.Errorf("the pool count of the control is %d, but %d pools were found", c.poolCount, poolCount)
	}

	if c.poolsByBase != nil && c.poolsByBase.Count() != poolCount {
		return errors.Errorf("the base index holds %d pools, but %d pools were found", c.poolsByBase.Count(), poolCount)
	}

	if calculatedSize != c.size {
		return errors.Errorf("the full size of the control is %d, but the pools only added up to %d", c.size, calculatedSize)
	}

	if calculatedFreeSize != c.SumFreeSize() {
		return errors.Errorf("the free size of the control is %d, but the free blocks only added up to %d", c.SumFreeSize(), calculatedFreeSize)
	}

	if calculatedAllocSize != c.allocSize {
		return errors.Errorf("the allocation size of the control is %d, but the taken blocks only added up to %d", c.allocSize, calculatedAllocSize)
	}

	if allocCount != c.allocCount {
		return errors.Errorf("the allocation count of the control is %d, but the taken blocks only added up to %d", c.allocCount, allocCount)
	}

	if freeCount != c.blocksFreeCount {
		return errors.Errorf("the free block count of the control is %d, but there were only %d free blocks", c.blocksFreeCount, freeCount)
	}

	return nil
}

// Check panics if Validate fails, in builds with the debug_tlsf tag. Otherwise it does nothing.
func (c *Control) Check() {
	DebugValidate(c)
}

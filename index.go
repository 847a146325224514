package tlsf

import (
	"fmt"
	"math"
	"math/bits"
)

// findSuitable returns the head of the smallest non-empty class at or above (fl, sl), along
// with that class, or a null block if every such class is empty
func (c *Control) findSuitable(fl, sl int) (block, int, int) {
	slMap := c.slBitmap[fl] & (math.MaxUint32 << sl)
	if slMap == 0 {
		// Check higher levels for available blocks
		flMap := c.flBitmap & (math.MaxUint32 << (fl + 1))
		if flMap == 0 {
			return block{}, 0, 0
		}

		fl = bits.TrailingZeros32(flMap)
		slMap = c.slBitmap[fl]
		if slMap == 0 {
			panic("free bitmap is in an invalid state")
		}
	}

	sl = bits.TrailingZeros32(slMap)
	head := c.blocks[fl][sl]
	if head == nullRef {
		panic(fmt.Sprintf("class (%d, %d) was listed as having free blocks, but no blocks were in the free list", fl, sl))
	}

	return c.blockAt(head), fl, sl
}

func (c *Control) insertFree(b block) {
	fl, sl := mapping(b.size())
	ref := b.ref()
	head := c.blocks[fl][sl]

	b.setNextFree(head)
	b.setPrevFreeLink(nullRef)
	if head != nullRef {
		c.blockAt(head).setPrevFreeLink(ref)
	}
	c.blocks[fl][sl] = ref

	c.flBitmap |= 1 << fl
	c.slBitmap[fl] |= 1 << sl

	c.blocksFreeCount++
	c.blocksFreeSize += b.size()
}

func (c *Control) removeFree(b block) {
	fl, sl := mapping(b.size())
	c.removeFreeFrom(b, fl, sl)
}

func (c *Control) removeFreeFrom(b block, fl, sl int) {
	debugAssert(b.isFree(), "block at offset %d is in the free list but is not free", b.off)

	prev := b.prevFree()
	next := b.nextFree()
	if next != nullRef {
		c.blockAt(next).setPrevFreeLink(prev)
	}
	if prev != nullRef {
		c.blockAt(prev).setNextFree(next)
	}

	if c.blocks[fl][sl] == b.ref() {
		c.blocks[fl][sl] = next
		if next == nullRef {
			c.slBitmap[fl] &^= 1 << sl
			if c.slBitmap[fl] == 0 {
				c.flBitmap &^= 1 << fl
			}
		}
	}

	c.blocksFreeCount--
	c.blocksFreeSize -= b.size()
}

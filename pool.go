package tlsf

import (
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"golang.org/x/exp/slog"
)

// AddPool registers mem as a new pool. The whole region, rounded down to AlignSize, becomes a
// single free block followed by a zero-size sentinel. mem must stay untouched by the caller
// until the pool is removed or the control is destroyed.
//
// The control keeps mem alive, but the garbage collector does not scan pool memory obtained
// from region.Alloc or mmap: Go pointers stored in allocations from such pools do not keep
// their targets alive.
//
// On error, nothing is written to mem and the control is unchanged.
func (c *Control) AddPool(mem []byte) error {
	debugCheckReentry(c)

	_, err := c.addPool(mem)
	return err
}

func (c *Control) addPool(mem []byte) (*pool, error) {
	base := unsafe.Pointer(unsafe.SliceData(mem))
	length := AlignDown(len(mem), AlignSize)

	if length < PoolOverhead+BlockSizeMin {
		return nil, cerrors.Wrapf(ErrPoolTooSmall, "pool of %d bytes is smaller than the minimum of %d", len(mem), PoolOverhead+BlockSizeMin)
	}
	if uintptr(base)%AlignSize != 0 {
		return nil, cerrors.Wrapf(ErrPoolMisaligned, "pool address %#x is not aligned to %d", uintptr(base), AlignSize)
	}
	usable := length - PoolOverhead
	if usable > maxPoolBlockSz {
		return nil, cerrors.Wrapf(ErrPoolTooLarge, "pool of %d bytes exceeds the maximum of %d", len(mem), maxPoolBlockSz+PoolOverhead)
	}
	if c.poolsByBase != nil && c.poolsByBase.Has(uintptr(base)) {
		return nil, cerrors.Wrapf(ErrPoolExists, "pool address %#x", uintptr(base))
	}

	slot := c.allocateSlot()
	if slot > maxPoolSlot {
		return nil, cerrors.Newf("cannot register more than %d pools", maxPoolSlot)
	}

	p := &pool{
		slot:   slot,
		base:   base,
		mem:    mem,
		length: length,
	}
	c.registerPool(p)

	b := block{pool: p, off: 0}
	b.setHeader(uint64(slot)<<slotShift | uint64(usable))
	sentinel := b.linkNext()
	sentinel.setHeader(uint64(slot) << slotShift)
	b.setFree(true)
	c.insertFree(b)

	c.size += length

	c.log(slog.LevelDebug, "Control::AddPool",
		slog.Int("slot", slot),
		slog.Int("size", length),
		slog.Int("usable", usable),
	)
	return p, nil
}

// RemovePool unregisters a pool previously passed to AddPool or returned by the resizer.
// The pool must not contain any live allocations.
func (c *Control) RemovePool(mem []byte) error {
	debugCheckReentry(c)

	base := uintptr(unsafe.Pointer(unsafe.SliceData(mem)))
	if c.poolsByBase == nil {
		return cerrors.Wrapf(ErrUnknownPool, "pool address %#x", base)
	}
	p, ok := c.poolsByBase.Get(base)
	if !ok {
		return cerrors.Wrapf(ErrUnknownPool, "pool address %#x", base)
	}

	b := block{pool: p, off: 0}
	if !b.isFree() || b.size() != p.length-PoolOverhead {
		return cerrors.Wrapf(ErrPoolInUse, "pool %d", p.slot)
	}

	c.removeFree(b)
	c.unregisterPool(p)
	c.size -= p.length

	c.log(slog.LevelDebug, "Control::RemovePool",
		slog.Int("slot", p.slot),
		slog.Int("size", p.length),
	)
	return nil
}

// extendPool grows an existing pool in place over a longer view of the same memory. The old
// sentinel becomes the header of a new free block, which is merged with a free predecessor.
func (c *Control) extendPool(p *pool, mem []byte) bool {
	length := AlignDown(len(mem), AlignSize)
	added := length - p.length
	if added < headerSize+BlockSizeMin || length-PoolOverhead > maxPoolBlockSz {
		return false
	}

	b := block{pool: p, off: p.length - headerSize}
	if !b.isLast() || b.isFree() {
		panic("pool sentinel is in an invalid state")
	}

	p.mem = mem
	p.length = length
	c.size += added

	b.setHeader(b.header() | uint64(added-headerSize))
	sentinel := b.linkNext()
	sentinel.setHeader(uint64(p.slot) << slotShift)
	b.setFree(true)
	b = c.mergePrev(b)
	c.insertFree(b)

	c.log(slog.LevelDebug, "Control::extendPool",
		slog.Int("slot", p.slot),
		slog.Int("size", length),
		slog.Int("added", added),
	)
	return true
}

// allocateSlot returns the most recently released slot, or the next unused one. The slot is
// only taken once registerPool is called with it.
func (c *Control) allocateSlot() int {
	if len(c.pools) == 0 {
		c.pools = append(c.pools, nil)
	}

	if len(c.freeSlots) > 0 {
		return c.freeSlots[len(c.freeSlots)-1]
	}

	return len(c.pools)
}

func (c *Control) registerPool(p *pool) {
	if p.slot == len(c.pools) {
		c.pools = append(c.pools, p)
	} else {
		c.pools[p.slot] = p
		c.freeSlots = c.freeSlots[:len(c.freeSlots)-1]
	}

	if c.poolsByBase == nil {
		c.poolsByBase = swiss.NewMap[uintptr, *pool](8)
	}
	c.poolsByBase.Put(uintptr(p.base), p)
	c.poolCount++
}

func (c *Control) unregisterPool(p *pool) {
	c.pools[p.slot] = nil
	c.freeSlots = append(c.freeSlots, p.slot)
	c.poolsByBase.Delete(uintptr(p.base))
	c.poolCount--
}

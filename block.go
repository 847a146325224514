package tlsf

import "unsafe"

// Block layout inside pool memory. A block is addressed by the offset of its header word.
//
//	off-8  boundary tag: header offset of the previous physical block. It occupies the last
//	       8 bytes of the previous block's payload and is only meaningful while that block is free.
//	off+0  header: size | flags | pool slot
//	off+8  payload. While the block is free, the first 16 bytes hold the free-list links.
const (
	headerSize = 8
	tagSize    = 8
	linkSize   = 8

	// BlockSizeMin is the smallest payload a block can have: room for both free-list links
	// and the boundary tag of the following block
	BlockSizeMin = 2*linkSize + tagSize

	// PoolOverhead is the number of bytes of every pool that can never be handed out: the
	// header of its first block and its trailing sentinel
	PoolOverhead = 2 * headerSize

	blockBitFree     uint64 = 1 << 0
	blockBitPrevFree uint64 = 1 << 1
	blockBits               = blockBitFree | blockBitPrevFree

	slotShift             = 40
	sizeMask       uint64 = (1<<slotShift - 1) &^ (AlignSize - 1)
	offsetMask     uint64 = 1<<slotShift - 1
	maxPoolSlot           = 1<<(64-slotShift) - 1
	maxPoolBlockSz        = 1<<flMax - AlignSize
)

var _ [headerSize - unsafe.Sizeof(uint64(0))]struct{}
var _ [unsafe.Sizeof(uint64(0)) - headerSize]struct{}
var _ [headerSize % AlignSize]struct{}
var _ [BlockSizeMin % AlignSize]struct{}

// blockRef names a block independently of Go pointers: the owning pool's slot in the upper
// bits and the header offset in the lower bits. The zero value is the null reference since
// slot 0 is never assigned.
type blockRef uint64

const nullRef blockRef = 0

func makeRef(slot int, off int) blockRef {
	return blockRef(uint64(slot)<<slotShift | uint64(off))
}

func (r blockRef) slot() int   { return int(uint64(r) >> slotShift) }
func (r blockRef) offset() int { return int(uint64(r) & offsetMask) }

// block is a view over one block header in pool memory. Every read or write of pool bytes
// made by the engine goes through these accessors.
type block struct {
	pool *pool
	off  int
}

func (b block) isNull() bool { return b.pool == nil }

func (b block) ref() blockRef {
	return makeRef(b.pool.slot, b.off)
}

func (b block) word(off int) *uint64 {
	return (*uint64)(unsafe.Add(b.pool.base, off))
}

func (b block) header() uint64          { return *b.word(b.off) }
func (b block) setHeader(header uint64) { *b.word(b.off) = header }

func (b block) size() int {
	return int(b.header() & sizeMask)
}

func (b block) setSize(size int) {
	b.setHeader(b.header()&^sizeMask | uint64(size))
}

func (b block) isFree() bool     { return b.header()&blockBitFree != 0 }
func (b block) isPrevFree() bool { return b.header()&blockBitPrevFree != 0 }
func (b block) isLast() bool     { return b.size() == 0 }

func (b block) setFreeBit(free bool) {
	if free {
		b.setHeader(b.header() | blockBitFree)
	} else {
		b.setHeader(b.header() &^ blockBitFree)
	}
}

func (b block) setPrevFree(free bool) {
	if free {
		b.setHeader(b.header() | blockBitPrevFree)
	} else {
		b.setHeader(b.header() &^ blockBitPrevFree)
	}
}

func (b block) headerSlot() int {
	return int(b.header() >> slotShift)
}

func (b block) payload() unsafe.Pointer {
	return unsafe.Add(b.pool.base, b.off+headerSize)
}

// next returns the physically following block. The caller must know b is not the sentinel.
func (b block) next() block {
	return block{pool: b.pool, off: b.off + headerSize + b.size()}
}

// prev follows the boundary tag. Only valid when isPrevFree is set.
func (b block) prev() block {
	return block{pool: b.pool, off: int(*b.word(b.off - tagSize))}
}

// linkNext writes b's offset into the boundary tag of the following block and returns it
func (b block) linkNext() block {
	next := b.next()
	*next.word(next.off - tagSize) = uint64(b.off)
	return next
}

// setFree flips the free flag and mirrors it into the following block
func (b block) setFree(free bool) {
	debugAssert(b.isFree() != free, "block at offset %d free bit unchanged", b.off)
	b.setFreeBit(free)
	b.linkNext().setPrevFree(free)
}

func (b block) nextFree() blockRef {
	return blockRef(*b.word(b.off + headerSize))
}

func (b block) setNextFree(ref blockRef) {
	*b.word(b.off + headerSize) = uint64(ref)
}

func (b block) prevFree() blockRef {
	return blockRef(*b.word(b.off + headerSize + linkSize))
}

func (b block) setPrevFreeLink(ref blockRef) {
	*b.word(b.off + headerSize + linkSize) = uint64(ref)
}

// canSplit reports whether a tail with its own header and a minimum payload fits behind size bytes
func (b block) canSplit(size int) bool {
	return b.size() >= size+headerSize+BlockSizeMin
}

package tlsf

import "unsafe"

// findFree locates a free block of at least size bytes, growing the control once if needed,
// and removes it from the free lists
func (c *Control) findFree(size int) block {
	rounded, fl, sl := mappingSearch(size)
	if fl >= flCount {
		return block{}
	}

	b, foundFl, foundSl := c.findSuitable(fl, sl)
	if b.isNull() {
		if !c.grow(rounded) {
			return block{}
		}

		b, foundFl, foundSl = c.findSuitable(fl, sl)
		if b.isNull() {
			return block{}
		}
	}

	c.removeFreeFrom(b, foundFl, foundSl)
	return b
}

// Malloc allocates at least size bytes and returns a pointer to them, aligned to AlignSize.
// It returns nil if size is negative, larger than MaxAllocationSize, or if no pool (including
// any the resizer adds) has a large enough free block.
//
// The returned memory belongs to a pool, not to the Go heap. Whether the garbage collector
// sees Go pointers written into it depends on how the pool's memory was obtained; see AddPool.
func (c *Control) Malloc(size int) unsafe.Pointer {
	debugCheckReentry(c)

	if size < 0 || size > MaxAllocationSize {
		return nil
	}
	size = adjustSize(size, AlignSize)

	b := c.findFree(size)
	if b.isNull() {
		return nil
	}

	return c.use(b, size).payload()
}

// AlignedAlloc allocates at least size bytes starting at an address that is a multiple of
// alignment. alignment must be a power of two; nil is returned otherwise.
//
// The bytes skipped to reach the alignment are returned to the free lists as a block of their
// own rather than being wasted.
func (c *Control) AlignedAlloc(size int, alignment uint) unsafe.Pointer {
	debugCheckReentry(c)

	if size < 0 || CheckPow2(alignment, "alignment") != nil {
		return nil
	}
	if alignment <= AlignSize {
		return c.Malloc(size)
	}
	if size > MaxAllocationSize-int(alignment)-(headerSize+BlockSizeMin) {
		return nil
	}

	adjusted := adjustSize(size, AlignSize)
	// Leave room for a whole free block in front of the aligned payload, whatever the
	// alignment of the block that is found
	searchSize := adjustSize(adjusted+int(alignment)-1+headerSize+BlockSizeMin, alignment)

	b := c.findFree(searchSize)
	if b.isNull() {
		return nil
	}

	gap := alignPtrOffset(unsafe.Add(b.payload(), headerSize+BlockSizeMin), alignment) + headerSize + BlockSizeMin
	b = c.ltrimFree(b, gap)

	return c.use(b, adjusted).payload()
}

// Free returns an allocation made by this control to its free lists, merging it with free
// physical neighbours. Freeing nil is a no-op. Freeing anything else not returned by this
// control, or freeing twice, is undefined.
func (c *Control) Free(ptr unsafe.Pointer) {
	debugCheckReentry(c)

	if ptr == nil {
		return
	}

	b := c.blockFromPayload(ptr)
	debugAssert(!b.isFree(), "block at offset %d is already free", b.off)

	c.allocCount--
	c.allocSize -= b.size()
	b.setFree(true)
	b = c.mergePrev(b)
	b = c.mergeNext(b)
	c.insertFree(b)
}

// Realloc resizes an allocation, moving it only if it cannot grow in place.
//
// A nil ptr behaves like Malloc. A size of 0 frees ptr and returns nil. When the allocation
// must move and no memory is available, nil is returned and ptr is left untouched.
func (c *Control) Realloc(ptr unsafe.Pointer, size int) unsafe.Pointer {
	debugCheckReentry(c)

	if ptr != nil && size == 0 {
		c.Free(ptr)
		return nil
	}
	if ptr == nil {
		return c.Malloc(size)
	}
	if size < 0 || size > MaxAllocationSize {
		return nil
	}

	b := c.blockFromPayload(ptr)
	debugAssert(!b.isFree(), "block at offset %d is already free", b.off)

	avail := b.size()
	size = adjustSize(size, AlignSize)

	if size > avail {
		next := b.next()
		if !next.isFree() || size > avail+next.size()+headerSize {
			dst := c.Malloc(size)
			if dst != nil {
				copy(unsafe.Slice((*byte)(dst), avail), unsafe.Slice((*byte)(ptr), avail))
				c.Free(ptr)
			}
			return dst
		}

		c.mergeNext(b)
		b.next().setPrevFree(false)
	}

	c.rtrimUsed(b, size)
	c.allocSize += b.size() - avail
	return ptr
}

// UsableSize returns the number of bytes that can be used at ptr, which may be more than was
// requested. It returns 0 for nil.
func (c *Control) UsableSize(ptr unsafe.Pointer) int {
	if ptr == nil {
		return 0
	}

	return c.blockFromPayload(ptr).size()
}

// AllocBytes is Malloc returning a byte slice of length size. The slice's capacity is the
// allocation's usable size.
func (c *Control) AllocBytes(size int) []byte {
	return c.bytes(c.Malloc(size), size)
}

// AlignedAllocBytes is AlignedAlloc returning a byte slice of length size
func (c *Control) AlignedAllocBytes(size int, alignment uint) []byte {
	return c.bytes(c.AlignedAlloc(size, alignment), size)
}

// ReallocBytes is Realloc over byte slices. The returned slice has length size, and buf must
// not be used again unless the result is nil and size is not 0.
func (c *Control) ReallocBytes(buf []byte, size int) []byte {
	return c.bytes(c.Realloc(c.bytesPointer(buf), size), size)
}

// FreeBytes is Free for a slice returned by one of the byte-slice allocation methods
func (c *Control) FreeBytes(buf []byte) {
	c.Free(c.bytesPointer(buf))
}

// bytes views an allocation as a slice whose capacity is the usable size, so that even a
// zero-length slice still carries the allocation's address
func (c *Control) bytes(ptr unsafe.Pointer, size int) []byte {
	if ptr == nil {
		return nil
	}

	return unsafe.Slice((*byte)(ptr), c.UsableSize(ptr))[:size]
}

func (c *Control) bytesPointer(buf []byte) unsafe.Pointer {
	if buf == nil {
		return nil
	}

	return unsafe.Pointer(unsafe.SliceData(buf))
}

package tlsf

// split cuts b down to size bytes and returns the free block made from the rest. The rest is
// marked free, which also flags its follower, but it is not yet in any free list.
func (c *Control) split(b block, size int) block {
	restSize := b.size() - (size + headerSize)
	debugAssert(restSize >= BlockSizeMin, "block at offset %d split with invalid size %d", b.off, restSize)

	rest := block{pool: b.pool, off: b.off + headerSize + size}
	rest.setHeader(uint64(b.pool.slot)<<slotShift | uint64(restSize))
	rest.setFree(true)
	b.setSize(size)

	return rest
}

// absorb grows prev over b, its physical successor
func (c *Control) absorb(prev block, b block) block {
	debugAssert(!prev.isLast(), "cannot absorb into a sentinel")
	prev.setHeader(prev.header() + uint64(b.size()+headerSize))
	prev.linkNext()
	return prev
}

func (c *Control) mergePrev(b block) block {
	if b.isPrevFree() {
		prev := b.prev()
		c.removeFree(prev)
		b = c.absorb(prev, b)
	}

	return b
}

func (c *Control) mergeNext(b block) block {
	next := b.next()
	if next.isFree() {
		c.removeFree(next)
		b = c.absorb(b, next)
	}

	return b
}

// rtrimFree returns the tail of a free block beyond size to the free lists
func (c *Control) rtrimFree(b block, size int) {
	if !b.canSplit(size) {
		return
	}

	rest := c.split(b, size)
	b.linkNext()
	rest.setPrevFree(true)
	c.insertFree(rest)
}

// rtrimUsed returns the tail of a used block beyond size to the free lists, merging it with
// a free follower
func (c *Control) rtrimUsed(b block, size int) {
	if !b.canSplit(size) {
		return
	}

	rest := c.split(b, size)
	rest.setPrevFree(false)
	rest = c.mergeNext(rest)
	c.insertFree(rest)
}

// ltrimFree keeps the first gap bytes of a free block (header included) as a free block in
// the free lists and returns the free block that starts right after them
func (c *Control) ltrimFree(b block, gap int) block {
	rest := c.split(b, gap-headerSize)
	rest.setPrevFree(true)
	b.linkNext()
	c.insertFree(b)
	return rest
}

// use marks a free block that is no longer in any free list as allocated, trimming it to size
func (c *Control) use(b block, size int) block {
	c.rtrimFree(b, size)
	b.setFree(false)
	c.allocCount++
	c.allocSize += b.size()
	return b
}

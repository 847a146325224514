package tlsf

import "math/bits"

const (
	alignShift = 3
	// AlignSize is the alignment of every payload pointer and of every block size
	AlignSize = 1 << alignShift

	slShift = 4
	slCount = 1 << slShift

	flShift = slShift + alignShift
	// flMax is the exponent of the first size that can no longer be mapped. It is the only
	// place where the pointer width changes the engine's geometry.
	flMax   = 30 + 8*(bits.UintSize/64)
	flCount = flMax - flShift + 1

	blockSizeSmall = 1 << flShift
	blockSizeMax   = 1 << (flMax - 1)

	// MaxAllocationSize is the largest request Malloc will attempt to satisfy
	MaxAllocationSize = blockSizeMax - AlignSize
)

// The bitmaps are single words, so the class counts must fit in them
var _ [32 - flCount]struct{}
var _ [32 - slCount]struct{}

// mapping returns the class a block of the given size is filed under
func mapping(size int) (fl, sl int) {
	if size < blockSizeSmall {
		return 0, size / (blockSizeSmall / slCount)
	}

	t := log2floor(size)
	sl = (size >> (t - slShift)) ^ slCount
	fl = t - flShift + 1
	return fl, sl
}

// roundBlockSize rounds a request up to the first size of the next class, so that any
// block found in the class mapping returns is large enough
func roundBlockSize(size int) int {
	if size < blockSizeSmall {
		return size
	}

	t := (1 << (log2floor(size) - slShift)) - 1
	return (size + t) &^ t
}

// mappingSearch is the mapping used when looking for a block rather than filing one
func mappingSearch(size int) (rounded, fl, sl int) {
	rounded = roundBlockSize(size)
	fl, sl = mapping(rounded)
	return rounded, fl, sl
}

// adjustSize aligns a request and raises it to the smallest block that can be freed again
func adjustSize(size int, alignment uint) int {
	size = AlignUp(size, alignment)
	if size < BlockSizeMin {
		return BlockSizeMin
	}
	return size
}

func log2floor(size int) int {
	return bits.Len(uint(size)) - 1
}

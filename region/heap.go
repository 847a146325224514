package region

import (
	"unsafe"

	"github.com/vkngwrapper/tlsf"
	"golang.org/x/exp/slog"
)

const pageSize = 4096

// Alloc returns size bytes of zeroed Go memory aligned to tlsf.AlignSize, suitable for
// tlsf.Control.AddPool. The memory is kept alive by the slice but is never scanned by the
// garbage collector, so Go pointers stored in it do not keep their targets alive.
func Alloc(size int) []byte {
	if size <= 0 {
		return nil
	}

	words := make([]uint64, tlsf.AlignUp(size, tlsf.AlignSize)/tlsf.AlignSize)
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(words))), size)
}

// Heap is a tlsf.Resizer that answers every request with a new region of Go memory. Each
// region becomes a new pool of the control.
type Heap struct {
	logger    *slog.Logger
	chunkSize int
	regions   int
	bytes     int
}

var _ tlsf.Resizer = &Heap{}

// NewHeap creates a Heap that hands out regions of at least chunkSize bytes
//
// logger - receives a debug record for each region handed out. It may be nil.
func NewHeap(logger *slog.Logger, chunkSize int) *Heap {
	return &Heap{
		logger:    logger,
		chunkSize: chunkSize,
	}
}

func (h *Heap) Resize(control *tlsf.Control, minBytes int) []byte {
	size := minBytes
	if size < h.chunkSize {
		size = h.chunkSize
	}
	size = tlsf.AlignUp(size, pageSize)

	mem := Alloc(size)
	h.regions++
	h.bytes += size

	if h.logger != nil {
		h.logger.Debug("Heap::Resize",
			slog.Int("minBytes", minBytes),
			slog.Int("size", size),
			slog.Int("regions", h.regions),
		)
	}
	return mem
}

// Regions returns the number of regions handed out so far
func (h *Heap) Regions() int {
	return h.regions
}

// Bytes returns the total size of the regions handed out so far
func (h *Heap) Bytes() int {
	return h.bytes
}

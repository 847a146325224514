package tlsf

import (
	"unsafe"

	"golang.org/x/exp/slog"
)

//go:generate mockgen -source resizer.go -destination ./mocks/resizer.go -package mocks

// Resizer supplies memory to a control whose pools cannot satisfy a request.
//
// Resize is called with minBytes, a region length that is guaranteed to satisfy the pending
// request whether it is registered as a new pool or used to extend an existing one. It returns
// one of:
//
//   - a region with a new base address, which is registered as a new pool
//   - a longer view of a region previously returned (same base address), which extends that
//     pool in place
//   - nil, to decline
//
// Resize must not call any method of the control that invoked it. Debug builds panic with
// ErrReentrantCall when it does.
type Resizer interface {
	Resize(control *Control, minBytes int) []byte
}

// ResizeFunc adapts a plain function to the Resizer interface
type ResizeFunc func(control *Control, minBytes int) []byte

func (f ResizeFunc) Resize(control *Control, minBytes int) []byte {
	return f(control, minBytes)
}

// grow asks the resizer for room for a block of size bytes. It returns true if memory was
// added to the control.
func (c *Control) grow(size int) bool {
	if c.resizer == nil || c.flags&CreateNoGrowth != 0 {
		return false
	}

	minBytes := size + PoolOverhead
	c.resizing = true
	mem := c.resizer.Resize(c, minBytes)
	c.resizing = false

	if len(mem) == 0 {
		c.log(slog.LevelDebug, "Control::grow resizer declined", slog.Int("minBytes", minBytes))
		return false
	}

	if c.poolsByBase != nil {
		p, ok := c.poolsByBase.Get(uintptr(unsafe.Pointer(unsafe.SliceData(mem))))
		if ok {
			if !c.extendPool(p, mem) {
				c.log(slog.LevelDebug, "Control::grow resizer returned an unusable extension",
					slog.Int("slot", p.slot),
					slog.Int("size", len(mem)),
				)
				return false
			}
			return true
		}
	}

	_, err := c.addPool(mem)
	if err != nil {
		c.log(slog.LevelDebug, "Control::grow resizer returned an unusable region", slog.Any("error", err))
		return false
	}
	return true
}

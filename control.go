package tlsf

import (
	"context"
	"strings"
	"unsafe"

	"github.com/dolthub/swiss"
	"github.com/pkg/errors"
	"golang.org/x/exp/slog"
)

// CreateFlags indicate specific control behaviors to activate or deactivate
type CreateFlags uint32

const (
	// CreateNoGrowth prevents the control from consulting its Resizer. Requests that do not
	// fit in the registered pools fail immediately.
	CreateNoGrowth CreateFlags = 1 << iota
)

var createFlagsMapping = map[CreateFlags]string{
	CreateNoGrowth: "CreateNoGrowth",
}

func (f CreateFlags) String() string {
	var names []string
	for flag, name := range createFlagsMapping {
		if f&flag != 0 {
			names = append(names, name)
		}
	}

	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, "|")
}

// CreateOptions contains optional settings when creating a control
type CreateOptions struct {
	// Flags indicates specific control behaviors to activate or deactivate
	Flags CreateFlags
	// Resizer is consulted when no registered pool can satisfy a request. It may be nil,
	// in which case such requests fail.
	Resizer Resizer
}

// Control is a TLSF allocator instance. It indexes the free blocks of every pool registered
// with it, but never owns pool memory itself.
//
// The zero value is an empty control with no pools, no logger and no resizer. A Control
// performs no internal synchronization: it must be used from one goroutine at a time.
type Control struct {
	logger  *slog.Logger
	flags   CreateFlags
	resizer Resizer

	flBitmap uint32
	slBitmap [flCount]uint32
	blocks   [flCount][slCount]blockRef

	size            int
	allocCount      int
	allocSize       int
	blocksFreeCount int
	blocksFreeSize  int

	// pools is indexed by slot; slot 0 is never used so that the zero blockRef is null
	pools       []*pool
	freeSlots   []int
	poolCount   int
	poolsByBase *swiss.Map[uintptr, *pool]

	resizing bool
}

// pool is one registered region of memory
type pool struct {
	slot   int
	base   unsafe.Pointer
	mem    []byte
	length int
}

// New creates an empty control
//
// logger - receives debug records about pool registration and growth, and errors about
// unreleased allocations on Destroy. It may be nil.
//
// options - Optional parameters: it is valid to leave all the fields blank
func New(logger *slog.Logger, options CreateOptions) *Control {
	return &Control{
		logger:  logger,
		flags:   options.Flags,
		resizer: options.Resizer,
	}
}

// SetResizer replaces the resizer consulted when the registered pools are exhausted
func (c *Control) SetResizer(resizer Resizer) {
	debugCheckReentry(c)
	c.resizer = resizer
}

// Size returns the total number of bytes across all registered pools
func (c *Control) Size() int {
	return c.size
}

// PoolCount returns the number of registered pools
func (c *Control) PoolCount() int {
	return c.poolCount
}

// AllocationCount returns the number of live allocations
func (c *Control) AllocationCount() int {
	return c.allocCount
}

// SumFreeSize returns the number of bytes held in free blocks
func (c *Control) SumFreeSize() int {
	return c.blocksFreeSize
}

// FreeRegionsCount returns the number of free blocks. Adjacent free memory is always
// coalesced, so this is also the number of distinct free regions.
func (c *Control) FreeRegionsCount() int {
	return c.blocksFreeCount
}

// AllocationSize returns the number of payload bytes held by live allocations, including
// what alignment and rounding added to each request
func (c *Control) AllocationSize() int {
	return c.allocSize
}

// IsEmpty returns true if the control has no live allocations
func (c *Control) IsEmpty() bool {
	return c.allocCount == 0
}

func (c *Control) log(level slog.Level, msg string, attrs ...slog.Attr) {
	if c.logger == nil {
		return
	}
	c.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

func (c *Control) blockAt(ref blockRef) block {
	return block{pool: c.pools[ref.slot()], off: ref.offset()}
}

// blockFromPayload recovers the block header that precedes a payload pointer
func (c *Control) blockFromPayload(ptr unsafe.Pointer) block {
	header := *(*uint64)(unsafe.Add(ptr, -headerSize))
	p := c.pools[int(header>>slotShift)]
	off := int(uintptr(ptr)-uintptr(p.base)) - headerSize
	return block{pool: p, off: off}
}

// Destroy logs every allocation that is still live and forgets all pools. It returns an
// error if any allocation was still live. The control can be reused afterwards.
func (c *Control) Destroy() error {
	debugCheckReentry(c)

	unreleased := c.allocCount
	if unreleased > 0 {
		err := c.VisitAllRegions(func(slot int, ptr unsafe.Pointer, size int, free bool) error {
			if free {
				return nil
			}

			c.logUnreleasedMemory(slot, ptr, size)
			return nil
		})
		if err != nil {
			c.log(slog.LevelError, "[UNRELEASED MEMORY] error while iterating unreleased memory", slog.Any("error", err))
		}
	}

	logger, flags, resizer := c.logger, c.flags, c.resizer
	*c = Control{logger: logger, flags: flags, resizer: resizer}

	if unreleased > 0 {
		return errors.Errorf("%d allocations were not freed before the control was destroyed", unreleased)
	}
	return nil
}

func (c *Control) logUnreleasedMemory(slot int, ptr unsafe.Pointer, size int) {
	p := c.pools[slot]
	c.log(slog.LevelError, "[UNRELEASED MEMORY] unfreed allocation",
		slog.Int("pool", slot),
		slog.Int("offset", int(uintptr(ptr)-uintptr(p.base))),
		slog.Int("size", size),
	)
}

package tlsf

import "github.com/pkg/errors"

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")

var (
	// ErrPoolTooSmall is returned from AddPool when the region cannot hold a sentinel and one minimum-size block
	ErrPoolTooSmall = errors.New("pool is too small to hold any blocks")
	// ErrPoolTooLarge is returned from AddPool when the region's usable block exceeds the largest size class
	ErrPoolTooLarge = errors.New("pool is larger than the largest size class")
	// ErrPoolMisaligned is returned from AddPool when the region does not start on an AlignSize boundary
	ErrPoolMisaligned = errors.New("pool memory is not aligned")
	// ErrPoolExists is returned from AddPool when the region's base address is already registered
	ErrPoolExists = errors.New("pool is already registered")
	// ErrUnknownPool is returned from RemovePool when the region was never registered with the control
	ErrUnknownPool = errors.New("pool is not registered with this control")
	// ErrPoolInUse is returned from RemovePool when the pool still holds live allocations
	ErrPoolInUse = errors.New("pool still has live allocations")
	// ErrReentrantCall is the panic value used in debug builds when a Resizer calls back into the
	// control that invoked it
	ErrReentrantCall = errors.New("control was re-entered from its own resizer")
)

package tlsf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// newCorruptibleControl returns a control with one free block between two allocations and the
// free tail of the pool, along with the header of the lone free block.
func newCorruptibleControl(t *testing.T) (*Control, block) {
	c := New(nil, CreateOptions{})
	require.NoError(t, c.AddPool(testPoolMemory(4096)))

	first := c.Malloc(100)
	require.NotNil(t, first)
	require.NotNil(t, c.Malloc(100))
	c.Free(first)

	require.Equal(t, 2, c.FreeRegionsCount())
	require.NoError(t, c.Validate())

	return c, c.blockFromPayload(first)
}

func TestValidateStraySecondLevelBit(t *testing.T) {
	c, _ := newCorruptibleControl(t)

	fl := 0
	for ; c.flBitmap&(1<<fl) != 0; fl++ {
	}
	c.slBitmap[fl] |= 1 << 2

	require.ErrorContains(t, c.Validate(), "bitmap")
}

func TestValidateOrphanedFreeBlock(t *testing.T) {
	c, free := newCorruptibleControl(t)

	c.removeFree(free)

	require.ErrorContains(t, c.Validate(), "do not match")
}

func TestValidateFreeBlockListedTwice(t *testing.T) {
	c, free := newCorruptibleControl(t)

	c.insertFree(free)

	require.Error(t, c.Validate())
}

func TestValidateListedBlockNotMarkedFree(t *testing.T) {
	c, free := newCorruptibleControl(t)

	free.setFreeBit(false)

	require.ErrorContains(t, c.Validate(), "predecessor")
}

func TestValidateSizeDrift(t *testing.T) {
	c, _ := newCorruptibleControl(t)

	c.size++

	require.ErrorContains(t, c.Validate(), "full size of the control is 4097")
}

func TestValidateFreeSlotMismatch(t *testing.T) {
	c, _ := newCorruptibleControl(t)

	c.freeSlots = append(c.freeSlots, 1)

	require.Error(t, c.Validate())
}

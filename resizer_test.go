package tlsf_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/tlsf"
	"github.com/vkngwrapper/tlsf/mocks"
	"github.com/vkngwrapper/tlsf/region"
	"go.uber.org/mock/gomock"
)

func TestResizerAddsPool(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resizer := mocks.NewMockResizer(ctrl)
	control := tlsf.New(nil, tlsf.CreateOptions{Resizer: resizer})

	var grown []byte
	resizer.EXPECT().Resize(control, 104+tlsf.PoolOverhead).DoAndReturn(
		func(control *tlsf.Control, minBytes int) []byte {
			grown = region.Alloc(4096)
			return grown
		})

	ptr := control.Malloc(100)
	require.NotNil(t, ptr)
	require.Equal(t, unsafe.Pointer(&grown[8]), ptr)
	require.Equal(t, 1, control.PoolCount())
	require.Equal(t, 4096, control.Size())
	require.NoError(t, control.Validate())

	control.Free(ptr)
	requireSingleFreeBlock(t, control, 4096)
}

func TestResizerRoundedRequestFitsNewPool(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resizer := mocks.NewMockResizer(ctrl)
	control := tlsf.New(nil, tlsf.CreateOptions{Resizer: resizer})

	// 3000 bytes are looked up as 3072 so that any block in the class found is large enough
	resizer.EXPECT().Resize(control, 3072+tlsf.PoolOverhead).DoAndReturn(
		func(control *tlsf.Control, minBytes int) []byte {
			return region.Alloc(minBytes)
		})

	ptr := control.Malloc(3000)
	require.NotNil(t, ptr)
	require.Equal(t, 3000, control.UsableSize(ptr))
	require.Equal(t, 1, control.FreeRegionsCount())
	require.Equal(t, 3072-3000-8, control.SumFreeSize())
	require.NoError(t, control.Validate())
}

func TestResizerDeclines(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resizer := mocks.NewMockResizer(ctrl)
	control, _ := newTestControl(t, 4096)
	control.SetResizer(resizer)

	resizer.EXPECT().Resize(control, gomock.Any()).Return(nil)

	require.Nil(t, control.Malloc(8192))
	requireSingleFreeBlock(t, control, 4096)
}

func TestResizerUnusableRegionIsDecline(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resizer := mocks.NewMockResizer(ctrl)
	control := tlsf.New(nil, tlsf.CreateOptions{Resizer: resizer})

	resizer.EXPECT().Resize(control, gomock.Any()).Return(region.Alloc(16))

	require.Nil(t, control.Malloc(100))
	require.Zero(t, control.PoolCount())
	require.NoError(t, control.Validate())
}

func TestResizerTooSmallRegionFailsAfterOneRetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resizer := mocks.NewMockResizer(ctrl)
	control := tlsf.New(nil, tlsf.CreateOptions{Resizer: resizer})

	resizer.EXPECT().Resize(control, gomock.Any()).Return(region.Alloc(1024)).Times(1)

	require.Nil(t, control.Malloc(2000))
	require.Equal(t, 1, control.PoolCount())
	require.NoError(t, control.Validate())
}

func TestResizerExtendsPoolInPlace(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	backing := region.Alloc(1 << 16)
	resizer := mocks.NewMockResizer(ctrl)
	control := tlsf.New(nil, tlsf.CreateOptions{Resizer: resizer})
	require.NoError(t, control.AddPool(backing[:4096]))

	first := control.Malloc(3000)
	require.NotNil(t, first)

	resizer.EXPECT().Resize(control, gomock.Any()).DoAndReturn(
		func(control *tlsf.Control, minBytes int) []byte {
			return backing[:4096+minBytes]
		})

	second := control.Malloc(3000)
	require.NotNil(t, second)
	require.Equal(t, 1, control.PoolCount())
	require.Greater(t, control.Size(), 4096)
	require.NoError(t, control.Validate())

	// The tail of the original pool was merged into the extension
	require.Equal(t, uintptr(first)+uintptr(control.UsableSize(first))+8, uintptr(second))

	control.Free(first)
	control.Free(second)
	requireSingleFreeBlock(t, control, control.Size())
}

func TestResizerNotConsultedWithNoGrowth(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resizer := mocks.NewMockResizer(ctrl)
	control := tlsf.New(nil, tlsf.CreateOptions{
		Flags:   tlsf.CreateNoGrowth,
		Resizer: resizer,
	})

	require.Nil(t, control.Malloc(100))
	require.Zero(t, control.PoolCount())
}

func TestResizeFunc(t *testing.T) {
	calls := 0
	control := tlsf.New(nil, tlsf.CreateOptions{
		Resizer: tlsf.ResizeFunc(func(control *tlsf.Control, minBytes int) []byte {
			calls++
			return region.Alloc(1 << 16)
		}),
	})

	var live []unsafe.Pointer
	for i := 0; i < 100; i++ {
		ptr := control.Malloc(1000)
		require.NotNil(t, ptr)
		live = append(live, ptr)
	}

	require.Greater(t, calls, 1)
	require.Equal(t, calls, control.PoolCount())
	require.NoError(t, control.Validate())

	for _, ptr := range live {
		control.Free(ptr)
	}
	require.NoError(t, control.Validate())
	require.Equal(t, calls, control.FreeRegionsCount())
}

func TestHeapResizer(t *testing.T) {
	heap := region.NewHeap(nil, 1<<16)
	control := tlsf.New(nil, tlsf.CreateOptions{Resizer: heap})

	small := control.Malloc(100)
	require.NotNil(t, small)
	require.Equal(t, 1, heap.Regions())
	require.Equal(t, 1<<16, heap.Bytes())

	large := control.Malloc(1 << 17)
	require.NotNil(t, large)
	require.Equal(t, 2, heap.Regions())
	require.Equal(t, 2, control.PoolCount())
	require.NoError(t, control.Validate())

	control.Free(small)
	control.Free(large)
	require.NoError(t, control.Validate())
	require.Equal(t, 2, control.FreeRegionsCount())
	require.NoError(t, control.Destroy())
}

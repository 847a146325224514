//go:build debug_tlsf

package tlsf_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/tlsf"
	"github.com/vkngwrapper/tlsf/region"
)

func TestDebugReentrantResizerPanics(t *testing.T) {
	control := tlsf.New(nil, tlsf.CreateOptions{
		Resizer: tlsf.ResizeFunc(func(control *tlsf.Control, minBytes int) []byte {
			control.Malloc(10)
			return region.Alloc(minBytes)
		}),
	})

	require.PanicsWithValue(t, tlsf.ErrReentrantCall, func() {
		control.Malloc(100)
	})
}

func TestDebugDoubleFreePanics(t *testing.T) {
	control, _ := newTestControl(t, 4096)

	first := control.Malloc(100)
	second := control.Malloc(100)
	control.Free(first)

	require.Panics(t, func() {
		control.Free(first)
	})

	control.Free(second)
}

func TestDebugCheck(t *testing.T) {
	require.True(t, tlsf.DebugEnabled)

	control, _ := newTestControl(t, 4096)
	require.NotPanics(t, control.Check)
}

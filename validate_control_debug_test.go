//go:build debug_tlsf

package tlsf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDebugCheckPanicsOnCorruption(t *testing.T) {
	c, free := newCorruptibleControl(t)
	require.NotPanics(t, c.Check)

	c.removeFree(free)

	require.Panics(t, c.Check)
}

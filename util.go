package tlsf

import (
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
)

type Number interface {
	~int | ~uint | ~uintptr
}

func CheckPow2[T Number](number T, name string) error {
	if number == 0 || number&(number-1) != 0 {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

func AlignUp(value int, alignment uint) int {
	return (value + int(alignment) - 1) & int(^(alignment - 1))
}

func AlignDown(value int, alignment uint) int {
	return value & int(^(alignment - 1))
}

// alignPtrOffset returns how many bytes must be added to ptr so that it lands on an alignment boundary
func alignPtrOffset(ptr unsafe.Pointer, alignment uint) int {
	DebugCheckPow2(alignment, "alignment")

	addr := uintptr(ptr)
	aligned := (addr + uintptr(alignment) - 1) &^ (uintptr(alignment) - 1)
	return int(aligned - addr)
}

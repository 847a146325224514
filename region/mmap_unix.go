//go:build unix

package region

import (
	cerrors "github.com/cockroachdb/errors"
	"github.com/vkngwrapper/tlsf"
	"golang.org/x/sys/unix"
)

// Mmap is a tlsf.Resizer backed by a single reservation of address space. Pages are committed
// on demand and every region handed out starts at the same address, so the control grows one
// pool in place rather than adding new ones.
type Mmap struct {
	mem       []byte
	committed int
	pageSize  int
}

var _ tlsf.Resizer = &Mmap{}

// NewMmap reserves reserve bytes of address space, rounded up to the page size. No memory is
// committed until the first call to Resize.
func NewMmap(reserve int) (*Mmap, error) {
	if reserve <= 0 {
		return nil, cerrors.Newf("reservation of %d bytes is invalid", reserve)
	}

	pageSize := unix.Getpagesize()
	reserve = tlsf.AlignUp(reserve, uint(pageSize))

	mem, err := unix.Mmap(-1, 0, reserve, unix.PROT_NONE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, cerrors.Wrapf(err, "failed to reserve %d bytes", reserve)
	}

	return &Mmap{
		mem:      mem,
		pageSize: pageSize,
	}, nil
}

// Resize commits enough pages for minBytes more and returns everything committed so far. It
// declines once the reservation is exhausted.
func (m *Mmap) Resize(control *tlsf.Control, minBytes int) []byte {
	if m.mem == nil {
		return nil
	}

	size := m.committed + tlsf.AlignUp(minBytes, uint(m.pageSize))
	if size > len(m.mem) {
		return nil
	}

	err := unix.Mprotect(m.mem[m.committed:size], unix.PROT_READ|unix.PROT_WRITE)
	if err != nil {
		return nil
	}

	m.committed = size
	return m.mem[:size]
}

// Committed returns the number of bytes made usable so far
func (m *Mmap) Committed() int {
	return m.committed
}

// Reserved returns the size of the reservation
func (m *Mmap) Reserved() int {
	return len(m.mem)
}

// Close releases the reservation. Every control using memory from it must have been
// destroyed, or must have had the pool removed, first.
func (m *Mmap) Close() error {
	if m.mem == nil {
		return nil
	}

	err := unix.Munmap(m.mem)
	m.mem = nil
	m.committed = 0
	if err != nil {
		return cerrors.Wrap(err, "failed to release reservation")
	}
	return nil
}

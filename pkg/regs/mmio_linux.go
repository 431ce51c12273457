//go:build linux

package regs

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DefaultMapSize covers the display controller block holding the HDMI port
// and HDCP registers.
const DefaultMapSize = 0x80000

// MMIO is a memory-mapped register block, typically a PCI BAR exposed as
// /sys/bus/pci/devices/<bdf>/resource0.
type MMIO struct {
	f   *os.File
	mem []byte
}

// OpenMMIO maps size bytes of the resource file at path.
func OpenMMIO(path string, size int) (*MMIO, error) {
	if size <= 0 {
		size = DefaultMapSize
	}
	if size < int(HDCPCaps)+4 {
		return nil, fmt.Errorf("%w: size %#x", ErrOutOfRange, size)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("regs: open %s: %w", path, err)
	}

	mem, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("regs: mmap %s: %w", path, err)
	}

	return &MMIO{f: f, mem: mem}, nil
}

func (m *MMIO) word(off Offset) *uint32 {
	return (*uint32)(unsafe.Pointer(&m.mem[off]))
}

// Read performs a 32-bit load from the register at off.
func (m *MMIO) Read(off Offset) uint32 {
	return atomic.LoadUint32(m.word(off))
}

// Write performs a 32-bit store to the register at off.
func (m *MMIO) Write(off Offset, val uint32) {
	atomic.StoreUint32(m.word(off), val)
}

// Close unmaps the block and closes the resource file.
func (m *MMIO) Close() error {
	var firstErr error
	if m.mem != nil {
		if err := unix.Munmap(m.mem); err != nil {
			firstErr = err
		}
		m.mem = nil
	}
	if m.f != nil {
		if err := m.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		m.f = nil
	}
	return firstErr
}

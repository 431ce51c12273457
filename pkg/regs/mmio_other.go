//go:build !linux

package regs

// DefaultMapSize covers the display controller block holding the HDMI port
// and HDCP registers.
const DefaultMapSize = 0x80000

// MMIO is unavailable outside Linux.
type MMIO struct{}

// OpenMMIO always fails outside Linux.
func OpenMMIO(path string, size int) (*MMIO, error) {
	return nil, ErrUnsupported
}

// Read returns 0.
func (m *MMIO) Read(off Offset) uint32 { return 0 }

// Write does nothing.
func (m *MMIO) Write(off Offset, val uint32) {}

// Close does nothing.
func (m *MMIO) Close() error { return nil }

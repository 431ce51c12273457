//go:build !linux

package ddc

// LinuxBus is unavailable outside Linux.
type LinuxBus struct{}

// OpenLinuxBus always fails outside Linux.
func OpenLinuxBus(path string) (*LinuxBus, error) {
	return nil, ErrUnsupported
}

// Tx always fails.
func (b *LinuxBus) Tx(addr uint16, w, r []byte) error {
	return ErrUnsupported
}

// Close does nothing.
func (b *LinuxBus) Close() error { return nil }

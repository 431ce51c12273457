//go:build linux

package ddc

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// i2c-dev ioctl interface, see linux/i2c-dev.h.
const (
	i2cRDWR = 0x0707
	i2cMRD  = 0x0001
)

type i2cMsg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   uintptr
}

type i2cRdwrData struct {
	msgs  uintptr
	nmsgs uint32
}

// LinuxBus is a Bus backed by a Linux i2c-dev character device.
type LinuxBus struct {
	mu sync.Mutex
	f  *os.File
}

// OpenLinuxBus opens an i2c-dev device such as /dev/i2c-3.
func OpenLinuxBus(path string) (*LinuxBus, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("ddc: open %s: %w", path, err)
	}
	return &LinuxBus{f: f}, nil
}

// Tx issues w and r as a single combined transaction with a repeated start.
func (b *LinuxBus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.f == nil {
		return ErrClosed
	}

	msgs := make([]i2cMsg, 0, 2)
	if len(w) > 0 {
		msgs = append(msgs, i2cMsg{
			addr: addr,
			len:  uint16(len(w)),
			buf:  uintptr(unsafe.Pointer(&w[0])),
		})
	}
	if len(r) > 0 {
		msgs = append(msgs, i2cMsg{
			addr:  addr,
			flags: i2cMRD,
			len:   uint16(len(r)),
			buf:   uintptr(unsafe.Pointer(&r[0])),
		})
	}
	if len(msgs) == 0 {
		return nil
	}

	data := i2cRdwrData{
		msgs:  uintptr(unsafe.Pointer(&msgs[0])),
		nmsgs: uint32(len(msgs)),
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, b.f.Fd(), i2cRDWR, uintptr(unsafe.Pointer(&data)))
	runtime.KeepAlive(w)
	runtime.KeepAlive(r)
	runtime.KeepAlive(msgs)
	if errno != 0 {
		if errno == unix.ENXIO || errno == unix.EREMOTEIO {
			return fmt.Errorf("%w: %#02x: %v", ErrNak, addr, errno)
		}
		return errno
	}
	return nil
}

// Close closes the device.
func (b *LinuxBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.f == nil {
		return nil
	}
	err := b.f.Close()
	b.f = nil
	return err
}

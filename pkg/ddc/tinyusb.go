package ddc

import (
	"fmt"
	"sync"

	"github.com/google/gousb"
)

// i2c-tiny-usb adapter identifiers.
const (
	TinyUSBVendorID  = 0x0403
	TinyUSBProductID = 0xC631
)

// i2c-tiny-usb vendor requests.
const (
	tinyCmdEcho      = 0
	tinyCmdGetFunc   = 1
	tinyCmdSetDelay  = 2
	tinyCmdGetStatus = 3
	tinyCmdI2CIO     = 4
	tinyCmdI2CBegin  = 1 // OR'ed into tinyCmdI2CIO
	tinyCmdI2CEnd    = 2 // OR'ed into tinyCmdI2CIO

	tinyStatusIdle       = 0
	tinyStatusAddressAck = 1
	tinyStatusAddressNak = 2

	tinyFlagRead = 0x0001
)

// TinyUSBBus is a Bus backed by an i2c-tiny-usb adapter attached to the
// display connector's DDC pins.
type TinyUSBBus struct {
	mu  sync.Mutex
	ctx *gousb.Context
	dev *gousb.Device
}

// OpenTinyUSBBus opens the first i2c-tiny-usb adapter found.
func OpenTinyUSBBus() (*TinyUSBBus, error) {
	ctx := gousb.NewContext()
	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(TinyUSBVendorID), gousb.ID(TinyUSBProductID))
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("ddc: open i2c-tiny-usb: %w", err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("ddc: i2c-tiny-usb adapter not found")
	}
	dev.SetAutoDetach(true)

	return &TinyUSBBus{ctx: ctx, dev: dev}, nil
}

// SetDelay sets the adapter's SCL half-period in microseconds.
// 10µs gives the 50kHz rate DDC requires of non-fast receivers.
func (b *TinyUSBBus) SetDelay(us uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dev == nil {
		return ErrClosed
	}
	_, err := b.dev.Control(gousb.ControlOut|gousb.ControlVendor|gousb.ControlInterface,
		tinyCmdSetDelay, us, 0, nil)
	return err
}

// Tx issues w then r, holding the bus between them.
func (b *TinyUSBBus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dev == nil {
		return ErrClosed
	}

	type segment struct {
		data []byte
		read bool
	}
	var segs []segment
	if len(w) > 0 {
		segs = append(segs, segment{data: w})
	}
	if len(r) > 0 {
		segs = append(segs, segment{data: r, read: true})
	}

	for i, seg := range segs {
		cmd := uint8(tinyCmdI2CIO)
		if i == 0 {
			cmd |= tinyCmdI2CBegin
		}
		if i == len(segs)-1 {
			cmd |= tinyCmdI2CEnd
		}

		rType := uint8(gousb.ControlOut | gousb.ControlVendor | gousb.ControlInterface)
		var flags uint16
		if seg.read {
			rType = uint8(gousb.ControlIn | gousb.ControlVendor | gousb.ControlInterface)
			flags = tinyFlagRead
		}

		n, err := b.dev.Control(rType, cmd, flags, addr, seg.data)
		if err != nil {
			return fmt.Errorf("ddc: i2c-tiny-usb transfer: %w", err)
		}

		status, err := b.status()
		if err != nil {
			return err
		}
		if status == tinyStatusAddressNak {
			return fmt.Errorf("%w: %#02x", ErrNak, addr)
		}
		if n != len(seg.data) {
			return fmt.Errorf("ddc: i2c-tiny-usb short transfer: %d of %d bytes", n, len(seg.data))
		}
	}
	return nil
}

func (b *TinyUSBBus) status() (byte, error) {
	var s [1]byte
	_, err := b.dev.Control(gousb.ControlIn|gousb.ControlVendor|gousb.ControlInterface,
		tinyCmdGetStatus, 0, 0, s[:])
	if err != nil {
		return 0, fmt.Errorf("ddc: i2c-tiny-usb status: %w", err)
	}
	return s[0], nil
}

// Close releases the adapter.
func (b *TinyUSBBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if b.dev != nil {
		err = b.dev.Close()
		b.dev = nil
	}
	if b.ctx != nil {
		if cerr := b.ctx.Close(); cerr != nil && err == nil {
			err = cerr
		}
		b.ctx = nil
	}
	return err
}

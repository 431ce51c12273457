package ddc

import (
	"encoding/binary"
	"fmt"

	"github.com/backkem/hdcp/pkg/ksv"
	"github.com/pion/logging"
)

// Bus performs a combined I2C transaction: write w, then read len(r) bytes,
// addressed to the 7-bit device address addr. Either slice may be empty.
type Bus interface {
	Tx(addr uint16, w, r []byte) error
}

// ReceiverConfig configures a Receiver.
type ReceiverConfig struct {
	// Address is the receiver's 7-bit I2C address.
	// Default: PrimaryAddress
	Address uint16

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// Receiver reads and writes the HDCP port of a downstream receiver.
type Receiver struct {
	bus  Bus
	addr uint16
	log  logging.LeveledLogger
}

// NewReceiver creates a Receiver on bus.
func NewReceiver(bus Bus, config ReceiverConfig) *Receiver {
	r := &Receiver{
		bus:  bus,
		addr: config.Address,
	}
	if r.addr == 0 {
		r.addr = PrimaryAddress
	}
	if config.LoggerFactory != nil {
		r.log = config.LoggerFactory.NewLogger("ddc")
	}
	return r
}

// Address returns the receiver's I2C address.
func (r *Receiver) Address() uint16 {
	return r.addr
}

// Read reads len(buf) bytes starting at sub-address sub in one transaction.
// On failure buf is left untouched.
func (r *Receiver) Read(sub byte, buf []byte) error {
	tmp := make([]byte, len(buf))
	if err := r.bus.Tx(r.addr, []byte{sub}, tmp); err != nil {
		if r.log != nil {
			r.log.Debugf("read %#02x (%d bytes) failed: %v", sub, len(buf), err)
		}
		return fmt.Errorf("%w: read %#02x: %w", ErrTransaction, sub, err)
	}
	copy(buf, tmp)
	return nil
}

// Write writes data starting at sub-address sub in one transaction.
func (r *Receiver) Write(sub byte, data []byte) error {
	w := make([]byte, 0, 1+len(data))
	w = append(w, sub)
	w = append(w, data...)
	if err := r.bus.Tx(r.addr, w, nil); err != nil {
		if r.log != nil {
			r.log.Debugf("write %#02x (%d bytes) failed: %v", sub, len(data), err)
		}
		return fmt.Errorf("%w: write %#02x: %w", ErrTransaction, sub, err)
	}
	return nil
}

// ReadBKSV reads the receiver's KSV. The value is not validated.
func (r *Receiver) ReadBKSV() (ksv.KSV, error) {
	var k ksv.KSV
	if err := r.Read(SubBKSV, k[:]); err != nil {
		return ksv.KSV{}, err
	}
	return k, nil
}

// ReadBCaps reads the receiver capability register.
func (r *Receiver) ReadBCaps() (BCaps, error) {
	var b [1]byte
	if err := r.Read(SubBCaps, b[:]); err != nil {
		return 0, err
	}
	return BCaps(b[0]), nil
}

// ReadBStatus reads the repeater topology register.
func (r *Receiver) ReadBStatus() (BStatus, error) {
	var b [BStatusSize]byte
	if err := r.Read(SubBStatus, b[:]); err != nil {
		return 0, err
	}
	return BStatus(binary.LittleEndian.Uint16(b[:])), nil
}

// ReadRi reads the receiver's Ri' as a little-endian 16-bit value.
func (r *Receiver) ReadRi() (uint16, error) {
	var b [RiSize]byte
	if err := r.Read(SubRi, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

// ReadKSVFIFO reads count KSVs from the repeater's FIFO into a new buffer.
// The raw FIFO bytes are returned in wire order.
func (r *Receiver) ReadKSVFIFO(count int) ([]byte, error) {
	if count < 0 || count > MaxDeviceCount {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	buf := make([]byte, count*ksv.Size)
	if count == 0 {
		return buf, nil
	}
	if err := r.Read(SubKSVFIFO, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadVPrime reads V' as five little-endian 32-bit words H0..H4.
// Each word is fetched with its own transaction, advancing the sub-address
// by four.
func (r *Receiver) ReadVPrime() ([VPrimeBlocks]uint32, error) {
	var v [VPrimeBlocks]uint32
	var block [VPrimeBlockLen]byte
	for i := range v {
		sub := SubVPrime + byte(i*VPrimeBlockLen)
		if err := r.Read(sub, block[:]); err != nil {
			return [VPrimeBlocks]uint32{}, err
		}
		v[i] = binary.LittleEndian.Uint32(block[:])
	}
	return v, nil
}

// WriteAn writes the transmitter's 64-bit An, least significant byte first.
func (r *Receiver) WriteAn(an uint64) error {
	var b [AnSize]byte
	binary.LittleEndian.PutUint64(b[:], an)
	return r.Write(SubAn, b[:])
}

// WriteAKSV writes the transmitter's KSV. The receiver begins computing R0'
// once the final byte lands, so An must be written first.
func (r *Receiver) WriteAKSV(k ksv.KSV) error {
	return r.Write(SubAKSV, k[:])
}

// WriteAInfo writes the AINFO register of an HDCP 1.1 receiver.
func (r *Receiver) WriteAInfo(v byte) error {
	return r.Write(SubAInfo, []byte{v})
}

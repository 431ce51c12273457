package sim

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/backkem/hdcp/pkg/ddc"
	"github.com/backkem/hdcp/pkg/ksv"
)

// ReceiverConfig configures a Receiver.
type ReceiverConfig struct {
	// Address is the receiver's 7-bit I2C address.
	// Default: ddc.PrimaryAddress
	Address uint16

	// BKSV is the receiver's key selection vector. It is reported as-is,
	// so an invalid value can be configured.
	// Default: GenerateKSV(2)
	BKSV ksv.KSV

	// Repeater makes the receiver a repeater with Downstream behind it.
	Repeater   bool
	Downstream []ksv.KSV

	// Depth is the reported cascade depth.
	Depth int

	// MaxDevsExceeded and MaxCascadeExceeded set the BStatus overflow flags.
	MaxDevsExceeded    bool
	MaxCascadeExceeded bool

	// HDCP11 sets the 1.1 features bit in BCaps.
	HDCP11 bool

	// HDMIMode sets the HDMI mode bit in BStatus.
	HDMIMode bool

	// FIFOPending keeps the KSV FIFO not ready until SetFIFOReady is called.
	FIFOPending bool
}

// Receiver emulates an HDCP receiver or repeater on the DDC bus. It
// implements ddc.Bus and is safe for concurrent use.
type Receiver struct {
	config ReceiverConfig
	link   *Link

	mu        sync.Mutex
	an        uint64
	aksv      ksv.KSV
	ainfo     byte
	keys      *sessionKeys
	fifoReady bool

	corruptRi     bool
	corruptVPrime bool
	failures      map[byte]int
	txCount       int
}

// NewReceiver creates a Receiver on link.
func NewReceiver(link *Link, config ReceiverConfig) *Receiver {
	if config.Address == 0 {
		config.Address = ddc.PrimaryAddress
	}
	if config.BKSV == (ksv.KSV{}) {
		config.BKSV = GenerateKSV(2)
	}
	return &Receiver{
		config:    config,
		link:      link,
		fifoReady: !config.FIFOPending,
		failures:  make(map[byte]int),
	}
}

// BKSV returns the receiver's KSV.
func (r *Receiver) BKSV() ksv.KSV {
	return r.config.BKSV
}

// Authenticated reports whether Aksv has been written.
func (r *Receiver) Authenticated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.keys != nil
}

// AInfo returns the last value written to AINFO.
func (r *Receiver) AInfo() byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ainfo
}

// SetFIFOReady sets the KSV FIFO ready bit reported once authenticated.
func (r *Receiver) SetFIFOReady(ready bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fifoReady = ready
}

// CorruptRi makes Ri' reads return a wrong value.
func (r *Receiver) CorruptRi(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.corruptRi = on
}

// CorruptVPrime makes V' reads return a wrong value.
func (r *Receiver) CorruptVPrime(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.corruptVPrime = on
}

// Fail makes the next n transactions on sub fail. A negative n fails them
// all until Fail(sub, 0) is called.
func (r *Receiver) Fail(sub byte, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[sub] = n
}

// Transactions returns the number of transactions addressed to the receiver.
func (r *Receiver) Transactions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.txCount
}

// BStatus returns the topology word the receiver reports.
func (r *Receiver) BStatus() ddc.BStatus {
	var s ddc.BStatus
	if r.config.HDMIMode {
		s |= ddc.BStatusHDMIMode
	}
	if !r.config.Repeater {
		return s
	}
	s |= ddc.BStatus(len(r.config.Downstream)) & ddc.BStatusDeviceCountMask
	s |= ddc.BStatus(r.config.Depth<<ddc.BStatusDepthShift) & ddc.BStatusDepthMask
	if r.config.MaxDevsExceeded {
		s |= ddc.BStatusMaxDevsExceeded
	}
	if r.config.MaxCascadeExceeded {
		s |= ddc.BStatusMaxCascadeExceeded
	}
	return s
}

// Tx implements ddc.Bus.
func (r *Receiver) Tx(addr uint16, w, rd []byte) error {
	if addr != r.config.Address {
		return ddc.ErrNak
	}
	if len(w) == 0 {
		return ErrNoSubAddress
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.txCount++
	sub := w[0]
	if n := r.failures[sub]; n != 0 {
		if n > 0 {
			r.failures[sub] = n - 1
		}
		return fmt.Errorf("%w at %#02x", ErrInjected, sub)
	}

	if len(rd) > 0 {
		r.read(sub, rd)
		return nil
	}
	r.write(sub, w[1:])
	return nil
}

func (r *Receiver) read(sub byte, buf []byte) {
	if sub == ddc.SubKSVFIFO {
		fifo := ksv.JoinList(r.config.Downstream)
		clear(buf)
		copy(buf, fifo)
		return
	}

	var mem [0x43]byte
	copy(mem[ddc.SubBKSV:], r.config.BKSV[:])
	if r.keys != nil {
		ri := r.keys.Ri(epoch(r.link.Frame()))
		if r.corruptRi {
			ri = ^ri
		}
		binary.LittleEndian.PutUint16(mem[ddc.SubRi:], ri)
		if r.config.Repeater {
			r.putVPrime(mem[ddc.SubVPrime:])
		}
	}
	copy(mem[ddc.SubAKSV:], r.aksv[:])
	mem[ddc.SubAInfo] = r.ainfo
	binary.LittleEndian.PutUint64(mem[ddc.SubAn:], r.an)
	mem[ddc.SubBCaps] = byte(r.bcaps())
	status := r.BStatus().Bytes()
	copy(mem[ddc.SubBStatus:], status[:])

	clear(buf)
	if int(sub) < len(mem) {
		copy(buf, mem[sub:])
	}
}

func (r *Receiver) bcaps() ddc.BCaps {
	b := ddc.BCapsHDMIReserved | ddc.BCapsFast
	if r.config.HDCP11 {
		b |= ddc.BCaps11Features
	}
	if r.config.Repeater {
		b |= ddc.BCapsRepeater
		if r.keys != nil && r.fifoReady {
			b |= ddc.BCapsKSVFIFOReady
		}
	}
	return b
}

// putVPrime stores V' as five blocks; each holds one big-endian SHA-1 word
// in little-endian byte order.
func (r *Receiver) putVPrime(dst []byte) {
	msg := ksv.JoinList(r.config.Downstream)
	status := r.BStatus().Bytes()
	msg = append(msg, status[:]...)
	msg = append(msg, r.keys.mo[:]...)

	digest := sha1.Sum(msg)
	if r.corruptVPrime {
		digest[0] ^= 0x01
	}
	for i := 0; i < ddc.VPrimeBlocks; i++ {
		h := binary.BigEndian.Uint32(digest[4*i:])
		binary.LittleEndian.PutUint32(dst[4*i:], h)
	}
}

func (r *Receiver) write(sub byte, data []byte) {
	switch sub {
	case ddc.SubAn:
		var b [ddc.AnSize]byte
		copy(b[:], data)
		r.an = binary.LittleEndian.Uint64(b[:])
	case ddc.SubAKSV:
		if len(data) < ksv.Size {
			return
		}
		copy(r.aksv[:], data)
		r.keys = deriveKeys(r.an, r.aksv, r.config.BKSV, r.config.Repeater)
	case ddc.SubAInfo:
		if len(data) > 0 {
			r.ainfo = data[0]
		}
	}
}

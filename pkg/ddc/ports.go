package ddc

// Receiver I2C addresses (7-bit).
const (
	PrimaryAddress   uint16 = 0x3A // 0x74 in 8-bit notation
	SecondaryAddress uint16 = 0x3B // 0x76 in 8-bit notation
)

// Receiver sub-addresses.
const (
	SubBKSV    byte = 0x00 // 5 bytes
	SubRi      byte = 0x08 // 2 bytes
	SubPj      byte = 0x0A // 1 byte
	SubAKSV    byte = 0x10 // 5 bytes; writing the last byte starts authentication
	SubAInfo   byte = 0x15 // 1 byte
	SubAn      byte = 0x18 // 8 bytes
	SubVPrime  byte = 0x20 // 20 bytes, read as five 4-byte blocks
	SubBCaps   byte = 0x40 // 1 byte
	SubBStatus byte = 0x41 // 2 bytes
	SubKSVFIFO byte = 0x43 // 5 bytes per downstream device
)

// Field sizes.
const (
	AnSize         = 8
	RiSize         = 2
	BStatusSize    = 2
	VPrimeBlocks   = 5
	VPrimeBlockLen = 4
)

// BCaps is the receiver capability register.
type BCaps uint8

// BCaps bits.
const (
	BCapsFastReauth   BCaps = 1 << 0
	BCaps11Features   BCaps = 1 << 1
	BCapsFast         BCaps = 1 << 4
	BCapsKSVFIFOReady BCaps = 1 << 5
	BCapsRepeater     BCaps = 1 << 6
	BCapsHDMIReserved BCaps = 1 << 7
)

// FastReauth reports whether the receiver supports fast re-authentication.
func (b BCaps) FastReauth() bool { return b&BCapsFastReauth != 0 }

// Supports11 reports whether the receiver supports HDCP 1.1 features.
func (b BCaps) Supports11() bool { return b&BCaps11Features != 0 }

// FastTransfer reports whether the receiver supports 400kHz DDC transfers.
func (b BCaps) FastTransfer() bool { return b&BCapsFast != 0 }

// KSVFIFOReady reports whether a repeater has populated its KSV FIFO.
func (b BCaps) KSVFIFOReady() bool { return b&BCapsKSVFIFOReady != 0 }

// IsRepeater reports whether the receiver is a repeater.
func (b BCaps) IsRepeater() bool { return b&BCapsRepeater != 0 }

// BStatus is the repeater topology register, decoded from its two
// little-endian bytes.
type BStatus uint16

// BStatus fields.
const (
	BStatusDeviceCountMask    BStatus = 0x007F
	BStatusMaxDevsExceeded    BStatus = 1 << 7
	BStatusDepthMask          BStatus = 0x0700
	BStatusDepthShift                 = 8
	BStatusMaxCascadeExceeded BStatus = 1 << 11
	BStatusHDMIMode           BStatus = 1 << 12
)

// MaxDeviceCount is the largest device count BStatus can report.
const MaxDeviceCount = 127

// DeviceCount returns the number of downstream devices.
func (s BStatus) DeviceCount() int { return int(s & BStatusDeviceCountMask) }

// MaxDevicesExceeded reports whether the topology has more than 127 devices.
func (s BStatus) MaxDevicesExceeded() bool { return s&BStatusMaxDevsExceeded != 0 }

// Depth returns the repeater cascade depth.
func (s BStatus) Depth() int { return int((s & BStatusDepthMask) >> BStatusDepthShift) }

// MaxCascadeExceeded reports whether the topology is deeper than 7 levels.
func (s BStatus) MaxCascadeExceeded() bool { return s&BStatusMaxCascadeExceeded != 0 }

// HDMIMode reports whether the receiver is in HDMI (rather than DVI) mode.
func (s BStatus) HDMIMode() bool { return s&BStatusHDMIMode != 0 }

// Bytes returns the register in wire order.
func (s BStatus) Bytes() [BStatusSize]byte {
	return [BStatusSize]byte{byte(s), byte(s >> 8)}
}

// Package regs describes the transmitter-side HDCP register block and the
// HDMI port register that gates encryption on the wire.
//
// Offsets are relative to the display controller's MMIO base. All registers
// are 32 bits wide.
package regs

import "fmt"

// Offset is a register offset from the MMIO base.
type Offset uint32

// HDCP cipher block.
const (
	HDCPConfig   Offset = 0x61400 // Cipher mode
	HDCPInit     Offset = 0x61404 // Random seed input for An generation
	HDCPAnLow    Offset = 0x61408 // Generated An, bits 31:0
	HDCPAnHigh   Offset = 0x6140C // Generated An, bits 63:32
	HDCPBKSVLow  Offset = 0x61410 // Receiver KSV, bytes 0-3
	HDCPBKSVHigh Offset = 0x61414 // Receiver KSV, byte 4
	HDCPRi       Offset = 0x61418 // Receiver Ri' mirror
	HDCPAKeyLow  Offset = 0x6141C // Device key load, low
	HDCPAKeyMed  Offset = 0x61420 // Device key load, middle
	HDCPAKeyHigh Offset = 0x61424 // Device key load, high
	HDCPSHA1In   Offset = 0x61428 // SHA-1 text input
	HDCPVPrimeH0 Offset = 0x6142C // V' H0
	HDCPVPrimeH1 Offset = 0x61430 // V' H1
	HDCPVPrimeH2 Offset = 0x61434 // V' H2
	HDCPVPrimeH3 Offset = 0x61438 // V' H3
	HDCPVPrimeH4 Offset = 0x6143C // V' H4
	HDCPRep      Offset = 0x61440 // Repeater present/control/status
	HDCPStatus   Offset = 0x61444 // Cipher status
	HDCPAKSVHigh Offset = 0x61448 // Transmitter KSV, byte 4
	HDCPAKSVLow  Offset = 0x6144C // Transmitter KSV, bytes 0-3
	HDCPCaps     Offset = 0x61450 // Fuse straps
)

// HDMIBControl is the HDMI-B port control register.
const HDMIBControl Offset = 0x61140

// VPrime lists the five V' registers in H0..H4 order.
var VPrime = [5]Offset{HDCPVPrimeH0, HDCPVPrimeH1, HDCPVPrimeH2, HDCPVPrimeH3, HDCPVPrimeH4}

// HDCPConfig cipher modes.
const (
	ConfigOff            uint32 = 0
	ConfigCaptureAn      uint32 = 1
	ConfigDecryptKeys    uint32 = 2
	ConfigAuthAndEncrypt uint32 = 3
	ConfigModeMask       uint32 = 0x7
)

// HDCPStatus bits.
const (
	StatusFrameCountMask uint32 = 0xFF    // Cipher frame counter, bits 7:0
	StatusAnReady        uint32 = 1 << 8  // Captured An is readable
	StatusRiReady        uint32 = 1 << 9  // R0 computed
	StatusRiMatch        uint32 = 1 << 10 // HDCP_RI matches the cipher's Ri
	StatusEncrypting     uint32 = 1 << 11 // Link encryption active
	StatusActive         uint32 = 1 << 12 // hdcp_status: cipher authenticated
	StatusMac            uint32 = 1 << 13 // Device keys loaded
	StatusMchIDReady     uint32 = 1 << 14
)

// FrameBoundary is the Ri update period in frames.
const FrameBoundary = 128

// HDCPCaps bits.
const (
	CapsHDCPDisabled uint32 = 1 << 0 // HDCP fused off
)

// HDMIBControl bits.
const (
	PortHDCPEnable uint32 = 1 << 30 // Encrypt the port's TMDS stream
)

// HDCPRep fields.
const (
	RepPresent uint32 = 1 << 0 // Downstream device is a repeater

	RepControlShift        = 1
	RepControlMask  uint32 = 0x7 << RepControlShift

	RepStatusShift        = 16
	RepStatusMask  uint32 = 0xF << RepStatusShift
)

// RepControl selects how the SHA-1 engine consumes the next HDCPSHA1In word.
type RepControl uint32

// SHA-1 engine controls.
const (
	RepCtlIdle     RepControl = 0
	RepCtlText32   RepControl = 1 // 32 bits of text
	RepCtlComplete RepControl = 2 // Finish SHA-1 and compare against V'
	RepCtlText24   RepControl = 4 // 24 bits of text, 8 bits of Mo
	RepCtlText16   RepControl = 5 // 16 bits of text, 16 bits of Mo
	RepCtlText8    RepControl = 6 // 8 bits of text, 24 bits of Mo
	RepCtlMo32     RepControl = 7 // 32 bits of Mo
)

// TextControl returns the control that merges n text bytes with 4-n Mo bytes.
// n must be in 0..4; 0 selects pure Mo and 4 selects pure text.
func TextControl(n int) RepControl {
	switch n {
	case 4:
		return RepCtlText32
	case 3:
		return RepCtlText24
	case 2:
		return RepCtlText16
	case 1:
		return RepCtlText8
	default:
		return RepCtlMo32
	}
}

// TextBytes returns the number of text bytes a control consumes from one
// HDCPSHA1In word. Mo-only and non-feed controls return 0.
func (c RepControl) TextBytes() int {
	switch c {
	case RepCtlText32:
		return 4
	case RepCtlText24:
		return 3
	case RepCtlText16:
		return 2
	case RepCtlText8:
		return 1
	default:
		return 0
	}
}

// String returns the control name.
func (c RepControl) String() string {
	switch c {
	case RepCtlIdle:
		return "Idle"
	case RepCtlText32:
		return "Text32"
	case RepCtlComplete:
		return "Complete"
	case RepCtlText24:
		return "Text24Mo8"
	case RepCtlText16:
		return "Text16Mo16"
	case RepCtlText8:
		return "Text8Mo24"
	case RepCtlMo32:
		return "Mo32"
	default:
		return fmt.Sprintf("RepControl(%d)", uint32(c))
	}
}

// RepState is the SHA-1 engine status reported in HDCPRep.
// It can only be observed, never written.
type RepState uint32

// SHA-1 engine states.
const (
	RepIdle            RepState = 0
	RepBusy            RepState = 1
	RepReady           RepState = 2 // Ready for next data
	RepCompleteNoMatch RepState = 4
	RepCompleteMatch   RepState = 12
)

// String returns the state name.
func (s RepState) String() string {
	switch s {
	case RepIdle:
		return "Idle"
	case RepBusy:
		return "Busy"
	case RepReady:
		return "ReadyForNextData"
	case RepCompleteNoMatch:
		return "CompleteNoMatch"
	case RepCompleteMatch:
		return "CompleteMatch"
	default:
		return fmt.Sprintf("RepState(%d)", uint32(s))
	}
}

// RepStateOf extracts the engine status from an HDCPRep value.
func RepStateOf(v uint32) RepState {
	return RepState((v & RepStatusMask) >> RepStatusShift)
}

// WithRepControl returns v with its control field replaced by c.
// The repeater-present bit is preserved.
func WithRepControl(v uint32, c RepControl) uint32 {
	return (v &^ (RepControlMask | RepStatusMask)) | (uint32(c)<<RepControlShift)&RepControlMask
}

// RepControlOf extracts the control field from an HDCPRep value.
func RepControlOf(v uint32) RepControl {
	return RepControl((v & RepControlMask) >> RepControlShift)
}

// FrameCount extracts the cipher frame counter from an HDCPStatus value.
func FrameCount(status uint32) uint8 {
	return uint8(status & StatusFrameCountMask)
}

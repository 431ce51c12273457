package hdcp

import (
	"encoding/binary"
	"fmt"

	"github.com/backkem/hdcp/pkg/ksv"
	"github.com/backkem/hdcp/pkg/regs"
)

// SHA-1 input layout.
const (
	topologySize    = 2  // BStatus (HDMI) or BInfo (DisplayPort)
	moSize          = 8  // M0, supplied by the cipher
	lengthFieldSize = 8  // Message length in bits, big-endian
	sha1BlockSize   = 64 // SHA-1 block
	sha1MarkerSize  = 1  // 0x80 terminator, inserted by the cipher
)

// SHA1MessageLen returns the length of the hashed message for count
// downstream devices: the KSV list, the topology word and M0.
func SHA1MessageLen(count int) int {
	return count*ksv.Size + topologySize + moSize
}

// SHA1InputLen returns the padded length of the SHA-1 input buffer for count
// devices: the smallest multiple of 64 that holds the message, the
// terminator byte and the length field.
//
// This is one block longer than ceil((5n+18)/64)*64 for n = 22 and 86, where
// that formula leaves no room for the terminator.
func SHA1InputLen(count int) int {
	n := SHA1MessageLen(count) + sha1MarkerSize + lengthFieldSize
	return (n + sha1BlockSize - 1) / sha1BlockSize * sha1BlockSize
}

// BuildSHA1Input lays out the SHA-1 input for V:
//
//	KSV list (5*count bytes, as read from the FIFO)
//	topology (2 bytes, little-endian)
//	M0 placeholder (8 zero bytes, the cipher inserts M0)
//	zero padding (the cipher inserts the 0x80 terminator)
//	message length in bits (8 bytes, big-endian)
//
// The result is a multiple of 64 bytes long. It performs no I/O.
func BuildSHA1Input(ksvList []byte, count int, topology uint16) ([]byte, error) {
	if count < 0 || len(ksvList) < count*ksv.Size {
		return nil, fmt.Errorf("%w: %d bytes for %d devices", ErrKSVListLength, len(ksvList), count)
	}

	buf := make([]byte, SHA1InputLen(count))
	n := copy(buf, ksvList[:count*ksv.Size])
	binary.LittleEndian.PutUint16(buf[n:], topology)

	bits := uint64(SHA1MessageLen(count)) * 8
	binary.BigEndian.PutUint64(buf[len(buf)-lengthFieldSize:], bits)
	return buf, nil
}

// shaWrite is one word fed to HDCPSHA1In and the control that selects how
// the cipher consumes it.
type shaWrite struct {
	ctl  regs.RepControl
	word uint32
}

// sha1Writes splits a buffer from BuildSHA1Input into HDCPSHA1In writes.
// textLen is the number of bytes preceding M0 (the KSV list and topology).
//
// The cipher consumes big-endian words. Text that does not fill a word is
// packed into the word's low-order bytes and shares the write with the head
// of M0. Whole M0 words follow as M0-only writes; if M0 does not end on a
// word boundary its tail shares a write with the first padding bytes, M0 in
// the high-order bytes. Everything after is written as plain text.
func sha1Writes(buf []byte, textLen int) []shaWrite {
	writes := make([]shaWrite, 0, len(buf)/4)
	pos := 0

	for ; pos+4 <= textLen; pos += 4 {
		writes = append(writes, shaWrite{regs.RepCtlText32, binary.BigEndian.Uint32(buf[pos:])})
	}

	moLeft := moSize
	if rem := textLen - pos; rem > 0 {
		var w uint32
		for _, b := range buf[pos:textLen] {
			w = w<<8 | uint32(b)
		}
		writes = append(writes, shaWrite{regs.TextControl(rem), w})
		moLeft -= 4 - rem
		pos += 4
	}

	for ; moLeft >= 4; moLeft -= 4 {
		writes = append(writes, shaWrite{regs.RepCtlMo32, binary.BigEndian.Uint32(buf[pos:])})
		pos += 4
	}

	if moLeft > 0 {
		writes = append(writes, shaWrite{regs.TextControl(4 - moLeft), binary.BigEndian.Uint32(buf[pos:])})
		pos += 4
	}

	for ; pos < len(buf); pos += 4 {
		writes = append(writes, shaWrite{regs.RepCtlText32, binary.BigEndian.Uint32(buf[pos:])})
	}
	return writes
}

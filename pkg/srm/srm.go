package srm

import (
	"encoding/binary"
	"fmt"
	"os"
	"slices"

	"github.com/backkem/hdcp/pkg/ksv"
)

// Layout constants.
const (
	// ID is the SRM ID of an HDCP 1.x message, in the high nibble of byte 0.
	ID = 0x8

	HeaderSize    = 5
	LengthSize    = 3
	SignatureSize = 40

	// MaxFirstGenerationSize is the largest first-generation SRM.
	MaxFirstGenerationSize = 5 * 1024
)

const countMask = 0x7F

// SRM is a parsed System Renewability Message.
type SRM struct {
	Version    uint16
	Generation uint8

	// Revoked holds the revoked KSVs in receiver wire order, ready for
	// comparison against KSVs read over DDC.
	Revoked ksv.RevocationSet

	Signature [SignatureSize]byte
}

// Parse decodes the first generation of an SRM.
func Parse(b []byte) (*SRM, error) {
	if len(b) < HeaderSize+LengthSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooShort, len(b))
	}
	if id := b[0] >> 4; id != ID {
		return nil, fmt.Errorf("%w: %#x", ErrUnknownID, id)
	}

	s := &SRM{
		Version:    binary.BigEndian.Uint16(b[2:4]),
		Generation: b[4],
	}

	vrlLen := int(b[5])<<16 | int(b[6])<<8 | int(b[7])
	if vrlLen < LengthSize+SignatureSize || HeaderSize+vrlLen > MaxFirstGenerationSize {
		return nil, fmt.Errorf("%w: %d", ErrLength, vrlLen)
	}
	if HeaderSize+vrlLen > len(b) {
		return nil, fmt.Errorf("%w: VRL length %d, %d bytes available", ErrTooShort, vrlLen, len(b)-HeaderSize)
	}

	vrl := b[HeaderSize+LengthSize : HeaderSize+vrlLen-SignatureSize]
	copy(s.Signature[:], b[HeaderSize+vrlLen-SignatureSize:])

	for len(vrl) > 0 {
		n := int(vrl[0] & countMask)
		vrl = vrl[1:]
		if len(vrl) < n*ksv.Size {
			return nil, fmt.Errorf("%w: vector of %d KSVs", ErrLength, n)
		}
		for i := 0; i < n; i++ {
			s.Revoked = append(s.Revoked, fromSRM(vrl[i*ksv.Size:]))
		}
		vrl = vrl[n*ksv.Size:]
	}
	return s, nil
}

// Load reads and parses an SRM file.
func Load(path string) (*SRM, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// fromSRM converts a KSV stored most significant byte first.
func fromSRM(b []byte) ksv.KSV {
	var k ksv.KSV
	copy(k[:], b[:ksv.Size])
	slices.Reverse(k[:])
	return k
}

// Newer reports whether s supersedes other. A nil other is always
// superseded.
func (s *SRM) Newer(other *SRM) bool {
	return other == nil || s.Version > other.Version
}

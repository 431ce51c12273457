// Package ksv implements HDCP Key Selection Vectors and revocation checks.
//
// A KSV is a 40-bit device identifier. Every valid KSV has exactly 20 bits
// set to one; any other Hamming weight marks the vector as invalid.
//
// KSVs are kept in wire order: the order in which they are read from the
// receiver's DDC port, least-significant byte first.
package ksv

import (
	"encoding/hex"
	"fmt"
	"math/bits"
	"strings"
)

const (
	// Size is the length of a KSV in bytes.
	Size = 5

	// Weight is the number of set bits in a valid KSV.
	Weight = 20
)

// KSV is a 40-bit Key Selection Vector in wire (little-endian) order.
type KSV [Size]byte

// FromBytes creates a KSV from a 5-byte slice.
func FromBytes(b []byte) (KSV, error) {
	var k KSV
	if len(b) != Size {
		return k, fmt.Errorf("%w: got %d bytes", ErrInvalidLength, len(b))
	}
	copy(k[:], b)
	return k, nil
}

// FromUint64 creates a KSV from the low 40 bits of v.
func FromUint64(v uint64) KSV {
	var k KSV
	for i := range k {
		k[i] = byte(v >> (8 * i))
	}
	return k
}

// Uint64 returns the KSV as an integer, treating byte 0 as least significant.
func (k KSV) Uint64() uint64 {
	var v uint64
	for i := Size - 1; i >= 0; i-- {
		v = v<<8 | uint64(k[i])
	}
	return v
}

// OnesCount returns the number of bits set in the KSV.
func (k KSV) OnesCount() int {
	n := 0
	for _, b := range k {
		n += bits.OnesCount8(b)
	}
	return n
}

// Valid reports whether the KSV has exactly 20 bits set.
func (k KSV) Valid() bool {
	return k.OnesCount() == Weight
}

// String returns the KSV as hex bytes in wire order.
func (k KSV) String() string {
	return hex.EncodeToString(k[:])
}

// Parse parses a KSV from a hex string in wire order.
// Separators (":", "-", " ") are ignored.
func Parse(s string) (KSV, error) {
	clean := strings.NewReplacer(":", "", "-", "", " ", "").Replace(s)
	b, err := hex.DecodeString(clean)
	if err != nil {
		return KSV{}, fmt.Errorf("ksv: parse %q: %w", s, err)
	}
	return FromBytes(b)
}

// IsValidBKSV reports whether buf holds a valid KSV.
// It fails immediately unless buf is exactly 5 bytes long; otherwise the KSV
// is valid iff exactly 20 of its 40 bits are set.
func IsValidBKSV(buf []byte) bool {
	if len(buf) != Size {
		return false
	}
	n := 0
	for _, b := range buf {
		n += bits.OnesCount8(b)
	}
	return n == Weight
}

// SplitList splits a KSV FIFO read into individual KSVs.
// The list length must be a multiple of 5.
func SplitList(b []byte) ([]KSV, error) {
	if len(b)%Size != 0 {
		return nil, fmt.Errorf("%w: list of %d bytes", ErrInvalidLength, len(b))
	}
	list := make([]KSV, len(b)/Size)
	for i := range list {
		copy(list[i][:], b[i*Size:])
	}
	return list, nil
}

// JoinList concatenates KSVs into FIFO wire layout.
func JoinList(list []KSV) []byte {
	b := make([]byte, 0, len(list)*Size)
	for _, k := range list {
		b = append(b, k[:]...)
	}
	return b
}

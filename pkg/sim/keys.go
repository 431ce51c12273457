package sim

import (
	"crypto/sha256"
	"encoding/binary"
	"io"
	"math/rand/v2"

	"github.com/backkem/hdcp/pkg/ksv"
	"golang.org/x/crypto/hkdf"
)

// sessionKeys stands in for the values the HDCP block cipher derives from
// the authentication exchange.
type sessionKeys struct {
	secret []byte
	mo     [8]byte
}

func deriveKeys(an uint64, aksv, bksv ksv.KSV, repeater bool) *sessionKeys {
	secret := make([]byte, 0, 8+2*ksv.Size+1)
	secret = binary.LittleEndian.AppendUint64(secret, an)
	secret = append(secret, aksv[:]...)
	secret = append(secret, bksv[:]...)
	if repeater {
		secret = append(secret, 1)
	} else {
		secret = append(secret, 0)
	}

	k := &sessionKeys{secret: secret}
	expand(secret, []byte("hdcp-sim m0"), k.mo[:])
	return k
}

// Ri returns the link verification value for an Ri epoch (frame / 128).
func (k *sessionKeys) Ri(epoch uint32) uint16 {
	info := binary.BigEndian.AppendUint32([]byte("hdcp-sim ri"), epoch)
	var b [2]byte
	expand(k.secret, info, b[:])
	return binary.LittleEndian.Uint16(b[:])
}

func expand(secret, info, out []byte) {
	r := hkdf.New(sha256.New, secret, nil, info)
	if _, err := io.ReadFull(r, out); err != nil {
		// hkdf only fails past 255 hash lengths of output
		panic(err)
	}
}

// GenerateKSV returns a deterministic valid KSV (20 of 40 bits set) for seed.
func GenerateKSV(seed uint64) ksv.KSV {
	rng := rand.New(rand.NewPCG(seed, 0x48444350))
	var k ksv.KSV
	for _, bit := range rng.Perm(40)[:ksv.Weight] {
		k[bit/8] |= 1 << (bit % 8)
	}
	return k
}

// GenerateKSVs returns n distinct valid KSVs derived from seed.
func GenerateKSVs(seed uint64, n int) []ksv.KSV {
	list := make([]ksv.KSV, 0, n)
	seen := make(map[ksv.KSV]bool, n)
	for i := uint64(0); len(list) < n; i++ {
		k := GenerateKSV(seed<<16 + i)
		if seen[k] {
			continue
		}
		seen[k] = true
		list = append(list, k)
	}
	return list
}

package sim

import (
	"encoding/binary"
	"sync"

	"github.com/backkem/hdcp/pkg/ksv"
	"github.com/backkem/hdcp/pkg/regs"
)

// TransmitterConfig configures a Transmitter.
type TransmitterConfig struct {
	// AKSV is the transmitter's key selection vector.
	// Default: GenerateKSV(1)
	AKSV ksv.KSV

	// Fused reports HDCP as disabled in HDCPCaps.
	Fused bool

	// AnLatency, RiLatency and SHALatency are the number of status reads
	// before An, R0 and each SHA-1 step become ready.
	AnLatency  int
	RiLatency  int
	SHALatency int

	// StopFrames is the number of frames the cipher keeps reporting
	// active after it is switched off.
	StopFrames uint32

	// NoAn, NoRi and NoSHA make the corresponding step never complete.
	NoAn  bool
	NoRi  bool
	NoSHA bool
}

// Access is one recorded register write.
type Access struct {
	Offset regs.Offset
	Value  uint32
}

// Transmitter emulates the transmitter's HDCP register block. It
// implements regs.Accessor and is safe for concurrent use.
type Transmitter struct {
	config TransmitterConfig
	link   *Link

	mu     sync.Mutex
	store  map[regs.Offset]uint32
	writes []Access

	seeds  [2]uint32
	an     uint64
	mode   uint32
	keys   *sessionKeys
	active bool

	anWait   int
	anReady  bool
	riWait   int
	riReady  bool
	stopping bool
	stopAt   uint32

	sha sha1Engine
}

// NewTransmitter creates a Transmitter on link.
func NewTransmitter(link *Link, config TransmitterConfig) *Transmitter {
	if config.AKSV == (ksv.KSV{}) {
		config.AKSV = GenerateKSV(1)
	}
	return &Transmitter{
		config: config,
		link:   link,
		store:  make(map[regs.Offset]uint32),
	}
}

// AKSV returns the transmitter's KSV.
func (t *Transmitter) AKSV() ksv.KSV {
	return t.config.AKSV
}

// Read implements regs.Accessor.
func (t *Transmitter) Read(off regs.Offset) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch off {
	case regs.HDCPCaps:
		if t.config.Fused {
			return regs.CapsHDCPDisabled
		}
		return 0
	case regs.HDCPConfig:
		return t.mode
	case regs.HDCPAnLow:
		if !t.anReady {
			return 0
		}
		return uint32(t.an)
	case regs.HDCPAnHigh:
		if !t.anReady {
			return 0
		}
		return uint32(t.an >> 32)
	case regs.HDCPAKSVLow:
		return binary.LittleEndian.Uint32(t.config.AKSV[0:4])
	case regs.HDCPAKSVHigh:
		return uint32(t.config.AKSV[4])
	case regs.HDCPStatus:
		return t.status()
	case regs.HDCPRep:
		return t.sha.register(t.config.NoSHA)
	default:
		return t.store[off]
	}
}

// Write implements regs.Accessor.
func (t *Transmitter) Write(off regs.Offset, val uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.writes = append(t.writes, Access{Offset: off, Value: val})

	switch off {
	case regs.HDCPConfig:
		t.setMode(val & regs.ConfigModeMask)
	case regs.HDCPInit:
		t.seeds[0], t.seeds[1] = t.seeds[1], val
	case regs.HDCPRep:
		if t.sha.writeRep(val) {
			var vprime [5]uint32
			for i, o := range regs.VPrime {
				vprime[i] = t.store[o]
			}
			t.sha.complete(vprime)
			t.sha.busy = t.config.SHALatency
		}
	case regs.HDCPSHA1In:
		t.sha.feed(val, t.keys, t.config.SHALatency)
	case regs.HDCPAnLow, regs.HDCPAnHigh, regs.HDCPStatus, regs.HDCPCaps,
		regs.HDCPAKSVLow, regs.HDCPAKSVHigh:
		// read-only
	default:
		t.store[off] = val
	}
}

func (t *Transmitter) setMode(mode uint32) {
	prev := t.mode
	t.mode = mode

	switch mode {
	case regs.ConfigOff:
		t.anReady = false
		t.riReady = false
		t.keys = nil
		t.sha.reset()
		if t.active && prev != regs.ConfigOff {
			t.stopping = true
			t.stopAt = t.link.Frame() + t.config.StopFrames
		}
	case regs.ConfigCaptureAn:
		t.an = uint64(t.seeds[0])<<32 | uint64(t.seeds[1])
		t.an ^= 0x5A5A_A5A5_0F0F_F0F0
		t.anReady = false
		t.anWait = t.config.AnLatency
	case regs.ConfigAuthAndEncrypt:
		var bksv ksv.KSV
		binary.LittleEndian.PutUint32(bksv[0:4], t.store[regs.HDCPBKSVLow])
		bksv[4] = byte(t.store[regs.HDCPBKSVHigh])
		repeater := t.sha.present
		t.keys = deriveKeys(t.an, t.config.AKSV, bksv, repeater)
		t.active = true
		t.stopping = false
		t.riReady = false
		t.riWait = t.config.RiLatency
	}
}

func (t *Transmitter) status() uint32 {
	frame := t.link.tick()
	v := frame & regs.StatusFrameCountMask

	if t.mode == regs.ConfigCaptureAn && !t.anReady && !t.config.NoAn {
		if t.anWait <= 0 {
			t.anReady = true
		}
		t.anWait--
	}
	if t.mode == regs.ConfigAuthAndEncrypt && !t.riReady && !t.config.NoRi {
		if t.riWait <= 0 {
			t.riReady = true
		}
		t.riWait--
	}
	if t.stopping && frame >= t.stopAt {
		t.stopping = false
		t.active = false
	}

	if t.anReady {
		v |= regs.StatusAnReady
	}
	if t.riReady {
		v |= regs.StatusRiReady
		if t.keys != nil && uint16(t.store[regs.HDCPRi]) == t.keys.Ri(epoch(frame)) {
			v |= regs.StatusRiMatch
		}
	}
	if t.active {
		v |= regs.StatusActive
		if t.store[regs.HDMIBControl]&regs.PortHDCPEnable != 0 {
			v |= regs.StatusEncrypting
		}
	}
	return v
}

// Mode returns the current cipher mode.
func (t *Transmitter) Mode() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

// Writes returns the recorded register writes.
func (t *Transmitter) Writes() []Access {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Access(nil), t.writes...)
}

// WritesTo returns the values written to off, in order.
func (t *Transmitter) WritesTo(off regs.Offset) []uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var vals []uint32
	for _, w := range t.writes {
		if w.Offset == off {
			vals = append(vals, w.Value)
		}
	}
	return vals
}

// ResetWrites clears the write log.
func (t *Transmitter) ResetWrites() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writes = nil
}

// SHA1Message returns the message the SHA-1 engine hashed on its last
// completion, or nil if the input was rejected.
func (t *Transmitter) SHA1Message() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.sha.message...)
}

// SHA1Input returns the bytes the SHA-1 engine reassembled from the words
// fed since the last reset, M0 included.
func (t *Transmitter) SHA1Input() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.sha.input...)
}

// MO returns the session's M0, or false when the cipher is not
// authenticating.
func (t *Transmitter) MO() ([8]byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.keys == nil {
		return [8]byte{}, false
	}
	return t.keys.mo, true
}

package regs

import "github.com/pion/logging"

// Accessor reads and writes 32-bit registers.
//
// Register access cannot fail once the block is mapped; implementations are
// not required to be safe for concurrent use.
type Accessor interface {
	Read(off Offset) uint32
	Write(off Offset, val uint32)
}

// SetBits sets mask in the register at off with a read-modify-write.
func SetBits(a Accessor, off Offset, mask uint32) {
	a.Write(off, a.Read(off)|mask)
}

// ClearBits clears mask in the register at off with a read-modify-write.
func ClearBits(a Accessor, off Offset, mask uint32) {
	a.Write(off, a.Read(off)&^mask)
}

// IsSet reports whether all bits of mask are set in the register at off.
func IsSet(a Accessor, off Offset, mask uint32) bool {
	return a.Read(off)&mask == mask
}

// Tracer wraps an Accessor and logs every access at trace level.
type Tracer struct {
	inner Accessor
	log   logging.LeveledLogger
}

// NewTracer wraps inner, logging through a "regs" scoped logger.
func NewTracer(inner Accessor, factory logging.LoggerFactory) *Tracer {
	return &Tracer{
		inner: inner,
		log:   factory.NewLogger("regs"),
	}
}

// Read reads the register and logs the value.
func (t *Tracer) Read(off Offset) uint32 {
	v := t.inner.Read(off)
	t.log.Tracef("read  0x%05x = 0x%08x", uint32(off), v)
	return v
}

// Write logs and writes the register.
func (t *Tracer) Write(off Offset, val uint32) {
	t.log.Tracef("write 0x%05x = 0x%08x", uint32(off), val)
	t.inner.Write(off, val)
}

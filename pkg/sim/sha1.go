package sim

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"

	"github.com/backkem/hdcp/pkg/regs"
)

// sha1Engine emulates the cipher's repeater SHA-1 unit.
type sha1Engine struct {
	present bool
	ctl     regs.RepControl
	state   regs.RepState
	busy    int

	input   []byte
	moUsed  int
	fault   bool
	message []byte
}

func (e *sha1Engine) reset() {
	e.ctl = regs.RepCtlIdle
	e.state = regs.RepIdle
	e.busy = 0
	e.input = nil
	e.moUsed = 0
	e.fault = false
}

// register returns the HDCPRep value, advancing a pending busy period.
func (e *sha1Engine) register(stuck bool) uint32 {
	state := e.state
	if e.busy > 0 {
		e.busy--
		state = regs.RepBusy
	} else if stuck && e.ctl != regs.RepCtlIdle {
		state = regs.RepBusy
	}

	v := uint32(e.ctl) << regs.RepControlShift
	v |= uint32(state) << regs.RepStatusShift
	if e.present {
		v |= regs.RepPresent
	}
	return v
}

// writeRep applies an HDCPRep write and reports whether it requested
// completion. The status field is read-only.
func (e *sha1Engine) writeRep(val uint32) bool {
	present := val&regs.RepPresent != 0
	if present != e.present {
		e.reset()
		e.present = present
	}
	if !present {
		return false
	}

	ctl := regs.RepControlOf(val)
	if ctl == e.ctl {
		return false
	}
	e.ctl = ctl

	switch ctl {
	case regs.RepCtlIdle:
		e.state = regs.RepIdle
	case regs.RepCtlComplete:
		return true
	default:
		if e.state == regs.RepCompleteMatch || e.state == regs.RepCompleteNoMatch {
			e.input = nil
			e.moUsed = 0
		}
		e.state = regs.RepReady
	}
	return false
}

func (e *sha1Engine) feed(word uint32, keys *sessionKeys, latency int) {
	if !e.present || e.state != regs.RepReady || e.busy > 0 {
		e.fault = true
		return
	}

	switch e.ctl {
	case regs.RepCtlText32:
		e.input = binary.BigEndian.AppendUint32(e.input, word)
	case regs.RepCtlMo32:
		e.appendMo(keys, 4)
	case regs.RepCtlText24, regs.RepCtlText16, regs.RepCtlText8:
		n := e.ctl.TextBytes()
		text := make([]byte, 0, n)
		for i := n - 1; i >= 0; i-- {
			text = append(text, byte(word>>(8*i)))
		}
		if e.moUsed == 0 {
			e.input = append(e.input, text...)
			e.appendMo(keys, 4-n)
		} else {
			e.appendMo(keys, 4-n)
			e.input = append(e.input, text...)
		}
	default:
		e.fault = true
	}

	e.busy = latency
}

func (e *sha1Engine) appendMo(keys *sessionKeys, n int) {
	if keys == nil || e.moUsed+n > len(keys.mo) {
		e.fault = true
		return
	}
	e.input = append(e.input, keys.mo[e.moUsed:e.moUsed+n]...)
	e.moUsed += n
}

// complete finishes the hash and compares it against the V' registers.
func (e *sha1Engine) complete(vprime [5]uint32) {
	if !e.present {
		return
	}
	e.message = e.parse()
	e.state = regs.RepCompleteNoMatch
	if e.message != nil {
		digest := sha1.Sum(e.message)
		match := true
		for i, h := range vprime {
			if binary.BigEndian.Uint32(digest[4*i:]) != h {
				match = false
			}
		}
		if match {
			e.state = regs.RepCompleteMatch
		}
	}
	e.input = nil
	e.moUsed = 0
	e.fault = false
}

// parse validates the padded input and returns the message it carries.
func (e *sha1Engine) parse() []byte {
	in := e.input
	if e.fault || e.moUsed != 8 || len(in) == 0 || len(in)%64 != 0 {
		return nil
	}
	bits := binary.BigEndian.Uint64(in[len(in)-8:])
	if bits%8 != 0 {
		return nil
	}
	l := int(bits / 8)
	// The terminator goes in the byte after the message.
	if l+1 > len(in)-8 || !bytes.Equal(in[l:len(in)-8], make([]byte, len(in)-8-l)) {
		return nil
	}
	return append([]byte(nil), in[:l]...)
}

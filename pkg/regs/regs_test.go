package regs

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pion/logging"
)

// mapAccessor is a plain register file.
type mapAccessor map[Offset]uint32

func (m mapAccessor) Read(off Offset) uint32       { return m[off] }
func (m mapAccessor) Write(off Offset, val uint32) { m[off] = val }

func TestRepStateValues(t *testing.T) {
	// Values observed from hardware; CompleteMatch carries the complete bit too
	if RepCompleteNoMatch != 4 || RepCompleteMatch != 12 {
		t.Fatalf("complete states = %d/%d, want 4/12", RepCompleteNoMatch, RepCompleteMatch)
	}

	v := uint32(RepCompleteMatch)<<RepStatusShift | RepPresent
	if got := RepStateOf(v); got != RepCompleteMatch {
		t.Errorf("RepStateOf = %v, want CompleteMatch", got)
	}
}

func TestWithRepControlPreservesPresent(t *testing.T) {
	v := RepPresent | uint32(RepReady)<<RepStatusShift | uint32(RepCtlMo32)<<RepControlShift

	got := WithRepControl(v, RepCtlText16)
	if got&RepPresent == 0 {
		t.Error("repeater-present bit cleared")
	}
	if RepControlOf(got) != RepCtlText16 {
		t.Errorf("control = %v, want Text16Mo16", RepControlOf(got))
	}
	if RepStateOf(got) != RepIdle {
		t.Errorf("status bits leaked into write: %v", RepStateOf(got))
	}
}

func TestTextControl(t *testing.T) {
	for n := 0; n <= 4; n++ {
		c := TextControl(n)
		if c.TextBytes() != n {
			t.Errorf("TextControl(%d).TextBytes() = %d", n, c.TextBytes())
		}
	}
	if TextControl(0) != RepCtlMo32 {
		t.Errorf("TextControl(0) = %v, want Mo32", TextControl(0))
	}
	if RepCtlComplete.TextBytes() != 0 {
		t.Error("Complete control consumes no text")
	}
}

func TestSetClearBits(t *testing.T) {
	m := mapAccessor{HDMIBControl: 0x1}

	SetBits(m, HDMIBControl, PortHDCPEnable)
	if !IsSet(m, HDMIBControl, PortHDCPEnable|0x1) {
		t.Errorf("HDMIBControl = %#x after SetBits", m[HDMIBControl])
	}

	ClearBits(m, HDMIBControl, PortHDCPEnable)
	if m[HDMIBControl] != 0x1 {
		t.Errorf("HDMIBControl = %#x after ClearBits, want 0x1", m[HDMIBControl])
	}
}

func TestFrameCount(t *testing.T) {
	status := StatusActive | StatusEncrypting | 0x7F
	if FrameCount(status) != 0x7F {
		t.Errorf("FrameCount = %#x, want 0x7f", FrameCount(status))
	}
}

func TestTracer(t *testing.T) {
	var buf bytes.Buffer
	factory := &logging.DefaultLoggerFactory{
		Writer:          &buf,
		DefaultLogLevel: logging.LogLevelTrace,
		ScopeLevels:     map[string]logging.LogLevel{},
	}

	m := mapAccessor{}
	tr := NewTracer(m, factory)
	tr.Write(HDCPConfig, ConfigCaptureAn)
	if tr.Read(HDCPConfig) != ConfigCaptureAn {
		t.Fatal("Tracer did not pass through to the inner accessor")
	}

	out := buf.String()
	if !strings.Contains(out, "write 0x61400") || !strings.Contains(out, "read  0x61400") {
		t.Errorf("trace output missing accesses:\n%s", out)
	}
}

package hdcp

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/backkem/hdcp/pkg/ddc"
	"github.com/backkem/hdcp/pkg/ksv"
	"github.com/backkem/hdcp/pkg/regs"
	"github.com/backkem/hdcp/pkg/sim"
	"github.com/pion/logging"
	"github.com/pion/transport/v3/test"
)

func TestNewValidation(t *testing.T) {
	pair := sim.NewPair(sim.PairConfig{})

	if _, err := New(Config{Bus: pair.Receiver}); !errors.Is(err, ErrRegistersRequired) {
		t.Errorf("New without registers = %v, want ErrRegistersRequired", err)
	}
	if _, err := New(Config{Registers: pair.Transmitter}); !errors.Is(err, ErrBusRequired) {
		t.Errorf("New without bus = %v, want ErrBusRequired", err)
	}
}

func TestFusedOff(t *testing.T) {
	pair := sim.NewPair(sim.PairConfig{Transmitter: sim.TransmitterConfig{Fused: true}})
	c := newTestController(t, pair)

	if c.Query() {
		t.Error("Query() = true on fused part")
	}
	if c.IsEnabled() {
		t.Error("IsEnabled() = true on fused part")
	}
	if err := c.Enable(true); !errors.Is(err, ErrNotSupported) {
		t.Errorf("Enable(true) = %v, want ErrNotSupported", err)
	}
	if len(pair.Transmitter.Writes()) != 0 {
		t.Errorf("fused part was written: %v", pair.Transmitter.Writes())
	}
}

func TestEnable(t *testing.T) {
	pair := sim.NewPair(sim.PairConfig{})
	c := newTestController(t, pair)

	if c.IsEnabled() {
		t.Fatal("IsEnabled() = true before Enable")
	}
	enableOrFatal(t, c)

	if !c.IsEnabled() {
		t.Error("IsEnabled() = false after Enable")
	}
	if st := c.State(); st != StateEncrypting {
		t.Errorf("State() = %s, want Encrypting", st)
	}

	tx := pair.Transmitter
	if n := len(tx.WritesTo(regs.HDCPInit)); n != 2 {
		t.Errorf("%d seed writes, want 2", n)
	}
	if mode := tx.Mode(); mode != regs.ConfigAuthAndEncrypt {
		t.Errorf("cipher mode = %d, want AuthAndEncrypt", mode)
	}
	want := regs.StatusActive | regs.StatusEncrypting | regs.StatusRiMatch
	if got := tx.Read(regs.HDCPStatus); got&want != want {
		t.Errorf("status = %#x, want %#x set", got, want)
	}
	if !pair.Receiver.Authenticated() {
		t.Error("receiver never received Aksv")
	}

	s := c.Session()
	if s.BKSV != pair.Receiver.BKSV() {
		t.Errorf("session Bksv = %s, want %s", s.BKSV, pair.Receiver.BKSV())
	}
	if s.AKSV != tx.AKSV() {
		t.Errorf("session Aksv = %s, want %s", s.AKSV, tx.AKSV())
	}
	if s.Repeater {
		t.Error("sink reported as repeater")
	}
	if tx.Read(regs.HDCPRep)&regs.RepPresent != 0 {
		t.Error("repeater-present bit set for a sink")
	}
}

func TestEnableSleepsForR0(t *testing.T) {
	pair := sim.NewPair(sim.PairConfig{})
	sleeper := &nopSleeper{}
	c := newTestController(t, pair, func(c *Config) { c.Sleeper = sleeper })

	enableOrFatal(t, c)
	if sleeper.total < DefaultR0Settle {
		t.Errorf("slept %v, want at least %v", sleeper.total, DefaultR0Settle)
	}
}

func TestEnableRepeaterSetsPresentBit(t *testing.T) {
	pair := sim.NewPair(sim.PairConfig{Repeater: true, Downstream: sim.GenerateKSVs(9, 2)})
	c := newTestController(t, pair)

	enableOrFatal(t, c)
	if pair.Transmitter.Read(regs.HDCPRep)&regs.RepPresent == 0 {
		t.Error("repeater-present bit not set")
	}
	if !c.Session().Repeater {
		t.Error("session not marked repeater")
	}
}

func TestEnableAnTimeout(t *testing.T) {
	lim := test.TimeOut(10 * time.Second)
	defer lim.Stop()

	pair := sim.NewPair(sim.PairConfig{Transmitter: sim.TransmitterConfig{NoAn: true}})
	c := newTestController(t, pair)

	err := c.Enable(true)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Enable(true) = %v, want ErrTimeout", err)
	}
	if pair.Receiver.Transactions() != 0 {
		t.Errorf("receiver contacted %d times before An was ready", pair.Receiver.Transactions())
	}
	if mode := pair.Transmitter.Mode(); mode != regs.ConfigOff {
		t.Errorf("cipher mode = %d, want off", mode)
	}
	if c.IsEnabled() {
		t.Error("IsEnabled() = true after failure")
	}
}

func TestEnableRandomFailure(t *testing.T) {
	pair := sim.NewPair(sim.PairConfig{})
	c := newTestController(t, pair, func(c *Config) { c.Rand = failingReader{} })

	err := c.Enable(true)
	if !errors.Is(err, ErrRandom) || !errors.Is(err, errNoEntropy) {
		t.Fatalf("Enable(true) = %v, want ErrRandom wrapping the reader error", err)
	}
	if len(pair.Transmitter.WritesTo(regs.HDCPInit)) != 0 {
		t.Error("seed written without entropy")
	}
}

func TestEnableInvalidBKSV(t *testing.T) {
	bad := ksv.FromUint64(0x000000FFFF) // 16 bits set
	pair := sim.NewPair(sim.PairConfig{Receiver: sim.ReceiverConfig{BKSV: bad}})
	c := newTestController(t, pair)

	err := c.Enable(true)
	if !errors.Is(err, ErrInvalidBKSV) {
		t.Fatalf("Enable(true) = %v, want ErrInvalidBKSV", err)
	}
	if st := StatusOf(err); st != StatusInvalidDeviceRequest {
		t.Errorf("StatusOf = %s, want InvalidDeviceRequest", st)
	}
	if len(pair.Transmitter.WritesTo(regs.HDCPBKSVLow)) != 0 {
		t.Error("invalid Bksv loaded into the cipher")
	}
	assertTornDown(t, pair, c)
}

func TestEnableBusFailures(t *testing.T) {
	subs := []struct {
		name string
		sub  byte
	}{
		{"An", ddc.SubAn},
		{"Aksv", ddc.SubAKSV},
		{"Bksv", ddc.SubBKSV},
		{"BCaps", ddc.SubBCaps},
		{"Ri", ddc.SubRi},
	}

	for _, tc := range subs {
		t.Run(tc.name, func(t *testing.T) {
			pair := sim.NewPair(sim.PairConfig{})
			pair.Receiver.Fail(tc.sub, 1)
			c := newTestController(t, pair)

			err := c.Enable(true)
			if !errors.Is(err, ErrIO) {
				t.Fatalf("Enable(true) = %v, want ErrIO", err)
			}
			if !errors.Is(err, ddc.ErrTransaction) {
				t.Errorf("error %v does not wrap the bus error", err)
			}
			if st := StatusOf(err); st != StatusUnsuccessful {
				t.Errorf("StatusOf = %s, want Unsuccessful", st)
			}
			assertTornDown(t, pair, c)

			// The failure was transient; a retry succeeds.
			enableOrFatal(t, c)
		})
	}
}

func TestEnableR0Mismatch(t *testing.T) {
	pair := sim.NewPair(sim.PairConfig{})
	pair.Receiver.CorruptRi(true)
	c := newTestController(t, pair)

	if err := c.Enable(true); !errors.Is(err, ErrLinkIntegrity) {
		t.Fatalf("Enable(true) = %v, want ErrLinkIntegrity", err)
	}
	assertTornDown(t, pair, c)
}

func TestEnableRiTimeout(t *testing.T) {
	pair := sim.NewPair(sim.PairConfig{Transmitter: sim.TransmitterConfig{NoRi: true}})
	c := newTestController(t, pair)

	if err := c.Enable(true); !errors.Is(err, ErrTimeout) {
		t.Fatalf("Enable(true) = %v, want ErrTimeout", err)
	}
	assertTornDown(t, pair, c)
}

func TestEnableWithLatency(t *testing.T) {
	lim := test.TimeOut(10 * time.Second)
	defer lim.Stop()

	pair := sim.NewPair(sim.PairConfig{Transmitter: sim.TransmitterConfig{
		AnLatency: 10,
		RiLatency: 10,
	}})
	c := newTestController(t, pair)
	enableOrFatal(t, c)
}

func TestEnableWritesAInfo(t *testing.T) {
	pair := sim.NewPair(sim.PairConfig{Receiver: sim.ReceiverConfig{HDCP11: true}})
	if err := pair.Receiver.Tx(ddc.PrimaryAddress, []byte{ddc.SubAInfo, 0xFF}, nil); err != nil {
		t.Fatal(err)
	}
	c := newTestController(t, pair)

	enableOrFatal(t, c)
	if got := pair.Receiver.AInfo(); got != 0 {
		t.Errorf("AINFO = %#x, want 0", got)
	}
}

func TestDisable(t *testing.T) {
	pair := sim.NewPair(sim.PairConfig{})
	c := newTestController(t, pair)
	enableOrFatal(t, c)

	if err := c.Enable(false); err != nil {
		t.Fatalf("Enable(false) failed: %v", err)
	}
	if c.IsEnabled() {
		t.Error("IsEnabled() = true after disable")
	}
	tx := pair.Transmitter
	if tx.Read(regs.HDCPRi) != 0 {
		t.Error("Ri mirror not cleared")
	}
	if tx.Read(regs.HDMIBControl)&regs.PortHDCPEnable != 0 {
		t.Error("port HDCP enable still set")
	}
	if c.Session() != (SessionInfo{}) {
		t.Errorf("session not reset: %+v", c.Session())
	}

	// Disabling twice is harmless.
	if err := c.Enable(false); err != nil {
		t.Fatalf("second Enable(false) failed: %v", err)
	}
	if st := c.State(); st != StateOff {
		t.Errorf("State() = %s, want Off", st)
	}
}

func TestDisableWaitsForVBlank(t *testing.T) {
	pair := sim.NewPair(sim.PairConfig{Transmitter: sim.TransmitterConfig{StopFrames: 1}})
	c := newTestController(t, pair)
	enableOrFatal(t, c)

	if err := c.Enable(false); err != nil {
		t.Fatalf("Enable(false) failed: %v", err)
	}
	if n := pair.Link.VBlanks(); n != 1 {
		t.Errorf("waited %d vblanks, want 1", n)
	}
}

func TestDisableTimeout(t *testing.T) {
	lim := test.TimeOut(10 * time.Second)
	defer lim.Stop()

	pair := sim.NewPair(sim.PairConfig{Transmitter: sim.TransmitterConfig{StopFrames: 10}})
	c := newTestController(t, pair)
	enableOrFatal(t, c)

	if err := c.Enable(false); !errors.Is(err, ErrTimeout) {
		t.Fatalf("Enable(false) = %v, want ErrTimeout", err)
	}
	if n := pair.Link.VBlanks(); n != DefaultDisableFrames {
		t.Errorf("waited %d vblanks, want %d", n, DefaultDisableFrames)
	}
}

func TestReenable(t *testing.T) {
	pair := sim.NewPair(sim.PairConfig{})
	c := newTestController(t, pair)

	enableOrFatal(t, c)
	first := c.Session().An
	if err := c.Enable(false); err != nil {
		t.Fatal(err)
	}
	enableOrFatal(t, c)
	if c.Session().An == first {
		t.Error("An reused across authentications")
	}
}

func TestTracedRegisters(t *testing.T) {
	var buf bytes.Buffer
	factory := &logging.DefaultLoggerFactory{
		Writer:          &buf,
		DefaultLogLevel: logging.LogLevelWarn,
		ScopeLevels:     map[string]logging.LogLevel{"regs": logging.LogLevelTrace},
	}

	pair := sim.NewPair(sim.PairConfig{})
	c := newTestController(t, pair, func(c *Config) {
		c.Registers = regs.NewTracer(pair.Transmitter, factory)
		c.LoggerFactory = factory
	})
	enableOrFatal(t, c)

	if !strings.Contains(buf.String(), "write 0x61400 = 0x00000003") {
		t.Errorf("trace missing AuthAndEncrypt write:\n%s", buf.String())
	}
}

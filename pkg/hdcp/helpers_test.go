package hdcp

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/backkem/hdcp/pkg/regs"
	"github.com/backkem/hdcp/pkg/sim"
)

// nopSleeper records delays without blocking.
type nopSleeper struct {
	calls int
	total time.Duration
}

func (s *nopSleeper) Sleep(d time.Duration) {
	s.calls++
	s.total += d
}

var errNoEntropy = errors.New("no entropy")

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errNoEntropy
}

// testConfig returns a Config wired to pair with deterministic randomness
// and no real delays.
func testConfig(pair *sim.Pair) Config {
	return Config{
		Registers:         pair.Transmitter,
		Bus:               pair.Receiver,
		PollAttempts:      50,
		FrameWaitAttempts: 300,
		VBlank:            pair.Link,
		Rand:              rand.NewChaCha8([32]byte{1, 2, 3}),
		Sleeper:           &nopSleeper{},
	}
}

func newTestController(t *testing.T, pair *sim.Pair, opts ...func(*Config)) *Controller {
	t.Helper()

	config := testConfig(pair)
	for _, opt := range opts {
		opt(&config)
	}

	c, err := New(config)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func enableOrFatal(t *testing.T, c *Controller) {
	t.Helper()
	if err := c.Enable(true); err != nil {
		t.Fatalf("Enable(true) failed: %v", err)
	}
}

// assertTornDown checks that a failed authentication left the cipher off.
func assertTornDown(t *testing.T, pair *sim.Pair, c *Controller) {
	t.Helper()

	tx := pair.Transmitter
	if mode := tx.Mode(); mode != regs.ConfigOff {
		t.Errorf("cipher mode = %d, want off", mode)
	}
	if tx.Read(regs.HDMIBControl)&regs.PortHDCPEnable != 0 {
		t.Error("port HDCP enable still set")
	}
	if tx.Read(regs.HDCPRep)&regs.RepPresent != 0 {
		t.Error("repeater-present bit still set")
	}
	if st := c.State(); st != StateOff {
		t.Errorf("State() = %s, want Off", st)
	}
}

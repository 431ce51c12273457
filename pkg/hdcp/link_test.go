package hdcp

import (
	"errors"
	"testing"
	"time"

	"github.com/backkem/hdcp/pkg/ddc"
	"github.com/backkem/hdcp/pkg/sim"
	"github.com/pion/transport/v3/test"
)

func TestCheckLinkHealthy(t *testing.T) {
	pair := sim.NewPair(sim.PairConfig{})
	c := newTestController(t, pair)
	enableOrFatal(t, c)

	for i := 0; i < 5; i++ {
		pair.Link.Advance(200)
		if !c.LinkStatus() {
			t.Fatalf("LinkStatus() = false at frame %d", pair.Link.Frame())
		}
	}
}

func TestCheckLinkFailsWithoutFrameProgress(t *testing.T) {
	lim := test.TimeOut(10 * time.Second)
	defer lim.Stop()

	pair := sim.NewPair(sim.PairConfig{})
	c := newTestController(t, pair, func(c *Config) { c.FrameWaitAttempts = 5 })
	enableOrFatal(t, c)

	pair.Receiver.CorruptRi(true)
	before := pair.Receiver.Transactions()

	err := c.CheckLink()
	if !errors.Is(err, ErrLinkIntegrity) {
		t.Fatalf("CheckLink() = %v, want ErrLinkIntegrity", err)
	}
	if n := pair.Receiver.Transactions() - before; n != DefaultLinkAttempts {
		t.Errorf("Ri' read %d times, want %d", n, DefaultLinkAttempts)
	}
	if c.LinkStatus() {
		t.Error("LinkStatus() = true with corrupt Ri'")
	}
}

func TestCheckLinkRetriesAcrossBoundary(t *testing.T) {
	lim := test.TimeOut(10 * time.Second)
	defer lim.Stop()

	pair := sim.NewPair(sim.PairConfig{})
	c := newTestController(t, pair)
	enableOrFatal(t, c)

	// Ri' is read in frame 127 and compared in frame 128, after the
	// cipher has moved to the next Ri.
	pair.Link.Advance(127 - pair.Link.Frame())
	pair.Link.SetAutoAdvance(1)
	before := pair.Receiver.Transactions()

	if err := c.CheckLink(); err != nil {
		t.Fatalf("CheckLink() = %v", err)
	}
	if n := pair.Receiver.Transactions() - before; n != 2 {
		t.Errorf("Ri' read %d times, want 2", n)
	}
	if f := pair.Link.Frame(); f < 256 {
		t.Errorf("frame %d, want the retry after frame 256", f)
	}
}

func TestCheckLinkReadFailure(t *testing.T) {
	pair := sim.NewPair(sim.PairConfig{})
	c := newTestController(t, pair)
	enableOrFatal(t, c)

	pair.Receiver.Fail(ddc.SubRi, -1)
	if err := c.CheckLink(); !errors.Is(err, ErrIO) {
		t.Fatalf("CheckLink() = %v, want ErrIO", err)
	}
}

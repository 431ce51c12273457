package hdcp

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/backkem/hdcp/pkg/ddc"
	"github.com/backkem/hdcp/pkg/ksv"
	"github.com/backkem/hdcp/pkg/poll"
	"github.com/backkem/hdcp/pkg/regs"
	"github.com/pion/logging"
)

// Controller drives HDCP 1.3 authentication for one display output.
//
// Every exported method holds the controller's lock for its whole duration,
// so a sequence in flight (in particular a SHA-1 feed) is never interleaved
// with another caller's register traffic.
type Controller struct {
	config Config
	regs   regs.Accessor
	rx     *ddc.Receiver

	log     logging.LeveledLogger
	repLog  logging.LeveledLogger
	linkLog logging.LeveledLogger

	// Read once at construction.
	supported bool

	mu      sync.Mutex
	state   State
	session SessionInfo
}

// SessionInfo describes the values exchanged by the current authentication.
// It is reset whenever the cipher is turned off.
type SessionInfo struct {
	An       uint64
	AKSV     ksv.KSV
	BKSV     ksv.KSV
	BCaps    ddc.BCaps
	Repeater bool
}

// New creates a Controller and reads the transmitter's HDCP capability.
// The cipher is not touched.
func New(config Config) (*Controller, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	c := &Controller{
		config: config,
		regs:   config.Registers,
		rx: ddc.NewReceiver(config.Bus, ddc.ReceiverConfig{
			Address:       config.ReceiverAddress,
			LoggerFactory: config.LoggerFactory,
		}),
		log:     config.LoggerFactory.NewLogger("hdcp"),
		repLog:  config.LoggerFactory.NewLogger("hdcp-repeater"),
		linkLog: config.LoggerFactory.NewLogger("hdcp-link"),
		state:   StateOff,
	}

	c.supported = !regs.IsSet(c.regs, regs.HDCPCaps, regs.CapsHDCPDisabled)
	c.log.Infof("HDCP supported=%v", c.supported)

	return c, nil
}

// Query reports whether the transmitter supports HDCP.
func (c *Controller) Query() bool {
	return c.supported
}

// IsEnabled reports whether the cipher is authenticated.
func (c *Controller) IsEnabled() bool {
	if !c.supported {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.isEnabled()
}

func (c *Controller) isEnabled() bool {
	return regs.IsSet(c.regs, regs.HDCPStatus, regs.StatusActive)
}

// State returns the controller's authentication state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Session returns the values exchanged by the current authentication.
func (c *Controller) Session() SessionInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.session
}

// Receiver returns the DDC receiver the controller talks to.
func (c *Controller) Receiver() *ddc.Receiver {
	return c.rx
}

// Enable authenticates the link and starts encryption when on is true, and
// stops encryption when on is false.
//
// Any failure while turning on leaves the cipher off.
func (c *Controller) Enable(on bool) error {
	if !c.supported {
		return ErrNotSupported
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if on {
		return c.enable()
	}
	return c.disable()
}

// setEncryptionLevel turns the cipher on or off. Callers hold c.mu.
func (c *Controller) setEncryptionLevel(level Level) error {
	if level == LevelOn {
		return c.enable()
	}
	return c.disable()
}

func (c *Controller) disable() error {
	c.state = StateDisabling
	c.regs.Write(regs.HDCPConfig, regs.ConfigOff)

	stopped := c.cipherStopped() || poll.Poller{
		Attempts: c.config.DisableFrames,
	}.Until(func() bool {
		c.config.VBlank.WaitVBlank()
		return c.cipherStopped()
	})
	if !stopped {
		c.log.Warnf("cipher still active after %d frames", c.config.DisableFrames)
		return fmt.Errorf("%w: cipher did not stop", ErrTimeout)
	}

	// Ri match stays latched unless the mirror is cleared.
	c.regs.Write(regs.HDCPRi, 0)
	regs.ClearBits(c.regs, regs.HDMIBControl, regs.PortHDCPEnable)
	c.regs.Write(regs.HDCPRep, 0)

	c.session = SessionInfo{}
	c.state = StateOff
	c.log.Debug("HDCP disabled")
	return nil
}

func (c *Controller) cipherStopped() bool {
	return c.regs.Read(regs.HDCPStatus)&(regs.StatusActive|regs.StatusEncrypting) == 0
}

// abort returns the cipher to its off state after a failed authentication
// without waiting for the hardware to acknowledge.
func (c *Controller) abort(err error) error {
	c.regs.Write(regs.HDCPConfig, regs.ConfigOff)
	c.regs.Write(regs.HDCPRi, 0)
	regs.ClearBits(c.regs, regs.HDMIBControl, regs.PortHDCPEnable)
	c.regs.Write(regs.HDCPRep, 0)

	c.session = SessionInfo{}
	c.state = StateOff
	c.log.Warnf("authentication failed: %v", err)
	return err
}

func (c *Controller) enable() error {
	c.session = SessionInfo{}

	an, err := c.captureAn()
	if err != nil {
		c.regs.Write(regs.HDCPConfig, regs.ConfigOff)
		c.state = StateOff
		c.log.Warnf("An capture failed: %v", err)
		return err
	}
	c.state = StateAnCaptured
	c.session.An = an

	aksv := c.readAKSV()
	c.session.AKSV = aksv
	c.log.Debugf("An=%016x Aksv=%s", an, aksv)

	// The receiver latches An when Aksv arrives.
	if err := c.rx.WriteAn(an); err != nil {
		return c.abort(fmt.Errorf("%w: write An: %w", ErrIO, err))
	}
	if err := c.rx.WriteAKSV(aksv); err != nil {
		return c.abort(fmt.Errorf("%w: write Aksv: %w", ErrIO, err))
	}

	bksv, err := c.rx.ReadBKSV()
	if err != nil {
		return c.abort(fmt.Errorf("%w: read Bksv: %w", ErrIO, err))
	}
	if !ksv.IsValidBKSV(bksv[:]) {
		return c.abort(fmt.Errorf("%w: %s has %d bits set", ErrInvalidBKSV, bksv, bksv.OnesCount()))
	}
	c.session.BKSV = bksv

	bcaps, err := c.rx.ReadBCaps()
	if err != nil {
		return c.abort(fmt.Errorf("%w: read BCaps: %w", ErrIO, err))
	}
	c.session.BCaps = bcaps
	c.session.Repeater = bcaps.IsRepeater()
	if bcaps.IsRepeater() {
		regs.SetBits(c.regs, regs.HDCPRep, regs.RepPresent)
	} else {
		regs.ClearBits(c.regs, regs.HDCPRep, regs.RepPresent)
	}
	if bcaps.Supports11() {
		// No advance cipher, no enhanced encryption status signalling.
		if err := c.rx.WriteAInfo(0); err != nil {
			return c.abort(fmt.Errorf("%w: write AINFO: %w", ErrIO, err))
		}
	}

	c.writeBKSV(bksv)
	regs.SetBits(c.regs, regs.HDMIBControl, regs.PortHDCPEnable)
	c.regs.Write(regs.HDCPConfig, regs.ConfigAuthAndEncrypt)

	if !c.poller().Until(func() bool {
		return regs.IsSet(c.regs, regs.HDCPStatus, regs.StatusRiReady)
	}) {
		return c.abort(fmt.Errorf("%w: Ri ready", ErrTimeout))
	}
	c.state = StateAuthenticated

	c.sleep(c.config.R0Settle)

	ri, err := c.rx.ReadRi()
	if err != nil {
		return c.abort(fmt.Errorf("%w: read R0': %w", ErrIO, err))
	}
	c.regs.Write(regs.HDCPRi, uint32(ri))
	if !regs.IsSet(c.regs, regs.HDCPStatus, regs.StatusRiMatch) {
		return c.abort(fmt.Errorf("%w: R0'=%04x", ErrLinkIntegrity, ri))
	}

	c.state = StateEncrypting
	c.log.Infof("HDCP enabled (Bksv=%s repeater=%v)", bksv, bcaps.IsRepeater())
	return nil
}

// captureAn seeds the An generator with two random words and latches the
// result.
func (c *Controller) captureAn() (uint64, error) {
	var seed [4]byte
	for i := 0; i < 2; i++ {
		if _, err := io.ReadFull(c.config.Rand, seed[:]); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrRandom, err)
		}
		c.regs.Write(regs.HDCPInit, binary.LittleEndian.Uint32(seed[:]))
		c.sleep(c.config.AnSettle)
	}

	c.regs.Write(regs.HDCPConfig, regs.ConfigCaptureAn)
	if !poll.New(c.config.PollAttempts, 0).Until(func() bool {
		return regs.IsSet(c.regs, regs.HDCPStatus, regs.StatusAnReady)
	}) {
		return 0, fmt.Errorf("%w: An capture", ErrTimeout)
	}

	lo := c.regs.Read(regs.HDCPAnLow)
	hi := c.regs.Read(regs.HDCPAnHigh)
	return uint64(hi)<<32 | uint64(lo), nil
}

func (c *Controller) readAKSV() ksv.KSV {
	var k ksv.KSV
	binary.LittleEndian.PutUint32(k[0:4], c.regs.Read(regs.HDCPAKSVLow))
	k[4] = byte(c.regs.Read(regs.HDCPAKSVHigh))
	return k
}

func (c *Controller) writeBKSV(k ksv.KSV) {
	c.regs.Write(regs.HDCPBKSVLow, binary.LittleEndian.Uint32(k[0:4]))
	c.regs.Write(regs.HDCPBKSVHigh, uint32(k[4]))
}

// poller returns the bounded poller used for cipher handshakes.
func (c *Controller) poller() poll.Poller {
	return poll.Poller{
		Attempts: c.config.PollAttempts,
		Interval: c.config.PollInterval,
		Sleeper:  c.config.Sleeper,
	}
}

func (c *Controller) sleep(d time.Duration) {
	if d > 0 {
		c.config.Sleeper.Sleep(d)
	}
}

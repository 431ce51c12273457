package hdcp

import (
	"crypto/rand"
	"io"
	"time"

	"github.com/backkem/hdcp/pkg/ddc"
	"github.com/backkem/hdcp/pkg/poll"
	"github.com/backkem/hdcp/pkg/regs"
	"github.com/pion/logging"
)

// Defaults for Config.
const (
	DefaultPollAttempts      = poll.DefaultAttempts
	DefaultPollInterval      = 100 * time.Microsecond
	DefaultDisableFrames     = 2
	DefaultLinkAttempts      = 4
	DefaultFrameWaitAttempts = 3000
	DefaultFrameWaitInterval = time.Millisecond
	DefaultAnSettle          = 10 * time.Microsecond
	DefaultR0Settle          = 100 * time.Millisecond
	DefaultFramePeriod       = time.Second / 60
)

// VBlankWaiter blocks until the next vertical blank of the output's pipe.
type VBlankWaiter interface {
	WaitVBlank()
}

// VBlankFunc adapts a function to the VBlankWaiter interface.
type VBlankFunc func()

// WaitVBlank calls f.
func (f VBlankFunc) WaitVBlank() {
	f()
}

// Config configures a Controller.
type Config struct {
	// Registers accesses the transmitter's HDCP and port registers. Required.
	Registers regs.Accessor

	// Bus is the DDC channel to the receiver. Required.
	Bus ddc.Bus

	// ReceiverAddress is the receiver's 7-bit I2C address.
	// Default: ddc.PrimaryAddress
	ReceiverAddress uint16

	// PollAttempts bounds every cipher handshake poll (An capture, Ri ready,
	// SHA-1 ready, V comparison).
	// Default: 1500
	PollAttempts int

	// PollInterval is slept between polls of Ri ready, SHA-1 ready and the V
	// comparison. An capture always polls back to back.
	// Default: 100µs
	PollInterval time.Duration

	// DisableFrames is the number of vertical blanks to wait for the cipher
	// to report it has stopped.
	// Default: 2
	DisableFrames int

	// LinkAttempts is the number of Ri comparisons made by a link check.
	// Default: 4
	LinkAttempts int

	// FrameWaitAttempts and FrameWaitInterval bound the wait for the cipher
	// frame counter to cross a 128-frame boundary between Ri comparisons.
	// Default: 3000 x 1ms
	FrameWaitAttempts int
	FrameWaitInterval time.Duration

	// AnSettle is slept after each random seed write.
	// Default: 10µs
	AnSettle time.Duration

	// R0Settle is slept after Aksv is written and before R0' is read; the
	// receiver is allowed 100ms to compute it.
	// Default: 100ms
	R0Settle time.Duration

	// VBlank waits for a vertical blank.
	// Default: sleeps one 60Hz frame period
	VBlank VBlankWaiter

	// Rand seeds An generation.
	// Default: crypto/rand.Reader
	Rand io.Reader

	// Sleeper is used for every delay above.
	// Default: poll.DefaultSleeper
	Sleeper poll.Sleeper

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Registers == nil {
		return ErrRegistersRequired
	}
	if c.Bus == nil {
		return ErrBusRequired
	}
	return nil
}

// applyDefaults fills in default values for unset fields.
func (c *Config) applyDefaults() {
	if c.PollAttempts <= 0 {
		c.PollAttempts = DefaultPollAttempts
	}
	if c.PollInterval < 0 {
		c.PollInterval = 0
	} else if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.DisableFrames <= 0 {
		c.DisableFrames = DefaultDisableFrames
	}
	if c.LinkAttempts <= 0 {
		c.LinkAttempts = DefaultLinkAttempts
	}
	if c.FrameWaitAttempts <= 0 {
		c.FrameWaitAttempts = DefaultFrameWaitAttempts
	}
	if c.FrameWaitInterval == 0 {
		c.FrameWaitInterval = DefaultFrameWaitInterval
	}
	if c.AnSettle == 0 {
		c.AnSettle = DefaultAnSettle
	}
	if c.R0Settle == 0 {
		c.R0Settle = DefaultR0Settle
	}
	if c.Sleeper == nil {
		c.Sleeper = poll.DefaultSleeper
	}
	if c.VBlank == nil {
		sleeper := c.Sleeper
		c.VBlank = VBlankFunc(func() { sleeper.Sleep(DefaultFramePeriod) })
	}
	if c.Rand == nil {
		c.Rand = rand.Reader
	}
	if c.LoggerFactory == nil {
		f := logging.NewDefaultLoggerFactory()
		f.DefaultLogLevel = logging.LogLevelDisabled
		c.LoggerFactory = f
	}
}

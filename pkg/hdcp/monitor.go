package hdcp

import (
	"context"
	"time"

	"github.com/pion/logging"
)

// DefaultMonitorInterval is the default period between link checks.
// Ri changes every 128 frames, roughly two seconds at 60Hz.
const DefaultMonitorInterval = 2 * time.Second

// MonitorConfig configures a Monitor.
type MonitorConfig struct {
	// Interval is the period between link checks.
	// Default: 2s
	Interval time.Duration

	// OnLinkLost is called after a failed link check has turned
	// protection off. Optional.
	OnLinkLost func(err error)

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// Monitor periodically verifies link integrity while protection is on.
type Monitor struct {
	c        *Controller
	interval time.Duration
	onLost   func(err error)
	log      logging.LeveledLogger
}

// NewMonitor creates a Monitor for c.
func NewMonitor(c *Controller, config MonitorConfig) *Monitor {
	m := &Monitor{
		c:        c,
		interval: config.Interval,
		onLost:   config.OnLinkLost,
	}
	if m.interval <= 0 {
		m.interval = DefaultMonitorInterval
	}
	if config.LoggerFactory != nil {
		m.log = config.LoggerFactory.NewLogger("hdcp-monitor")
	}
	return m
}

// Run checks the link every interval until ctx is done.
// It returns ctx.Err().
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Check()
		}
	}
}

// Check performs one link check. It returns false if protection was on and
// the link was found broken; protection is then off.
func (m *Monitor) Check() bool {
	err := m.c.verifyLink()
	if err == nil {
		return true
	}

	if m.log != nil {
		m.log.Warnf("link lost: %v", err)
	}
	if m.onLost != nil {
		m.onLost(err)
	}
	return false
}

// verifyLink checks the link if the cipher is on and turns it off on
// failure. It returns nil when protection is off.
func (c *Controller) verifyLink() error {
	if !c.supported {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isEnabled() {
		return nil
	}

	err := c.checkLink()
	if err == nil {
		return nil
	}
	if derr := c.disable(); derr != nil {
		c.linkLog.Warnf("disable after link loss failed: %v", derr)
	}
	return err
}

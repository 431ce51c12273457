package hdcp

import (
	"fmt"

	"github.com/backkem/hdcp/pkg/poll"
	"github.com/backkem/hdcp/pkg/regs"
)

// LinkStatus reports whether the receiver's Ri' still matches the
// transmitter's Ri. A false result means the link is broken.
func (c *Controller) LinkStatus() bool {
	return c.CheckLink() == nil
}

// CheckLink compares Ri with Ri' up to Config.LinkAttempts times. Ri only
// advances on 128-frame boundaries, so after a mismatch it waits for the
// cipher frame counter to cross the next boundary before comparing again.
//
// It returns an ErrIO error if Ri' cannot be read and ErrLinkIntegrity if
// every comparison failed.
func (c *Controller) CheckLink() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.checkLink()
}

func (c *Controller) checkLink() error {
	attempts := c.config.LinkAttempts
	for attempt := 1; attempt <= attempts; attempt++ {
		ri, err := c.rx.ReadRi()
		if err != nil {
			c.linkLog.Warnf("Ri' read failed: %v", err)
			return fmt.Errorf("%w: read Ri': %w", ErrIO, err)
		}

		c.regs.Write(regs.HDCPRi, uint32(ri))
		status := c.regs.Read(regs.HDCPStatus)
		if status&regs.StatusRiMatch != 0 {
			return nil
		}

		frame := regs.FrameCount(status)
		c.linkLog.Debugf("Ri mismatch (attempt %d/%d, Ri'=%04x, frame %d)", attempt, attempts, ri, frame)
		if attempt == attempts {
			break
		}
		if !c.waitFrameBoundary(frame) {
			c.linkLog.Debugf("frame counter stuck at %d", frame)
		}
	}

	c.linkLog.Warnf("link integrity lost after %d attempts", attempts)
	return fmt.Errorf("%w: %d attempts", ErrLinkIntegrity, attempts)
}

// waitFrameBoundary waits for the 8-bit frame counter to cross the next
// multiple of 128 after start, i.e. for bit 7 to toggle.
func (c *Controller) waitFrameBoundary(start uint8) bool {
	p := poll.Poller{
		Attempts: c.config.FrameWaitAttempts,
		Interval: c.config.FrameWaitInterval,
		Sleeper:  c.config.Sleeper,
	}
	return p.Until(func() bool {
		frame := regs.FrameCount(c.regs.Read(regs.HDCPStatus))
		return (frame^start)&regs.FrameBoundary != 0
	})
}

package hdcp

import (
	"errors"
	"fmt"

	"github.com/backkem/hdcp/pkg/ddc"
	"github.com/backkem/hdcp/pkg/ksv"
	"github.com/backkem/hdcp/pkg/regs"
)

// ActivateRepeater performs the second part of authentication with a
// repeater: it fetches the downstream KSV list, checks it against revoked,
// and verifies the repeater's V' with the cipher's SHA-1 engine.
//
// The returned list is a copy owned by the caller; it is returned whenever
// the FIFO was read, including when a revoked device is found.
//
// Errors map to policy codes through StatusOf: ErrInvalidParameter for a
// receiver that is not a repeater, ErrPending while the KSV FIFO is not
// ready, ErrTopology for an oversized topology and ErrRevoked for a revoked
// device. Once the repeater-present bit has been set, any failure clears it;
// failures other than ErrRevoked also stop the cipher.
func (c *Controller) ActivateRepeater(revoked ksv.RevocationSet) ([]ksv.KSV, error) {
	if !c.supported {
		return nil, ErrNotSupported
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.activateRepeater(revoked)
}

func (c *Controller) activateRepeater(revoked ksv.RevocationSet) (_ []ksv.KSV, err error) {
	bcaps, err := c.rx.ReadBCaps()
	if err != nil {
		return nil, fmt.Errorf("%w: read BCaps: %w", ErrIO, err)
	}
	if !bcaps.IsRepeater() {
		return nil, fmt.Errorf("%w: receiver is not a repeater", ErrInvalidParameter)
	}
	if !bcaps.KSVFIFOReady() {
		c.repLog.Debug("KSV FIFO not ready")
		return nil, ErrPending
	}

	bstatus, err := c.rx.ReadBStatus()
	if err != nil {
		return nil, fmt.Errorf("%w: read BStatus: %w", ErrIO, err)
	}
	count := bstatus.DeviceCount()
	if bstatus.MaxDevicesExceeded() || bstatus.MaxCascadeExceeded() || count > ddc.MaxDeviceCount {
		c.repLog.Warnf("topology rejected: BStatus=%04x", uint16(bstatus))
		return nil, fmt.Errorf("%w: BStatus=%04x", ErrTopology, uint16(bstatus))
	}
	c.repLog.Debugf("repeater: %d devices, depth %d", count, bstatus.Depth())
	if count == 0 {
		return nil, nil
	}

	regs.SetBits(c.regs, regs.HDCPRep, regs.RepPresent)
	defer func() {
		if err != nil && !errors.Is(err, ErrRevoked) {
			c.failRepeater()
		}
	}()
	if !regs.IsSet(c.regs, regs.HDCPRep, regs.RepPresent) {
		return nil, ErrRepeaterControl
	}

	raw, err := c.rx.ReadKSVFIFO(count)
	if err != nil {
		return nil, fmt.Errorf("%w: read KSV FIFO: %w", ErrIO, err)
	}
	defer clear(raw)

	list, err := ksv.SplitList(raw)
	if err != nil {
		return nil, err
	}

	if i := revoked.FirstRevoked(list); i >= 0 {
		c.repLog.Warnf("downstream device %d (%s) is revoked", i, list[i])
		regs.ClearBits(c.regs, regs.HDCPRep, regs.RepPresent)
		return list, fmt.Errorf("%w: device %d (%s)", ErrRevoked, i, list[i])
	}

	if err := c.computeTransmitterV(raw, count, uint16(bstatus)); err != nil {
		return list, err
	}

	vprime, err := c.rx.ReadVPrime()
	if err != nil {
		return list, fmt.Errorf("%w: read V': %w", ErrIO, err)
	}

	if !c.compareVPrime(vprime) {
		return list, ErrVPrimeMismatch
	}

	c.repLog.Infof("repeater verified (%d downstream devices)", count)
	return list, nil
}

// failRepeater clears the repeater-present bit and stops the cipher.
// Callers hold c.mu.
func (c *Controller) failRepeater() {
	c.repLog.Warn("repeater verification failed, disabling cipher")
	regs.ClearBits(c.regs, regs.HDCPRep, regs.RepPresent)
	c.regs.Write(regs.HDCPConfig, regs.ConfigOff)
	c.regs.Write(regs.HDCPRi, 0)
	regs.ClearBits(c.regs, regs.HDMIBControl, regs.PortHDCPEnable)
	c.session = SessionInfo{}
	c.state = StateOff
}

// computeTransmitterV feeds the SHA-1 input for the KSV list and topology to
// the cipher. The cipher inserts M0 and the terminator itself.
func (c *Controller) computeTransmitterV(ksvList []byte, count int, topology uint16) error {
	buf, err := BuildSHA1Input(ksvList, count, topology)
	if err != nil {
		return err
	}
	defer clear(buf)

	writes := sha1Writes(buf, count*ksv.Size+topologySize)
	for i, w := range writes {
		c.setRepControl(w.ctl)
		if !c.waitRepState(regs.RepReady) {
			c.repLog.Warnf("SHA-1 engine not ready for word %d/%d", i, len(writes))
			return fmt.Errorf("%w: SHA-1 word %d", ErrTimeout, i)
		}
		c.regs.Write(regs.HDCPSHA1In, w.word)
	}
	return nil
}

// compareVPrime loads V' and asks the cipher to finish its own V and
// compare.
func (c *Controller) compareVPrime(vprime [ddc.VPrimeBlocks]uint32) bool {
	for i, off := range regs.VPrime {
		c.regs.Write(off, vprime[i])
	}

	if !c.waitRepState(regs.RepReady) {
		c.repLog.Warn("SHA-1 engine not ready for completion")
		return false
	}
	c.setRepControl(regs.RepCtlComplete)

	matched := false
	c.poller().Until(func() bool {
		switch st := regs.RepStateOf(c.regs.Read(regs.HDCPRep)); st {
		case regs.RepCompleteMatch:
			matched = true
			return true
		case regs.RepCompleteNoMatch, regs.RepIdle:
			c.repLog.Debugf("V comparison ended in %s", st)
			return true
		default:
			return false
		}
	})
	return matched
}

func (c *Controller) setRepControl(ctl regs.RepControl) {
	c.regs.Write(regs.HDCPRep, regs.WithRepControl(c.regs.Read(regs.HDCPRep), ctl))
}

func (c *Controller) waitRepState(want regs.RepState) bool {
	return c.poller().Until(func() bool {
		return regs.RepStateOf(c.regs.Read(regs.HDCPRep)) == want
	})
}

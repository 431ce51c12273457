package hdcp

import "github.com/backkem/hdcp/pkg/ksv"

// ProtectionType is a bitmask of content-protection schemes.
type ProtectionType uint32

// Protection types.
const (
	ProtectionTypeNone ProtectionType = 0
	ProtectionTypeHDCP ProtectionType = 1 << 1
)

// Level is a requested or reported protection level.
type Level int

// Protection levels.
const (
	LevelOff Level = iota
	LevelOn
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "Off"
	case LevelOn:
		return "On"
	default:
		return "Unknown"
	}
}

// RepeaterData carries repeater state between the policy layer and the
// engine.
type RepeaterData struct {
	// KSVList receives the downstream KSVs read during repeater
	// verification. len(KSVList) is the list length.
	KSVList []ksv.KSV

	// PerformSecondStep requests repeater verification instead of a level
	// change.
	PerformSecondStep bool

	// IsRepeater reports whether the attached receiver is a repeater.
	IsRepeater bool
}

// CPParameters is the request/response structure exchanged with the policy
// layer.
type CPParameters struct {
	ProtectionType ProtectionType
	Level          Level
	Repeater       RepeaterData

	// Revoked is consulted during repeater verification. The engine never
	// retains it.
	Revoked ksv.RevocationSet
}

// GetCPData reports the current protection level and repeater status.
//
// When protection is on the link is checked first; a broken link turns
// protection off and yields StatusUnsuccessful. A failing BCaps read yields
// StatusDataError.
func (c *Controller) GetCPData(p *CPParameters) Status {
	if p == nil {
		return StatusInvalidParameter
	}
	if !c.supported || p.ProtectionType&ProtectionTypeHDCP == 0 {
		return StatusNotSupported
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p.Level = LevelOff
	if c.isEnabled() {
		p.Level = LevelOn
	}

	if p.Level == LevelOn {
		if err := c.checkLink(); err != nil {
			c.log.Warnf("link check failed, disabling: %v", err)
			p.Level = LevelOff
			if derr := c.setEncryptionLevel(LevelOff); derr != nil {
				c.log.Warnf("disable after link loss failed: %v", derr)
			}
			return StatusUnsuccessful
		}
	}

	bcaps, err := c.rx.ReadBCaps()
	if err != nil {
		c.log.Debugf("BCaps read failed: %v", err)
		return StatusDataError
	}
	p.Repeater.IsRepeater = bcaps.IsRepeater()

	return StatusSuccess
}

// SetCPData applies a protection request: repeater verification when
// Repeater.PerformSecondStep is set, otherwise a change to Level.
//
// Any failure other than StatusPending turns protection off before the
// failure status is returned. StatusPending leaves the first authentication
// step in place so the caller can retry verification.
func (c *Controller) SetCPData(p *CPParameters) Status {
	if p == nil {
		return StatusInvalidParameter
	}
	if !c.supported || p.ProtectionType&ProtectionTypeHDCP == 0 {
		return StatusNotSupported
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if bcaps, err := c.rx.ReadBCaps(); err == nil {
		p.Repeater.IsRepeater = bcaps.IsRepeater()
	}

	var err error
	if p.Repeater.PerformSecondStep {
		var list []ksv.KSV
		list, err = c.activateRepeater(p.Revoked)
		p.Repeater.KSVList = list
	} else {
		err = c.setEncryptionLevel(p.Level)
	}

	status := StatusOf(err)
	if status != StatusSuccess && status != StatusPending {
		c.log.Warnf("protection request failed (%s): %v", status, err)
		p.Level = LevelOff
		if derr := c.setEncryptionLevel(LevelOff); derr != nil {
			c.log.Warnf("fallback disable failed: %v", derr)
		}
	}
	return status
}

package hdcp

import "errors"

// HDCP package errors.
var (
	// ErrNotSupported is returned when the transmitter has HDCP fused off.
	ErrNotSupported = errors.New("hdcp: not supported")

	// ErrRegistersRequired is returned when Config.Registers is nil.
	ErrRegistersRequired = errors.New("hdcp: register accessor is required")

	// ErrBusRequired is returned when Config.Bus is nil.
	ErrBusRequired = errors.New("hdcp: DDC bus is required")

	// ErrTimeout is returned when a bounded hardware poll is exhausted.
	ErrTimeout = errors.New("hdcp: hardware timeout")

	// ErrIO is returned when a receiver transaction fails.
	ErrIO = errors.New("hdcp: receiver I/O failed")

	// ErrRandom is returned when the An seed source fails.
	ErrRandom = errors.New("hdcp: random source failed")

	// ErrInvalidBKSV is returned when the receiver's KSV does not have
	// exactly 20 bits set.
	ErrInvalidBKSV = errors.New("hdcp: invalid BKSV")

	// ErrLinkIntegrity is returned when Ri and Ri' disagree.
	ErrLinkIntegrity = errors.New("hdcp: Ri mismatch")

	// ErrInvalidParameter is returned when a request does not apply to the
	// attached receiver, e.g. repeater verification of a plain sink.
	ErrInvalidParameter = errors.New("hdcp: invalid parameter")

	// ErrPending is returned when a repeater has not yet populated its KSV
	// FIFO. The caller should retry; a repeater has up to five seconds.
	ErrPending = errors.New("hdcp: KSV FIFO not ready")

	// ErrTopology is returned when a repeater reports too many devices or
	// too deep a cascade.
	ErrTopology = errors.New("hdcp: repeater topology exceeded")

	// ErrRevoked is returned when a downstream KSV is in the revocation set.
	ErrRevoked = errors.New("hdcp: revoked device attached")

	// ErrRepeaterControl is returned when the repeater-present bit does not
	// latch.
	ErrRepeaterControl = errors.New("hdcp: repeater control write failed")

	// ErrVPrimeMismatch is returned when the transmitter's V does not match
	// the repeater's V'.
	ErrVPrimeMismatch = errors.New("hdcp: V' mismatch")

	// ErrKSVListLength is returned when a KSV list is shorter than its
	// device count.
	ErrKSVListLength = errors.New("hdcp: KSV list shorter than device count")
)

package regs

import "errors"

// Register package errors.
var (
	// ErrOutOfRange is returned when a mapping is too small for the HDCP block.
	ErrOutOfRange = errors.New("regs: register block outside mapping")

	// ErrUnsupported is returned when MMIO is not available on this platform.
	ErrUnsupported = errors.New("regs: MMIO not supported on this platform")
)

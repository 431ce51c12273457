package ddc

import "errors"

// DDC package errors.
var (
	// ErrTransaction is returned when a bus transaction fails.
	ErrTransaction = errors.New("ddc: transaction failed")

	// ErrNak is returned when the receiver does not acknowledge its address.
	ErrNak = errors.New("ddc: address not acknowledged")

	// ErrInvalidCount is returned when a KSV FIFO read is requested for an
	// impossible device count.
	ErrInvalidCount = errors.New("ddc: invalid device count")

	// ErrClosed is returned when a bus is used after Close.
	ErrClosed = errors.New("ddc: bus closed")

	// ErrUnsupported is returned when i2c-dev is not available on this
	// platform.
	ErrUnsupported = errors.New("ddc: i2c-dev not supported on this platform")
)

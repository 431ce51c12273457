package ksv

import "errors"

// KSV package errors.
var (
	// ErrInvalidLength is returned when a KSV or KSV list has the wrong size.
	ErrInvalidLength = errors.New("ksv: invalid length")
)

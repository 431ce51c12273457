package srm

import "errors"

// SRM package errors.
var (
	// ErrTooShort is returned when the message ends before its header,
	// a vector or the signature.
	ErrTooShort = errors.New("srm: message too short")

	// ErrUnknownID is returned when the SRM ID is not the HDCP 1.x ID.
	ErrUnknownID = errors.New("srm: unknown SRM ID")

	// ErrLength is returned when the VRL length is inconsistent with the
	// message.
	ErrLength = errors.New("srm: invalid VRL length")
)

package sim

import "errors"

// Emulator errors.
var (
	// ErrInjected is returned by a transaction failed with Receiver.Fail.
	ErrInjected = errors.New("sim: injected failure")

	// ErrNoSubAddress is returned for a transaction without a sub-address
	// byte.
	ErrNoSubAddress = errors.New("sim: no sub-address")
)

package hdcp

// State is the controller's authentication state.
type State int

const (
	// StateOff means the cipher is disabled.
	StateOff State = iota

	// StateAnCaptured means An has been generated and latched.
	StateAnCaptured

	// StateAuthenticated means the cipher computed R0 for the exchanged KSVs.
	StateAuthenticated

	// StateEncrypting means R0 matched R0' and the link is encrypted.
	StateEncrypting

	// StateDisabling means the cipher is being shut down.
	StateDisabling
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateOff:
		return "Off"
	case StateAnCaptured:
		return "AnCaptured"
	case StateAuthenticated:
		return "Authenticated"
	case StateEncrypting:
		return "Encrypting"
	case StateDisabling:
		return "Disabling"
	default:
		return "Unknown"
	}
}

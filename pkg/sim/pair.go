package sim

import "github.com/backkem/hdcp/pkg/ksv"

// PairConfig configures a Pair. Zero values produce a working
// non-repeater sink.
type PairConfig struct {
	Transmitter TransmitterConfig
	Receiver    ReceiverConfig

	// Repeater and Downstream are shorthands for the receiver fields.
	Repeater   bool
	Downstream []ksv.KSV
}

// Pair is a transmitter and a receiver sharing one link.
type Pair struct {
	Link        *Link
	Transmitter *Transmitter
	Receiver    *Receiver
}

// NewPair creates a connected transmitter and receiver.
func NewPair(config PairConfig) *Pair {
	rc := config.Receiver
	if config.Repeater {
		rc.Repeater = true
	}
	if config.Downstream != nil {
		rc.Downstream = config.Downstream
	}

	link := NewLink()
	return &Pair{
		Link:        link,
		Transmitter: NewTransmitter(link, config.Transmitter),
		Receiver:    NewReceiver(link, rc),
	}
}

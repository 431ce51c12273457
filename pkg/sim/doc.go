// Package sim emulates the hardware an HDCP transmitter talks to: the
// transmitter's cipher register block and a downstream receiver or repeater
// on the DDC bus.
//
// The emulation is register-exact where the engine depends on it (cipher
// modes, status bits, the SHA-1 feed controls, receiver sub-addresses) and
// deliberately fake where it does not: instead of the HDCP block cipher, both
// sides derive R0, Ri and M0 from the exchanged An, Aksv and Bksv with HKDF.
// A transfer that is dropped, reordered or byte-swapped therefore produces a
// mismatch just as it would on real hardware.
//
// The SHA-1 engine reassembles the fed words according to each write's
// control, inserts M0, and hashes the result with crypto/sha1. It rejects
// inputs whose padding or length field is inconsistent.
//
// Usage:
//
//	pair := sim.NewPair(sim.PairConfig{Repeater: true, Downstream: ksvs})
//	c, _ := hdcp.New(hdcp.Config{
//	    Registers: pair.Transmitter,
//	    Bus:       pair.Receiver,
//	    VBlank:    pair.Link,
//	})
package sim

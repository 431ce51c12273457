// Package hdcp implements the transmitter side of HDCP 1.3 authentication
// for an HDMI output.
//
// A Controller drives two collaborators: the transmitter's register-mapped
// cipher block (regs.Accessor) and the DDC channel to the receiver
// (ddc.Bus). It performs the first authentication step (An, Aksv and Bksv
// exchange and the R0 check), the repeater step (KSV list, SHA-1 over the
// topology, V' check) and the periodic Ri link check.
//
// # Enabling protection
//
//	c, err := hdcp.New(hdcp.Config{
//	    Registers: mmio,
//	    Bus:       bus,
//	})
//	if err != nil {
//	    return err
//	}
//	if err := c.Enable(true); err != nil {
//	    return err
//	}
//	if c.Session().Repeater {
//	    _, err := c.ActivateRepeater(revoked)
//	    ...
//	}
//
// # Policy boundary
//
// GetCPData and SetCPData implement the request/response contract used by a
// content-protection policy layer and report results as Status codes. Any
// failed request leaves protection off.
//
// # Concurrency
//
// Every exported Controller method runs under the controller's lock. All
// hardware waits are bounded; exhausting a bound is reported as ErrTimeout.
package hdcp

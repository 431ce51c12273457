// Package ddc implements the serial control channel to an HDCP receiver.
//
// HDMI carries HDCP control traffic over the Display Data Channel, an I2C
// bus on which the receiver exposes a small register file at a fixed
// address. Every transaction writes a one-byte sub-address and then reads or
// writes a payload.
//
// The Receiver type never retries: a failed transaction is returned to the
// caller unchanged, and a failed read never modifies the caller's buffer.
//
// Two Bus implementations are provided: LinuxBus drives /dev/i2c-N through
// the I2C_RDWR ioctl, and TinyUSBBus drives an i2c-tiny-usb adapter.
package ddc

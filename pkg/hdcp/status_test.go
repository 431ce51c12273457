package hdcp

import (
	"errors"
	"fmt"
	"testing"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want Status
	}{
		{nil, StatusSuccess},
		{ErrRevoked, StatusRevokedHdcpDeviceAttached},
		{fmt.Errorf("%w: device 3", ErrRevoked), StatusRevokedHdcpDeviceAttached},
		{ErrPending, StatusPending},
		{ErrInvalidParameter, StatusInvalidParameter},
		{ErrTopology, StatusInvalidParameter},
		{ErrInvalidBKSV, StatusInvalidDeviceRequest},
		{ErrNotSupported, StatusNotSupported},
		{ErrTimeout, StatusUnsuccessful},
		{ErrLinkIntegrity, StatusUnsuccessful},
		{ErrVPrimeMismatch, StatusUnsuccessful},
		{errors.New("other"), StatusUnsuccessful},
	}

	for _, tc := range tests {
		if got := StatusOf(tc.err); got != tc.want {
			t.Errorf("StatusOf(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestStatusString(t *testing.T) {
	if s := StatusRevokedHdcpDeviceAttached.String(); s != "RevokedHdcpDeviceAttached" {
		t.Errorf("String() = %q", s)
	}
	if s := Status(0x1234).String(); s != "Status(0x00001234)" {
		t.Errorf("String() = %q", s)
	}
	if !StatusSuccess.IsSuccess() || StatusPending.IsSuccess() {
		t.Error("IsSuccess mismatch")
	}
}

func TestStateString(t *testing.T) {
	for _, s := range []State{StateOff, StateAnCaptured, StateAuthenticated, StateEncrypting, StateDisabling} {
		if s.String() == "" {
			t.Errorf("State(%d) has no name", int(s))
		}
	}
}

package hdcp

import (
	"errors"
	"fmt"
)

// Status is the result code exchanged with the content-protection policy
// layer.
type Status uint32

// Status values.
const (
	StatusSuccess                   Status = 0x00000000
	StatusUnsuccessful              Status = 0x80000000
	StatusNotSupported              Status = 0x80000002
	StatusInvalidDeviceRequest      Status = 0x80000003
	StatusRevokedHdcpDeviceAttached Status = 0x80000004
	StatusDataError                 Status = 0x80000005
	StatusPending                   Status = 0x80000006
	StatusInvalidParameter          Status = 0x80000007
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusUnsuccessful:
		return "Unsuccessful"
	case StatusNotSupported:
		return "NotSupported"
	case StatusInvalidDeviceRequest:
		return "InvalidDeviceRequest"
	case StatusRevokedHdcpDeviceAttached:
		return "RevokedHdcpDeviceAttached"
	case StatusDataError:
		return "DataError"
	case StatusPending:
		return "Pending"
	case StatusInvalidParameter:
		return "InvalidParameter"
	default:
		return fmt.Sprintf("Status(0x%08x)", uint32(s))
	}
}

// IsSuccess reports whether s is StatusSuccess.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// StatusOf maps an error returned by the Controller to a Status.
//
// Protocol violations keep distinct codes so the policy layer can tell a
// forbidden sink or topology from hardware trouble; every other failure is
// StatusUnsuccessful.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrRevoked):
		return StatusRevokedHdcpDeviceAttached
	case errors.Is(err, ErrPending):
		return StatusPending
	case errors.Is(err, ErrInvalidParameter), errors.Is(err, ErrTopology):
		return StatusInvalidParameter
	case errors.Is(err, ErrInvalidBKSV):
		return StatusInvalidDeviceRequest
	case errors.Is(err, ErrNotSupported):
		return StatusNotSupported
	default:
		return StatusUnsuccessful
	}
}

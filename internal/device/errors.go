package device

import "errors"

// ErrUnreachable is returned when the device does not answer or answers
// with a non-2xx status
var ErrUnreachable = errors.New("device not responding")

// EnrollError is a device-reported enrollment failure
type EnrollError struct {
	Message string
}

func (e *EnrollError) Error() string {
	if e.Message == "" {
		return "Enrollment failed"
	}
	return e.Message
}

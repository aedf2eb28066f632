package capture

import (
	"errors"

	"github.com/jetsetgo/attendance-station/internal/device"
)

var (
	// ErrDeviceUnreachable means /status did not answer
	ErrDeviceUnreachable = device.ErrUnreachable

	ErrSensorNotConnected   = errors.New("fingerprint sensor not connected")
	ErrCaptureTimeout       = errors.New("timeout: no fingerprint detected")
	ErrCaptureInProgress    = errors.New("capture already in progress")
	ErrCaptureCancelled     = errors.New("capture cancelled")
	ErrAlreadyEnrolled      = errors.New("fingerprint already enrolled; clear it before capturing again")
	ErrNoCapture            = errors.New("no fingerprint captured")
	ErrMissingStudentInfo   = errors.New("student name and registration number are required")
	ErrEnrollmentInProgress = errors.New("enrollment already in progress")
	ErrEnrollmentFailed     = errors.New("enrollment failed")
	ErrSessionCleared       = errors.New("session cleared during enrollment")
	ErrIDSpaceExhausted     = errors.New("no free fingerprint slot on sensor")
)

package capture

import (
	"errors"
	"time"

	"github.com/jetsetgo/attendance-station/internal/device"
)

// Record kinds
const (
	KindCapture = "capture"
	KindEnroll  = "enroll"
)

// Record outcomes
const (
	OutcomeCaptured  = "captured"
	OutcomeEnrolled  = "enrolled"
	OutcomeTimeout   = "timeout"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
)

// Record is one finished capture or enrollment
type Record struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	Outcome       string    `json:"outcome"`
	FingerprintID int       `json:"fingerprint_id,omitempty"`
	Attempts      int       `json:"attempts,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Error         string    `json:"error,omitempty"`
}

func (c *Client) finishRecord(rec Record, ident *device.Identification, err error) {
	rec.FinishedAt = c.now()

	switch {
	case err == nil && rec.Kind == KindEnroll:
		rec.Outcome = OutcomeEnrolled
	case err == nil:
		rec.Outcome = OutcomeCaptured
		if ident != nil {
			rec.FingerprintID = ident.FingerprintID
		}
	case errors.Is(err, ErrCaptureTimeout):
		rec.Outcome = OutcomeTimeout
	case errors.Is(err, ErrCaptureCancelled), errors.Is(err, ErrSessionCleared):
		rec.Outcome = OutcomeCancelled
	default:
		rec.Outcome = OutcomeFailed
	}
	if err != nil {
		rec.Error = err.Error()
	}

	if c.OnFinish != nil {
		c.OnFinish(rec)
	}
}

// Package capture drives fingerprint capture and enrollment against the
// sensor device and keeps the registration form's fingerprint session.
package capture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jetsetgo/attendance-station/internal/alert"
	"github.com/jetsetgo/attendance-station/internal/device"
)

// Messages shown on the device screen
const (
	MsgPlaceFinger      = "Place finger on sensor..."
	MsgCaptured         = "Fingerprint captured!"
	MsgEnrollmentDone   = "Enrollment complete!"
	displayUpdateBudget = 2 * time.Second
)

// State is the session state shown by the registration form
type State string

const (
	StateReady     State = "ready"
	StateCapturing State = "capturing"
	StateCaptured  State = "captured"
	StateEnrolled  State = "enrolled"
)

// Device is the subset of the sensor API the client needs
type Device interface {
	Status(ctx context.Context) (*device.SensorStatus, error)
	Display(ctx context.Context, message string) error
	Identify(ctx context.Context) (*device.Identification, error)
	Enroll(ctx context.Context, req device.EnrollRequest) error
}

// Options tune the poll loop
type Options struct {
	PollInterval time.Duration
	MaxAttempts  int
}

// Fingerprint is the data captured from, and enrolled on, the device
type Fingerprint struct {
	FingerprintID int                    `json:"fingerprint_id"`
	Confidence    float64                `json:"confidence,omitempty"`
	Payload       map[string]interface{} `json:"payload,omitempty"`
	CapturedAt    time.Time              `json:"captured_at"`

	Enrolled    bool      `json:"enrolled"`
	EnrolledID  int       `json:"enrolled_id,omitempty"`
	StudentName string    `json:"student_name,omitempty"`
	RegNo       string    `json:"reg_no,omitempty"`
	EnrolledAt  time.Time `json:"enrolled_at,omitempty"`
}

// Connection is the last known device reachability
type Connection struct {
	Connected bool                   `json:"connected"`
	Sensor    string                 `json:"fingerprint_sensor,omitempty"`
	Capacity  int                    `json:"capacity,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	LastError string                 `json:"last_error,omitempty"`
	CheckedAt time.Time              `json:"checked_at,omitempty"`
}

// Snapshot is a copy of the session published after every change
type Snapshot struct {
	State       State        `json:"state"`
	Capturing   bool         `json:"is_capturing"`
	Captured    bool         `json:"captured"`
	Enrolling   bool         `json:"is_enrolling"`
	Attempts    int          `json:"attempts"`
	MaxAttempts int          `json:"max_attempts"`
	TaskID      string       `json:"task_id,omitempty"`
	Fingerprint *Fingerprint `json:"fingerprint,omitempty"`
	Connection  Connection   `json:"connection"`
}

// StudentForm holds the registration form fields enrollment reads
type StudentForm struct {
	FirstName string
	LastName  string
	RegNo     string
}

// StudentName joins first and last name
func (f StudentForm) StudentName() string {
	return strings.TrimSpace(strings.TrimSpace(f.FirstName) + " " + strings.TrimSpace(f.LastName))
}

// Client owns one fingerprint session. At most one capture runs at a time.
type Client struct {
	dev      Device
	notifier alert.Notifier
	ids      *IDAllocator
	opts     Options
	now      func() time.Time

	mu          sync.Mutex
	state       State
	fingerprint *Fingerprint
	conn        Connection
	task        *Task
	attempts    int
	enrolling   bool

	// Hooks; set before the client is used.
	OnChange func(Snapshot)
	OnPoll   func(attempt int, err error)
	OnFinish func(Record)
}

// NewClient creates a client in the ready state
func NewClient(dev Device, notifier alert.Notifier, ids *IDAllocator, opts Options) *Client {
	if notifier == nil {
		notifier = alert.LogNotifier{}
	}
	if ids == nil {
		ids = NewIDAllocator(1000, 1)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 200 * time.Millisecond
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 50
	}
	return &Client{
		dev:      dev,
		notifier: notifier,
		ids:      ids,
		opts:     opts,
		now:      time.Now,
		state:    StateReady,
	}
}

// Snapshot returns the current session state
func (c *Client) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Client) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:       c.state,
		Capturing:   c.state == StateCapturing,
		Captured:    c.state == StateCaptured || c.state == StateEnrolled,
		Enrolling:   c.enrolling,
		Attempts:    c.attempts,
		MaxAttempts: c.opts.MaxAttempts,
		Connection:  c.conn,
	}
	if c.task != nil {
		snap.TaskID = c.task.id
	}
	if c.fingerprint != nil {
		fp := *c.fingerprint
		snap.Fingerprint = &fp
	}
	return snap
}

func (c *Client) publish(snap Snapshot) {
	if c.OnChange != nil {
		c.OnChange(snap)
	}
}

// CheckConnection refreshes the connection status from /status
func (c *Client) CheckConnection(ctx context.Context) Connection {
	status, err := c.dev.Status(ctx)
	conn := c.updateConnection(status, err)
	if err != nil {
		log.Printf("Device connection check failed: %v", err)
	} else {
		log.Printf("Device connected (sensor: %s)", status.FingerprintSensor)
	}
	return conn
}

func (c *Client) updateConnection(status *device.SensorStatus, err error) Connection {
	conn := Connection{CheckedAt: c.now()}
	if err != nil {
		conn.LastError = err.Error()
	} else {
		conn.Connected = true
		conn.Sensor = status.FingerprintSensor
		conn.Capacity = status.Capacity
		conn.Metadata = status.Raw
	}

	c.mu.Lock()
	c.conn = conn
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
	return conn
}

// StartCapture begins a capture. ctx bounds the whole task; cancelling it,
// calling Task.Cancel or calling Clear stops the poll loop.
func (c *Client) StartCapture(ctx context.Context) (*Task, error) {
	c.mu.Lock()
	switch {
	case c.state == StateCapturing:
		c.mu.Unlock()
		return nil, ErrCaptureInProgress
	case c.enrolling:
		c.mu.Unlock()
		c.notifier.Notify(alert.Warning, "Enrollment already in progress")
		return nil, ErrEnrollmentInProgress
	case c.state == StateEnrolled:
		c.mu.Unlock()
		c.notifier.Notify(alert.Warning, "Fingerprint already enrolled. Clear it before capturing again.")
		return nil, ErrAlreadyEnrolled
	}

	taskCtx, cancel := context.WithCancel(ctx)
	t := newTask(cancel)
	c.task = t
	c.state = StateCapturing
	c.fingerprint = nil
	c.attempts = 0
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
	go c.runCapture(taskCtx, t)
	return t, nil
}

func (c *Client) runCapture(ctx context.Context, t *Task) {
	rec := Record{ID: t.id, Kind: KindCapture, StartedAt: c.now()}

	ident, attempts, err := c.capture(ctx, t)
	if err != nil && ctx.Err() != nil {
		err = ErrCaptureCancelled
	}
	rec.Attempts = attempts

	c.mu.Lock()
	if c.task != t {
		// Cleared or superseded; the session no longer belongs to this task.
		c.mu.Unlock()
		c.finishRecord(rec, nil, ErrCaptureCancelled)
		t.finish(nil, ErrCaptureCancelled)
		return
	}
	c.task = nil
	if err != nil {
		c.state = StateReady
	} else {
		// Reserve before the session turns captured so no enrollment can be
		// handed the slot that just matched.
		c.ids.Reserve(ident.FingerprintID)
		c.state = StateCaptured
		c.fingerprint = &Fingerprint{
			FingerprintID: ident.FingerprintID,
			Confidence:    ident.Confidence,
			Payload:       ident.Payload,
			CapturedAt:    c.now(),
		}
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)

	switch {
	case errors.Is(err, ErrCaptureCancelled):
		log.Printf("Capture %s cancelled", t.id)
	case err != nil:
		log.Printf("Capture failed: %v", err)
		c.notifier.Notify(alert.Error, "Capture failed: "+err.Error())
	default:
		log.Printf("Fingerprint captured: ID %d after %d attempt(s)", ident.FingerprintID, rec.Attempts)
		c.notifier.Notify(alert.Success, fmt.Sprintf("Fingerprint captured! ID: %d", ident.FingerprintID))
		c.displayBestEffort(ctx, MsgCaptured)
	}

	c.finishRecord(rec, ident, err)
	t.finish(ident, err)
}

// capture runs the status check, prompt and bounded identify poll. It
// returns the number of identify attempts made.
func (c *Client) capture(ctx context.Context, t *Task) (*device.Identification, int, error) {
	status, err := c.dev.Status(ctx)
	c.updateConnection(status, err)
	if err != nil {
		if !errors.Is(err, device.ErrUnreachable) {
			err = fmt.Errorf("%w: %v", ErrDeviceUnreachable, err)
		}
		return nil, 0, err
	}
	if !status.SensorReady() {
		return nil, 0, ErrSensorNotConnected
	}

	if err := c.dev.Display(ctx, MsgPlaceFinger); err != nil {
		log.Printf("Warning: display prompt failed: %v", err)
	}

	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return nil, attempt - 1, ErrCaptureCancelled
		case <-ticker.C:
		}

		c.setAttempts(t, attempt)

		ident, err := c.dev.Identify(ctx)
		if c.OnPoll != nil {
			c.OnPoll(attempt, err)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, attempt, ErrCaptureCancelled
			}
			log.Printf("Poll attempt %d failed: %v", attempt, err)
		} else if ident.Success {
			return ident, attempt, nil
		}

		if attempt >= c.opts.MaxAttempts {
			return nil, attempt, ErrCaptureTimeout
		}
	}
}

func (c *Client) setAttempts(t *Task, n int) {
	c.mu.Lock()
	if c.task != t {
		c.mu.Unlock()
		return
	}
	c.attempts = n
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap)
}

func (c *Client) displayBestEffort(ctx context.Context, message string) {
	ctx, cancel := context.WithTimeout(ctx, displayUpdateBudget)
	defer cancel()
	if err := c.dev.Display(ctx, message); err != nil {
		log.Printf("Warning: display update failed: %v", err)
	}
}

// StartEnrollment stores the captured fingerprint on the device under a
// freshly allocated slot, tagged with the student's name and reg number.
func (c *Client) StartEnrollment(ctx context.Context, form StudentForm) error {
	c.mu.Lock()
	if c.state != StateCaptured || c.fingerprint == nil {
		c.mu.Unlock()
		c.notifier.Notify(alert.Warning, "No fingerprint captured to enroll. Please capture a fingerprint first.")
		return ErrNoCapture
	}
	if c.enrolling {
		c.mu.Unlock()
		c.notifier.Notify(alert.Warning, "Enrollment already in progress")
		return ErrEnrollmentInProgress
	}

	name := form.StudentName()
	regNo := strings.TrimSpace(form.RegNo)
	if name == "" || regNo == "" {
		c.mu.Unlock()
		c.notifier.Notify(alert.Error, "Student name and registration number required for enrollment")
		return ErrMissingStudentInfo
	}

	id, err := c.ids.Next()
	if err != nil {
		c.mu.Unlock()
		c.notifier.Notify(alert.Error, "Enrollment failed: "+err.Error())
		return err
	}

	c.enrolling = true
	fp := c.fingerprint
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap)

	rec := Record{ID: uuid.NewString(), Kind: KindEnroll, StartedAt: c.now()}
	log.Printf("Starting fingerprint enrollment for %s (%s) in slot %d", name, regNo, id)

	err = c.dev.Enroll(ctx, device.EnrollRequest{ID: id, StudentName: name, RegNo: regNo})

	c.mu.Lock()
	c.enrolling = false
	cleared := c.fingerprint != fp
	if err == nil && !cleared {
		enrolled := *fp
		enrolled.Enrolled = true
		enrolled.EnrolledID = id
		enrolled.StudentName = name
		enrolled.RegNo = regNo
		enrolled.EnrolledAt = c.now()
		c.fingerprint = &enrolled
		c.state = StateEnrolled
	}
	snap = c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap)

	if err != nil {
		c.ids.Release(id)

		msg := "Enrollment failed"
		var enrollErr *device.EnrollError
		if errors.As(err, &enrollErr) {
			msg = enrollErr.Error()
		} else {
			log.Printf("Enrollment request failed: %v", err)
		}
		c.notifier.Notify(alert.Error, "Enrollment failed: "+msg)

		err = fmt.Errorf("%w: %s", ErrEnrollmentFailed, msg)
		c.finishRecord(rec, nil, err)
		return err
	}

	if cleared {
		log.Printf("Warning: session cleared while slot %d was being enrolled", id)
		c.finishRecord(rec, nil, ErrSessionCleared)
		return ErrSessionCleared
	}

	c.displayBestEffort(ctx, MsgEnrollmentDone)
	log.Printf("Fingerprint enrolled for %s (%s)", name, regNo)
	c.notifier.Notify(alert.Success, fmt.Sprintf("Fingerprint enrolled successfully for %s!", name))

	rec.FingerprintID = id
	c.finishRecord(rec, nil, nil)
	return nil
}

// Clear resets the session to ready, cancelling any running capture.
// Clearing an already empty session does nothing.
func (c *Client) Clear() {
	c.mu.Lock()
	if c.state == StateReady && c.fingerprint == nil && c.task == nil {
		c.mu.Unlock()
		return
	}
	t := c.task
	c.task = nil
	c.state = StateReady
	c.fingerprint = nil
	c.attempts = 0
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if t != nil {
		t.Cancel()
	}
	c.publish(snap)
	c.notifier.Notify(alert.Info, "Fingerprint data cleared")
}

// Close cancels any running capture
func (c *Client) Close() {
	c.mu.Lock()
	t := c.task
	c.mu.Unlock()
	if t != nil {
		t.Cancel()
		<-t.Done()
	}
}

// FormPayload returns the JSON the registration form submits alongside the
// student record. ok is false unless a fingerprint has been enrolled.
func (c *Client) FormPayload() (payload string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateEnrolled || c.fingerprint == nil {
		return "", false
	}

	data, err := json.Marshal(struct {
		Captured bool `json:"captured"`
		*Fingerprint
	}{Captured: true, Fingerprint: c.fingerprint})
	if err != nil {
		return "", false
	}
	return string(data), true
}

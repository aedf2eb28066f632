// Package device talks to the networked fingerprint sensor.
//
// The sensor is an ESP32 board with an optical fingerprint module exposing a
// small plain-HTTP API on a fixed address.
package device

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Device endpoints
const (
	PathStatus   = "/status"
	PathDisplay  = "/display"
	PathIdentify = "/identify"
	PathEnroll   = "/enroll"
)

// SensorConnected is the value /status reports for an attached sensor
const SensorConnected = "connected"

// Result is the normalized outcome of a device request.
// Network failures, non-2xx responses and undecodable bodies never escape as
// Go errors; they surface as Success=false with Error set.
type Result struct {
	Success bool
	// Data holds the response body. It is valid JSON when JSON is true,
	// otherwise the raw text.
	Data       []byte
	JSON       bool
	StatusCode int
	Error      string
}

// Decode unmarshals a JSON response body into v
func (r Result) Decode(v interface{}) error {
	if !r.JSON {
		return fmt.Errorf("response is not JSON: %q", truncate(string(r.Data), 64))
	}
	return json.Unmarshal(r.Data, v)
}

// Text returns the body as a string
func (r Result) Text() string {
	return string(r.Data)
}

// Client sends requests to a single fixed device address
type Client struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewClient creates a device client for host:port.
// requestTimeout bounds each request; zero means the caller's context is
// the only bound.
func NewClient(host string, port int, requestTimeout time.Duration) *Client {
	return &Client{
		baseURL: fmt.Sprintf("http://%s:%d", host, port),
		client:  &http.Client{},
		timeout: requestTimeout,
	}
}

// NewClientURL creates a device client for an explicit base URL
func NewClientURL(baseURL string, requestTimeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		timeout: requestTimeout,
	}
}

// BaseURL returns the device address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do performs one request. GET parameters go in the query string, POST
// parameters are form-encoded in the body.
func (c *Client) Do(ctx context.Context, method, endpoint string, params url.Values) Result {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target := c.baseURL + endpoint
	var body io.Reader
	if len(params) > 0 {
		if method == http.MethodPost {
			body = strings.NewReader(params.Encode())
		} else {
			sep := "?"
			if strings.Contains(target, "?") {
				sep = "&"
			}
			target += sep + params.Encode()
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Result{Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Result{Error: "request timeout"}
		}
		return Result{Error: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{StatusCode: resp.StatusCode, Error: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{
			StatusCode: resp.StatusCode,
			Data:       data,
			Error:      fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}

	return Result{
		Success:    true,
		Data:       data,
		JSON:       json.Valid(data),
		StatusCode: resp.StatusCode,
	}
}

// SensorStatus is the decoded /status payload
type SensorStatus struct {
	FingerprintSensor string `json:"fingerprint_sensor"`
	Capacity          int    `json:"capacity,omitempty"`
	Templates         int    `json:"templates,omitempty"`
	IP                string `json:"ip,omitempty"`
	Firmware          string `json:"firmware,omitempty"`

	// Raw keeps every field the device reported
	Raw map[string]interface{} `json:"-"`
}

// SensorReady reports whether the fingerprint sensor is attached
func (s *SensorStatus) SensorReady() bool {
	return s != nil && s.FingerprintSensor == SensorConnected
}

// Status queries /status
func (c *Client) Status(ctx context.Context) (*SensorStatus, error) {
	res := c.Do(ctx, http.MethodGet, PathStatus, nil)
	if !res.Success {
		return nil, fmt.Errorf("%w: %s", ErrUnreachable, res.Error)
	}

	var status SensorStatus
	if err := res.Decode(&status); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	_ = json.Unmarshal(res.Data, &status.Raw)
	return &status, nil
}

// Display shows a message on the device screen
func (c *Client) Display(ctx context.Context, message string) error {
	res := c.Do(ctx, http.MethodGet, PathDisplay, url.Values{"message": {message}})
	if !res.Success {
		return fmt.Errorf("display %q: %s", message, res.Error)
	}
	return nil
}

// Identification is the decoded /identify payload
type Identification struct {
	Success       bool    `json:"success"`
	FingerprintID int     `json:"fingerprint_id"`
	Confidence    float64 `json:"confidence,omitempty"`
	StudentName   string  `json:"student_name,omitempty"`
	RegNo         string  `json:"reg_no,omitempty"`

	// Payload keeps every field the device reported
	Payload map[string]interface{} `json:"-"`
}

// Identify polls /identify once. A nil error with Success=false means the
// device answered but saw no matching finger.
func (c *Client) Identify(ctx context.Context) (*Identification, error) {
	res := c.Do(ctx, http.MethodGet, PathIdentify, nil)
	if !res.Success {
		return nil, fmt.Errorf("%w: %s", ErrUnreachable, res.Error)
	}

	var ident Identification
	if err := res.Decode(&ident); err != nil {
		return nil, fmt.Errorf("decode identify: %w", err)
	}
	_ = json.Unmarshal(res.Data, &ident.Payload)
	return &ident, nil
}

// EnrollRequest carries the fields POSTed to /enroll
type EnrollRequest struct {
	ID          int
	StudentName string
	RegNo       string
}

type enrollResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Enroll stores a template under req.ID. Device-reported failures are
// returned as *EnrollError.
func (c *Client) Enroll(ctx context.Context, req EnrollRequest) error {
	params := url.Values{
		"id":           {fmt.Sprintf("%d", req.ID)},
		"student_name": {req.StudentName},
		"reg_no":       {req.RegNo},
	}

	res := c.Do(ctx, http.MethodPost, PathEnroll, params)
	if !res.Success {
		if msg := deviceError(res); msg != "" {
			return &EnrollError{Message: msg}
		}
		return fmt.Errorf("%w: %s", ErrUnreachable, res.Error)
	}

	var out enrollResponse
	if err := res.Decode(&out); err != nil {
		log.Printf("Enroll returned non-JSON response: %v", err)
		return &EnrollError{}
	}
	if !out.Success {
		return &EnrollError{Message: out.Error}
	}
	return nil
}

// deviceError extracts an "error" field from a failed JSON response
func deviceError(res Result) string {
	if !json.Valid(res.Data) {
		return ""
	}
	var out enrollResponse
	if err := json.Unmarshal(res.Data, &out); err != nil {
		return ""
	}
	return out.Error
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

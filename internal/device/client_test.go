package device

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestDo_JSONResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"fingerprint_sensor":"connected","capacity":127}`))
	}))
	defer srv.Close()

	c := NewClientURL(srv.URL, time.Second)
	res := c.Do(context.Background(), http.MethodGet, PathStatus, nil)

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if !res.JSON {
		t.Error("expected JSON body")
	}

	var out map[string]interface{}
	if err := res.Decode(&out); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if out["fingerprint_sensor"] != "connected" {
		t.Errorf("unexpected payload: %v", out)
	}
}

func TestDo_TextFallback(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}))
	defer srv.Close()

	res := NewClientURL(srv.URL, time.Second).Do(context.Background(), http.MethodGet, PathDisplay, nil)
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}
	if res.JSON {
		t.Error("plain text must not be flagged as JSON")
	}
	if res.Text() != "OK" {
		t.Errorf("text = %q", res.Text())
	}
	if err := res.Decode(&struct{}{}); err == nil {
		t.Error("Decode of text body should fail")
	}
}

func TestDo_GETParamsInQuery(t *testing.T) {
	t.Parallel()

	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("message")
	}))
	defer srv.Close()

	c := NewClientURL(srv.URL, time.Second)
	c.Do(context.Background(), http.MethodGet, PathDisplay, url.Values{"message": {"Place finger on sensor..."}})

	if gotQuery != "Place finger on sensor..." {
		t.Errorf("message query = %q", gotQuery)
	}
}

func TestDo_POSTParamsFormEncoded(t *testing.T) {
	t.Parallel()

	var gotBody, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewClientURL(srv.URL, time.Second)
	res := c.Do(context.Background(), http.MethodPost, PathEnroll, url.Values{"id": {"7"}, "reg_no": {"R1"}})
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Error)
	}

	form, err := url.ParseQuery(gotBody)
	if err != nil {
		t.Fatalf("body is not form-encoded: %v", err)
	}
	if form.Get("id") != "7" || form.Get("reg_no") != "R1" {
		t.Errorf("form = %v", form)
	}
	if gotType != "application/x-www-form-urlencoded" {
		t.Errorf("content type = %q", gotType)
	}
}

func TestDo_HTTPErrorNormalized(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	res := NewClientURL(srv.URL, time.Second).Do(context.Background(), http.MethodGet, PathIdentify, nil)
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error != "HTTP 503: Service Unavailable" {
		t.Errorf("error = %q", res.Error)
	}
}

func TestDo_NetworkFailureNormalized(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	res := NewClientURL(addr, time.Second).Do(context.Background(), http.MethodGet, PathStatus, nil)
	if res.Success {
		t.Fatal("expected failure against closed server")
	}
	if res.Error == "" {
		t.Error("error message should be set")
	}
}

func TestDo_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	res := NewClientURL(srv.URL, 20*time.Millisecond).Do(context.Background(), http.MethodGet, PathIdentify, nil)
	if res.Success {
		t.Fatal("expected timeout failure")
	}
	if res.Error != "request timeout" {
		t.Errorf("error = %q", res.Error)
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"fingerprint_sensor":"connected","capacity":127,"wifi":"ok"}`))
	}))
	defer srv.Close()

	status, err := NewClientURL(srv.URL, time.Second).Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !status.SensorReady() {
		t.Error("sensor should be ready")
	}
	if status.Capacity != 127 {
		t.Errorf("capacity = %d", status.Capacity)
	}
	if status.Raw["wifi"] != "ok" {
		t.Errorf("raw payload missing extra field: %v", status.Raw)
	}
}

func TestStatus_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClientURL(srv.URL, time.Second).Status(context.Background())
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("err = %v, want ErrUnreachable", err)
	}
}

func TestIdentify(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"fingerprint_id":12,"confidence":88}`))
	}))
	defer srv.Close()

	ident, err := NewClientURL(srv.URL, time.Second).Identify(context.Background())
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if !ident.Success || ident.FingerprintID != 12 || ident.Confidence != 88 {
		t.Errorf("unexpected identification: %+v", ident)
	}
	if ident.Payload["fingerprint_id"] != float64(12) {
		t.Errorf("payload = %v", ident.Payload)
	}
}

func TestEnroll_DeviceError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"Sensor memory full"}`))
	}))
	defer srv.Close()

	err := NewClientURL(srv.URL, time.Second).Enroll(context.Background(), EnrollRequest{ID: 1, StudentName: "A B", RegNo: "R"})

	var enrollErr *EnrollError
	if !errors.As(err, &enrollErr) {
		t.Fatalf("err = %v, want *EnrollError", err)
	}
	if enrollErr.Error() != "Sensor memory full" {
		t.Errorf("message = %q", enrollErr.Error())
	}
}

func TestEnroll_GenericFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false}`))
	}))
	defer srv.Close()

	err := NewClientURL(srv.URL, time.Second).Enroll(context.Background(), EnrollRequest{ID: 1})
	if err == nil || !strings.Contains(err.Error(), "Enrollment failed") {
		t.Errorf("err = %v, want generic enrollment failure", err)
	}
}

func TestNewClient_BaseURL(t *testing.T) {
	t.Parallel()

	c := NewClient("192.168.137.40", 80, 0)
	if c.BaseURL() != "http://192.168.137.40:80" {
		t.Errorf("base URL = %q", c.BaseURL())
	}
}

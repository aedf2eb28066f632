// Package api serves the station's JSON API, websocket feed, metrics and
// embedded web UI.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jetsetgo/attendance-station/internal/capture"
	"github.com/jetsetgo/attendance-station/internal/config"
	"github.com/jetsetgo/attendance-station/internal/report"
)

// Deps are the components the server exposes
type Deps struct {
	Capture *capture.Client
	Reports *report.Renderer
	Logs    *LogBuffer
	History *CaptureHistory
	Hub     *Hub
	Metrics *Metrics
}

// Server represents the HTTP server
type Server struct {
	config  *config.Config
	capture *capture.Client
	reports *report.Renderer
	logs    *LogBuffer
	history *CaptureHistory
	hub     *Hub
	metrics *Metrics

	mux     *http.ServeMux
	httpSrv *http.Server
	started time.Time

	// ctx outlives requests so captures started over HTTP keep running
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates the HTTP server and attaches its hooks to the capture
// client, log buffer and hub. Call before the capture client is used.
func NewServer(cfg *config.Config, deps Deps) *Server {
	if deps.Logs == nil {
		deps.Logs = NewLogBuffer(cfg.History.LogEntries)
	}
	if deps.History == nil {
		deps.History = NewCaptureHistory(cfg.History.CaptureEntries)
	}
	if deps.Hub == nil {
		deps.Hub = NewHub()
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:  cfg,
		capture: deps.Capture,
		reports: deps.Reports,
		logs:    deps.Logs,
		history: deps.History,
		hub:     deps.Hub,
		metrics: deps.Metrics,
		mux:     http.NewServeMux(),
		started: time.Now(),
		ctx:     ctx,
		cancel:  cancel,
	}

	s.attach()
	s.setupRoutes()
	return s
}

// attach wires component hooks into history, metrics and the websocket feed
func (s *Server) attach() {
	s.hub.OnClients = s.metrics.SetClients
	s.logs.OnEntry = func(e LogEntry) {
		s.hub.Broadcast(EventLog, e)
	}

	if s.capture != nil {
		s.capture.OnChange = func(snap capture.Snapshot) {
			s.metrics.SetDeviceConnected(snap.Connection.Connected)
			s.hub.Broadcast(EventSnapshot, snap)
		}
		s.capture.OnPoll = func(_ int, err error) {
			s.metrics.ObservePoll(err)
		}
		s.capture.OnFinish = func(rec capture.Record) {
			s.history.Add(rec)
			s.metrics.ObserveRecord(rec)
			s.hub.Broadcast(EventRecord, rec)
		}
	}
}

// Handler returns the route multiplexer
func (s *Server) Handler() http.Handler {
	return s.mux
}

// setupRoutes configures the HTTP routes. Routes of disabled features are
// left unregistered.
func (s *Server) setupRoutes() {
	f := s.config.Features

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/logs", s.handleLogs)
	s.mux.HandleFunc("GET /ws", s.hub.ServeWS)
	s.mux.Handle("GET /metrics", s.metrics.Handler())

	if s.capture != nil {
		s.mux.HandleFunc("POST /api/device/check", s.handleDeviceCheck)
		if f.Capture {
			s.mux.HandleFunc("GET /api/fingerprint", s.handleFingerprint)
			s.mux.HandleFunc("POST /api/fingerprint/capture", s.handleCapture)
			s.mux.HandleFunc("POST /api/fingerprint/clear", s.handleClear)
			s.mux.HandleFunc("GET /api/captures", s.handleCaptures)
		}
		if f.Enrollment {
			s.mux.HandleFunc("POST /api/fingerprint/enroll", s.handleEnroll)
			s.mux.HandleFunc("GET /api/fingerprint/form-data", s.handleFormData)
		}
	}

	if s.reports != nil {
		s.mux.HandleFunc("POST /api/reports", s.handleLoadReport)
		s.mux.HandleFunc("GET /api/reports", s.handleReportInfo)
		s.mux.HandleFunc("GET /api/reports/details", s.handleReportDetails)
		if f.Chart {
			s.mux.HandleFunc("GET /api/reports/chart", s.handleReportChart)
		}
		if f.CSVExport || f.PDFExport || f.XLSXExport {
			s.mux.HandleFunc("GET /api/reports/export/{format}", s.handleReportExport)
		}
		if f.Print {
			s.mux.HandleFunc("GET /api/reports/print/{view}", s.handleReportPrint)
		}
	}

	s.mux.HandleFunc("GET /{$}", s.handleUI)
}

// Start listens on the configured address until Shutdown
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("Station listening on http://%s", addr)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests, cancels running captures and
// disconnects websocket clients
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	if s.capture != nil {
		s.capture.Close()
	}
	s.hub.Close()
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, capture.ErrCaptureInProgress),
		errors.Is(err, capture.ErrEnrollmentInProgress),
		errors.Is(err, capture.ErrAlreadyEnrolled),
		errors.Is(err, capture.ErrCaptureCancelled),
		errors.Is(err, capture.ErrSessionCleared):
		return http.StatusConflict
	case errors.Is(err, capture.ErrNoCapture),
		errors.Is(err, capture.ErrMissingStudentInfo),
		errors.Is(err, report.ErrNoSummary),
		errors.Is(err, report.ErrUnknownFormat),
		errors.Is(err, report.ErrUnknownView):
		return http.StatusBadRequest
	case errors.Is(err, capture.ErrDeviceUnreachable),
		errors.Is(err, capture.ErrSensorNotConnected),
		errors.Is(err, capture.ErrIDSpaceExhausted),
		errors.Is(err, report.ErrPDFUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, capture.ErrCaptureTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, capture.ErrEnrollmentFailed):
		return http.StatusBadGateway
	case errors.Is(err, report.ErrFeatureDisabled):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// handleStatus returns station, device and session status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":   "running",
		"uptime":   time.Since(s.started).Round(time.Second).String(),
		"features": s.config.Features,
		"device": map[string]interface{}{
			"host": s.config.Device.Host,
			"port": s.config.Device.Port,
		},
		"ws_clients": s.hub.Clients(),
	}
	if s.capture != nil {
		resp["session"] = s.capture.Snapshot()
	}
	if s.reports != nil {
		resp["report"] = s.reports.Info()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLogs returns buffered log lines and alerts; ?level=warn,error filters
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	var levels []string
	if q := r.URL.Query().Get("level"); q != "" {
		levels = strings.Split(q, ",")
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": s.logs.Entries(levels),
	})
}

// handleUI serves the web UI
func (s *Server) handleUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(webUI))
}

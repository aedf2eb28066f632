package api

import (
	"encoding/json"
	"net/http"

	"github.com/jetsetgo/attendance-station/internal/capture"
)

// handleDeviceCheck refreshes the device connection status
func (s *Server) handleDeviceCheck(w http.ResponseWriter, r *http.Request) {
	conn := s.capture.CheckConnection(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    conn.Connected,
		"connection": conn,
	})
}

// handleFingerprint returns the current session snapshot
func (s *Server) handleFingerprint(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.capture.Snapshot())
}

// handleCapture starts a capture. With ?wait=1 the response is held until
// the capture finishes.
func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	task, err := s.capture.StartCapture(s.ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	if !isTrue(r.URL.Query().Get("wait")) {
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"success": true,
			"task_id": task.ID(),
		})
		return
	}

	ident, err := task.Wait(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"task_id":        task.ID(),
		"fingerprint_id": ident.FingerprintID,
		"confidence":     ident.Confidence,
		"session":        s.capture.Snapshot(),
	})
}

// handleEnroll enrolls the captured fingerprint for the posted student
func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}
	form := capture.StudentForm{
		FirstName: r.FormValue("firstName"),
		LastName:  r.FormValue("lastName"),
		RegNo:     r.FormValue("reg_no"),
	}

	if err := s.capture.StartEnrollment(r.Context(), form); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"session": s.capture.Snapshot(),
	})
}

// handleClear resets the session
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.capture.Clear()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"session": s.capture.Snapshot(),
	})
}

// handleFormData returns the enrolled fingerprint payload the registration
// form submits as its fingerprint_data field
func (s *Server) handleFormData(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.capture.FormPayload()
	resp := map[string]interface{}{"enrolled": ok}
	if ok {
		resp["fingerprint_data"] = json.RawMessage(payload)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCaptures returns the capture history, newest first
func (s *Server) handleCaptures(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"captures": s.history.Entries(),
	})
}

func isTrue(v string) bool {
	switch v {
	case "1", "true", "yes":
		return true
	}
	return false
}

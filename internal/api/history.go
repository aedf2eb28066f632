package api

import (
	"sync"

	"github.com/jetsetgo/attendance-station/internal/capture"
)

// CaptureHistory keeps the most recent finished captures and enrollments
type CaptureHistory struct {
	mu   sync.RWMutex
	ring ring[capture.Record]
}

// NewCaptureHistory holds up to capacity records
func NewCaptureHistory(capacity int) *CaptureHistory {
	return &CaptureHistory{ring: newRing[capture.Record](capacity)}
}

// Add stores rec, evicting the oldest record when full
func (h *CaptureHistory) Add(rec capture.Record) {
	h.mu.Lock()
	h.ring.push(rec)
	h.mu.Unlock()
}

// Entries returns records newest first
func (h *CaptureHistory) Entries() []capture.Record {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := h.ring.len()
	out := make([]capture.Record, n)
	for i := range out {
		out[i] = h.ring.at(n - 1 - i)
	}
	return out
}

// Get looks up a record by ID
func (h *CaptureHistory) Get(id string) (capture.Record, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for i := h.ring.len() - 1; i >= 0; i-- {
		if rec := h.ring.at(i); rec.ID == id {
			return rec, true
		}
	}
	return capture.Record{}, false
}

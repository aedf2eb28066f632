package api

import (
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jetsetgo/attendance-station/internal/alert"
)

// LogEntry is a captured log line or user-facing alert
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Alert     bool      `json:"alert,omitempty"`
}

// LogBuffer keeps the most recent log lines and alerts for the web UI. It
// doubles as the station's alert sink.
type LogBuffer struct {
	mu   sync.RWMutex
	ring ring[LogEntry]
	now  func() time.Time

	// OnEntry is called after every append, outside the lock
	OnEntry func(LogEntry)
}

// NewLogBuffer holds up to capacity entries
func NewLogBuffer(capacity int) *LogBuffer {
	return &LogBuffer{ring: newRing[LogEntry](capacity), now: time.Now}
}

// Add records a log line at the given level
func (lb *LogBuffer) Add(level, message string) {
	lb.add(LogEntry{Level: level, Message: message})
}

// Notify records a user-facing alert
func (lb *LogBuffer) Notify(level alert.Level, message string) {
	lb.add(LogEntry{Level: string(level), Message: message, Alert: true})
}

func (lb *LogBuffer) add(entry LogEntry) {
	lb.mu.Lock()
	entry.Timestamp = lb.now()
	lb.ring.push(entry)
	hook := lb.OnEntry
	lb.mu.Unlock()

	if hook != nil {
		hook(entry)
	}
}

// Entries returns entries oldest first. A non-empty levels list keeps only
// entries at those levels; "warn" and "warning" are equivalent.
func (lb *LogBuffer) Entries(levels []string) []LogEntry {
	want := map[string]bool{}
	for _, l := range levels {
		want[normalizeLevel(l)] = true
	}

	lb.mu.RLock()
	defer lb.mu.RUnlock()

	out := make([]LogEntry, 0, lb.ring.len())
	for i := 0; i < lb.ring.len(); i++ {
		e := lb.ring.at(i)
		if len(want) > 0 && !want[normalizeLevel(e.Level)] {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Clear drops every entry
func (lb *LogBuffer) Clear() {
	lb.mu.Lock()
	lb.ring.reset()
	lb.mu.Unlock()
}

// normalizeLevel folds "warn" and "warning" together
func normalizeLevel(level string) string {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warn" {
		return string(alert.Warning)
	}
	return level
}

// logWriter feeds lines written by the log package into a LogBuffer
type logWriter struct {
	target *LogBuffer
}

func (w logWriter) Write(p []byte) (int, error) {
	line := strings.TrimSpace(string(p))
	if line == "" {
		return len(p), nil
	}
	line = stripLogPrefix(line)
	w.target.Add(levelOf(line), line)
	return len(p), nil
}

// stripLogPrefix removes the "2006/01/02 15:04:05 " date and time that
// log.LstdFlags prepends
func stripLogPrefix(line string) string {
	const prefix = len("2006/01/02 15:04:05 ")
	if len(line) > prefix && line[4] == '/' && line[7] == '/' && line[13] == ':' {
		return line[prefix:]
	}
	return line
}

func levelOf(msg string) string {
	lower := strings.ToLower(msg)
	switch {
	case strings.HasPrefix(lower, "warning"), strings.Contains(lower, "warn:"):
		return "warn"
	case strings.Contains(lower, "error"), strings.Contains(lower, "fail"):
		return "error"
	default:
		return "info"
	}
}

// InstallLogCapture tees the standard logger into buf while keeping its
// current output. The combined writer is returned.
func InstallLogCapture(buf *LogBuffer) io.Writer {
	out := io.MultiWriter(logWriter{target: buf}, log.Writer())
	log.SetFlags(log.LstdFlags)
	log.SetOutput(out)
	return out
}

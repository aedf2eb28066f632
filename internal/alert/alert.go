// Package alert defines the single user-facing notification channel shared
// by the capture client and the report renderer.
package alert

import "log"

// Level is the severity of a user-facing message
type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Warning Level = "warning"
	Error   Level = "error"
)

// Notifier receives user-facing messages
type Notifier interface {
	Notify(level Level, message string)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(level Level, message string)

// Notify calls f(level, message)
func (f NotifierFunc) Notify(level Level, message string) {
	f(level, message)
}

// LogNotifier writes messages to the standard logger. Used when no page-level
// sink is wired.
type LogNotifier struct{}

// Notify logs the message with its level
func (LogNotifier) Notify(level Level, message string) {
	log.Printf("[%s] %s", level, message)
}

// Multi fans a message out to several notifiers
func Multi(notifiers ...Notifier) Notifier {
	return NotifierFunc(func(level Level, message string) {
		for _, n := range notifiers {
			if n != nil {
				n.Notify(level, message)
			}
		}
	})
}

package report

import "errors"

var (
	// ErrNoSummary is returned by exports when no summary is loaded
	ErrNoSummary = errors.New("no data available to export")

	// ErrPDFUnavailable is returned when no PDF writer is configured
	ErrPDFUnavailable = errors.New("PDF export library not loaded")

	// ErrFeatureDisabled is returned when the station has the feature switched off
	ErrFeatureDisabled = errors.New("feature disabled")

	ErrUnknownFormat = errors.New("unknown export format")
	ErrUnknownView   = errors.New("unknown print view")
)

const (
	msgNoSummary      = "No data available to export"
	msgPDFUnavailable = "PDF export library not loaded. Please contact administrator."
)

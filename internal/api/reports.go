package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jetsetgo/attendance-station/internal/report"
)

// maxReportBody bounds POST /api/reports
const maxReportBody = 8 << 20

// ReportRequest is the body of POST /api/reports
type ReportRequest struct {
	Attendance report.Dataset         `json:"attendance"`
	Summary    []report.SummaryRecord `json:"summary"`
}

// handleLoadReport replaces the loaded attendance report
func (s *Server) handleLoadReport(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxReportBody)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.reports.Load(req.Attendance, req.Summary)
	info := s.reports.Info()
	s.hub.Broadcast(EventReport, info)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"report":  info,
	})
}

// handleReportInfo describes the loaded report
func (s *Server) handleReportInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.reports.Info())
}

// handleReportDetails returns the details table as an HTML fragment
func (s *Server) handleReportDetails(w http.ResponseWriter, r *http.Request) {
	html, err := s.reports.RenderAllDetails()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

// handleReportChart returns the summary chart data
func (s *Server) handleReportChart(w http.ResponseWriter, r *http.Request) {
	chart, err := s.reports.SummaryChart()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

// handleReportExport sends a CSV, PDF or XLSX download
func (s *Server) handleReportExport(w http.ResponseWriter, r *http.Request) {
	format := r.PathValue("format")
	exp, err := s.reports.Export(format)
	s.metrics.ObserveExport(metricLabel(format, report.FormatCSV, report.FormatPDF, report.FormatXLSX), err)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", exp.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exp.Filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(exp.Data)))
	w.Write(exp.Data)
}

// handleReportPrint returns a print document that opens the print dialog
func (s *Server) handleReportPrint(w http.ResponseWriter, r *http.Request) {
	view := r.PathValue("view")
	doc, err := s.reports.Print(view)
	s.metrics.ObserveExport("print_"+metricLabel(view, report.ViewCurrent, report.ViewDetails), err)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(doc))
}

// metricLabel keeps label cardinality bounded
func metricLabel(v string, known ...string) string {
	for _, k := range known {
		if v == k {
			return v
		}
	}
	return "other"
}

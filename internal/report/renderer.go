// Package report renders attendance datasets into HTML views, chart data and
// downloadable CSV, PDF and XLSX exports.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jetsetgo/attendance-station/internal/alert"
	"github.com/jetsetgo/attendance-station/internal/config"
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

// Print views
const (
	ViewCurrent = "current"
	ViewDetails = "details"
)

// Export is a generated download
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Options configures a Renderer
type Options struct {
	Features config.FeatureConfig
	// PDF renders PDF exports; nil leaves PDF export unavailable
	PDF      PDFWriter
	Notifier alert.Notifier
	Now      func() time.Time
}

// Renderer holds the loaded attendance report
type Renderer struct {
	mu       sync.RWMutex
	dataset  Dataset
	summary  []SummaryRecord
	loadedAt time.Time

	features config.FeatureConfig
	pdf      PDFWriter
	notifier alert.Notifier
	now      func() time.Time
}

// NewRenderer creates a renderer with an empty dataset
func NewRenderer(opts Options) *Renderer {
	r := &Renderer{
		dataset:  Dataset{},
		features: opts.Features,
		pdf:      opts.PDF,
		notifier: opts.Notifier,
		now:      opts.Now,
	}
	if r.notifier == nil {
		r.notifier = alert.LogNotifier{}
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Load replaces the dataset and summary. A nil dataset becomes empty; a nil
// summary means no summary is loaded and exports are refused.
func (r *Renderer) Load(dataset Dataset, summary []SummaryRecord) {
	if dataset == nil {
		dataset = Dataset{}
	}

	r.mu.Lock()
	r.dataset = dataset
	r.summary = summary
	r.loadedAt = r.now()
	r.mu.Unlock()

	log.Printf("Report loaded: %d students, %d summary records", len(dataset), len(summary))
}

// Info describes what is currently loaded
type Info struct {
	Students   int       `json:"students"`
	Dates      int       `json:"dates"`
	HasSummary bool      `json:"has_summary"`
	Records    int       `json:"summary_records"`
	LoadedAt   time.Time `json:"loaded_at,omitempty"`
}

// Info returns counts for the loaded report
func (r *Renderer) Info() Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Info{
		Students:   len(r.dataset),
		Dates:      len(r.dataset.Dates()),
		HasSummary: r.summary != nil,
		Records:    len(r.summary),
		LoadedAt:   r.loadedAt,
	}
}

func (r *Renderer) state() (Dataset, []SummaryRecord) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dataset, r.summary
}

// fail sends one user-facing message and returns err
func (r *Renderer) fail(level alert.Level, message string, err error) error {
	r.notifier.Notify(level, message)
	return err
}

type detailsRow struct {
	Student string
	Percent int
	Cells   []string
}

type detailsView struct {
	Dates []string
	Rows  []detailsRow
}

func buildDetails(ds Dataset) detailsView {
	dates := ds.Dates()
	view := detailsView{Dates: make([]string, len(dates))}
	for i, d := range dates {
		view.Dates[i] = dateLabel(d)
	}
	for _, student := range ds.Students() {
		marks := ds[student]
		row := detailsRow{Student: student, Percent: Percent(marks), Cells: make([]string, len(dates))}
		for i, d := range dates {
			row.Cells[i] = string(marks[d])
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}

// RenderAllDetails renders the per-date details table as an HTML fragment.
// An empty dataset renders the empty-state block.
func (r *Renderer) RenderAllDetails() (template.HTML, error) {
	ds, _ := r.state()
	return r.execute("details", buildDetails(ds))
}

func (r *Renderer) execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("Failed to render %s: %v", name, err)
		return "", r.fail(alert.Error, "Failed to render attendance report", fmt.Errorf("render %s: %w", name, err))
	}
	return template.HTML(buf.String()), nil
}

// ChartSlice is one segment of the summary chart
type ChartSlice struct {
	Label   string `json:"label"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
	Color   string `json:"color"`
}

// Chart is the data behind the summary doughnut chart
type Chart struct {
	Type   string       `json:"type"`
	Total  int          `json:"total"`
	Slices []ChartSlice `json:"slices"`
}

// SummaryChart returns Present/Absent counts across the dataset
func (r *Renderer) SummaryChart() (*Chart, error) {
	if !r.features.Chart {
		return nil, r.fail(alert.Warning, "Attendance chart is disabled", ErrFeatureDisabled)
	}
	ds, _ := r.state()
	return buildChart(ds), nil
}

func buildChart(ds Dataset) *Chart {
	present, absent := ds.Counts()
	total := present + absent
	share := func(n int) int {
		if total == 0 {
			return 0
		}
		return (n*200 + total) / (total * 2)
	}
	return &Chart{
		Type:  "doughnut",
		Total: total,
		Slices: []ChartSlice{
			{Label: "Present", Count: present, Percent: share(present), Color: "#28a745"},
			{Label: "Absent", Count: absent, Percent: share(absent), Color: "#dc3545"},
		},
	}
}

// Export builds the download for format
func (r *Renderer) Export(format string) (*Export, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return r.ExportCSV()
	case FormatPDF:
		return r.ExportPDF()
	case FormatXLSX:
		return r.ExportXLSX()
	default:
		return nil, r.fail(alert.Error, fmt.Sprintf("Unsupported export format: %s", format),
			fmt.Errorf("%w: %s", ErrUnknownFormat, format))
	}
}

func (r *Renderer) filename(ext string) string {
	return fmt.Sprintf("attendance_report_%s.%s", r.now().UTC().Format("2006-01-02"), ext)
}

func (r *Renderer) generatedOn() string {
	return r.now().Format("1/2/2006")
}

// ExportCSV serializes the summary records. Every data field is quoted.
func (r *Renderer) ExportCSV() (*Export, error) {
	if !r.features.CSVExport {
		return nil, r.fail(alert.Warning, "CSV export is disabled", ErrFeatureDisabled)
	}
	_, summary := r.state()
	if summary == nil {
		return nil, r.fail(alert.Warning, msgNoSummary, ErrNoSummary)
	}

	var buf bytes.Buffer
	buf.WriteString("Student Name,Attendance %,Present Sessions,Total Sessions,Status\n")
	for _, fields := range tableRows(summary) {
		for i, f := range fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(quote(f))
		}
		buf.WriteByte('\n')
	}

	return &Export{
		Filename:    r.filename(FormatCSV),
		ContentType: "text/csv;charset=utf-8",
		Data:        buf.Bytes(),
	}, nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// tableRows returns the summary as export table rows
func tableRows(summary []SummaryRecord) [][]string {
	rows := make([][]string, 0, len(summary))
	for _, rec := range summary {
		rows = append(rows, []string{
			rec.Student,
			fmt.Sprintf("%d%%", rec.AttendancePercent),
			fmt.Sprint(rec.PresentCount),
			fmt.Sprint(rec.TotalCount),
			rec.Eligibility(),
		})
	}
	return rows
}

var tableHead = []string{"Student Name", "Attendance %", "Present", "Total", "Status"}

// ExportPDF renders the summary table through the configured PDF writer
func (r *Renderer) ExportPDF() (*Export, error) {
	if !r.features.PDFExport {
		return nil, r.fail(alert.Warning, "PDF export is disabled", ErrFeatureDisabled)
	}
	if r.pdf == nil {
		return nil, r.fail(alert.Error, msgPDFUnavailable, ErrPDFUnavailable)
	}
	_, summary := r.state()
	if summary == nil {
		return nil, r.fail(alert.Warning, msgNoSummary, ErrNoSummary)
	}

	doc := Document{
		Title:     "Attendance Report",
		Generated: "Generated on: " + r.generatedOn(),
		Head:      tableHead,
		Rows:      tableRows(summary),
	}
	var buf bytes.Buffer
	if err := r.pdf.WritePDF(&buf, doc); err != nil {
		log.Printf("PDF export failed: %v", err)
		return nil, r.fail(alert.Error, "Failed to generate PDF report", fmt.Errorf("export pdf: %w", err))
	}

	return &Export{
		Filename:    r.filename(FormatPDF),
		ContentType: "application/pdf",
		Data:        buf.Bytes(),
	}, nil
}

type printPage struct {
	Title     string
	Details   bool
	Generated string
	Body      template.HTML
	Delay     int
}

type summaryView struct {
	Chart   *Chart
	Summary []SummaryRecord
}

// Print renders the named print document
func (r *Renderer) Print(view string) (template.HTML, error) {
	switch view {
	case ViewCurrent:
		return r.PrintCurrentView()
	case ViewDetails:
		return r.PrintAllDetails()
	default:
		return "", r.fail(alert.Error, fmt.Sprintf("Unknown print view: %s", view),
			fmt.Errorf("%w: %s", ErrUnknownView, view))
	}
}

// PrintCurrentView renders the summary view as a print document
func (r *Renderer) PrintCurrentView() (template.HTML, error) {
	if !r.features.Print {
		return "", r.fail(alert.Warning, "Printing is disabled", ErrFeatureDisabled)
	}
	ds, summary := r.state()
	sv := summaryView{Summary: summary}
	if r.features.Chart {
		sv.Chart = buildChart(ds)
	}
	body, err := r.execute("summary", sv)
	if err != nil {
		return "", err
	}
	return r.execute("print", printPage{
		Title:     "Attendance Report - Print",
		Generated: r.generatedOn(),
		Body:      body,
		Delay:     500,
	})
}

// PrintAllDetails renders the details table as a print document
func (r *Renderer) PrintAllDetails() (template.HTML, error) {
	if !r.features.Print {
		return "", r.fail(alert.Warning, "Printing is disabled", ErrFeatureDisabled)
	}
	body, err := r.RenderAllDetails()
	if err != nil {
		return "", err
	}
	return r.execute("print", printPage{
		Title:     "Attendance Details - Print",
		Details:   true,
		Generated: r.generatedOn(),
		Body:      body,
		Delay:     300,
	})
}

package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jetsetgo/attendance-station/internal/alert"
	"github.com/jetsetgo/attendance-station/internal/config"
)

type notice struct {
	level   alert.Level
	message string
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (n *recordingNotifier) Notify(level alert.Level, message string) {
	n.mu.Lock()
	n.notices = append(n.notices, notice{level, message})
	n.mu.Unlock()
}

func (n *recordingNotifier) all() []notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notice(nil), n.notices...)
}

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestRenderer(t *testing.T, mutate func(*Options)) (*Renderer, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	opts := Options{
		Features: config.Default().Features,
		PDF:      FPDF{},
		Notifier: n,
		Now:      func() time.Time { return fixedNow },
	}
	if mutate != nil {
		mutate(&opts)
	}
	return NewRenderer(opts), n
}

func TestPercent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		marks map[string]Status
		want  int
	}{
		{"no records", map[string]Status{}, 0},
		{"nil", nil, 0},
		{"all present", map[string]Status{"d1": Present, "d2": Present}, 100},
		{"two of three", map[string]Status{"d1": Present, "d2": Present, "d3": Absent}, 67},
		{"one of three", map[string]Status{"d1": Present, "d2": Absent, "d3": Absent}, 33},
		{"half", map[string]Status{"d1": Present, "d2": Absent}, 50},
		{"rounds half up", map[string]Status{
			"d1": Present, "d2": Absent, "d3": Absent, "d4": Absent,
			"d5": Absent, "d6": Absent, "d7": Absent, "d8": Absent,
		}, 13},
		{"unknown marks count as not present", map[string]Status{"d1": Present, "d2": "Late"}, 50},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Percent(tt.marks); got != tt.want {
				t.Errorf("Percent() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDataset_DatesUnion(t *testing.T) {
	t.Parallel()

	ds := Dataset{
		"A": {"2025-01-01": Present, "2025-01-03": Absent},
		"B": {"2025-01-02": Present},
	}
	want := []string{"2025-01-01", "2025-01-02", "2025-01-03"}
	if got := ds.Dates(); !reflect.DeepEqual(got, want) {
		t.Errorf("Dates() = %v, want %v", got, want)
	}
	if got := ds.Students(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("Students() = %v", got)
	}
}

func TestEligibility_Threshold(t *testing.T) {
	t.Parallel()

	if got := Eligibility(84); got != "Not Allowed" {
		t.Errorf("Eligibility(84) = %q", got)
	}
	if got := Eligibility(85); got != "Allowed" {
		t.Errorf("Eligibility(85) = %q", got)
	}
	if got := Eligibility(100); got != "Allowed" {
		t.Errorf("Eligibility(100) = %q", got)
	}
}

func TestExportCSV(t *testing.T) {
	t.Parallel()

	r, n := newTestRenderer(t, nil)
	r.Load(nil, []SummaryRecord{{Student: "A", AttendancePercent: 90, PresentCount: 9, TotalCount: 10}})

	exp, err := r.ExportCSV()
	if err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}

	want := "Student Name,Attendance %,Present Sessions,Total Sessions,Status\n" +
		`"A","90%","9","10","Allowed"` + "\n"
	if string(exp.Data) != want {
		t.Errorf("csv = %q, want %q", exp.Data, want)
	}
	if exp.Filename != "attendance_report_2025-03-14.csv" {
		t.Errorf("filename = %q", exp.Filename)
	}
	if len(n.all()) != 0 {
		t.Errorf("unexpected alerts: %v", n.all())
	}
}

func TestSummaryRecord_DecodesLooseNumbers(t *testing.T) {
	t.Parallel()

	payload := `[
		{"student_id":"17","student":"A","attendance_percent":90.0,"present_count":9,"total_count":10},
		{"student_id":"18","student":"B","attendance_percent":84.5,"present_count":"22","total_count":"26"},
		{"student":"C","attendance_percent":"85","present_count":"17","total_count":20}
	]`

	var summary []SummaryRecord
	if err := json.Unmarshal([]byte(payload), &summary); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	want := []SummaryRecord{
		{Student: "A", AttendancePercent: 90, PresentCount: 9, TotalCount: 10},
		{Student: "B", AttendancePercent: 85, PresentCount: 22, TotalCount: 26},
		{Student: "C", AttendancePercent: 85, PresentCount: 17, TotalCount: 20},
	}
	if !reflect.DeepEqual(summary, want) {
		t.Fatalf("summary = %+v, want %+v", summary, want)
	}

	r, _ := newTestRenderer(t, nil)
	r.Load(nil, summary)
	exp, err := r.ExportCSV()
	if err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}
	if !strings.Contains(string(exp.Data), `"A","90%","9","10","Allowed"`) {
		t.Errorf("csv = %q", exp.Data)
	}
}

func TestSummaryRecord_RejectsNonNumbers(t *testing.T) {
	t.Parallel()

	var rec SummaryRecord
	err := json.Unmarshal([]byte(`{"student":"A","attendance_percent":"ninety"}`), &rec)
	if err == nil {
		t.Fatal("expected error for non-numeric percent")
	}
	if !strings.Contains(err.Error(), "attendance_percent") {
		t.Errorf("err = %v", err)
	}
}

func TestExportCSV_QuotesAndStatus(t *testing.T) {
	t.Parallel()

	r, _ := newTestRenderer(t, nil)
	r.Load(nil, []SummaryRecord{
		{Student: `Jane "JJ" Doe, Jr`, AttendancePercent: 84, PresentCount: 21, TotalCount: 25},
	})

	exp, err := r.ExportCSV()
	if err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(exp.Data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	want := `"Jane ""JJ"" Doe, Jr","84%","21","25","Not Allowed"`
	if lines[1] != want {
		t.Errorf("row = %s, want %s", lines[1], want)
	}
}

func TestExportCSV_EmptySummaryWritesHeader(t *testing.T) {
	t.Parallel()

	r, _ := newTestRenderer(t, nil)
	r.Load(nil, []SummaryRecord{})

	exp, err := r.ExportCSV()
	if err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}
	if string(exp.Data) != "Student Name,Attendance %,Present Sessions,Total Sessions,Status\n" {
		t.Errorf("csv = %q", exp.Data)
	}
}

func TestExports_NoSummary(t *testing.T) {
	t.Parallel()

	for _, format := range []string{FormatCSV, FormatPDF, FormatXLSX} {
		format := format
		t.Run(format, func(t *testing.T) {
			t.Parallel()

			r, n := newTestRenderer(t, nil)
			r.Load(Dataset{"A": {"2025-01-01": Present}}, nil)

			exp, err := r.Export(format)
			if !errors.Is(err, ErrNoSummary) {
				t.Fatalf("expected ErrNoSummary, got %v", err)
			}
			if exp != nil {
				t.Error("no file should be produced")
			}
			got := n.all()
			if len(got) != 1 || got[0].level != alert.Warning || got[0].message != "No data available to export" {
				t.Errorf("alerts = %v", got)
			}
		})
	}
}

func TestExportPDF_Unavailable(t *testing.T) {
	t.Parallel()

	r, n := newTestRenderer(t, func(o *Options) { o.PDF = nil })
	r.Load(nil, []SummaryRecord{{Student: "A", AttendancePercent: 90, PresentCount: 9, TotalCount: 10}})

	_, err := r.ExportPDF()
	if !errors.Is(err, ErrPDFUnavailable) {
		t.Fatalf("expected ErrPDFUnavailable, got %v", err)
	}
	got := n.all()
	if len(got) != 1 || got[0].level != alert.Error {
		t.Fatalf("alerts = %v", got)
	}
	if got[0].message != "PDF export library not loaded. Please contact administrator." {
		t.Errorf("message = %q", got[0].message)
	}
}

type captureWriter struct {
	doc Document
	err error
}

func (c *captureWriter) WritePDF(w io.Writer, doc Document) error {
	c.doc = doc
	if c.err != nil {
		return c.err
	}
	_, err := io.WriteString(w, "%PDF-fake")
	return err
}

func TestExportPDF_Document(t *testing.T) {
	t.Parallel()

	cw := &captureWriter{}
	r, _ := newTestRenderer(t, func(o *Options) { o.PDF = cw })
	r.Load(nil, []SummaryRecord{
		{Student: "A", AttendancePercent: 90, PresentCount: 9, TotalCount: 10},
		{Student: "B", AttendancePercent: 50, PresentCount: 5, TotalCount: 10},
	})

	exp, err := r.ExportPDF()
	if err != nil {
		t.Fatalf("ExportPDF failed: %v", err)
	}
	if exp.Filename != "attendance_report_2025-03-14.pdf" {
		t.Errorf("filename = %q", exp.Filename)
	}
	if cw.doc.Title != "Attendance Report" {
		t.Errorf("title = %q", cw.doc.Title)
	}
	if cw.doc.Generated != "Generated on: 3/14/2025" {
		t.Errorf("generated = %q", cw.doc.Generated)
	}
	if !reflect.DeepEqual(cw.doc.Head, []string{"Student Name", "Attendance %", "Present", "Total", "Status"}) {
		t.Errorf("head = %v", cw.doc.Head)
	}
	want := [][]string{
		{"A", "90%", "9", "10", "Allowed"},
		{"B", "50%", "5", "10", "Not Allowed"},
	}
	if !reflect.DeepEqual(cw.doc.Rows, want) {
		t.Errorf("rows = %v, want %v", cw.doc.Rows, want)
	}
}

func TestExportPDF_WriterFailure(t *testing.T) {
	t.Parallel()

	r, n := newTestRenderer(t, func(o *Options) { o.PDF = &captureWriter{err: errors.New("boom")} })
	r.Load(nil, []SummaryRecord{{Student: "A", AttendancePercent: 90, PresentCount: 9, TotalCount: 10}})

	if _, err := r.ExportPDF(); err == nil {
		t.Fatal("expected error")
	}
	if got := n.all(); len(got) != 1 || got[0].level != alert.Error {
		t.Errorf("alerts = %v", got)
	}
}

func TestFPDF_WritesDocument(t *testing.T) {
	t.Parallel()

	rows := make([][]string, 0, 80)
	for i := 0; i < 80; i++ {
		rows = append(rows, []string{"Student", "90%", "9", "10", "Allowed"})
	}

	var buf bytes.Buffer
	err := FPDF{}.WritePDF(&buf, Document{
		Title:     "Attendance Report",
		Generated: "Generated on: 3/14/2025",
		Head:      []string{"Student Name", "Attendance %", "Present", "Total", "Status"},
		Rows:      rows,
	})
	if err != nil {
		t.Fatalf("WritePDF failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output is not a PDF: %q", buf.Bytes()[:min(16, buf.Len())])
	}
}

func TestExportXLSX(t *testing.T) {
	t.Parallel()

	r, _ := newTestRenderer(t, nil)
	r.Load(nil, []SummaryRecord{
		{Student: "A", AttendancePercent: 90, PresentCount: 9, TotalCount: 10},
		{Student: "B", AttendancePercent: 40, PresentCount: 4, TotalCount: 10},
	})

	exp, err := r.ExportXLSX()
	if err != nil {
		t.Fatalf("ExportXLSX failed: %v", err)
	}
	if exp.Filename != "attendance_report_2025-03-14.xlsx" {
		t.Errorf("filename = %q", exp.Filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(exp.Data))
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(xlsxSheet)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "Student Name" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "A" || rows[1][4] != "Allowed" {
		t.Errorf("row 2 = %v", rows[1])
	}
	if rows[2][0] != "B" || rows[2][4] != "Not Allowed" {
		t.Errorf("row 3 = %v", rows[2])
	}
}

func TestExport_DisabledFeature(t *testing.T) {
	t.Parallel()

	r, n := newTestRenderer(t, func(o *Options) { o.Features.CSVExport = false })
	r.Load(nil, []SummaryRecord{})

	if _, err := r.Export("CSV"); !errors.Is(err, ErrFeatureDisabled) {
		t.Fatalf("expected ErrFeatureDisabled, got %v", err)
	}
	if len(n.all()) != 1 {
		t.Errorf("alerts = %v", n.all())
	}
}

func TestExport_UnknownFormat(t *testing.T) {
	t.Parallel()

	r, _ := newTestRenderer(t, nil)
	if _, err := r.Export("docx"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestRenderAllDetails_EmptyState(t *testing.T) {
	t.Parallel()

	r, _ := newTestRenderer(t, nil)
	r.Load(nil, nil)

	html, err := r.RenderAllDetails()
	if err != nil {
		t.Fatalf("RenderAllDetails failed: %v", err)
	}
	if !strings.Contains(string(html), "No Data Available") {
		t.Error("expected empty-state block")
	}
	if strings.Contains(string(html), "<table") {
		t.Error("empty dataset should not render a table")
	}
}

func TestRenderAllDetails_Table(t *testing.T) {
	t.Parallel()

	r, _ := newTestRenderer(t, nil)
	r.Load(Dataset{
		"Zed": {"2025-01-02": Present},
		"Amy": {"2025-01-01": Present, "2025-01-03": Absent},
	}, nil)

	out, err := r.RenderAllDetails()
	if err != nil {
		t.Fatalf("RenderAllDetails failed: %v", err)
	}
	html := string(out)

	jan1 := strings.Index(html, "<th>Jan 1</th>")
	jan2 := strings.Index(html, "<th>Jan 2</th>")
	jan3 := strings.Index(html, "<th>Jan 3</th>")
	if jan1 < 0 || jan2 < jan1 || jan3 < jan2 {
		t.Errorf("date headers missing or out of order: %d %d %d", jan1, jan2, jan3)
	}
	if strings.Index(html, "Amy") > strings.Index(html, "Zed") {
		t.Error("students should be sorted by name")
	}
	if !strings.Contains(html, "Not Allowed (50%)") {
		t.Error("expected Amy's badge")
	}
	if !strings.Contains(html, "Allowed (100%)") {
		t.Error("expected Zed's badge")
	}
	// Amy has no Jan 2 entry, Zed has no Jan 1 or Jan 3
	if got := strings.Count(html, `<span class="text-muted">-</span>`); got != 3 {
		t.Errorf("placeholder cells = %d, want 3", got)
	}
	if got := strings.Count(html, "badge-present"); got != 2 {
		t.Errorf("present badges = %d, want 2", got)
	}
	if got := strings.Count(html, "badge-absent"); got != 1 {
		t.Errorf("absent badges = %d, want 1", got)
	}
}

func TestRenderAllDetails_EscapesNames(t *testing.T) {
	t.Parallel()

	r, _ := newTestRenderer(t, nil)
	r.Load(Dataset{"<script>x</script>": {"2025-01-01": Present}}, nil)

	out, err := r.RenderAllDetails()
	if err != nil {
		t.Fatalf("RenderAllDetails failed: %v", err)
	}
	if strings.Contains(string(out), "<script>x") {
		t.Error("student name was not escaped")
	}
}

func TestSummaryChart(t *testing.T) {
	t.Parallel()

	r, _ := newTestRenderer(t, nil)
	r.Load(Dataset{
		"A": {"d1": Present, "d2": Present, "d3": Absent},
		"B": {"d1": Present},
	}, nil)

	chart, err := r.SummaryChart()
	if err != nil {
		t.Fatalf("SummaryChart failed: %v", err)
	}
	if chart.Total != 4 {
		t.Errorf("total = %d, want 4", chart.Total)
	}
	if chart.Slices[0].Label != "Present" || chart.Slices[0].Count != 3 || chart.Slices[0].Percent != 75 {
		t.Errorf("present slice = %+v", chart.Slices[0])
	}
	if chart.Slices[1].Label != "Absent" || chart.Slices[1].Count != 1 || chart.Slices[1].Percent != 25 {
		t.Errorf("absent slice = %+v", chart.Slices[1])
	}
}

func TestSummaryChart_Disabled(t *testing.T) {
	t.Parallel()

	r, _ := newTestRenderer(t, func(o *Options) { o.Features.Chart = false })
	if _, err := r.SummaryChart(); !errors.Is(err, ErrFeatureDisabled) {
		t.Fatalf("expected ErrFeatureDisabled, got %v", err)
	}
}

func TestPrintViews(t *testing.T) {
	t.Parallel()

	r, _ := newTestRenderer(t, nil)
	r.Load(Dataset{"A": {"2025-01-01": Present}},
		[]SummaryRecord{{Student: "A", AttendancePercent: 100, PresentCount: 1, TotalCount: 1}})

	tests := []struct {
		view  string
		title string
	}{
		{ViewCurrent, "Attendance Report - Print"},
		{ViewDetails, "Attendance Details - Print"},
	}
	for _, tt := range tests {
		doc, err := r.Print(tt.view)
		if err != nil {
			t.Fatalf("Print(%s) failed: %v", tt.view, err)
		}
		html := string(doc)
		for _, want := range []string{"<title>" + tt.title + "</title>", "window.print()", "window.close()", "@media print", "Generated on 3/14/2025"} {
			if !strings.Contains(html, want) {
				t.Errorf("Print(%s) missing %q", tt.view, want)
			}
		}
	}

	if _, err := r.Print("modal"); !errors.Is(err, ErrUnknownView) {
		t.Errorf("expected ErrUnknownView, got %v", err)
	}
}

func TestPrint_Disabled(t *testing.T) {
	t.Parallel()

	r, n := newTestRenderer(t, func(o *Options) { o.Features.Print = false })
	if _, err := r.PrintAllDetails(); !errors.Is(err, ErrFeatureDisabled) {
		t.Fatalf("expected ErrFeatureDisabled, got %v", err)
	}
	if len(n.all()) != 1 {
		t.Errorf("alerts = %v", n.all())
	}
}

func TestInfo(t *testing.T) {
	t.Parallel()

	r, _ := newTestRenderer(t, nil)
	if r.Info().HasSummary {
		t.Error("fresh renderer should have no summary")
	}
	r.Load(Dataset{"A": {"d1": Present, "d2": Absent}}, []SummaryRecord{})
	info := r.Info()
	if info.Students != 1 || info.Dates != 2 || !info.HasSummary || !info.LoadedAt.Equal(fixedNow) {
		t.Errorf("info = %+v", info)
	}
}

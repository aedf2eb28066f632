package report

import "html/template"

var funcs = template.FuncMap{
	"statusClass": func(percent int) string {
		if percent >= PassThreshold {
			return "status-allowed"
		}
		return "status-not-allowed"
	},
	"eligibility": Eligibility,
}

var templates = template.Must(template.New("report").Funcs(funcs).Parse(detailsHTML + summaryHTML + printHTML))

const detailsHTML = `{{define "details"}}{{if not .Rows}}<div class="empty-state">
  <i class="fas fa-chart-bar empty-icon"></i>
  <h3 class="empty-title">No Data Available</h3>
  <p class="empty-message">No attendance details found for the selected criteria.</p>
</div>{{else}}<table id="attendanceTableAll" class="details-table table table-bordered table-hover table-sm">
  <thead>
    <tr><th>Student Name</th><th>Overall Status</th>{{range .Dates}}<th>{{.}}</th>{{end}}</tr>
  </thead>
  <tbody>
{{- range .Rows}}
    <tr><td class="student-name">{{.Student}}</td><td><span class="status-badge {{statusClass .Percent}}">{{eligibility .Percent}} ({{.Percent}}%)</span></td>
{{- range .Cells}}{{if eq . "Present"}}<td><span class="badge-present">Present</span></td>{{else if eq . "Absent"}}<td><span class="badge-absent">Absent</span></td>{{else}}<td><span class="text-muted">-</span></td>{{end}}{{end}}</tr>
{{- end}}
  </tbody>
</table>{{end}}{{end}}`

const summaryHTML = `{{define "summary"}}<div class="reports-section">
{{- if .Chart}}
  <div class="chart-summary">
{{- range .Chart.Slices}}
    <span class="chart-slice">{{.Label}}: {{.Count}} ({{.Percent}}%)</span>
{{- end}}
  </div>
{{- end}}
{{- if .Summary}}
  <table class="table table-bordered table-sm">
    <thead>
      <tr><th>Student Name</th><th>Attendance %</th><th>Present</th><th>Total</th><th>Status</th></tr>
    </thead>
    <tbody>
{{- range .Summary}}
      <tr><td>{{.Student}}</td><td>{{.AttendancePercent}}%</td><td>{{.PresentCount}}</td><td>{{.TotalCount}}</td><td><span class="status-badge {{statusClass .AttendancePercent}}">{{.Eligibility}}</span></td></tr>
{{- end}}
    </tbody>
  </table>
{{- else}}
  <div class="empty-state">
    <h3 class="empty-title">No Data Available</h3>
    <p class="empty-message">No attendance summary loaded.</p>
  </div>
{{- end}}
</div>{{end}}`

const printHTML = `{{define "print"}}<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; margin: 20px; color: #212529; }
    h1, h2, .generated { text-align: center; }
    .generated { color: #6c757d; margin-bottom: 24px; }
    table { width: 100%; border-collapse: collapse; }
    th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
    th { background: #0066cc; color: #fff; }
    .badge-present { color: #28a745; font-weight: 600; }
    .badge-absent { color: #dc3545; font-weight: 600; }
    .status-allowed { color: #28a745; }
    .status-not-allowed { color: #dc3545; }
    .text-muted { color: #6c757d; }
    .chart-slice { margin-right: 16px; }
    @media print {
      body { font-size: 12px; margin: 0; }
      table { font-size: 10px; }
      .reports-section { box-shadow: none; border: 1px solid #ccc; margin-bottom: 1rem; }
    }
  </style>
</head>
<body>
  {{if .Details}}<h2>All Students Attendance Details</h2>{{else}}<h1>Attendance Report</h1>{{end}}
  <p class="generated">Generated on {{.Generated}}</p>
  {{.Body}}
  <script>
    window.addEventListener('load', function () {
      setTimeout(function () {
        window.focus();
        window.print();
        window.close();
      }, {{.Delay}});
    });
  </script>
</body>
</html>{{end}}`

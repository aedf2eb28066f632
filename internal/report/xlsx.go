package report

import (
	"fmt"
	"log"

	"github.com/xuri/excelize/v2"

	"github.com/jetsetgo/attendance-station/internal/alert"
)

const xlsxSheet = "Attendance"

// ExportXLSX writes the summary records as a spreadsheet
func (r *Renderer) ExportXLSX() (*Export, error) {
	if !r.features.XLSXExport {
		return nil, r.fail(alert.Warning, "Spreadsheet export is disabled", ErrFeatureDisabled)
	}
	_, summary := r.state()
	if summary == nil {
		return nil, r.fail(alert.Warning, msgNoSummary, ErrNoSummary)
	}

	data, err := writeWorkbook(summary)
	if err != nil {
		log.Printf("XLSX export failed: %v", err)
		return nil, r.fail(alert.Error, "Failed to generate spreadsheet", fmt.Errorf("export xlsx: %w", err))
	}

	return &Export{
		Filename:    r.filename(FormatXLSX),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        data,
	}, nil
}

func writeWorkbook(summary []SummaryRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	head := []interface{}{"Student Name", "Attendance %", "Present Sessions", "Total Sessions", "Status"}
	if err := f.SetSheetRow(xlsxSheet, "A1", &head); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"0066CC"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(xlsxSheet, "A1", "E1", style); err != nil {
		return nil, fmt.Errorf("apply header style: %w", err)
	}

	for i, rec := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			rec.Student,
			float64(rec.AttendancePercent) / 100,
			rec.PresentCount,
			rec.TotalCount,
			rec.Eligibility(),
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if len(summary) > 0 {
		pct, err := f.NewStyle(&excelize.Style{NumFmt: 9})
		if err != nil {
			return nil, fmt.Errorf("percent style: %w", err)
		}
		last := fmt.Sprintf("B%d", len(summary)+1)
		if err := f.SetCellStyle(xlsxSheet, "B2", last, pct); err != nil {
			return nil, fmt.Errorf("apply percent style: %w", err)
		}
	}
	if err := f.SetColWidth(xlsxSheet, "A", "A", 30); err != nil {
		return nil, fmt.Errorf("column width: %w", err)
	}
	if err := f.SetColWidth(xlsxSheet, "B", "E", 16); err != nil {
		return nil, fmt.Errorf("column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"
)

// PassThreshold is the attendance percentage a student needs to be allowed
const PassThreshold = 85

// Status is a single attendance mark
type Status string

const (
	Present Status = "Present"
	Absent  Status = "Absent"
)

// Dataset maps student name -> date -> status
type Dataset map[string]map[string]Status

// SummaryRecord is one exported summary row. Records come from the caller and
// are not derived from the Dataset.
type SummaryRecord struct {
	Student           string `json:"student"`
	AttendancePercent int    `json:"attendance_percent"`
	PresentCount      int    `json:"present_count"`
	TotalCount        int    `json:"total_count"`
}

// UnmarshalJSON accepts numbers as integers, floats such as 90.0, or numeric
// strings such as "9". Fractional values round half away from zero.
func (r *SummaryRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		Student           string      `json:"student"`
		AttendancePercent json.Number `json:"attendance_percent"`
		PresentCount      json.Number `json:"present_count"`
		TotalCount        json.Number `json:"total_count"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	var rec SummaryRecord
	rec.Student = raw.Student
	fields := []struct {
		name string
		in   json.Number
		out  *int
	}{
		{"attendance_percent", raw.AttendancePercent, &rec.AttendancePercent},
		{"present_count", raw.PresentCount, &rec.PresentCount},
		{"total_count", raw.TotalCount, &rec.TotalCount},
	}
	for _, f := range fields {
		n, err := wholeNumber(f.in)
		if err != nil {
			return fmt.Errorf("summary %q: %s: %w", raw.Student, f.name, err)
		}
		*f.out = n
	}
	*r = rec
	return nil
}

func wholeNumber(n json.Number) (int, error) {
	if n == "" {
		return 0, nil
	}
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid number %q", n.String())
	}
	return int(math.Round(f)), nil
}

// Eligibility returns the pass/fail label for the record
func (r SummaryRecord) Eligibility() string {
	return Eligibility(r.AttendancePercent)
}

// Eligibility returns "Allowed" at or above PassThreshold, else "Not Allowed"
func Eligibility(percent int) string {
	if percent >= PassThreshold {
		return "Allowed"
	}
	return "Not Allowed"
}

// Percent returns present/total as a whole percentage, rounding half up.
// A student with no recorded dates is at 0.
func Percent(marks map[string]Status) int {
	total := len(marks)
	if total == 0 {
		return 0
	}
	present := 0
	for _, s := range marks {
		if s == Present {
			present++
		}
	}
	return (present*200 + total) / (total * 2)
}

// Dates returns the union of all recorded dates, sorted ascending
func (d Dataset) Dates() []string {
	seen := make(map[string]struct{})
	for _, marks := range d {
		for date := range marks {
			seen[date] = struct{}{}
		}
	}
	dates := make([]string, 0, len(seen))
	for date := range seen {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// Students returns the student names sorted
func (d Dataset) Students() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Counts returns the number of Present and Absent marks across the dataset
func (d Dataset) Counts() (present, absent int) {
	for _, marks := range d {
		for _, s := range marks {
			switch s {
			case Present:
				present++
			case Absent:
				absent++
			}
		}
	}
	return present, absent
}

// dateLabel formats ISO dates as "Jan 2"; anything else is shown as given
func dateLabel(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("Jan 2")
}

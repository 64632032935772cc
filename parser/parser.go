// Package parser interprets the schedule strings scraped from the portal.
//
// None of the functions here return errors: malformed domain data degrades to
// an empty result so a single bad row never stops a crawl or a query.
package parser

import (
	"strings"

	"github.com/aluiziolira/go-scrape-timetable/models"
)

// Missing is the placeholder written for empty cells in the crawled files.
const Missing = "null"

// maxSpecValue caps the ranges expanded from week and period specs.
const maxSpecValue = 1000

// IsMissing reports whether s is one of the placeholders the portal and the
// crawled files use for "no value".
func IsMissing(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "null", "无", "空":
		return true
	}
	return false
}

// Clean trims s and maps every missing-value placeholder to the empty string.
func Clean(s string) string {
	if IsMissing(s) {
		return ""
	}
	return strings.TrimSpace(s)
}

// CellValue returns the text stored for a scraped cell.
func CellValue(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return Missing
	}
	return text
}

// NormalizeRow pads or truncates cells to exactly models.LessonColumns values,
// filling gaps with Missing.
func NormalizeRow(cells []string) []string {
	row := make([]string, models.LessonColumns)
	for i := range row {
		if i < len(cells) {
			row[i] = CellValue(cells[i])
			continue
		}
		row[i] = Missing
	}
	return row
}

// ColumnIndex maps header names to their position in a CSV row.
type ColumnIndex map[string]int

// NewColumnIndex indexes header and reports which of required are absent.
func NewColumnIndex(header []string, required ...string) (ColumnIndex, []string) {
	idx := make(ColumnIndex, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, ok := idx[name]; !ok {
			idx[name] = i
		}
	}
	var missing []string
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	return idx, missing
}

// Get returns the cleaned value of column name in row, or "" when the column or
// the cell does not exist.
func (c ColumnIndex) Get(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return Clean(row[i])
}

// LessonFromRow builds a lesson from one CSV row and derives its week and
// period sets.
func LessonFromRow(cols ColumnIndex, row []string) models.Lesson {
	l := models.Lesson{
		Seq:           cols.Get(row, models.ColSeq),
		CourseSeq:     cols.Get(row, models.ColCourseSeq),
		CourseCode:    cols.Get(row, models.ColCourseCode),
		CourseName:    cols.Get(row, models.ColCourseName),
		Category:      cols.Get(row, models.ColCategory),
		TeachingClass: cols.Get(row, models.ColTeachingClass),
		WeeklyHours:   cols.Get(row, models.ColWeeklyHours),
		Credits:       cols.Get(row, models.ColCredits),
		Language:      cols.Get(row, models.ColLanguage),
		Enrollment:    cols.Get(row, models.ColEnrollment),
		Scheduled:     cols.Get(row, models.ColScheduled),
		WeekSpec:      cols.Get(row, models.ColWeeks),
		Weekday:       cols.Get(row, models.ColWeekday),
		PeriodSpec:    cols.Get(row, models.ColPeriods),
		Instructor:    cols.Get(row, models.ColInstructor),
		Location:      cols.Get(row, models.ColLocation),
		Notes:         cols.Get(row, models.ColNotes),
	}
	l.Weeks = ParseWeeks(l.WeekSpec)
	l.Periods = ParsePeriods(l.PeriodSpec)
	return l
}

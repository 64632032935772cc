package timetable

import (
	"github.com/aluiziolira/go-scrape-timetable/models"
	"github.com/aluiziolira/go-scrape-timetable/parser"
)

const (
	// Periods is the number of grid rows.
	Periods = 12
	// Days is the number of grid columns, Sunday first.
	Days = 7

	maxCellNames = 2
	ellipsis     = "..."
	unknownName  = "未知课程"
)

// Grid holds the course names falling on each period (row) and weekday
// (column).
type Grid [Periods][Days][]string

// Render places every lesson with a recognised weekday on the rows of its
// periods. Periods outside 1..12 are ignored.
func Render(lessons []models.Lesson) Grid {
	var g Grid
	for _, l := range lessons {
		code, ok := parser.NormalizeWeekday(l.Weekday)
		if !ok {
			continue
		}
		col, ok := parser.WeekdayColumn(code)
		if !ok {
			continue
		}
		name := l.CourseName
		if name == "" {
			name = unknownName
		}
		periods := l.Periods
		if periods == nil {
			periods = parser.ParsePeriods(l.PeriodSpec)
		}
		for _, p := range periods.Sorted() {
			if p < 1 || p > Periods {
				continue
			}
			g[p-1][col] = append(g[p-1][col], name)
		}
	}
	return g
}

// Display returns the names shown in a cell: at most two, followed by "..."
// when more are present.
func (g *Grid) Display(row, col int) []string {
	if row < 0 || row >= Periods || col < 0 || col >= Days {
		return nil
	}
	names := g[row][col]
	if len(names) <= maxCellNames {
		return names
	}
	out := make([]string, 0, maxCellNames+1)
	out = append(out, names[:maxCellNames]...)
	return append(out, ellipsis)
}

// Empty reports whether no cell holds a course.
func (g *Grid) Empty() bool {
	for r := range g {
		for c := range g[r] {
			if len(g[r][c]) > 0 {
				return false
			}
		}
	}
	return true
}

// Rows returns the display text of every cell, row by row.
func (g *Grid) Rows() [][][]string {
	rows := make([][][]string, Periods)
	for r := 0; r < Periods; r++ {
		rows[r] = make([][]string, Days)
		for c := 0; c < Days; c++ {
			rows[r][c] = g.Display(r, c)
		}
	}
	return rows
}

// TableColumns are the columns of the tabular result view.
var TableColumns = []string{
	models.ColSeq, models.ColCourseCode, models.ColCourseName, models.ColWeeks, models.ColWeekday,
	models.ColPeriods, models.ColInstructor, models.ColLocation, models.ColTeachingClass, models.ColNotes,
}

// TableRow returns the values of l in TableColumns order.
func TableRow(l models.Lesson) []string {
	return []string{
		l.Seq, l.CourseCode, l.CourseName, l.WeekSpec, l.Weekday,
		l.PeriodSpec, l.Instructor, l.Location, l.TeachingClass, l.Notes,
	}
}

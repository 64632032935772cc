package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aluiziolira/go-scrape-timetable/models"
	"github.com/aluiziolira/go-scrape-timetable/parser"
)

// ExtractClassrooms collects the distinct room names of the location column
// and returns them as sorted "campus:building:room" lines. Locations listing
// several rooms are split on commas.
func ExtractClassrooms(header []string, rows [][]string, campus, building string) ([]string, error) {
	cols, missing := parser.NewColumnIndex(header, models.ColLocation)
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %v", ErrMissingColumns, missing)
	}
	col := cols[models.ColLocation]

	seen := make(map[string]struct{})
	var lines []string
	for _, row := range rows {
		if col >= len(row) || parser.IsMissing(row[col]) {
			continue
		}
		for _, part := range strings.Split(strings.TrimSpace(row[col]), ",") {
			room := strings.TrimSpace(strings.ReplaceAll(part, "*", ""))
			if room == "" {
				continue
			}
			if _, ok := seen[room]; ok {
				continue
			}
			seen[room] = struct{}{}
			lines = append(lines, campus+":"+building+":"+room)
		}
	}

	sort.Strings(lines)
	return lines, nil
}

// WriteClassroomList extracts the classrooms of the lesson file and writes the
// classroom list. It returns the number of rooms written.
func WriteClassroomList(lessonFile, classroomFile, campus, building string) (int, error) {
	header, rows, err := ReadCSV(lessonFile)
	if err != nil {
		return 0, err
	}
	lines, err := ExtractClassrooms(header, rows, campus, building)
	if err != nil {
		return 0, err
	}
	if err := WriteLines(classroomFile, lines); err != nil {
		return 0, err
	}
	return len(lines), nil
}

package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aluiziolira/go-scrape-timetable/models"
	"github.com/aluiziolira/go-scrape-timetable/parser"
)

// ErrTooFewColumns is returned when a lesson file lacks the location column.
var ErrTooFewColumns = errors.New("lesson file has too few columns")

// KeySeparator joins the identity fields of a lesson row.
const KeySeparator = "_|_"

// keyColumns are course code, teaching class, week spec, weekday, period spec
// and location.
var keyColumns = []int{
	models.IdxCourseCode,
	models.IdxTeachingClass,
	models.IdxWeeks,
	models.IdxWeekday,
	models.IdxPeriods,
	models.IdxLocation,
}

// DedupKey returns the identity of a lesson occurrence. Missing cells and
// placeholders count as empty strings.
func DedupKey(row []string) string {
	parts := make([]string, len(keyColumns))
	for i, col := range keyColumns {
		if col < len(row) && !parser.IsMissing(row[col]) {
			parts[i] = row[col]
		}
	}
	return strings.Join(parts, KeySeparator)
}

// Dedupe keeps the first row for every distinct DedupKey, preserving order.
func Dedupe(rows [][]string) [][]string {
	seen := make(map[string]struct{}, len(rows))
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		key := DedupKey(row)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, row)
	}
	return out
}

// StripLocationMarkers removes every "*" from the location cell of each row,
// in place.
func StripLocationMarkers(rows [][]string) {
	for _, row := range rows {
		if models.IdxLocation < len(row) {
			row[models.IdxLocation] = strings.ReplaceAll(row[models.IdxLocation], "*", "")
		}
	}
}

// DedupStats reports the row counts of a DedupeFile run.
type DedupStats struct {
	Before int
	After  int
}

// DedupeFile reads the raw lesson file, drops duplicate occurrences, strips
// location markers and writes the result with the same header.
func DedupeFile(rawFile, dedupFile string) (DedupStats, error) {
	header, rows, err := ReadCSV(rawFile)
	if err != nil {
		return DedupStats{}, err
	}
	if len(header) <= models.IdxLocation {
		return DedupStats{}, fmt.Errorf("%w: %q has %d, need at least %d", ErrTooFewColumns, rawFile, len(header), models.IdxLocation+1)
	}

	deduped := Dedupe(rows)
	StripLocationMarkers(deduped)

	if err := WriteCSV(dedupFile, header, deduped); err != nil {
		return DedupStats{}, fmt.Errorf("write deduplicated lessons: %w", err)
	}
	return DedupStats{Before: len(rows), After: len(deduped)}, nil
}

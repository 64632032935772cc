package parser

import (
	"regexp"

	"github.com/aluiziolira/go-scrape-timetable/models"
)

var periodRangePattern = regexp.MustCompile(`\[(\d+)-(\d+)\]`)

// ParsePeriods returns the periods named by the first "[a-b]" range in spec.
// Specs without such a range, or with a > b, yield an empty set.
func ParsePeriods(spec string) models.IntSet {
	periods := models.NewIntSet()
	if IsMissing(spec) {
		return periods
	}

	m := periodRangePattern.FindStringSubmatch(spec)
	if m == nil {
		return periods
	}
	a, b, ok := parseRange(m[1], m[2])
	if !ok {
		return periods
	}
	for p := a; p <= b; p++ {
		periods.Add(p)
	}
	return periods
}

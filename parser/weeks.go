package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-scrape-timetable/models"
)

var weekRangePattern = regexp.MustCompile(`^\[(\d+)-(\d+)\](.*)$`)

const (
	oddMarker  = "单"
	evenMarker = "双"
)

// ParseWeeks expands a week spec such as "[1-16]单" or "1,3,[5-7]" into the
// set of week numbers it names. Segments are separated by commas or
// semicolons (full or half width); unrecognised segments are ignored.
func ParseWeeks(spec string) models.IntSet {
	weeks := models.NewIntSet()
	if IsMissing(spec) {
		return weeks
	}

	normalized := strings.ReplaceAll(spec, "；", ";")
	normalized = strings.ReplaceAll(normalized, ";", ",")

	for _, part := range strings.Split(normalized, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if m := weekRangePattern.FindStringSubmatch(part); m != nil {
			start, end, ok := parseRange(m[1], m[2])
			if !ok {
				continue
			}
			suffix := strings.TrimSpace(m[3])
			for w := start; w <= end; w++ {
				switch {
				case strings.Contains(suffix, oddMarker):
					if w%2 == 1 {
						weeks.Add(w)
					}
				case strings.Contains(suffix, evenMarker):
					if w%2 == 0 {
						weeks.Add(w)
					}
				default:
					weeks.Add(w)
				}
			}
			continue
		}

		if isDigits(part) {
			if w, ok := atoiBounded(part); ok {
				weeks.Add(w)
			}
		}
	}
	return weeks
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseRange reads the endpoints of "[a-b]". The end is clamped to
// maxSpecValue; a start beyond it, or a > b, yields no range.
func parseRange(a, b string) (int, int, bool) {
	start, ok := atoiBounded(a)
	if !ok {
		return 0, 0, false
	}
	end, err := strconv.Atoi(b)
	if err != nil || end > maxSpecValue {
		// b is all ASCII digits, so Atoi only fails on overflow.
		end = maxSpecValue
	}
	return start, end, start <= end
}

func atoiBounded(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n > maxSpecValue {
		return 0, false
	}
	return n, true
}

// Package timetable filters lessons and projects them onto the weekly grid
// shown by the dashboard.
package timetable

import (
	"strconv"
	"strings"

	"github.com/aluiziolira/go-scrape-timetable/models"
)

// FilterSpec is the set of criteria a lesson must satisfy. Zero values impose
// no constraint.
type FilterSpec struct {
	// Name matches course names case-insensitively by substring.
	Name string `json:"name,omitempty"`
	// Week must be a member of the lesson's weeks when positive.
	Week int `json:"week,omitempty"`
	// Periods must intersect the lesson's periods when non-empty.
	Periods []int `json:"periods,omitempty"`
	// LocationText matches locations case-insensitively by substring and
	// takes precedence over Room.
	LocationText string `json:"location_text,omitempty"`
	// Room matches the location exactly.
	Room string `json:"room,omitempty"`
}

// Key returns a canonical string identifying the spec, insensitive to period
// order, duplicates and surrounding whitespace.
func (s FilterSpec) Key() string {
	periods := models.NewIntSet(s.Periods...).Sorted()
	parts := make([]string, len(periods))
	for i, p := range periods {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join([]string{
		strings.ToLower(strings.TrimSpace(s.Name)),
		strconv.Itoa(s.Week),
		strings.Join(parts, ","),
		strings.ToLower(strings.TrimSpace(s.LocationText)),
		strings.TrimSpace(s.Room),
	}, "\x1f")
}

// Filter returns the lessons matching every criterion of spec, in input order.
// The input slice is not modified.
func Filter(lessons []models.Lesson, spec FilterSpec) []models.Lesson {
	m := newMatcher(spec)
	out := make([]models.Lesson, 0, len(lessons))
	for _, l := range lessons {
		if m.match(l) {
			out = append(out, l)
		}
	}
	return out
}

type matcher struct {
	name     string
	week     int
	periods  models.IntSet
	location string
	room     string
}

func newMatcher(spec FilterSpec) matcher {
	return matcher{
		name:     strings.ToLower(strings.TrimSpace(spec.Name)),
		week:     spec.Week,
		periods:  models.NewIntSet(spec.Periods...),
		location: strings.ToLower(strings.TrimSpace(spec.LocationText)),
		room:     strings.TrimSpace(spec.Room),
	}
}

func (m matcher) match(l models.Lesson) bool {
	if m.name != "" && !strings.Contains(strings.ToLower(l.CourseName), m.name) {
		return false
	}
	if m.week > 0 && !l.Weeks.Has(m.week) {
		return false
	}
	if len(m.periods) > 0 && !l.Periods.Intersects(m.periods) {
		return false
	}
	switch {
	case m.location != "":
		return strings.Contains(strings.ToLower(l.Location), m.location)
	case m.room != "":
		return l.Location == m.room
	}
	return true
}

// ParsePeriodList converts period selections such as ["3", "4"] into sorted,
// distinct period numbers within 1..12. Invalid entries are dropped.
func ParsePeriodList(values []string) []int {
	set := models.NewIntSet()
	for _, v := range values {
		for _, field := range strings.Split(v, ",") {
			p, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil || p < 1 || p > Periods {
				continue
			}
			set.Add(p)
		}
	}
	return set.Sorted()
}

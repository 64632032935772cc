package timetable

import (
	"strings"

	"github.com/aluiziolira/go-scrape-timetable/catalog"
	"github.com/aluiziolira/go-scrape-timetable/models"
)

// DefaultMaxWeek is the last week reachable with the week buttons.
const DefaultMaxWeek = 20

// ViewState is the dashboard's widget state. It is owned by the caller and
// passed in on every request.
type ViewState struct {
	Week         int    `form:"week" json:"week"`
	CourseName   string `form:"name" json:"name"`
	Periods      []int  `form:"-" json:"periods"`
	Campus       string `form:"campus" json:"campus"`
	Building     string `form:"building" json:"building"`
	Room         string `form:"room" json:"room"`
	LocationText string `form:"location" json:"location"`
}

// NewViewState returns the initial state: week 1 and no other criteria.
func NewViewState() ViewState {
	return ViewState{Week: 1}
}

// Prev moves to the previous week, stopping at week 1.
func (v *ViewState) Prev() {
	if v.Week > 1 {
		v.Week--
	}
}

// Next moves to the following week, stopping at maxWeek.
func (v *ViewState) Next(maxWeek int) {
	if v.Week < maxWeek {
		v.Week++
	}
}

// Reset restores the initial state.
func (v *ViewState) Reset() {
	*v = NewViewState()
}

// Normalize clamps the week into 1..maxWeek, trims text inputs and clears
// location selections that the catalog does not list. A cleared campus also
// clears the building, and a cleared building clears the room.
func (v *ViewState) Normalize(cat catalog.Catalog, maxWeek int) {
	if maxWeek <= 0 {
		maxWeek = DefaultMaxWeek
	}
	switch {
	case v.Week < 1:
		v.Week = 1
	case v.Week > maxWeek:
		v.Week = maxWeek
	}

	v.CourseName = strings.TrimSpace(v.CourseName)
	v.LocationText = strings.TrimSpace(v.LocationText)
	v.Periods = normalizePeriods(v.Periods)

	if !cat.HasCampus(v.Campus) {
		v.Campus = ""
	}
	if v.Campus == "" || !cat.HasBuilding(v.Campus, v.Building) {
		v.Building = ""
	}
	if v.Building == "" || !cat.HasRoom(v.Campus, v.Building, v.Room) {
		v.Room = ""
	}
}

// Spec converts the state into the filter it selects.
func (v ViewState) Spec() FilterSpec {
	return FilterSpec{
		Name:         v.CourseName,
		Week:         v.Week,
		Periods:      v.Periods,
		LocationText: v.LocationText,
		Room:         v.Room,
	}
}

func normalizePeriods(periods []int) []int {
	set := models.NewIntSet()
	for _, p := range periods {
		if p >= 1 && p <= Periods {
			set.Add(p)
		}
	}
	return set.Sorted()
}

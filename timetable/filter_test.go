package timetable

import (
	"reflect"
	"testing"

	"github.com/aluiziolira/go-scrape-timetable/models"
	"github.com/aluiziolira/go-scrape-timetable/parser"
)

func lesson(seq, name, weeks, weekday, periods, location string) models.Lesson {
	return models.Lesson{
		Seq:        seq,
		CourseName: name,
		WeekSpec:   weeks,
		Weekday:    weekday,
		PeriodSpec: periods,
		Location:   location,
		Weeks:      parser.ParseWeeks(weeks),
		Periods:    parser.ParsePeriods(periods),
	}
}

func sampleLessons() []models.Lesson {
	return []models.Lesson{
		lesson("1", "数据结构", "[1-16]", "星期一", "[1-2]", "A101"),
		lesson("2", "Data Mining", "[1-8]单", "星期三", "[3-4]", "B202"),
		lesson("3", "数据库原理", "[9-16]", "星期五", "[5-6]", "A101,A102"),
		lesson("4", "体育", "", "星期二", "[7-8]", "操场"),
		lesson("5", "高等数学", "2,4,6", "星期四", "无", "A102"),
	}
}

func seqs(lessons []models.Lesson) []string {
	out := make([]string, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, l.Seq)
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		spec FilterSpec
		want []string
	}{
		{name: "empty spec returns everything", spec: FilterSpec{}, want: []string{"1", "2", "3", "4", "5"}},
		{name: "name substring", spec: FilterSpec{Name: "数据"}, want: []string{"1", "3"}},
		{name: "name case insensitive", spec: FilterSpec{Name: "data"}, want: []string{"2"}},
		{name: "week membership", spec: FilterSpec{Week: 3}, want: []string{"1", "2"}},
		{name: "odd week excludes even", spec: FilterSpec{Week: 4}, want: []string{"1", "5"}},
		{name: "empty weeks never match", spec: FilterSpec{Week: 1, Name: "体育"}, want: []string{}},
		{name: "name and week compose", spec: FilterSpec{Name: "数据", Week: 2}, want: []string{"1"}},
		{name: "period intersection", spec: FilterSpec{Periods: []int{2, 6}}, want: []string{"1", "3"}},
		{name: "period without range never matches", spec: FilterSpec{Periods: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}}, want: []string{"1", "2", "3", "4"}},
		{name: "room exact", spec: FilterSpec{Room: "A101"}, want: []string{"1"}},
		{name: "location text wins over room", spec: FilterSpec{LocationText: "a10", Room: "B202"}, want: []string{"1", "3", "5"}},
		{name: "no match", spec: FilterSpec{Name: "化学"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := seqs(Filter(sampleLessons(), tt.spec))
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Filter(%+v) = %v, want %v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestFilterLeavesInputUntouched(t *testing.T) {
	lessons := sampleLessons()
	before := seqs(lessons)
	Filter(lessons, FilterSpec{Name: "数据", Week: 1})
	if !reflect.DeepEqual(seqs(lessons), before) {
		t.Fatalf("input modified")
	}
}

func TestFilterSpecKey(t *testing.T) {
	a := FilterSpec{Name: " Data ", Week: 2, Periods: []int{4, 3, 3}}
	b := FilterSpec{Name: "data", Week: 2, Periods: []int{3, 4}}
	if a.Key() != b.Key() {
		t.Fatalf("equivalent specs have different keys: %q vs %q", a.Key(), b.Key())
	}
	c := FilterSpec{Name: "data", Week: 3, Periods: []int{3, 4}}
	if a.Key() == c.Key() {
		t.Fatalf("different weeks share key %q", a.Key())
	}
}

func TestParsePeriodList(t *testing.T) {
	got := ParsePeriodList([]string{"4", "3,12", "x", "0", "13", " 4 "})
	want := []int{3, 4, 12}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParsePeriodList = %v, want %v", got, want)
	}
}

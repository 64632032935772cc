package parser

import (
	"reflect"
	"testing"
)

func TestParsePeriods(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []int
	}{
		{name: "pair", input: "[3-4]", expected: []int{3, 4}},
		{name: "single period range", input: "[7-7]", expected: []int{7}},
		{name: "surrounding text", input: "第[1-2]节", expected: []int{1, 2}},
		{name: "first range wins", input: "[1-2],[5-6]", expected: []int{1, 2}},
		{name: "reversed", input: "[5-3]", expected: []int{}},
		{name: "end clamped", input: "[999-5000]", expected: []int{999, 1000}},
		{name: "none marker", input: "无", expected: []int{}},
		{name: "null", input: "Null", expected: []int{}},
		{name: "empty", input: "", expected: []int{}},
		{name: "no brackets", input: "3-4", expected: []int{}},
		{name: "bare number", input: "3", expected: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePeriods(tt.input).Sorted()
			if !reflect.DeepEqual(got, tt.expected) {
				t.Fatalf("ParsePeriods(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

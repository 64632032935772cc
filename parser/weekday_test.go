package parser

import "testing"

func TestNormalizeWeekday(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{input: "星期日", expected: "日", ok: true},
		{input: "星期一", expected: "一", ok: true},
		{input: "星期三", expected: "三", ok: true},
		{input: " 星期六 ", expected: "六", ok: true},
		{input: "周三", ok: false},
		{input: "三", ok: false},
		{input: "Wednesday", ok: false},
		{input: "null", ok: false},
		{input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := NormalizeWeekday(tt.input)
			if ok != tt.ok || got != tt.expected {
				t.Fatalf("NormalizeWeekday(%q) = %q/%v, want %q/%v", tt.input, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestWeekdayColumn(t *testing.T) {
	for i, label := range WeekdayLabels {
		code, ok := NormalizeWeekday(label)
		if !ok {
			t.Fatalf("label %q not recognised", label)
		}
		col, ok := WeekdayColumn(code)
		if !ok || col != i {
			t.Fatalf("WeekdayColumn(%q) = %d/%v, want %d", code, col, ok, i)
		}
	}
	if _, ok := WeekdayColumn("星期一"); ok {
		t.Fatalf("long-form label must not map to a column")
	}
}

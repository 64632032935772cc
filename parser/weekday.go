package parser

import "strings"

var weekdayCodes = map[string]string{
	"星期日": "日",
	"星期一": "一",
	"星期二": "二",
	"星期三": "三",
	"星期四": "四",
	"星期五": "五",
	"星期六": "六",
}

var weekdayColumns = map[string]int{
	"日": 0,
	"一": 1,
	"二": 2,
	"三": 3,
	"四": 4,
	"五": 5,
	"六": 6,
}

// WeekdayLabels are the long-form day names in grid column order.
var WeekdayLabels = []string{"星期日", "星期一", "星期二", "星期三", "星期四", "星期五", "星期六"}

// NormalizeWeekday maps a long-form label such as "星期三" to its single
// character code. Only exact labels are recognised.
func NormalizeWeekday(raw string) (string, bool) {
	if IsMissing(raw) {
		return "", false
	}
	code, ok := weekdayCodes[strings.TrimSpace(raw)]
	return code, ok
}

// WeekdayColumn returns the grid column of a weekday code, Sunday first.
func WeekdayColumn(code string) (int, bool) {
	col, ok := weekdayColumns[code]
	return col, ok
}

// Package models defines data structures shared by the crawler and the dashboard.
package models

import "time"

// Column names of the lesson CSV files, in file order.
const (
	ColSeq           = "序号"
	ColCourseSeq     = "课程序号"
	ColCourseCode    = "课程代码"
	ColCourseName    = "课程名称"
	ColCategory      = "课程类别"
	ColTeachingClass = "教学班"
	ColWeeklyHours   = "周课时"
	ColCredits       = "学分"
	ColLanguage      = "授课语言"
	ColEnrollment    = "上课人数"
	ColScheduled     = "是否排课"
	ColWeeks         = "周次"
	ColWeekday       = "星期"
	ColPeriods       = "节次"
	ColInstructor    = "授课教师"
	ColLocation      = "上课地点"
	ColNotes         = "备注"
)

// LessonHeader is the fixed 17 column header of the raw and deduplicated lesson files.
var LessonHeader = []string{
	ColSeq, ColCourseSeq, ColCourseCode, ColCourseName, ColCategory, ColTeachingClass,
	ColWeeklyHours, ColCredits, ColLanguage, ColEnrollment, ColScheduled, ColWeeks,
	ColWeekday, ColPeriods, ColInstructor, ColLocation, ColNotes,
}

// LessonColumns is the number of cells every lesson row carries.
const LessonColumns = 17

// Positional indexes into a raw lesson row.
const (
	IdxCourseCode    = 2
	IdxTeachingClass = 5
	IdxWeeks         = 11
	IdxWeekday       = 12
	IdxPeriods       = 13
	IdxInstructor    = 14
	IdxLocation      = 15
)

// Lesson is one scheduled lesson occurrence. Values are built once from a CSV
// row and never mutated afterwards; Weeks and Periods are derived from the raw
// WeekSpec and PeriodSpec strings.
type Lesson struct {
	Seq           string `json:"seq"`
	CourseSeq     string `json:"course_seq"`
	CourseCode    string `json:"course_code"`
	CourseName    string `json:"course_name"`
	Category      string `json:"category"`
	TeachingClass string `json:"teaching_class"`
	WeeklyHours   string `json:"weekly_hours"`
	Credits       string `json:"credits"`
	Language      string `json:"language"`
	Enrollment    string `json:"enrollment"`
	Scheduled     string `json:"scheduled"`
	WeekSpec      string `json:"week_spec"`
	Weekday       string `json:"weekday"`
	PeriodSpec    string `json:"period_spec"`
	Instructor    string `json:"instructor"`
	Location      string `json:"location"`
	Notes         string `json:"notes"`

	Weeks   IntSet `json:"-"`
	Periods IntSet `json:"-"`
}

// Teacher is one entry of the portal's teacher directory.
type Teacher struct {
	Seq        int
	Name       string
	Gender     string
	Department string
	URL        string
}

// TeacherHeader is the header row of the teacher directory CSV.
var TeacherHeader = []string{"序号", "姓名", "性别", "院系", "链接"}

// CrawlResult holds the overall result of a crawl run.
type CrawlResult struct {
	StartTime      time.Time
	EndTime        time.Time
	TeacherCount   int
	ProcessedCount int
	SkippedCount   int
	LessonCount    int
	ErrorCount     int
	RetryCount     int
	RequestCount   int
	FailedTeachers []string
	ErrorsByType   map[string]int
}

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/aluiziolira/go-scrape-timetable/catalog"
	"github.com/aluiziolira/go-scrape-timetable/config"
	"github.com/aluiziolira/go-scrape-timetable/models"
	"github.com/aluiziolira/go-scrape-timetable/pipeline"
	"github.com/aluiziolira/go-scrape-timetable/timetable"
)

func lessonRow(seq, code, name, weeks, weekday, periods, location string) []string {
	row := make([]string, models.LessonColumns)
	for i := range row {
		row[i] = "null"
	}
	row[0] = seq
	row[models.IdxCourseCode] = code
	row[3] = name
	row[models.IdxTeachingClass] = code + ".01"
	row[models.IdxWeeks] = weeks
	row[models.IdxWeekday] = weekday
	row[models.IdxPeriods] = periods
	row[models.IdxInstructor] = "张三"
	row[models.IdxLocation] = location
	return row
}

func newTestServer(t *testing.T) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "lessons_list_dedup.csv")
	err := pipeline.WriteCSV(path, models.LessonHeader, [][]string{
		lessonRow("1", "CS101", "数据结构", "[1-16]", "星期一", "[1-2]", "A101"),
		lessonRow("2", "CS102", "数据库原理", "[2-16]双", "星期三", "[3-4]", "A102"),
		lessonRow("3", "MA201", "线性代数", "[1-8]", "星期五", "[5-6]", "B201"),
	})
	require.NoError(t, err)

	store, err := timetable.NewStore(path, 16, 0)
	require.NoError(t, err)

	cat := catalog.Build([]string{"默认校区:默认楼宇:A101", "默认校区:默认楼宇:A102", "默认校区:二号楼:B201"})
	cfg := config.DefaultConfig().Dashboard

	s := New(cfg, store, cat, NewMetrics())
	return s, s.Router()
}

func get(t *testing.T, router *gin.Engine, target string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLessonsEndpointFiltersByView(t *testing.T) {
	_, router := newTestServer(t)

	w := get(t, router, "/api/lessons?week=1&name=数据")
	require.Equal(t, http.StatusOK, w.Code)

	var body lessonsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	require.Equal(t, "CS101", body.Lessons[0].CourseCode)
	require.Equal(t, 1, body.View.Week)
}

func TestLessonsEndpointWeekNavigation(t *testing.T) {
	_, router := newTestServer(t)

	w := get(t, router, "/api/lessons?week=1&name=数据&action=next")
	require.Equal(t, http.StatusOK, w.Code)

	var body lessonsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 2, body.View.Week)
	require.Equal(t, 2, body.Count)

	w = get(t, router, "/api/lessons?week=20&action=next")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 20, body.View.Week)

	w = get(t, router, "/api/lessons?week=7&name=x&action=reset")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.View.Week)
	require.Empty(t, body.View.CourseName)
}

func TestLessonsEndpointLocationAndPeriods(t *testing.T) {
	_, router := newTestServer(t)

	w := get(t, router, "/api/lessons?week=2&campus=默认校区&building=默认楼宇&room=A102")
	var body lessonsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	require.Equal(t, "CS102", body.Lessons[0].CourseCode)

	w = get(t, router, "/api/lessons?week=2&room=A102")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 3, body.Count, "room without building is ignored")

	w = get(t, router, "/api/lessons?week=2&periods=5&periods=6")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	require.Equal(t, "MA201", body.Lessons[0].CourseCode)
}

func TestLessonsEndpointRejectsBadWeek(t *testing.T) {
	_, router := newTestServer(t)
	w := get(t, router, "/api/lessons?week=abc")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableEndpoint(t *testing.T) {
	_, router := newTestServer(t)

	w := get(t, router, "/api/timetable?week=1")
	require.Equal(t, http.StatusOK, w.Code)

	var body timetableResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.False(t, body.Empty)
	require.Len(t, body.Grid, timetable.Periods)
	require.Equal(t, []string{"数据结构"}, body.Grid[0][1])
	require.Equal(t, []string{"数据结构"}, body.Grid[1][1])
	require.Equal(t, []string{"线性代数"}, body.Grid[4][5])
	require.Empty(t, body.Grid[2][3], "even-week lesson must not appear in week 1")
}

func TestClassroomsEndpoint(t *testing.T) {
	_, router := newTestServer(t)

	w := get(t, router, "/api/classrooms?campus=默认校区&building=默认楼宇")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, []string{"默认校区"}, body["campuses"])
	require.Equal(t, []string{"二号楼", "默认楼宇"}, body["buildings"])
	require.Equal(t, []string{"A101", "A102"}, body["rooms"])
}

func TestIndexPage(t *testing.T) {
	_, router := newTestServer(t)

	w := get(t, router, "/?week=1")
	require.Equal(t, http.StatusOK, w.Code)
	page := w.Body.String()
	require.Contains(t, page, "第 1 周课程日历视图")
	require.Contains(t, page, `<td class="has-course">数据结构</td>`)
	require.Contains(t, page, "共找到 2 条课程记录")

	w = get(t, router, "/?week=5&name=不存在")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "该周暂无课程安排")
}

func TestIndexPageListsLessonsWithoutGridCell(t *testing.T) {
	gin.SetMode(gin.TestMode)
	path := filepath.Join(t.TempDir(), "lessons_list_dedup.csv")
	require.NoError(t, pipeline.WriteCSV(path, models.LessonHeader, [][]string{
		lessonRow("1", "PE101", "体育实践", "[1-16]", "待定", "[1-2]", "操场"),
	}))
	store, err := timetable.NewStore(path, 16, 0)
	require.NoError(t, err)
	cat := catalog.Build([]string{"默认校区:默认楼宇:A101"})
	router := New(config.DefaultConfig().Dashboard, store, cat, NewMetrics()).Router()

	w := get(t, router, "/?week=1")
	require.Equal(t, http.StatusOK, w.Code)
	page := w.Body.String()
	require.Contains(t, page, "共找到 1 条课程记录")
	require.Contains(t, page, "体育实践")
	require.NotContains(t, page, "该周暂无课程安排")
	require.NotContains(t, page, `class="has-course"`)
}

func TestExportWorkbook(t *testing.T) {
	_, router := newTestServer(t)

	w := get(t, router, "/api/lessons/export.xlsx?week=1")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), "lessons_week1.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, timetable.TableColumns, rows[0])
	require.Equal(t, "CS101", rows[1][1])
}

func TestHealthAndMetrics(t *testing.T) {
	_, router := newTestServer(t)

	w := get(t, router, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"ok"`)

	get(t, router, "/api/lessons?week=1")
	get(t, router, "/api/lessons?week=1")

	w = get(t, router, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	metrics := w.Body.String()
	require.Contains(t, metrics, "timetable_dashboard_http_requests_total")
	require.True(t, strings.Contains(metrics, "timetable_dashboard_cache_hits_total 1"), metrics)
}

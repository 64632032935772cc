package timetable

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-timetable/models"
	"github.com/aluiziolira/go-scrape-timetable/pipeline"
)

func writeLessonFile(t *testing.T, path string, rows [][]string) {
	t.Helper()
	if err := pipeline.WriteCSV(path, models.LessonHeader, rows); err != nil {
		t.Fatalf("write lesson file: %v", err)
	}
}

func lessonCSVRow(seq, name, weeks, weekday, periods, location string) []string {
	row := make([]string, models.LessonColumns)
	for i := range row {
		row[i] = "null"
	}
	row[0] = seq
	row[models.IdxCourseCode] = "C" + seq
	row[3] = name
	row[models.IdxWeeks] = weeks
	row[models.IdxWeekday] = weekday
	row[models.IdxPeriods] = periods
	row[models.IdxLocation] = location
	return row
}

func TestLoadLessonsNormalizesPlaceholders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lessons.csv")
	writeLessonFile(t, path, [][]string{
		lessonCSVRow("1", "数据结构", "[1-16]", "星期一", "[1-2]", "A101"),
		lessonCSVRow("2", "体育", "null", "null", "无", "null"),
	})

	lessons, err := LoadLessons(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(lessons) != 2 {
		t.Fatalf("lessons = %d, want 2", len(lessons))
	}
	if !lessons[0].Weeks.Has(16) || !lessons[0].Periods.Has(2) {
		t.Fatalf("derived sets missing: %+v", lessons[0])
	}
	if lessons[1].Location != "" || lessons[1].Notes != "" || len(lessons[1].Weeks) != 0 {
		t.Fatalf("placeholders not cleared: %+v", lessons[1])
	}
}

func TestLoadLessonsMissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lessons.csv")
	if err := pipeline.WriteCSV(path, []string{"序号", "课程名称"}, [][]string{{"1", "x"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadLessons(path)
	if !errors.Is(err, pipeline.ErrMissingColumns) {
		t.Fatalf("err = %v, want ErrMissingColumns", err)
	}
}

func TestStoreQueryCachesPerGeneration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lessons.csv")
	writeLessonFile(t, path, [][]string{
		lessonCSVRow("1", "数据结构", "[1-16]", "星期一", "[1-2]", "A101"),
		lessonCSVRow("2", "线性代数", "[1-8]", "星期二", "[3-4]", "B202"),
	})

	store, err := NewStore(path, 8, 0)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	spec := FilterSpec{Week: 1}
	first, err := store.Query(spec)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if first.Cached || len(first.Lessons) != 2 {
		t.Fatalf("first query = cached %v, %d lessons", first.Cached, len(first.Lessons))
	}
	second, err := store.Query(FilterSpec{Week: 1, Periods: []int{}})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !second.Cached {
		t.Fatalf("equivalent spec should hit the cache")
	}

	writeLessonFile(t, path, [][]string{
		lessonCSVRow("1", "数据结构", "[1-16]", "星期一", "[1-2]", "A101"),
	})
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	third, err := store.Query(spec)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if third.Cached || third.Generation != first.Generation+1 {
		t.Fatalf("reload not observed: cached=%v gen=%d", third.Cached, third.Generation)
	}
	if len(third.Lessons) != 1 {
		t.Fatalf("lessons after reload = %d, want 1", len(third.Lessons))
	}
}

func TestStoreKeepsServingAfterBadReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lessons.csv")
	writeLessonFile(t, path, [][]string{lessonCSVRow("1", "数据结构", "[1-16]", "星期一", "[1-2]", "A101")})

	store, err := NewStore(path, 8, 0)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := pipeline.WriteCSV(path, []string{"x"}, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	lessons, gen, err := store.Lessons()
	if err != nil {
		t.Fatalf("lessons: %v", err)
	}
	if len(lessons) != 1 || gen != 1 {
		t.Fatalf("lessons=%d gen=%d, want previous set", len(lessons), gen)
	}
}

func TestStoreRespectsCheckInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lessons.csv")
	writeLessonFile(t, path, [][]string{lessonCSVRow("1", "数据结构", "[1-16]", "星期一", "[1-2]", "A101")})

	store, err := NewStore(path, 8, time.Hour)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, _, err := store.Lessons(); err != nil {
		t.Fatalf("lessons within interval should not stat: %v", err)
	}

	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, _, err := store.Lessons(); err == nil {
		t.Fatalf("expected error once the file is gone")
	}
}

func TestNewStoreMissingFile(t *testing.T) {
	if _, err := NewStore(filepath.Join(t.TempDir(), "missing.csv"), 8, 0); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

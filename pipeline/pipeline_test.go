package pipeline

import (
	"errors"
	"sync"
	"testing"

	"github.com/aluiziolira/go-scrape-timetable/models"
	"github.com/aluiziolira/go-scrape-timetable/parser"
)

type mockWriter struct {
	mu          sync.Mutex
	batches     [][][]string
	closed      bool
	writeErr    error
	validateErr error
}

func (mw *mockWriter) Write(rows [][]string) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	if mw.writeErr != nil {
		return mw.writeErr
	}
	copyBatch := make([][]string, len(rows))
	copy(copyBatch, rows)
	mw.batches = append(mw.batches, copyBatch)
	return nil
}

func (mw *mockWriter) Close() error {
	mw.mu.Lock()
	mw.closed = true
	mw.mu.Unlock()
	return nil
}

func (mw *mockWriter) Validate() error {
	return mw.validateErr
}

func (mw *mockWriter) totalWritten() int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	total := 0
	for _, batch := range mw.batches {
		total += len(batch)
	}
	return total
}

func TestPipelineProcessPadsAndWritesImmediately(t *testing.T) {
	writer := &mockWriter{}
	p := NewPipeline(writer)
	teacher := models.Teacher{Seq: 1, Name: "张三"}

	rows := [][]string{
		{"1", "A0001", "CS101", "数据结构"},
		{"2", "A0002", "", "离散数学"},
	}
	if err := p.Process(teacher, rows); err != nil {
		t.Fatalf("process: %v", err)
	}

	if got := writer.totalWritten(); got != 2 {
		t.Fatalf("written rows = %d, want 2 before close", got)
	}
	for _, row := range writer.batches[0] {
		if len(row) != models.LessonColumns {
			t.Fatalf("row width = %d, want %d", len(row), models.LessonColumns)
		}
	}
	if writer.batches[0][1][models.IdxCourseCode] != parser.Missing {
		t.Fatalf("empty cell should hold placeholder")
	}

	metrics := p.GetMetrics()
	if metrics["processed_lessons"].(int64) != 2 || metrics["processed_teachers"].(int64) != 1 {
		t.Fatalf("unexpected metrics: %v", metrics)
	}
	validation := metrics["validation_errors"].(map[string]int)
	if validation["missing_course_code"] != 1 {
		t.Fatalf("expected missing_course_code validation, got %v", validation)
	}
}

func TestPipelineTeacherWithoutLessons(t *testing.T) {
	writer := &mockWriter{}
	p := NewPipeline(writer)

	if err := p.Process(models.Teacher{Name: "李四"}, nil); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(writer.batches) != 0 {
		t.Fatalf("no write expected for an empty batch")
	}
	if p.GetMetrics()["processed_teachers"].(int64) != 1 {
		t.Fatalf("teacher should still be counted")
	}
}

func TestPipelineWriteErrorIsSticky(t *testing.T) {
	writeErr := errors.New("disk full")
	writer := &mockWriter{writeErr: writeErr}
	p := NewPipeline(writer)

	err := p.Process(models.Teacher{Name: "王五"}, [][]string{{"1"}})
	if !errors.Is(err, writeErr) {
		t.Fatalf("expected write error, got %v", err)
	}
	if err := p.Process(models.Teacher{Name: "赵六"}, [][]string{{"2"}}); !errors.Is(err, writeErr) {
		t.Fatalf("expected sticky error, got %v", err)
	}
	if err := p.Close(); !errors.Is(err, writeErr) {
		t.Fatalf("close should report write error, got %v", err)
	}
}

func TestPipelineClosed(t *testing.T) {
	p := NewPipeline(&mockWriter{})
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := p.Process(models.Teacher{}, [][]string{{"1"}}); !errors.Is(err, ErrPipelineClosed) {
		t.Fatalf("expected ErrPipelineClosed, got %v", err)
	}
}

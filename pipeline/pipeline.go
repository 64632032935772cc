// Package pipeline persists crawled lessons and post-processes the lesson files.
package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aluiziolira/go-scrape-timetable/models"
	"github.com/aluiziolira/go-scrape-timetable/parser"
)

var (
	// ErrPipelineClosed is returned when Process is called after shutdown.
	ErrPipelineClosed = errors.New("pipeline: closed")
)

// OutputWriter defines the interface for lesson output.
type OutputWriter interface {
	Write(rows [][]string) error
	Close() error
	Validate() error
}

// Pipeline normalizes each teacher's lesson rows and hands them to the writer
// before returning, so a crash loses at most the teacher being fetched.
type Pipeline struct {
	writer  OutputWriter
	metrics metrics

	mu     sync.Mutex // guards closed/err
	closed bool
	err    error
}

// NewPipeline builds a pipeline writing to writer.
func NewPipeline(writer OutputWriter) *Pipeline {
	return &Pipeline{
		writer:  writer,
		metrics: newMetrics(),
	}
}

// Process pads every row to the fixed column count and writes the batch.
// A write failure closes the pipeline; later calls return the same error.
func (p *Pipeline) Process(teacher models.Teacher, rows [][]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	if p.closed {
		return ErrPipelineClosed
	}

	batch := make([][]string, 0, len(rows))
	for _, row := range rows {
		normalized := parser.NormalizeRow(row)
		if parser.IsMissing(normalized[models.IdxCourseCode]) {
			p.metrics.addValidation("missing_course_code")
		}
		batch = append(batch, normalized)
	}

	if len(batch) > 0 {
		if err := p.writer.Write(batch); err != nil {
			p.err = fmt.Errorf("write lessons for %s: %w", teacher.Name, err)
			p.closed = true
			return p.err
		}
	}

	p.metrics.addTeacher(len(batch))
	return nil
}

// Close prevents more submissions and returns the first write error, if any.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return p.err
}

// Err returns the first error encountered during processing.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.metrics.snapshot()
}

type metrics struct {
	mu         sync.Mutex
	teachers   int64
	lessons    int64
	validation map[string]int
}

func newMetrics() metrics {
	return metrics{
		validation: make(map[string]int),
	}
}

func (m *metrics) addTeacher(lessons int) {
	m.mu.Lock()
	m.teachers++
	m.lessons += int64(lessons)
	m.mu.Unlock()
}

func (m *metrics) addValidation(kind string) {
	m.mu.Lock()
	m.validation[kind]++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	copyValidation := make(map[string]int, len(m.validation))
	for k, v := range m.validation {
		copyValidation[k] = v
	}

	return map[string]interface{}{
		"processed_teachers": m.teachers,
		"processed_lessons":  m.lessons,
		"validation_errors":  copyValidation,
	}
}

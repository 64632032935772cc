package timetable

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-scrape-timetable/models"
	"github.com/aluiziolira/go-scrape-timetable/parser"
	"github.com/aluiziolira/go-scrape-timetable/pipeline"
)

// RequiredColumns must be present in a lesson file served by the dashboard.
var RequiredColumns = []string{
	models.ColSeq, models.ColCourseCode, models.ColCourseName, models.ColWeeks,
	models.ColWeekday, models.ColPeriods, models.ColInstructor, models.ColLocation,
}

// Result is the outcome of a query against the store.
type Result struct {
	Lessons    []models.Lesson
	Generation uint64
	Cached     bool
}

// Store keeps the lessons of a deduplicated lesson file in memory. The set is
// rebuilt when the file's modification time changes; queries are cached per
// generation of the set.
type Store struct {
	path          string
	checkInterval time.Duration
	now           func() time.Time

	mu         sync.RWMutex
	lessons    []models.Lesson
	modTime    time.Time
	generation uint64
	lastCheck  time.Time

	cache *lru.Cache[string, []models.Lesson]
}

// NewStore loads path and returns a store caching up to cacheSize query
// results. The file is checked for changes at most once per checkInterval.
func NewStore(path string, cacheSize int, checkInterval time.Duration) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = 1
	}
	cache, err := lru.New[string, []models.Lesson](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create query cache: %w", err)
	}

	s := &Store{
		path:          path,
		checkInterval: checkInterval,
		now:           time.Now,
		cache:         cache,
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadLessons reads a lesson CSV and builds its lessons. Missing required
// columns are reported with pipeline.ErrMissingColumns.
func LoadLessons(path string) ([]models.Lesson, error) {
	header, rows, err := pipeline.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	cols, missing := parser.NewColumnIndex(header, RequiredColumns...)
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v in %q", pipeline.ErrMissingColumns, missing, path)
	}

	lessons := make([]models.Lesson, 0, len(rows))
	for _, row := range rows {
		lessons = append(lessons, parser.LessonFromRow(cols, row))
	}
	return lessons, nil
}

// Lessons returns the current lesson set and its generation.
func (s *Store) Lessons() ([]models.Lesson, uint64, error) {
	if err := s.refresh(); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lessons, s.generation, nil
}

// Query filters the current lesson set, serving repeated specs from the cache.
func (s *Store) Query(spec FilterSpec) (Result, error) {
	lessons, gen, err := s.Lessons()
	if err != nil {
		return Result{}, err
	}

	key := strconv.FormatUint(gen, 10) + "|" + spec.Key()
	if cached, ok := s.cache.Get(key); ok {
		return Result{Lessons: cached, Generation: gen, Cached: true}, nil
	}

	filtered := Filter(lessons, spec)
	s.cache.Add(key, filtered)
	return Result{Lessons: filtered, Generation: gen}, nil
}

// Path returns the lesson file backing the store.
func (s *Store) Path() string {
	return s.path
}

// refresh reloads the file when its modification time differs from the one
// last loaded. A failed reload keeps serving the previous set.
func (s *Store) refresh() error {
	now := s.now()

	s.mu.RLock()
	due := s.checkInterval <= 0 || now.Sub(s.lastCheck) >= s.checkInterval
	s.mu.RUnlock()
	if !due {
		return nil
	}

	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("stat lesson file: %w", err)
	}

	s.mu.Lock()
	s.lastCheck = now
	changed := !info.ModTime().Equal(s.modTime)
	s.mu.Unlock()
	if !changed {
		return nil
	}

	if err := s.reload(); err != nil {
		slog.Error("reload lesson file", slog.String("file", s.path), slog.Any("error", err))
	}
	return nil
}

func (s *Store) reload() error {
	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("stat lesson file: %w", err)
	}
	lessons, err := LoadLessons(s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.lessons = lessons
	s.modTime = info.ModTime()
	s.lastCheck = s.now()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	s.cache.Purge()
	slog.Info("lesson file loaded",
		slog.String("file", s.path),
		slog.Int("lessons", len(lessons)),
		slog.Uint64("generation", gen),
	)
	return nil
}

// Package server exposes the lesson search dashboard over HTTP.
package server

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aluiziolira/go-scrape-timetable/catalog"
	"github.com/aluiziolira/go-scrape-timetable/config"
	"github.com/aluiziolira/go-scrape-timetable/models"
	"github.com/aluiziolira/go-scrape-timetable/parser"
	"github.com/aluiziolira/go-scrape-timetable/timetable"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server serves the dashboard page and its JSON API.
type Server struct {
	cfg     config.DashboardConfig
	store   *timetable.Store
	catalog catalog.Catalog
	metrics *Metrics
}

// New builds a server over a loaded lesson store and classroom catalog.
func New(cfg config.DashboardConfig, store *timetable.Store, cat catalog.Catalog, metrics *Metrics) *Server {
	if cfg.MaxWeek <= 0 {
		cfg.MaxWeek = timetable.DefaultMaxWeek
	}
	return &Server{
		cfg:     cfg,
		store:   store,
		catalog: cat,
		metrics: metrics,
	}
}

// Router wires middleware and routes into a gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(), RequestMetrics(s.metrics))
	r.SetHTMLTemplate(template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")))

	r.GET("/", s.index)
	r.GET("/healthz", s.health)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := r.Group("/api")
	api.GET("/lessons", s.lessons)
	api.GET("/lessons/export.xlsx", s.export)
	api.GET("/timetable", s.timetableGrid)
	api.GET("/classrooms", s.classrooms)
	return r
}

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"hasPeriod": func(periods []int, p int) bool {
		for _, v := range periods {
			if v == p {
				return true
			}
		}
		return false
	},
}

type pageData struct {
	View         timetable.ViewState
	MaxWeek      int
	Campuses     []string
	Buildings    []string
	Rooms        []string
	PeriodLabels []int
	Weekdays     []string
	Grid         [][][]string
	Columns      []string
	Rows         [][]string
	Count        int
}

func (s *Server) index(c *gin.Context) {
	view, err := s.bindView(c)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid query: %v", err)
		return
	}
	res, err := s.query(view.Spec())
	if err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "lesson data unavailable: %v", err)
		return
	}

	grid := timetable.Render(res.Lessons)
	rows := make([][]string, 0, len(res.Lessons))
	for _, l := range res.Lessons {
		rows = append(rows, timetable.TableRow(l))
	}
	periods := make([]int, timetable.Periods)
	for i := range periods {
		periods[i] = i + 1
	}

	c.HTML(http.StatusOK, "index.html", pageData{
		View:         view,
		MaxWeek:      s.cfg.MaxWeek,
		Campuses:     s.catalog.Campuses(),
		Buildings:    s.catalog.Buildings(view.Campus),
		Rooms:        s.catalog.Rooms(view.Campus, view.Building),
		PeriodLabels: periods,
		Weekdays:     parser.WeekdayLabels,
		Grid:         grid.Rows(),
		Columns:      timetable.TableColumns,
		Rows:         rows,
		Count:        len(rows),
	})
}

type lessonsResponse struct {
	View       timetable.ViewState `json:"view"`
	Count      int                 `json:"count"`
	Generation uint64              `json:"generation"`
	Lessons    []models.Lesson     `json:"lessons"`
}

func (s *Server) lessons(c *gin.Context) {
	view, res, ok := s.viewQuery(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, lessonsResponse{
		View:       view,
		Count:      len(res.Lessons),
		Generation: res.Generation,
		Lessons:    res.Lessons,
	})
}

type timetableResponse struct {
	View     timetable.ViewState `json:"view"`
	Weekdays []string            `json:"weekdays"`
	Grid     [][][]string        `json:"grid"`
	Empty    bool                `json:"empty"`
}

func (s *Server) timetableGrid(c *gin.Context) {
	view, res, ok := s.viewQuery(c)
	if !ok {
		return
	}
	grid := timetable.Render(res.Lessons)
	c.JSON(http.StatusOK, timetableResponse{
		View:     view,
		Weekdays: parser.WeekdayLabels,
		Grid:     grid.Rows(),
		Empty:    grid.Empty(),
	})
}

func (s *Server) classrooms(c *gin.Context) {
	campus := c.Query("campus")
	building := c.Query("building")
	c.JSON(http.StatusOK, gin.H{
		"campuses":  s.catalog.Campuses(),
		"buildings": emptyIfNil(s.catalog.Buildings(campus)),
		"rooms":     emptyIfNil(s.catalog.Rooms(campus, building)),
	})
}

func (s *Server) health(c *gin.Context) {
	_, gen, err := s.store.Lessons()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "generation": gen})
}

// viewQuery binds the view state and runs its query, writing an error
// response when either fails.
func (s *Server) viewQuery(c *gin.Context) (timetable.ViewState, timetable.Result, bool) {
	view, err := s.bindView(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return view, timetable.Result{}, false
	}
	res, err := s.query(view.Spec())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return view, timetable.Result{}, false
	}
	return view, res, true
}

// bindView reads the view state from the query string and applies the
// optional week navigation action (prev, next or reset).
func (s *Server) bindView(c *gin.Context) (timetable.ViewState, error) {
	view := timetable.NewViewState()
	if err := c.ShouldBindQuery(&view); err != nil {
		return view, err
	}
	view.Periods = timetable.ParsePeriodList(c.QueryArray("periods"))

	switch c.Query("action") {
	case "prev":
		view.Prev()
	case "next":
		view.Next(s.cfg.MaxWeek)
	case "reset":
		view.Reset()
	}
	view.Normalize(s.catalog, s.cfg.MaxWeek)
	return view, nil
}

func (s *Server) query(spec timetable.FilterSpec) (timetable.Result, error) {
	start := time.Now()
	res, err := s.store.Query(spec)
	if err != nil {
		return res, err
	}
	s.metrics.ObserveQuery(time.Since(start), len(res.Lessons), res.Cached)
	return res, nil
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

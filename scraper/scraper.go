// Package scraper crawls the portal's public teacher schedules.
package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-scrape-timetable/config"
	"github.com/aluiziolira/go-scrape-timetable/models"
	"github.com/aluiziolira/go-scrape-timetable/pipeline"
	"github.com/gocolly/colly/v2"
)

// QueryPath is the public schedule query endpoint, relative to the base URL.
const QueryPath = "/eams/studentPublicScheduleQuery!search.action"

// Scraper fetches the teacher directory and every teacher's schedule, one
// request at a time.
type Scraper struct {
	cfg       *config.Config
	base      *url.URL
	queryURL  string
	collector *colly.Collector
	retry     *retryPolicy
	Metrics   *Metrics

	requestCount int64
	errorCount   int64

	mu             sync.Mutex
	failedTeachers []string
	errorsByType   map[string]int

	handlersOnce sync.Once
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.UserAgent(cfg.UserAgent),
		colly.MaxBodySize(0),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = true
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	s := &Scraper{
		cfg:          cfg,
		base:         parsed,
		queryURL:     strings.TrimSuffix(cfg.BaseURL, "/") + QueryPath,
		collector:    collector,
		errorsByType: make(map[string]int),
		Metrics:      NewMetrics(),
	}
	s.retry = newRetryPolicy(cfg, s.Metrics)
	return s, nil
}

// Run fetches the teacher directory, persists it, then streams every
// teacher's scheduled lessons through p. Directory and write failures abort
// the run; a failing teacher is retried according to the retry policy.
func (s *Scraper) Run(ctx context.Context, p *pipeline.Pipeline) (*models.CrawlResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.configureHandlers()

	result := &models.CrawlResult{StartTime: time.Now()}

	teachers, err := s.FetchDirectory(ctx)
	if err != nil {
		return nil, err
	}
	result.TeacherCount = len(teachers)

	if err := pipeline.WriteTeachers(s.cfg.TeacherFile, teachers); err != nil {
		return nil, err
	}
	slog.Info("teacher directory saved",
		slog.Int("teachers", len(teachers)),
		slog.String("file", s.cfg.TeacherFile),
	)

	if err := sleepContext(ctx, s.cfg.TeacherDelay); err != nil {
		return nil, err
	}

	for _, teacher := range teachers {
		if !strings.HasPrefix(teacher.URL, "http") {
			slog.Warn("invalid teacher url, skipping",
				slog.Int("seq", teacher.Seq),
				slog.String("teacher", teacher.Name),
				slog.String("url", teacher.URL),
			)
			result.SkippedCount++
			s.Metrics.IncTeacher("skipped")
			continue
		}

		lessons, ok, err := s.crawlTeacher(ctx, teacher, p)
		if err != nil {
			return nil, err
		}
		if ok {
			result.ProcessedCount++
			result.LessonCount += lessons
		}

		if err := sleepContext(ctx, s.cfg.TeacherDelay); err != nil {
			return nil, err
		}
	}

	result.EndTime = time.Now()
	result.ErrorCount = int(atomic.LoadInt64(&s.errorCount))
	result.RequestCount = int(atomic.LoadInt64(&s.requestCount))
	result.RetryCount = s.retry.TotalRetries()
	result.FailedTeachers = s.snapshotFailedTeachers()
	result.ErrorsByType = s.snapshotErrors()
	return result, nil
}

// FetchDirectory primes the session and requests the full teacher listing in
// a single page.
func (s *Scraper) FetchDirectory(ctx context.Context) ([]models.Teacher, error) {
	s.configureHandlers()

	if _, err := s.fetch(http.MethodGet, s.queryURL, nil, nil); err != nil {
		return nil, fmt.Errorf("prime session: %w", err)
	}
	if err := sleepContext(ctx, s.cfg.TeacherDelay); err != nil {
		return nil, err
	}

	form := url.Values{
		"semester.id":     {s.cfg.SemesterID},
		"courseTableType": {"teacher"},
		"_":               {s.cfg.QueryToken},
		"pageNo":          {"1"},
		"pageSize":        {strconv.Itoa(s.cfg.PageSize)},
	}
	hdr := http.Header{}
	hdr.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Pragma", "no-cache")

	body, err := s.fetch(http.MethodPost, s.queryURL, []byte(form.Encode()), hdr)
	if err != nil {
		return nil, fmt.Errorf("fetch teacher directory: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse teacher directory: %w", err)
	}
	teachers := ParseTeacherDirectory(doc, s.base)
	if len(teachers) == 0 {
		if hasLoginForm(doc) {
			return nil, s.recordError(&PortalError{
				Kind: KindExpiredSession,
				URL:  s.queryURL,
				Err:  errors.New("directory request answered with a sign-in form"),
			})
		}
		return nil, ErrNoTeachers
	}
	return teachers, nil
}

// crawlTeacher fetches one teacher until it succeeds or the retry policy gives
// up. It reports the number of lessons written and whether the teacher
// succeeded; the error is non-nil only for cancellation, write failures and
// an expired session, which no retry can recover from.
func (s *Scraper) crawlTeacher(ctx context.Context, teacher models.Teacher, p *pipeline.Pipeline) (int, bool, error) {
	for attempt := 1; ; attempt++ {
		if attempt > 1 {
			slog.Info("retrying teacher",
				slog.Int("seq", teacher.Seq),
				slog.String("teacher", teacher.Name),
				slog.Int("attempt", attempt),
			)
		}
		slog.Debug("requesting teacher",
			slog.Int("seq", teacher.Seq),
			slog.String("teacher", teacher.Name),
			slog.String("url", teacher.URL),
		)

		rows, err := s.scrapeTeacher(teacher)
		if err == nil {
			if err := p.Process(teacher, rows); err != nil {
				return 0, false, err
			}
			s.Metrics.AddLessons(len(rows))
			s.Metrics.IncTeacher("processed")
			slog.Info("teacher processed",
				slog.Int("seq", teacher.Seq),
				slog.String("teacher", teacher.Name),
				slog.Int("lessons", len(rows)),
				slog.Int("attempt", attempt),
			)
			return len(rows), true, nil
		}

		slog.Error("teacher failed",
			slog.Int("seq", teacher.Seq),
			slog.String("teacher", teacher.Name),
			slog.Int("attempt", attempt),
			slog.String("error_type", errorTypeLabel(err)),
			slog.Any("error", err),
		)

		var pe *PortalError
		if errors.As(err, &pe) && !pe.Retryable() {
			s.markFailed(teacher.Name)
			slog.Error("portal session expired, renew the cookie before the next run",
				slog.String("teacher", teacher.Name),
			)
			return 0, false, fmt.Errorf("teacher %s: %w", teacher.Name, err)
		}

		if !s.retry.Allow(attempt) {
			s.markFailed(teacher.Name)
			slog.Error("giving up on teacher",
				slog.String("teacher", teacher.Name),
				slog.Any("error", fmt.Errorf("%w after %d attempts", ErrRetriesExhausted, attempt)),
			)
			return 0, false, nil
		}
		if err := sleepContext(ctx, s.retry.Backoff()); err != nil {
			return 0, false, err
		}
	}
}

func (s *Scraper) scrapeTeacher(teacher models.Teacher) ([][]string, error) {
	body, err := s.fetch(http.MethodGet, teacher.URL, nil, nil)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse schedule page: %w", err)
	}
	if !hasScheduledHeading(doc) {
		return nil, s.recordError(&PortalError{
			Kind: KindExpiredSession,
			URL:  teacher.URL,
			Err:  fmt.Errorf("schedule page has no %s section", scheduledMarker),
		})
	}
	return ParseSchedulePage(doc), nil
}

func (s *Scraper) markFailed(name string) {
	s.mu.Lock()
	s.failedTeachers = append(s.failedTeachers, name)
	s.mu.Unlock()
	s.Metrics.IncTeacher("failed")
}

// fetch issues one synchronous request carrying the session headers and
// returns the response body. Failures are classified and counted.
func (s *Scraper) fetch(method, target string, body []byte, extra http.Header) ([]byte, error) {
	hdr := s.sessionHeaders()
	for k, v := range extra {
		hdr[k] = v
	}

	reqCtx := colly.NewContext()
	var requestData io.Reader
	if body != nil {
		requestData = bytes.NewReader(body)
	}

	err := s.collector.Request(method, target, requestData, reqCtx, hdr)
	if err != nil {
		status, _ := reqCtx.GetAny("status").(int)
		return nil, s.recordError(classifyError(target, err, status))
	}

	resp, ok := reqCtx.GetAny("response").(*colly.Response)
	if !ok || resp == nil {
		return nil, s.recordError(classifyError(target, errors.New("no response received"), 0))
	}
	if final := resp.Request.URL; final != nil && isLoginPath(final.Path) && !isLoginPath(target) {
		return nil, s.recordError(&PortalError{
			Kind:   KindExpiredSession,
			URL:    target,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("redirected to %s", final),
		})
	}
	return resp.Body, nil
}

func (s *Scraper) sessionHeaders() http.Header {
	hdr := http.Header{}
	hdr.Set("Accept", "*/*")
	hdr.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("User-Agent", s.cfg.UserAgent)
	hdr.Set("Referer", s.queryURL)
	hdr.Set("Origin", s.base.Scheme+"://"+s.base.Host)
	hdr.Set("X-Requested-With", "XMLHttpRequest")
	if s.cfg.Cookie != "" {
		hdr.Set("Cookie", s.cfg.Cookie)
	}
	return hdr
}

func (s *Scraper) configureHandlers() {
	s.handlersOnce.Do(func() {
		s.collector.OnRequest(func(r *colly.Request) {
			r.Ctx.Put("start", time.Now())
			atomic.AddInt64(&s.requestCount, 1)
			s.Metrics.IncRequest("started")
		})

		s.collector.OnResponse(func(r *colly.Response) {
			r.Ctx.Put("response", r)
			if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
				s.Metrics.ObserveDuration(time.Since(start))
			}
		})

		s.collector.OnError(func(r *colly.Response, err error) {
			if r == nil || r.Ctx == nil {
				return
			}
			r.Ctx.Put("status", r.StatusCode)
		})
	})
}

func (s *Scraper) recordError(pe *PortalError) error {
	atomic.AddInt64(&s.errorCount, 1)
	category := string(pe.Kind)

	s.mu.Lock()
	s.errorsByType[category]++
	s.mu.Unlock()

	slog.Debug("request error",
		slog.String("url", pe.URL),
		slog.String("category", category),
		slog.Int("status", pe.Status),
		slog.Any("error", pe.Err),
	)
	s.Metrics.IncError(category)
	return pe
}

func (s *Scraper) snapshotFailedTeachers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.failedTeachers))
	copy(out, s.failedTeachers)
	return out
}

func (s *Scraper) snapshotErrors() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.errorsByType))
	for k, v := range s.errorsByType {
		out[k] = v
	}
	return out
}

// classifyError maps a transport error or HTTP status onto an ErrorKind.
// The portal answers 401 once the session cookie is no longer accepted.
func classifyError(target string, err error, statusCode int) *PortalError {
	pe := &PortalError{Kind: KindOther, URL: target, Status: statusCode, Err: err}
	if pe.Err == nil {
		pe.Err = errors.New("unexpected response")
	}

	var (
		netErr net.Error
		opErr  *net.OpError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		pe.Kind = KindTimeout
	case errors.As(err, &opErr):
		pe.Kind = KindConnection
	case statusCode == http.StatusUnauthorized:
		pe.Kind = KindExpiredSession
	case statusCode == http.StatusForbidden:
		pe.Kind = KindForbidden
	case statusCode == http.StatusNotFound:
		pe.Kind = KindNotFound
	case statusCode == http.StatusTooManyRequests:
		pe.Kind = KindRateLimited
	case statusCode >= http.StatusInternalServerError:
		pe.Kind = KindServer
	}
	return pe
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

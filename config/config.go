package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds crawler, post-processing and dashboard configuration.
type Config struct {
	BaseURL      string
	Cookie       string
	SemesterID   string
	QueryToken   string // value of the portal's "_" form parameter
	PageSize     int
	Timeout      time.Duration
	RetryBackoff time.Duration
	MaxRetries   int // 0 retries a teacher until it succeeds
	TeacherDelay time.Duration
	UserAgent    string

	TeacherFile     string
	LessonFile      string
	DedupFile       string
	ClassroomFile   string
	LogFile         string
	DefaultCampus   string
	DefaultBuilding string

	MetricsAddr string
	Verbose     bool

	Dashboard DashboardConfig
}

// DashboardConfig configures the search dashboard.
type DashboardConfig struct {
	Addr           string
	LessonFile     string
	ClassroomFile  string
	MaxWeek        int
	CacheSize      int
	ReloadInterval time.Duration
}

// DefaultConfig returns the defaults used by both binaries.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         "http://example.com",
		PageSize:        10000,
		Timeout:         15 * time.Second,
		RetryBackoff:    time.Second,
		MaxRetries:      0,
		TeacherDelay:    time.Second,
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36",
		TeacherFile:     "teacher_list.csv",
		LessonFile:      "lessons_list.csv",
		DedupFile:       "lessons_list_dedup.csv",
		ClassroomFile:   "classroom_list.txt",
		LogFile:         "process.log",
		DefaultCampus:   "默认校区",
		DefaultBuilding: "默认楼宇",
		Dashboard: DashboardConfig{
			Addr:           ":8501",
			LessonFile:     "lessons_list_dedup.csv",
			ClassroomFile:  "classroom_list.txt",
			MaxWeek:        20,
			CacheSize:      256,
			ReloadInterval: 5 * time.Second,
		},
	}
}

// Validate ensures the crawl and output settings are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("base URL must use http or https")
	}

	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.TeacherDelay < 0 {
		return fmt.Errorf("teacher delay cannot be negative")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.TeacherFile == "" || c.LessonFile == "" || c.DedupFile == "" || c.ClassroomFile == "" {
		return fmt.Errorf("output files cannot be empty")
	}
	if strings.TrimSpace(c.DefaultCampus) == "" || strings.TrimSpace(c.DefaultBuilding) == "" {
		return fmt.Errorf("default campus and building cannot be empty")
	}
	if strings.Contains(c.DefaultCampus, ":") || strings.Contains(c.DefaultBuilding, ":") {
		return fmt.Errorf("default campus and building cannot contain ':'")
	}

	return nil
}

// ValidateSession ensures the values needed to talk to the portal are present.
// The cookie is obtained by logging in through a browser; it is never derived here.
func (c *Config) ValidateSession() error {
	if strings.TrimSpace(c.Cookie) == "" {
		return fmt.Errorf("cookie cannot be empty")
	}
	if strings.TrimSpace(c.SemesterID) == "" {
		return fmt.Errorf("semester id cannot be empty")
	}
	return nil
}

// Validate ensures the dashboard settings are coherent.
func (d DashboardConfig) Validate() error {
	if d.Addr == "" {
		return fmt.Errorf("dashboard address cannot be empty")
	}
	if d.LessonFile == "" {
		return fmt.Errorf("dashboard lesson file cannot be empty")
	}
	if d.ClassroomFile == "" {
		return fmt.Errorf("dashboard classroom file cannot be empty")
	}
	if d.MaxWeek <= 0 {
		return fmt.Errorf("max week must be positive")
	}
	if d.CacheSize <= 0 {
		return fmt.Errorf("cache size must be positive")
	}
	if d.ReloadInterval < 0 {
		return fmt.Errorf("reload interval cannot be negative")
	}
	return nil
}

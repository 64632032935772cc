package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load layers an optional env file and the process environment over
// DefaultConfig. Keys use the TIMETABLE_ prefix, e.g. TIMETABLE_COOKIE.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	v := viper.New()
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	defaults := DefaultConfig()
	setDefaults(v, defaults)

	if envFile != "" {
		v.SetConfigFile(envFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	cfg := &Config{
		BaseURL:         strings.TrimRight(v.GetString("TIMETABLE_BASE_URL"), "/"),
		Cookie:          v.GetString("TIMETABLE_COOKIE"),
		SemesterID:      v.GetString("TIMETABLE_SEMESTER_ID"),
		QueryToken:      v.GetString("TIMETABLE_QUERY_TOKEN"),
		PageSize:        v.GetInt("TIMETABLE_PAGE_SIZE"),
		Timeout:         v.GetDuration("TIMETABLE_TIMEOUT"),
		RetryBackoff:    v.GetDuration("TIMETABLE_RETRY_BACKOFF"),
		MaxRetries:      v.GetInt("TIMETABLE_MAX_RETRIES"),
		TeacherDelay:    v.GetDuration("TIMETABLE_TEACHER_DELAY"),
		UserAgent:       v.GetString("TIMETABLE_USER_AGENT"),
		TeacherFile:     v.GetString("TIMETABLE_TEACHER_FILE"),
		LessonFile:      v.GetString("TIMETABLE_LESSON_FILE"),
		DedupFile:       v.GetString("TIMETABLE_DEDUP_FILE"),
		ClassroomFile:   v.GetString("TIMETABLE_CLASSROOM_FILE"),
		LogFile:         v.GetString("TIMETABLE_LOG_FILE"),
		DefaultCampus:   v.GetString("TIMETABLE_DEFAULT_CAMPUS"),
		DefaultBuilding: v.GetString("TIMETABLE_DEFAULT_BUILDING"),
		MetricsAddr:     v.GetString("TIMETABLE_METRICS_ADDR"),
		Verbose:         v.GetBool("TIMETABLE_VERBOSE"),
		Dashboard: DashboardConfig{
			Addr:           v.GetString("TIMETABLE_DASHBOARD_ADDR"),
			LessonFile:     v.GetString("TIMETABLE_DASHBOARD_LESSON_FILE"),
			ClassroomFile:  v.GetString("TIMETABLE_DASHBOARD_CLASSROOM_FILE"),
			MaxWeek:        v.GetInt("TIMETABLE_DASHBOARD_MAX_WEEK"),
			CacheSize:      v.GetInt("TIMETABLE_DASHBOARD_CACHE_SIZE"),
			ReloadInterval: v.GetDuration("TIMETABLE_DASHBOARD_RELOAD_INTERVAL"),
		},
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("TIMETABLE_BASE_URL", d.BaseURL)
	v.SetDefault("TIMETABLE_COOKIE", d.Cookie)
	v.SetDefault("TIMETABLE_SEMESTER_ID", d.SemesterID)
	v.SetDefault("TIMETABLE_QUERY_TOKEN", d.QueryToken)
	v.SetDefault("TIMETABLE_PAGE_SIZE", d.PageSize)
	v.SetDefault("TIMETABLE_TIMEOUT", d.Timeout)
	v.SetDefault("TIMETABLE_RETRY_BACKOFF", d.RetryBackoff)
	v.SetDefault("TIMETABLE_MAX_RETRIES", d.MaxRetries)
	v.SetDefault("TIMETABLE_TEACHER_DELAY", d.TeacherDelay)
	v.SetDefault("TIMETABLE_USER_AGENT", d.UserAgent)

	v.SetDefault("TIMETABLE_TEACHER_FILE", d.TeacherFile)
	v.SetDefault("TIMETABLE_LESSON_FILE", d.LessonFile)
	v.SetDefault("TIMETABLE_DEDUP_FILE", d.DedupFile)
	v.SetDefault("TIMETABLE_CLASSROOM_FILE", d.ClassroomFile)
	v.SetDefault("TIMETABLE_LOG_FILE", d.LogFile)
	v.SetDefault("TIMETABLE_DEFAULT_CAMPUS", d.DefaultCampus)
	v.SetDefault("TIMETABLE_DEFAULT_BUILDING", d.DefaultBuilding)
	v.SetDefault("TIMETABLE_METRICS_ADDR", d.MetricsAddr)
	v.SetDefault("TIMETABLE_VERBOSE", d.Verbose)

	v.SetDefault("TIMETABLE_DASHBOARD_ADDR", d.Dashboard.Addr)
	v.SetDefault("TIMETABLE_DASHBOARD_LESSON_FILE", d.Dashboard.LessonFile)
	v.SetDefault("TIMETABLE_DASHBOARD_CLASSROOM_FILE", d.Dashboard.ClassroomFile)
	v.SetDefault("TIMETABLE_DASHBOARD_MAX_WEEK", d.Dashboard.MaxWeek)
	v.SetDefault("TIMETABLE_DASHBOARD_CACHE_SIZE", d.Dashboard.CacheSize)
	v.SetDefault("TIMETABLE_DASHBOARD_RELOAD_INTERVAL", d.Dashboard.ReloadInterval)
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aluiziolira/go-scrape-timetable/config"
	"github.com/aluiziolira/go-scrape-timetable/models"
	"github.com/aluiziolira/go-scrape-timetable/pipeline"
	"github.com/aluiziolira/go-scrape-timetable/scraper"
)

func main() {
	envFile := flag.String("env", ".env", "Env file with TIMETABLE_* settings")
	baseURL := flag.String("base-url", "", "Portal base URL")
	cookie := flag.String("cookie", "", "Session cookie copied from a logged-in browser")
	semesterID := flag.String("semester", "", "Semester id sent with the directory query")
	maxRetries := flag.Int("max-retries", 0, "Maximum retries per teacher (0 retries until success)")
	retryBackoffMs := flag.Int("retry-backoff", 1000, "Delay before retrying a teacher (milliseconds)")
	teacherDelayMs := flag.Int("delay", 1000, "Delay between teachers (milliseconds)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics listen address (e.g. :9090)")
	skipCrawl := flag.Bool("skip-crawl", false, "Only post-process an existing raw lesson file")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "base-url":
			cfg.BaseURL = *baseURL
		case "cookie":
			cfg.Cookie = *cookie
		case "semester":
			cfg.SemesterID = *semesterID
		case "max-retries":
			cfg.MaxRetries = *maxRetries
		case "retry-backoff":
			cfg.RetryBackoff = time.Duration(*retryBackoffMs) * time.Millisecond
		case "delay":
			cfg.TeacherDelay = time.Duration(*teacherDelayMs) * time.Millisecond
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		case "v":
			cfg.Verbose = *verbose
		}
	})

	logFile, err := openLogFile(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	logger, level := newLogger(cfg.Verbose, logFile)
	slog.SetDefault(logger.With(slog.String("run_id", uuid.NewString())))
	slog.SetLogLoggerLevel(level.Level())

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startTime := time.Now()
	var result *models.CrawlResult
	if !*skipCrawl {
		result, err = crawl(ctx, cfg)
		if err != nil {
			slog.Error("crawl failed", slog.Any("error", err))
			logFile.Close()
			os.Exit(1)
		}
	} else {
		slog.Info("skipping crawl", slog.String("lesson_file", cfg.LessonFile))
	}

	stats, rooms, err := postProcess(cfg)
	if err != nil {
		slog.Error("post-processing failed", slog.Any("error", err))
		logFile.Close()
		os.Exit(1)
	}

	printSummary(result, stats, rooms, time.Since(startTime), cfg)
}

// crawl fetches every teacher's lessons into the raw lesson file.
func crawl(ctx context.Context, cfg *config.Config) (*models.CrawlResult, error) {
	if err := cfg.ValidateSession(); err != nil {
		return nil, fmt.Errorf("invalid session: %w", err)
	}

	slog.Info("starting crawl",
		slog.String("base_url", cfg.BaseURL),
		slog.String("semester_id", cfg.SemesterID),
		slog.Int("max_retries", cfg.MaxRetries),
	)

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialise scraper: %w", err)
	}

	writer, err := pipeline.NewCSVWriter(cfg.LessonFile, models.LessonHeader)
	if err != nil {
		return nil, fmt.Errorf("create lesson file: %w", err)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Error("close writer", slog.Any("error", err))
		}
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" && s.Metrics != nil {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown failed", slog.Any("error", err))
			}
		}()
	}

	p := pipeline.NewPipeline(writer)
	result, err := s.Run(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := p.Close(); err != nil {
		return nil, fmt.Errorf("pipeline shutdown: %w", err)
	}
	if err := writer.Validate(); err != nil {
		return nil, fmt.Errorf("output validation: %w", err)
	}

	slog.Debug("pipeline metrics", slog.Any("metrics", p.GetMetrics()))
	return result, nil
}

// postProcess writes the deduplicated lesson file and the classroom list.
func postProcess(cfg *config.Config) (pipeline.DedupStats, int, error) {
	stats, err := pipeline.DedupeFile(cfg.LessonFile, cfg.DedupFile)
	if err != nil {
		return stats, 0, err
	}
	slog.Info("lessons deduplicated",
		slog.Int("before", stats.Before),
		slog.Int("after", stats.After),
		slog.String("file", cfg.DedupFile),
	)

	rooms, err := pipeline.WriteClassroomList(cfg.LessonFile, cfg.ClassroomFile, cfg.DefaultCampus, cfg.DefaultBuilding)
	if err != nil {
		return stats, 0, err
	}
	slog.Info("classroom list written",
		slog.Int("rooms", rooms),
		slog.String("file", cfg.ClassroomFile),
	)
	return stats, rooms, nil
}

func printSummary(result *models.CrawlResult, stats pipeline.DedupStats, rooms int, duration time.Duration, cfg *config.Config) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Run complete")

	if result != nil {
		fmt.Printf("  Teachers:      %d\n", result.TeacherCount)
		fmt.Printf("  Processed:     %d\n", result.ProcessedCount)
		fmt.Printf("  Skipped:       %d\n", result.SkippedCount)
		fmt.Printf("  Lessons:       %d\n", result.LessonCount)
		fmt.Printf("  Requests:      %d\n", result.RequestCount)
		fmt.Printf("  Errors:        %d\n", result.ErrorCount)
		fmt.Printf("  Retries:       %d\n", result.RetryCount)
		fmt.Printf("  Failed:        %d\n", len(result.FailedTeachers))
		if len(result.FailedTeachers) > 0 {
			fmt.Printf("  Failed names:  %v\n", result.FailedTeachers)
		}
		if len(result.ErrorsByType) > 0 {
			fmt.Printf("  Error types:   %v\n", result.ErrorsByType)
		}
	}
	fmt.Printf("  Deduplicated:  %d -> %d\n", stats.Before, stats.After)
	fmt.Printf("  Classrooms:    %d\n", rooms)
	fmt.Printf("  Duration:      %v\n", duration)
	fmt.Printf("  Lesson file:   %s\n", cfg.LessonFile)
	fmt.Printf("  Dedup file:    %s\n", cfg.DedupFile)
	fmt.Println(separator)
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

func newLogger(verbose bool, logFile *os.File) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	var out io.Writer = os.Stdout
	if logFile != nil {
		out = io.MultiWriter(os.Stdout, logFile)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

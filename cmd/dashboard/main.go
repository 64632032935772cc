package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aluiziolira/go-scrape-timetable/catalog"
	"github.com/aluiziolira/go-scrape-timetable/config"
	"github.com/aluiziolira/go-scrape-timetable/server"
	"github.com/aluiziolira/go-scrape-timetable/timetable"
)

func main() {
	envFile := flag.String("env", ".env", "Env file with TIMETABLE_* settings")
	addr := flag.String("addr", "", "Listen address")
	lessonFile := flag.String("lessons", "", "Deduplicated lesson CSV")
	classroomFile := flag.String("classrooms", "", "Classroom list file")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(1)
	}
	dash := cfg.Dashboard
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			dash.Addr = *addr
		case "lessons":
			dash.LessonFile = *lessonFile
		case "classrooms":
			dash.ClassroomFile = *classroomFile
		case "v":
			cfg.Verbose = *verbose
		}
	})

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if err := dash.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	store, err := timetable.NewStore(dash.LessonFile, dash.CacheSize, dash.ReloadInterval)
	if err != nil {
		slog.Error("load lessons", slog.String("file", dash.LessonFile), slog.Any("error", err))
		os.Exit(1)
	}
	cat, err := catalog.Load(dash.ClassroomFile)
	if err != nil {
		slog.Error("load classrooms", slog.String("file", dash.ClassroomFile), slog.Any("error", err))
		os.Exit(1)
	}

	if !cfg.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              dash.Addr,
		Handler:           server.New(dash, store, cat, server.NewMetrics()).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("dashboard listening",
			slog.String("addr", dash.Addr),
			slog.Int("campuses", len(cat.Campuses())),
			slog.Int("rooms", cat.Len()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("dashboard server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down dashboard")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("dashboard shutdown failed", slog.Any("error", err))
	}
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
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

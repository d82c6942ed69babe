package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"downsub/internal/config"
	"downsub/internal/handlers"
	"downsub/internal/jobs"
	"downsub/internal/logging"
	"downsub/internal/models"
	"downsub/internal/storage"
	"downsub/internal/sweeper"
	"downsub/internal/tasks"
	"downsub/internal/version"
	"downsub/internal/worker"
	"downsub/internal/youtube"
	"downsub/internal/ytdlp"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	db, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := storage.NewJobRepository(db)
	artifacts := storage.NewArtifactStore(cfg.OutputDir)

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return err
	}

	runner := jobs.NewRunner(fetcher, artifacts, repo, logger, jobs.Options{
		ParagraphSize: cfg.ParagraphSize,
		FetchTimeout:  cfg.FetchTimeout(),
	})

	// ワーカーはHTTPサーバーより長く生きる
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	w := worker.NewWorker(repo, logger, worker.Options{
		Concurrency: cfg.Workers,
		MaxRetries:  cfg.MaxRetries,
	})
	w.RegisterHandler(models.JobTypeSubtitles, runner.Run)
	if err := w.Start(workerCtx); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}

	sw := sweeper.New(cfg.OutputDir, cfg.CleanupAge(), repo, logger)
	svc := tasks.NewService(repo, artifacts, w, sw, logger, tasks.Options{
		DefaultLanguage: cfg.DefaultLanguage,
		QueueLimit:      cfg.QueueLimit,
		Cleanup:         cfg.CleanupEnabled,
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogger(logger))

	handlers.Register(e, handlers.NewSubtitleHandler(svc, cfg.ResultOption), handlers.NewJobHandler(repo))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting downsub",
			"version", version.Version,
			"port", cfg.Port,
			"output_dir", cfg.OutputDir,
			"fetcher", cfg.Fetcher,
			"workers", cfg.Workers,
			"cleanup", cfg.CleanupEnabled,
		)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			w.Stop()
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	w.Stop()
	return nil
}

func newFetcher(cfg *config.Config) (jobs.MediaFetcher, error) {
	switch cfg.Fetcher {
	case config.FetcherYtDlp:
		client := ytdlp.NewClient(cfg.YtDlpPath)
		if err := client.CheckBinary(); err != nil {
			return nil, err
		}
		return client, nil
	default:
		return youtube.NewClient(), nil
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				logger.Error("request", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.Info("request", attrs...)
			return nil
		},
	})
}

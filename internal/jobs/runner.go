// Package jobs runs one subtitle extraction: probe, language resolution,
// caption download, normalization and artifact write.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"downsub/internal/captions"
	"downsub/internal/language"
	"downsub/internal/models"
	"downsub/internal/storage"
)

// DefaultFetchTimeout bounds each call to the media fetcher
const DefaultFetchTimeout = 2 * time.Minute

// MediaFetcher inspects videos and downloads caption tracks
type MediaFetcher interface {
	Probe(ctx context.Context, url string) (*models.Probe, error)
	Fetch(ctx context.Context, url, lang string) (*models.CaptionPayload, error)
}

// Options configures a Runner
type Options struct {
	ParagraphSize int
	FetchTimeout  time.Duration
}

// Extraction is the outcome of a successful run
type Extraction struct {
	VideoID         string
	Title           string
	MatchedLanguage string
	ArtifactPath    string
}

// Runner executes subtitle extraction jobs
type Runner struct {
	fetcher   MediaFetcher
	artifacts *storage.ArtifactStore
	repo      *storage.JobRepository
	opts      Options
	logger    *slog.Logger
}

// NewRunner creates a Runner
func NewRunner(fetcher MediaFetcher, artifacts *storage.ArtifactStore, repo *storage.JobRepository, logger *slog.Logger, opts Options) *Runner {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		fetcher:   fetcher,
		artifacts: artifacts,
		repo:      repo,
		opts:      opts,
		logger:    logger,
	}
}

// Run executes a claimed job and records its result
func (r *Runner) Run(ctx context.Context, job *models.Job) error {
	ext, err := r.Extract(ctx, job.ID, job.SourceURL, job.Language)
	if err != nil {
		return err
	}

	err = r.repo.SetResult(ctx, job.ID, storage.JobResult{
		MatchedLanguage: ext.MatchedLanguage,
		VideoID:         ext.VideoID,
		Title:           ext.Title,
		ArtifactPath:    ext.ArtifactPath,
	})
	if err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return nil
}

// Extract produces the normalized artifact for one task
func (r *Runner) Extract(ctx context.Context, taskID, url, lang string) (*Extraction, error) {
	logger := r.logger.With("task_id", taskID, "url", url, "language", lang)

	probe, err := r.probe(ctx, url)
	if err != nil {
		return nil, newError(CodeSourceUnavailable, true, ErrSourceUnavailable, "probe %s: %v", url, err)
	}

	available := probe.Languages()
	matched, ok := language.Match(available, lang)
	if !ok {
		return nil, newError(CodeNoMatchingLanguage, false, ErrNoMatchingLanguage,
			"%q not in %v", lang, available)
	}
	logger.Debug("resolved caption language", "matched", matched, "available", available)

	payload, err := r.fetch(ctx, url, matched)
	if err != nil {
		if errors.Is(err, models.ErrTrackNotFound) || errors.Is(err, models.ErrEmptyCaption) {
			return nil, newError(CodeCaptionMissing, false, ErrCaptionMissing, "%s: %v", matched, err)
		}
		return nil, newError(CodeSourceUnavailable, true, ErrSourceUnavailable, "fetch %s: %v", url, err)
	}
	if err := payload.Validate(); err != nil {
		return nil, newError(CodeCaptionMissing, false, ErrCaptionMissing, "%s: %v", matched, err)
	}

	text := captions.Normalize(payload.Raw, captions.Options{ParagraphSize: r.opts.ParagraphSize})
	path, err := r.artifacts.Write(taskID, payload.Title, text)
	if err != nil {
		return nil, newError(CodeWriteFailed, false, ErrWriteFailed, "%v", err)
	}

	logger.Info("subtitle artifact written", "video_id", payload.VideoID, "matched", matched, "path", path)
	return &Extraction{
		VideoID:         payload.VideoID,
		Title:           payload.Title,
		MatchedLanguage: matched,
		ArtifactPath:    path,
	}, nil
}

func (r *Runner) probe(ctx context.Context, url string) (*models.Probe, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.FetchTimeout)
	defer cancel()
	return r.fetcher.Probe(ctx, url)
}

func (r *Runner) fetch(ctx context.Context, url, lang string) (*models.CaptionPayload, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.FetchTimeout)
	defer cancel()
	return r.fetcher.Fetch(ctx, url, lang)
}

// Package tasks accepts subtitle extraction requests and answers polls for their results.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"downsub/internal/models"
	"downsub/internal/storage"

	"github.com/google/uuid"
)

// Poll statuses
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	// StatusMissing means the job completed but its artifact is gone
	StatusMissing = "file_missing"
)

// DefaultLanguage is requested when the caller names none
const DefaultLanguage = "en"

// ErrQueueFull is returned by Submit when the pending job limit is reached
var ErrQueueFull = errors.New("job queue is full")

// Submitter enqueues jobs for background execution
type Submitter interface {
	SubmitJob(ctx context.Context, job *models.Job) error
}

// Sweeper removes aged artifacts
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Options configures a Service
type Options struct {
	DefaultLanguage string
	// QueueLimit caps queued plus running jobs; zero disables the cap
	QueueLimit int
	// Cleanup runs the sweeper before every poll
	Cleanup bool
}

// Submission is the immediate answer to a submit request
type Submission struct {
	TaskID    string `json:"task_id"`
	Status    string `json:"status"`
	SourceURL string `json:"-"`
	Language  string `json:"-"`
}

// Result is the answer to a poll
type Result struct {
	TaskID    string
	Status    string
	Filename  string
	Path      string
	Content   string
	ErrorCode string
	Error     string
}

// Service issues task ids, schedules jobs and looks up their results
type Service struct {
	repo      *storage.JobRepository
	artifacts *storage.ArtifactStore
	submitter Submitter
	sweeper   Sweeper
	opts      Options
	logger    *slog.Logger
}

// NewService creates a Service. sweeper may be nil when cleanup is disabled.
func NewService(repo *storage.JobRepository, artifacts *storage.ArtifactStore, submitter Submitter, sweeper Sweeper, logger *slog.Logger, opts Options) *Service {
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = DefaultLanguage
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		artifacts: artifacts,
		submitter: submitter,
		sweeper:   sweeper,
		opts:      opts,
		logger:    logger,
	}
}

// Submit schedules extraction of sourceURL's captions in lang and returns without waiting.
// The URL is not validated here; an unusable source fails the job later.
func (s *Service) Submit(ctx context.Context, sourceURL, lang string) (*Submission, error) {
	if lang == "" {
		lang = s.opts.DefaultLanguage
	}

	if s.opts.QueueLimit > 0 {
		pending, err := s.repo.CountPending(ctx)
		if err != nil {
			return nil, err
		}
		if pending >= s.opts.QueueLimit {
			return nil, fmt.Errorf("%w: %d pending jobs", ErrQueueFull, pending)
		}
	}

	job := &models.Job{
		Type:      models.JobTypeSubtitles,
		SourceURL: sourceURL,
		Language:  lang,
	}
	if err := s.submitter.SubmitJob(ctx, job); err != nil {
		return nil, fmt.Errorf("submit job: %w", err)
	}

	return &Submission{
		TaskID:    job.ID,
		Status:    StatusProcessing,
		SourceURL: sourceURL,
		Language:  lang,
	}, nil
}

// Poll reports the state of a task. An unknown task id is reported as processing.
func (s *Service) Poll(ctx context.Context, taskID string) (*Result, error) {
	if s.opts.Cleanup && s.sweeper != nil {
		if _, err := s.sweeper.Sweep(ctx); err != nil {
			s.logger.Warn("cleanup before poll failed", "error", err)
		}
	}

	job, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return s.pollDirectory(taskID)
	}

	switch job.Status {
	case models.JobStatusFailed:
		return &Result{TaskID: taskID, Status: StatusFailed, ErrorCode: job.ErrorCode, Error: job.Error}, nil
	case models.JobStatusCompleted:
		return s.readArtifact(taskID, job.ArtifactPath)
	default:
		return &Result{TaskID: taskID, Status: StatusProcessing}, nil
	}
}

// pollDirectory finds artifacts that have no job record, e.g. written before the database was reset.
// Only well-formed task ids are looked up so a short id cannot match another task's file.
func (s *Service) pollDirectory(taskID string) (*Result, error) {
	if _, err := uuid.Parse(taskID); err != nil {
		return &Result{TaskID: taskID, Status: StatusProcessing}, nil
	}

	path, err := s.artifacts.FindByTaskID(taskID)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return &Result{TaskID: taskID, Status: StatusProcessing}, nil
	}

	res, err := s.readArtifact(taskID, path)
	if err != nil {
		return nil, err
	}
	if res.Status == StatusMissing {
		// vanished between scan and read
		res.Status = StatusProcessing
	}
	return res, nil
}

func (s *Service) readArtifact(taskID, path string) (*Result, error) {
	if path == "" {
		return &Result{TaskID: taskID, Status: StatusMissing}, nil
	}

	content, err := s.artifacts.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Result{TaskID: taskID, Status: StatusMissing}, nil
		}
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	return &Result{
		TaskID:   taskID,
		Status:   StatusCompleted,
		Filename: filepath.Base(path),
		Path:     path,
		Content:  content,
	}, nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"downsub/internal/models"

	"github.com/google/uuid"
)

// timeLayout is fixed-width so that stored timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const jobColumns = `id, type, source_url, language, matched_language, status, retry_count,
	error_code, error, video_id, title, artifact_path, created_at, started_at, completed_at`

// JobRepository is the data access layer for processing jobs
type JobRepository struct {
	db  *DB
	now func() time.Time
}

// NewJobRepository creates a JobRepository
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db, now: time.Now}
}

// JobResult is what a finished runner records on its job
type JobResult struct {
	MatchedLanguage string
	VideoID         string
	Title           string
	ArtifactPath    string
}

// Create inserts a new queued job, assigning an ID when empty
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Type == "" {
		job.Type = models.JobTypeSubtitles
	}
	if job.Status == "" {
		job.Status = models.JobStatusQueued
	}
	job.CreatedAt = r.now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO processing_jobs (id, type, source_url, language, status, retry_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Type, job.SourceURL, job.Language, job.Status, job.RetryCount,
		job.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// GetByID returns the job with the given ID, or nil when it does not exist
func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM processing_jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return job, nil
}

// ClaimNext atomically moves the oldest queued job to running and returns it.
// It returns nil when the queue is empty.
func (r *JobRepository) ClaimNext(ctx context.Context) (*models.Job, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE processing_jobs SET status = ?, started_at = ?
		WHERE id = (
			SELECT id FROM processing_jobs WHERE status = ?
			ORDER BY created_at, rowid LIMIT 1
		) AND status = ?
		RETURNING `+jobColumns,
		models.JobStatusRunning, r.now().UTC().Format(timeLayout),
		models.JobStatusQueued, models.JobStatusQueued,
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim next job: %w", err)
	}
	return job, nil
}

// SetResult records the artifact and video metadata produced by a job
func (r *JobRepository) SetResult(ctx context.Context, id string, res JobResult) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE processing_jobs
		SET matched_language = ?, video_id = ?, title = ?, artifact_path = ?
		WHERE id = ?`,
		nullable(res.MatchedLanguage), nullable(res.VideoID), nullable(res.Title), nullable(res.ArtifactPath), id,
	)
	if err != nil {
		return fmt.Errorf("set job result %s: %w", id, err)
	}
	return nil
}

// Complete marks a job as completed
func (r *JobRepository) Complete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE processing_jobs SET status = ?, completed_at = ?, error_code = NULL, error = NULL WHERE id = ?`,
		models.JobStatusCompleted, r.now().UTC().Format(timeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("complete job %s: %w", id, err)
	}
	return nil
}

// Fail marks a job as failed with an error code and message
func (r *JobRepository) Fail(ctx context.Context, id, code, errorMsg string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE processing_jobs SET status = ?, error_code = ?, error = ?, completed_at = ? WHERE id = ?`,
		models.JobStatusFailed, code, errorMsg, r.now().UTC().Format(timeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("fail job %s: %w", id, err)
	}
	return nil
}

// Retry puts a job back on the queue and increments its retry count
func (r *JobRepository) Retry(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE processing_jobs SET status = ?, retry_count = retry_count + 1, started_at = NULL WHERE id = ?`,
		models.JobStatusQueued, id,
	)
	if err != nil {
		return fmt.Errorf("retry job %s: %w", id, err)
	}
	return nil
}

// RequeueRunning returns jobs left running by a previous process to the queue
func (r *JobRepository) RequeueRunning(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE processing_jobs SET status = ?, started_at = NULL WHERE status = ?`,
		models.JobStatusQueued, models.JobStatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("requeue running jobs: %w", err)
	}
	return res.RowsAffected()
}

// CountPending returns the number of queued and running jobs
func (r *JobRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM processing_jobs WHERE status IN (?, ?)`,
		models.JobStatusQueued, models.JobStatusRunning,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending jobs: %w", err)
	}
	return n, nil
}

// ListRecent returns the most recently created jobs
func (r *JobRepository) ListRecent(ctx context.Context, limit int) ([]models.Job, error) {
	if limit == 0 {
		limit = 50
	}
	return r.list(ctx,
		`SELECT `+jobColumns+` FROM processing_jobs ORDER BY created_at DESC LIMIT ?`, limit)
}

// ListByStatus returns jobs in the given status, newest first
func (r *JobRepository) ListByStatus(ctx context.Context, status string, limit int) ([]models.Job, error) {
	if limit == 0 {
		limit = 50
	}
	return r.list(ctx,
		`SELECT `+jobColumns+` FROM processing_jobs WHERE status = ? ORDER BY created_at DESC LIMIT ?`,
		status, limit)
}

// CountByStatus returns the number of jobs per status
func (r *JobRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM processing_jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count jobs by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan job count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// Delete removes a job record
func (r *JobRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM processing_jobs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	return nil
}

// CleanupFinished deletes completed and failed jobs created before cutoff
func (r *JobRepository) CleanupFinished(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM processing_jobs WHERE status IN (?, ?) AND created_at < ?`,
		models.JobStatusCompleted, models.JobStatusFailed, cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("cleanup finished jobs: %w", err)
	}
	return res.RowsAffected()
}

func (r *JobRepository) list(ctx context.Context, query string, args ...any) ([]models.Job, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []models.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.Job, error) {
	var (
		job                                 models.Job
		matched, errCode, errMsg, videoID   sql.NullString
		title, artifact, started, completed sql.NullString
		created                             string
	)
	err := row.Scan(
		&job.ID, &job.Type, &job.SourceURL, &job.Language, &matched, &job.Status, &job.RetryCount,
		&errCode, &errMsg, &videoID, &title, &artifact, &created, &started, &completed,
	)
	if err != nil {
		return nil, err
	}

	job.MatchedLanguage = matched.String
	job.ErrorCode = errCode.String
	job.Error = errMsg.String
	job.VideoID = videoID.String
	job.Title = title.String
	job.ArtifactPath = artifact.String

	if job.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if job.StartedAt, err = parseNullTime(started); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if job.CompletedAt, err = parseNullTime(completed); err != nil {
		return nil, fmt.Errorf("parse completed_at: %w", err)
	}
	return &job, nil
}

func parseNullTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

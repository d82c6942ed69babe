package models

import "time"

// Job is one asynchronous subtitle extraction request
type Job struct {
	ID              string     `json:"id"`
	Type            string     `json:"type"`
	SourceURL       string     `json:"source_url"`
	Language        string     `json:"language"`
	MatchedLanguage string     `json:"matched_language,omitempty"`
	Status          string     `json:"status"`
	RetryCount      int        `json:"retry_count"`
	ErrorCode       string     `json:"error_code,omitempty"`
	Error           string     `json:"error,omitempty"`
	VideoID         string     `json:"video_id,omitempty"`
	Title           string     `json:"title,omitempty"`
	ArtifactPath    string     `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// Job types
const (
	JobTypeSubtitles = "subtitles"
)

// Job statuses
const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Finished reports whether the job reached a terminal state
func (j *Job) Finished() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

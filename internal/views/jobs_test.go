package views

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"downsub/internal/models"
)

func TestJobList(t *testing.T) {
	jobs := []models.Job{
		{
			ID:              "task-1",
			Status:          models.JobStatusCompleted,
			Language:        "en",
			MatchedLanguage: "en-GB",
			Title:           `<script>alert("x")</script>`,
			SourceURL:       "https://youtu.be/a",
			CreatedAt:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		{ID: "task-2", Status: models.JobStatusFailed, Language: "es", ErrorCode: "no_matching_language"},
	}

	var buf bytes.Buffer
	if err := JobList(jobs).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	html := buf.String()

	for _, want := range []string{"task-1", "task-2", "en → en-GB", "2026-01-02 03:04:05", "no_matching_language", `data-status="failed"`} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(html, "<script>") {
		t.Error("title was not escaped")
	}
}

func TestLabels(t *testing.T) {
	job := models.Job{Language: "en", MatchedLanguage: "en", ErrorCode: "caption_missing"}
	if got := languageLabel(job); got != "en" {
		t.Errorf("languageLabel() = %q", got)
	}
	if got := errorLabel(job); got != "caption_missing" {
		t.Errorf("errorLabel() = %q", got)
	}
	job.Error = "track vanished"
	if got := errorLabel(job); got != "caption_missing: track vanished" {
		t.Errorf("errorLabel() = %q", got)
	}
	if got := createdLabel(job); got != "" {
		t.Errorf("createdLabel() of zero time = %q", got)
	}
}

func TestJobList_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := JobList(nil).Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No jobs yet") {
		t.Fatalf("output = %q", buf.String())
	}
}

package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"downsub/internal/captions"
	"downsub/internal/models"
	"downsub/internal/storage"
)

const rawVTT = `WEBVTT
Kind: captions
Language: en

00:00:01.000 --> 00:00:02.000
<i>hello</i>

00:00:02.000 --> 00:00:03.000
hello
[Music]
world
`

type fakeFetcher struct {
	mu        sync.Mutex
	probe     *models.Probe
	probeErr  error
	payload   *models.CaptionPayload
	fetchErr  error
	fetchLang []string
}

func (f *fakeFetcher) Probe(ctx context.Context, url string) (*models.Probe, error) {
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	return f.probe, nil
}

func (f *fakeFetcher) Fetch(ctx context.Context, url, lang string) (*models.CaptionPayload, error) {
	f.mu.Lock()
	f.fetchLang = append(f.fetchLang, lang)
	f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	p := *f.payload
	p.Language = lang
	return &p, nil
}

func newTestRunner(t *testing.T, fetcher MediaFetcher) (*Runner, *storage.JobRepository, *storage.ArtifactStore) {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "jobs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	repo := storage.NewJobRepository(db)
	artifacts := storage.NewArtifactStore(filepath.Join(dir, "output"))
	return NewRunner(fetcher, artifacts, repo, nil, Options{ParagraphSize: 3}), repo, artifacts
}

func TestRunner_Run(t *testing.T) {
	fetcher := &fakeFetcher{
		probe:   &models.Probe{VideoID: "vid", Title: "My Talk", Authored: []string{"en-GB"}, Automatic: []string{"en"}},
		payload: &models.CaptionPayload{VideoID: "vid", Title: "My Talk: Part 1", Raw: rawVTT},
	}
	runner, repo, _ := newTestRunner(t, fetcher)
	ctx := context.Background()

	job := &models.Job{SourceURL: "https://youtu.be/vid", Language: "en"}
	if err := repo.Create(ctx, job); err != nil {
		t.Fatal(err)
	}

	if err := runner.Run(ctx, job); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(fetcher.fetchLang) != 1 || fetcher.fetchLang[0] != "en" {
		t.Fatalf("fetched languages = %v, want [en]", fetcher.fetchLang)
	}

	got, err := repo.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.MatchedLanguage != "en" || got.VideoID != "vid" || got.Title != "My Talk: Part 1" {
		t.Fatalf("job = %+v", got)
	}
	if want := "My_Talk_Part_1-" + job.ID + ".txt"; filepath.Base(got.ArtifactPath) != want {
		t.Fatalf("artifact = %s, want %s", filepath.Base(got.ArtifactPath), want)
	}

	content, err := os.ReadFile(got.ArtifactPath)
	if err != nil {
		t.Fatal(err)
	}
	if want := captions.Normalize(rawVTT, captions.Options{ParagraphSize: 3}); string(content) != want {
		t.Fatalf("content = %q, want %q", content, want)
	}
	if string(content) != "hello\nworld" {
		t.Fatalf("content = %q", content)
	}
}

func TestRunner_PrefixMatch(t *testing.T) {
	fetcher := &fakeFetcher{
		probe:   &models.Probe{VideoID: "vid", Authored: []string{"fr", "en-US", "en-GB"}},
		payload: &models.CaptionPayload{VideoID: "vid", Title: "t", Raw: rawVTT},
	}
	runner, _, _ := newTestRunner(t, fetcher)

	ext, err := runner.Extract(context.Background(), "task", "u", "en")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if ext.MatchedLanguage != "en-GB" {
		t.Fatalf("matched = %s, want en-GB", ext.MatchedLanguage)
	}
}

func TestRunner_Failures(t *testing.T) {
	tests := []struct {
		name      string
		fetcher   *fakeFetcher
		code      string
		sentinel  error
		retryable bool
		fetches   int
	}{
		{
			name:      "probe fails",
			fetcher:   &fakeFetcher{probeErr: errors.New("video unavailable")},
			code:      CodeSourceUnavailable,
			sentinel:  ErrSourceUnavailable,
			retryable: true,
		},
		{
			name: "no matching language aborts before download",
			fetcher: &fakeFetcher{
				probe: &models.Probe{VideoID: "vid", Authored: []string{"en-GB", "fr"}},
			},
			code:     CodeNoMatchingLanguage,
			sentinel: ErrNoMatchingLanguage,
		},
		{
			name: "track missing after probe",
			fetcher: &fakeFetcher{
				probe:    &models.Probe{VideoID: "vid", Automatic: []string{"es"}},
				fetchErr: fmt.Errorf("wrapped: %w", models.ErrTrackNotFound),
			},
			code:     CodeCaptionMissing,
			sentinel: ErrCaptionMissing,
			fetches:  1,
		},
		{
			name: "empty payload",
			fetcher: &fakeFetcher{
				probe:   &models.Probe{VideoID: "vid", Automatic: []string{"es"}},
				payload: &models.CaptionPayload{VideoID: "vid", Raw: "  "},
			},
			code:     CodeCaptionMissing,
			sentinel: ErrCaptionMissing,
			fetches:  1,
		},
		{
			name: "download fails",
			fetcher: &fakeFetcher{
				probe:    &models.Probe{VideoID: "vid", Automatic: []string{"es"}},
				fetchErr: errors.New("connection reset"),
			},
			code:      CodeSourceUnavailable,
			sentinel:  ErrSourceUnavailable,
			retryable: true,
			fetches:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner, _, artifacts := newTestRunner(t, tt.fetcher)

			_, err := runner.Extract(context.Background(), "task-x", "u", "es")
			if err == nil {
				t.Fatal("Extract() error = nil")
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("error %v does not match %v", err, tt.sentinel)
			}
			if CodeOf(err) != tt.code {
				t.Errorf("CodeOf() = %s, want %s", CodeOf(err), tt.code)
			}

			var jobErr *Error
			if !errors.As(err, &jobErr) || jobErr.Retryable() != tt.retryable {
				t.Errorf("retryable = %v, want %v", jobErr != nil && jobErr.Retryable(), tt.retryable)
			}
			if len(tt.fetcher.fetchLang) != tt.fetches {
				t.Errorf("fetch calls = %d, want %d", len(tt.fetcher.fetchLang), tt.fetches)
			}

			if path, _ := artifacts.FindByTaskID("task-x"); path != "" {
				t.Errorf("artifact written on failure: %s", path)
			}
		})
	}
}

func TestCodeOf_Plain(t *testing.T) {
	if got := CodeOf(errors.New("boom")); got != CodeInternal {
		t.Fatalf("CodeOf() = %s, want %s", got, CodeInternal)
	}
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"downsub/internal/models"
)

const sampleVTT = `WEBVTT

00:00:00.000 --> 00:00:01.000
one

00:00:01.000 --> 00:00:02.000
two

00:00:02.000 --> 00:00:03.000
three

00:00:03.000 --> 00:00:04.000
four
`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNormalizeCommand_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.vtt")
	if err := os.WriteFile(path, []byte(sampleVTT), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "", "normalize", path)
	if err != nil {
		t.Fatalf("normalize error = %v", err)
	}
	if out != "one\ntwo\nthree\n\nfour\n" {
		t.Fatalf("output = %q", out)
	}
}

func TestNormalizeCommand_StdinWithParagraph(t *testing.T) {
	out, err := execute(t, sampleVTT, "normalize", "--paragraph", "2", "-")
	if err != nil {
		t.Fatalf("normalize error = %v", err)
	}
	if out != "one\ntwo\n\nthree\nfour\n" {
		t.Fatalf("output = %q", out)
	}
}

func TestNormalizeCommand_MissingFile(t *testing.T) {
	if _, err := execute(t, "", "normalize", filepath.Join(t.TempDir(), "nope.vtt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFetchCommand_RejectsFormat(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown format", []string{"fetch", "--format", "docx", "https://youtu.be/x"}},
		{"srt needs youtube", []string{"fetch", "--fetcher", "ytdlp", "--format", "srt", "https://youtu.be/x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, "", tt.args...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestUnknownFetcher(t *testing.T) {
	_, err := execute(t, "", "tracks", "--fetcher", "vimeo", "https://youtu.be/x")
	if err == nil || !strings.Contains(err.Error(), "unknown fetcher") {
		t.Fatalf("error = %v", err)
	}
}

func TestTrackRowsAndTable(t *testing.T) {
	probe := &models.Probe{Authored: []string{"en"}, Automatic: []string{"en", "fr"}}
	rows := trackRows(probe)
	if len(rows) != 3 || rows[0][1] != "authored" || rows[2][0] != "fr" {
		t.Fatalf("rows = %v", rows)
	}

	table := renderTracks("Some Video", rows)
	for _, want := range []string{"Some Video", "LANGUAGE", "automatic", "fr", "3 TRACKS"} {
		if !strings.Contains(strings.ToUpper(table), strings.ToUpper(want)) {
			t.Fatalf("table missing %q:\n%s", want, table)
		}
	}
	if strings.Contains(renderTracks("", nil), "Some Video") {
		t.Fatal("untitled table carries a title")
	}
}

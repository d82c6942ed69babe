package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"downsub/internal/captions"
)

const timedTextXML = `<?xml version="1.0" encoding="utf-8" ?>
<timedtext format="3">
<body>
<p t="1000" d="1500"><s>hello</s><s t="300"> world</s></p>
<p t="2500" d="1000">plain paragraph</p>
<p t="3500" d="500"></p>
</body>
</timedtext>`

const legacyXML = `<?xml version="1.0" encoding="utf-8" ?>
<transcript>
<text start="0.5" dur="1.25">it&amp;#39;s here</text>
<text start="1.75" dur="2">[Music]</text>
</transcript>`

func TestParseTranscriptXML_TimedText(t *testing.T) {
	result, err := parseTranscriptXML([]byte(timedTextXML))
	if err != nil {
		t.Fatalf("parseTranscriptXML() error = %v", err)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(result.Entries))
	}
	first := result.Entries[0]
	if first.Text != "hello world" || first.StartTime != time.Second || first.Duration != 1500*time.Millisecond {
		t.Errorf("first entry = %+v", first)
	}
	if result.Entries[1].Text != "plain paragraph" {
		t.Errorf("second entry = %+v", result.Entries[1])
	}
}

func TestParseTranscriptXML_Legacy(t *testing.T) {
	result, err := parseTranscriptXML([]byte(legacyXML))
	if err != nil {
		t.Fatalf("parseTranscriptXML() error = %v", err)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(result.Entries))
	}
	if result.Entries[0].Text != "it's here" {
		t.Errorf("text = %q, want unescaped apostrophe", result.Entries[0].Text)
	}
	if result.Entries[0].StartTime != 500*time.Millisecond || result.Entries[0].EndTime() != 1750*time.Millisecond {
		t.Errorf("timing = %+v", result.Entries[0])
	}
}

func TestParseTranscriptXML_Unknown(t *testing.T) {
	if _, err := parseTranscriptXML([]byte(`<html></html>`)); err == nil {
		t.Fatal("expected error for unknown document")
	}
	if _, err := parseTranscriptXML([]byte(`not xml`)); err == nil {
		t.Fatal("expected error for invalid XML")
	}
}

func TestFormatAsVTT_NormalizesToText(t *testing.T) {
	result := &CaptionResult{
		LanguageCode: "en",
		Entries: []CaptionEntry{
			{StartTime: 0, Duration: time.Second, Text: "first"},
			{StartTime: time.Second, Duration: time.Second, Text: "[Music]"},
			{StartTime: 2 * time.Second, Duration: time.Second, Text: "second"},
		},
	}

	vtt := result.FormatAsVTT()
	if !strings.HasPrefix(vtt, "WEBVTT\nKind: captions\nLanguage: en\n") {
		t.Fatalf("unexpected header:\n%s", vtt)
	}
	if !strings.Contains(vtt, "00:00:01.000 --> 00:00:02.000") {
		t.Fatalf("missing cue timing:\n%s", vtt)
	}

	got := captions.Normalize(vtt, captions.Options{})
	if got != "first\nsecond" {
		t.Fatalf("normalized VTT = %q, want %q", got, "first\nsecond")
	}
}

func TestFormatAsSRT(t *testing.T) {
	result := &CaptionResult{Entries: []CaptionEntry{
		{StartTime: 3661 * time.Second, Duration: 250 * time.Millisecond, Text: "late"},
	}}
	want := "1\n01:01:01,000 --> 01:01:01,250\nlate"
	if got := result.FormatAsSRT(); got != want {
		t.Fatalf("FormatAsSRT() = %q, want %q", got, want)
	}
}

func TestFormat(t *testing.T) {
	result := &CaptionResult{Entries: []CaptionEntry{{Duration: time.Second, Text: "hello"}}}

	tests := []struct {
		format string
		want   string
	}{
		{FormatText, "hello"},
		{FormatSRT, "1\n00:00:00,000 --> 00:00:01,000\nhello"},
		{FormatVTT, "WEBVTT\nKind: captions\n\n00:00:00.000 --> 00:00:01.000\nhello"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, err := result.Format(tt.format)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("Format() = %q, want %q", got, tt.want)
			}
		})
	}

	if out, err := result.Format(FormatJSON); err != nil || !strings.Contains(out, `"text": "hello"`) {
		t.Fatalf("Format(json) = %q, %v", out, err)
	}
	if _, err := result.Format("docx"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestFetchCaptionByURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/xml")
		w.Write([]byte(timedTextXML))
	}))
	defer srv.Close()

	c := NewClientWithHTTP(srv.Client())

	result, err := c.FetchCaptionByURL(context.Background(), srv.URL+"/track")
	if err != nil {
		t.Fatalf("FetchCaptionByURL() error = %v", err)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("got %d entries", len(result.Entries))
	}

	if _, err := c.FetchCaptionByURL(context.Background(), srv.URL+"/missing"); err == nil {
		t.Fatal("expected error for 404")
	}
}

func TestFindCaption(t *testing.T) {
	video := &VideoInfo{Captions: []CaptionTrack{
		{LanguageCode: "en", Automatic: true, BaseURL: "auto"},
		{LanguageCode: "en", BaseURL: "authored"},
		{LanguageCode: "fr", Automatic: true, BaseURL: "fr-auto"},
	}}

	if got := video.FindCaption("en"); got == nil || got.BaseURL != "authored" {
		t.Errorf("FindCaption(en) = %+v, want authored track", got)
	}
	if got := video.FindCaption("fr"); got == nil || got.BaseURL != "fr-auto" {
		t.Errorf("FindCaption(fr) = %+v, want automatic track", got)
	}
	if got := video.FindCaption("de"); got != nil {
		t.Errorf("FindCaption(de) = %+v, want nil", got)
	}
}

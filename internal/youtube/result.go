package youtube

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// CaptionEntry is one timed caption
type CaptionEntry struct {
	StartTime time.Duration `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	Text      string        `json:"text"`
}

// EndTime returns the end of the caption
func (e *CaptionEntry) EndTime() time.Duration {
	return e.StartTime + e.Duration
}

// CaptionResult is a fetched caption track
type CaptionResult struct {
	LanguageCode string         `json:"language_code"`
	Entries      []CaptionEntry `json:"entries"`
}

// FormatAsText writes the captions as plain text, one entry per line
func (r *CaptionResult) FormatAsText() string {
	var sb strings.Builder
	for _, entry := range r.Entries {
		sb.WriteString(entry.Text)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

// FormatAsJSON writes the captions as indented JSON
func (r *CaptionResult) FormatAsJSON() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// FormatAsSRT writes the captions as SubRip
func (r *CaptionResult) FormatAsSRT() string {
	var sb strings.Builder
	for i, entry := range r.Entries {
		fmt.Fprintf(&sb, "%d\n", i+1)
		fmt.Fprintf(&sb, "%s --> %s\n", formatSRTTime(entry.StartTime), formatSRTTime(entry.EndTime()))
		sb.WriteString(entry.Text)
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String())
}

// FormatAsVTT writes the captions as WebVTT with the header YouTube emits.
// Cues carry no identifiers so that every non-timing line is caption text.
func (r *CaptionResult) FormatAsVTT() string {
	var sb strings.Builder
	sb.WriteString("WEBVTT\nKind: captions\n")
	if r.LanguageCode != "" {
		fmt.Fprintf(&sb, "Language: %s\n", r.LanguageCode)
	}
	sb.WriteString("\n")
	for _, entry := range r.Entries {
		fmt.Fprintf(&sb, "%s --> %s\n", formatVTTTime(entry.StartTime), formatVTTTime(entry.EndTime()))
		sb.WriteString(entry.Text)
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String())
}

// Output formats accepted by Format
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatSRT  = "srt"
	FormatVTT  = "vtt"
)

// Format renders the captions in the named output format
func (r *CaptionResult) Format(format string) (string, error) {
	switch format {
	case FormatText:
		return r.FormatAsText(), nil
	case FormatJSON:
		return r.FormatAsJSON()
	case FormatSRT:
		return r.FormatAsSRT(), nil
	case FormatVTT:
		return r.FormatAsVTT(), nil
	default:
		return "", fmt.Errorf("unknown caption format %q", format)
	}
}

// formatSRTTime formats HH:MM:SS,mmm
func formatSRTTime(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	ms := int(d.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// formatVTTTime formats HH:MM:SS.mmm
func formatVTTTime(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	ms := int(d.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

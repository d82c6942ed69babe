package captions

import (
	"regexp"
	"strings"
)

// DefaultParagraphSize is the number of caption lines grouped into one paragraph
const DefaultParagraphSize = 3

var (
	timestampLine = regexp.MustCompile(`^(\d{2,}:)?\d{2}:\d{2}[.,]\d{3}\s+-->\s+(\d{2,}:)?\d{2}:\d{2}[.,]\d{3}`)
	markupTag     = regexp.MustCompile(`<[^>]*>`)
)

// Options controls the output layout of Normalize
type Options struct {
	// ParagraphSize groups retained lines into paragraphs separated by a blank line.
	// Zero or negative writes one line per caption with no grouping.
	ParagraphSize int
}

// Lines returns the caption text lines of a WebVTT payload in source order,
// with cue timings, annotations, headers and markup removed and adjacent repeats collapsed.
func Lines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")

	var lines []string
	var prev string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isMetadataLine(line) {
			continue
		}

		// a stripped line is checked again so that normalizing twice is a no-op
		line = strings.TrimSpace(markupTag.ReplaceAllString(line, ""))
		if line == "" || isMetadataLine(line) {
			continue
		}

		// YouTube rolling captions repeat the previous cue's text
		if len(lines) > 0 && line == prev {
			continue
		}
		lines = append(lines, line)
		prev = line
	}
	return lines
}

// Normalize converts a raw WebVTT payload into plain text paragraphs
func Normalize(raw string, opts Options) string {
	lines := Lines(raw)
	if opts.ParagraphSize <= 0 {
		return strings.TrimSpace(strings.Join(lines, "\n"))
	}

	var sb strings.Builder
	for i := 0; i < len(lines); i += opts.ParagraphSize {
		end := min(i+opts.ParagraphSize, len(lines))
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(strings.Join(lines[i:end], "\n"))
	}
	return strings.TrimSpace(sb.String())
}

func isMetadataLine(line string) bool {
	switch {
	case timestampLine.MatchString(line):
		return true
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return true
	case line == "WEBVTT", line == "Kind: captions":
		return true
	case strings.HasPrefix(line, "Language:"):
		return true
	}
	return false
}

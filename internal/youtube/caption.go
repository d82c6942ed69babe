package youtube

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"downsub/internal/models"
)

// timedtext format 3: <timedtext><body><p t="ms" d="ms"><s>..</s></p></body></timedtext>
type xmlTimedText struct {
	Paragraphs []xmlParagraph `xml:"body>p"`
}

type xmlParagraph struct {
	Start    int64        `xml:"t,attr"`
	Duration int64        `xml:"d,attr"`
	Text     string       `xml:",chardata"`
	Segments []xmlSegment `xml:"s"`
}

type xmlSegment struct {
	Text string `xml:",chardata"`
}

// legacy format: <transcript><text start="s" dur="s">..</text></transcript>
type xmlTranscript struct {
	Texts []xmlLegacyText `xml:"text"`
}

type xmlLegacyText struct {
	Start    float64 `xml:"start,attr"`
	Duration float64 `xml:"dur,attr"`
	Text     string  `xml:",chardata"`
}

// FetchCaption fetches the caption track for lang
func (c *Client) FetchCaption(ctx context.Context, video *VideoInfo, lang string) (*CaptionResult, error) {
	track := video.FindCaption(lang)
	if track == nil {
		return nil, fmt.Errorf("video %s has no %q captions: %w", video.ID, lang, models.ErrTrackNotFound)
	}

	result, err := c.FetchCaptionByURL(ctx, track.BaseURL)
	if err != nil {
		return nil, err
	}

	result.LanguageCode = track.LanguageCode
	return result, nil
}

// FetchCaptionByURL fetches and parses a caption track from its URL
func (c *Client) FetchCaptionByURL(ctx context.Context, url string) (*CaptionResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return parseTranscriptXML(body)
}

// parseTranscriptXML parses either timedtext format into a CaptionResult
func parseTranscriptXML(data []byte) (*CaptionResult, error) {
	var root struct {
		XMLName xml.Name
	}
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("XML parse failed: %w", err)
	}

	switch root.XMLName.Local {
	case "timedtext":
		return parseTimedText(data)
	case "transcript":
		return parseLegacyTranscript(data)
	default:
		return nil, fmt.Errorf("unknown caption document <%s>", root.XMLName.Local)
	}
}

func parseTimedText(data []byte) (*CaptionResult, error) {
	var doc xmlTimedText
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("XML parse failed: %w", err)
	}

	entries := make([]CaptionEntry, 0, len(doc.Paragraphs))
	for _, p := range doc.Paragraphs {
		text := p.Text
		if len(p.Segments) > 0 {
			var sb strings.Builder
			for _, seg := range p.Segments {
				sb.WriteString(seg.Text)
			}
			text = sb.String()
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		entries = append(entries, CaptionEntry{
			StartTime: time.Duration(p.Start) * time.Millisecond,
			Duration:  time.Duration(p.Duration) * time.Millisecond,
			Text:      text,
		})
	}

	return &CaptionResult{Entries: entries}, nil
}

func parseLegacyTranscript(data []byte) (*CaptionResult, error) {
	var doc xmlTranscript
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("XML parse failed: %w", err)
	}

	entries := make([]CaptionEntry, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		// legacy tracks double-escape entities such as &amp;#39;
		text := strings.TrimSpace(html.UnescapeString(t.Text))
		if text == "" {
			continue
		}
		entries = append(entries, CaptionEntry{
			StartTime: time.Duration(t.Start * float64(time.Second)),
			Duration:  time.Duration(t.Duration * float64(time.Second)),
			Text:      text,
		})
	}

	return &CaptionResult{Entries: entries}, nil
}

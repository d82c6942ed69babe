// Package ytdlp fetches captions through the yt-dlp binary.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"downsub/internal/models"
)

// DefaultBinary is looked up on PATH when no explicit path is configured
const DefaultBinary = "yt-dlp"

// Client runs yt-dlp to probe videos and download caption tracks
type Client struct {
	binaryPath string
}

// NewClient creates a Client for the yt-dlp binary at binaryPath
func NewClient(binaryPath string) *Client {
	if strings.TrimSpace(binaryPath) == "" {
		binaryPath = DefaultBinary
	}
	return &Client{binaryPath: binaryPath}
}

// CheckBinary reports whether the configured binary can be found
func (c *Client) CheckBinary() error {
	if _, err := exec.LookPath(c.binaryPath); err != nil {
		return fmt.Errorf("missing dependency: %s is not installed or not on PATH", c.binaryPath)
	}
	return nil
}

type probeJSON struct {
	ID                string                     `json:"id"`
	Title             string                     `json:"title"`
	Subtitles         map[string]json.RawMessage `json:"subtitles"`
	AutomaticCaptions map[string]json.RawMessage `json:"automatic_captions"`
}

// Probe lists the caption languages of a video without downloading anything
func (c *Client) Probe(ctx context.Context, url string) (*models.Probe, error) {
	out, err := c.run(ctx, "--skip-download", "--dump-single-json", "--no-playlist", "--no-warnings", url)
	if err != nil {
		return nil, err
	}
	return parseProbe(out)
}

func parseProbe(data []byte) (*models.Probe, error) {
	var info probeJSON
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to decode yt-dlp metadata: %w", err)
	}
	if info.ID == "" {
		return nil, errors.New("yt-dlp metadata has no video id")
	}
	return &models.Probe{
		VideoID:   info.ID,
		Title:     info.Title,
		Authored:  trackLanguages(info.Subtitles),
		Automatic: trackLanguages(info.AutomaticCaptions),
	}, nil
}

// trackLanguages returns the sorted language keys, skipping live chat replays
func trackLanguages(tracks map[string]json.RawMessage) []string {
	langs := make([]string, 0, len(tracks))
	for lang := range tracks {
		if lang == "live_chat" {
			continue
		}
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

type printedInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Fetch downloads the WebVTT track for lang into a scratch directory and returns its content
func (c *Client) Fetch(ctx context.Context, url, lang string) (*models.CaptionPayload, error) {
	dir, err := os.MkdirTemp("", "downsub-ytdlp-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	out, err := c.run(ctx,
		"--skip-download",
		"--no-simulate",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", lang,
		"--sub-format", "vtt",
		"--no-playlist",
		"--no-warnings",
		"--print", "%(.{id,title})j",
		"-o", filepath.Join(dir, "%(id)s.%(ext)s"),
		url,
	)
	if err != nil {
		return nil, err
	}

	info, err := parsePrinted(out)
	if err != nil {
		return nil, err
	}

	// yt-dlp names subtitle files <id>.<lang>.<ext>
	vttPath := filepath.Join(dir, info.ID+"."+lang+".vtt")
	raw, err := os.ReadFile(vttPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("subtitle file for video %s (%s): %w", info.ID, lang, models.ErrTrackNotFound)
		}
		return nil, fmt.Errorf("failed to read subtitle file: %w", err)
	}

	payload := &models.CaptionPayload{
		VideoID:  info.ID,
		Title:    info.Title,
		Language: lang,
		Raw:      string(raw),
	}
	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("video %s (%s): %w", info.ID, lang, err)
	}
	return payload, nil
}

func parsePrinted(out []byte) (*printedInfo, error) {
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var info printedInfo
		if err := json.Unmarshal([]byte(line), &info); err != nil {
			return nil, fmt.Errorf("failed to decode yt-dlp output: %w", err)
		}
		if info.ID == "" {
			break
		}
		return &info, nil
	}
	return nil, errors.New("yt-dlp printed no video id")
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.binaryPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlp failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

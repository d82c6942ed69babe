package youtube

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"downsub/internal/models"

	"github.com/kkdai/youtube/v2"
)

// kindAutomatic marks speech-recognition caption tracks
const kindAutomatic = "asr"

// Client wraps the YouTube API for caption retrieval
type Client struct {
	client     youtube.Client
	httpClient *http.Client
}

// NewClient creates a Client using the default HTTP client
func NewClient() *Client {
	return NewClientWithHTTP(http.DefaultClient)
}

// NewClientWithHTTP creates a Client that sends every request through hc
func NewClientWithHTTP(hc *http.Client) *Client {
	return &Client{
		client:     youtube.Client{HTTPClient: hc},
		httpClient: hc,
	}
}

// VideoInfo is the metadata of one video
type VideoInfo struct {
	ID          string
	Title       string
	Author      string
	Duration    time.Duration
	Description string
	Captions    []CaptionTrack
}

// CaptionTrack describes one caption track of a video
type CaptionTrack struct {
	LanguageCode string
	Name         string
	BaseURL      string
	Automatic    bool
}

// GetVideo fetches video metadata and its caption tracks
func (c *Client) GetVideo(ctx context.Context, url string) (*VideoInfo, error) {
	video, err := c.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, err
	}

	captions := make([]CaptionTrack, len(video.CaptionTracks))
	for i, track := range video.CaptionTracks {
		captions[i] = CaptionTrack{
			LanguageCode: track.LanguageCode,
			Name:         track.Name.SimpleText,
			BaseURL:      track.BaseURL,
			Automatic:    track.Kind == kindAutomatic,
		}
	}

	return &VideoInfo{
		ID:          video.ID,
		Title:       video.Title,
		Author:      video.Author,
		Duration:    video.Duration,
		Description: video.Description,
		Captions:    captions,
	}, nil
}

// FindCaption returns the track for lang, preferring an authored track over an automatic one.
// It returns nil when the video has no track in that language.
func (v *VideoInfo) FindCaption(lang string) *CaptionTrack {
	var fallback *CaptionTrack
	for i := range v.Captions {
		if v.Captions[i].LanguageCode != lang {
			continue
		}
		if !v.Captions[i].Automatic {
			return &v.Captions[i]
		}
		if fallback == nil {
			fallback = &v.Captions[i]
		}
	}
	return fallback
}

// HasCaptions reports whether any caption track is available
func (v *VideoInfo) HasCaptions() bool {
	return len(v.Captions) > 0
}

// Probe lists the caption languages of a video without downloading any track
func (c *Client) Probe(ctx context.Context, url string) (*models.Probe, error) {
	video, err := c.GetVideo(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	probe := &models.Probe{VideoID: video.ID, Title: video.Title}
	for _, track := range video.Captions {
		if track.Automatic {
			probe.Automatic = append(probe.Automatic, track.LanguageCode)
		} else {
			probe.Authored = append(probe.Authored, track.LanguageCode)
		}
	}
	return probe, nil
}

// Fetch downloads the caption track for lang and returns it as WebVTT
func (c *Client) Fetch(ctx context.Context, url, lang string) (*models.CaptionPayload, error) {
	video, err := c.GetVideo(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	result, err := c.FetchCaption(ctx, video, lang)
	if err != nil {
		return nil, err
	}

	payload := &models.CaptionPayload{
		VideoID:  video.ID,
		Title:    video.Title,
		Language: result.LanguageCode,
		Raw:      result.FormatAsVTT(),
	}
	if len(result.Entries) == 0 {
		return nil, fmt.Errorf("video %s (%s): %w", video.ID, lang, models.ErrEmptyCaption)
	}
	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("video %s (%s): %w", video.ID, lang, err)
	}
	return payload, nil
}

package models

import (
	"errors"
	"strings"

	"downsub/internal/language"
)

// Adapter errors shared by every media fetcher
var (
	// ErrEmptyCaption is returned when a caption payload carries no text
	ErrEmptyCaption = errors.New("caption payload is empty")
	// ErrTrackNotFound is returned when the requested caption track is not offered or not produced
	ErrTrackNotFound = errors.New("caption track not found")
)

// Probe is the download-free inspection result of a video
type Probe struct {
	VideoID   string
	Title     string
	Authored  []string // author-provided caption languages
	Automatic []string // automatically generated caption languages
}

// Languages returns every caption language the video offers
func (p *Probe) Languages() []string {
	return language.Union(p.Authored, p.Automatic)
}

// CaptionPayload is one downloaded caption track in WebVTT form
type CaptionPayload struct {
	VideoID  string
	Title    string
	Language string
	Raw      string
}

// Validate checks the payload before it enters the pipeline
func (p *CaptionPayload) Validate() error {
	if strings.TrimSpace(p.VideoID) == "" {
		return errors.New("caption payload has no video id")
	}
	if strings.TrimSpace(p.Raw) == "" {
		return ErrEmptyCaption
	}
	return nil
}

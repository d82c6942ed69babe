package main

import (
	"context"
	"fmt"
	"os"

	"downsub/internal/captions"
	"downsub/internal/config"
	"downsub/internal/language"
	"downsub/internal/youtube"

	"github.com/spf13/cobra"
)

// formatPlain is the normalized paragraph output the service stores
const formatPlain = "plain"

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var (
		lang       string
		paragraph  int
		format     string
		outputFile string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Download the captions of a video",
		Long: `Download the captions of a video in the requested language.

The language resolves the same way the service does: an exact track first,
then a regional variant such as en-US for en.

Formats:
  plain  normalized paragraphs, as stored by the service (default)
  vtt    WebVTT as returned by the backend
  text   one caption per line (youtube fetcher only)
  json   caption entries with timings (youtube fetcher only)
  srt    SubRip (youtube fetcher only)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := args[0]
			switch format {
			case formatPlain, youtube.FormatVTT:
			case youtube.FormatText, youtube.FormatJSON, youtube.FormatSRT:
				if ctx.fetcher != config.FetcherYouTube {
					return fmt.Errorf("format %s requires the youtube fetcher", format)
				}
			default:
				return fmt.Errorf("invalid format %q", format)
			}

			fetcher, err := ctx.newFetcher()
			if err != nil {
				return err
			}

			callCtx, cancel := context.WithTimeout(cmd.Context(), ctx.timeout)
			defer cancel()

			probe, err := fetcher.Probe(callCtx, url)
			if err != nil {
				return fmt.Errorf("probe %s: %w", url, err)
			}
			matched, ok := language.Match(probe.Languages(), lang)
			if !ok {
				return fmt.Errorf("no caption track matches %q (available: %v)", lang, probe.Languages())
			}
			if verbose {
				fmt.Fprintf(cmd.ErrOrStderr(), "Fetching %q captions (%s) for %s\n", matched, lang, probe.Title)
			}

			var output string
			switch format {
			case youtube.FormatText, youtube.FormatJSON, youtube.FormatSRT:
				output, err = fetchFormatted(callCtx, url, matched, format)
				if err != nil {
					return err
				}
			default:
				payload, err := fetcher.Fetch(callCtx, url, matched)
				if err != nil {
					return fmt.Errorf("fetch captions: %w", err)
				}
				if err := payload.Validate(); err != nil {
					return err
				}
				output = payload.Raw
				if format == formatPlain {
					output = captions.Normalize(payload.Raw, captions.Options{ParagraphSize: paragraph})
				}
			}

			if outputFile == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
				return err
			}
			if err := os.WriteFile(outputFile, []byte(output), 0644); err != nil {
				return fmt.Errorf("write output file: %w", err)
			}
			if verbose {
				fmt.Fprintf(cmd.ErrOrStderr(), "Output written to: %s\n", outputFile)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "en", "Caption language code")
	cmd.Flags().IntVar(&paragraph, "paragraph", captions.DefaultParagraphSize, "Lines per paragraph for plain output")
	cmd.Flags().StringVarP(&format, "format", "f", formatPlain, "Output format: plain, vtt, text, json, srt")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	return cmd
}

func fetchFormatted(ctx context.Context, url, lang, format string) (string, error) {
	client := youtube.NewClient()
	video, err := client.GetVideo(ctx, url)
	if err != nil {
		return "", fmt.Errorf("get video: %w", err)
	}
	result, err := client.FetchCaption(ctx, video, lang)
	if err != nil {
		return "", fmt.Errorf("fetch captions: %w", err)
	}
	return result.Format(format)
}

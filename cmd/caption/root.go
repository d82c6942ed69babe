package main

import (
	"fmt"
	"time"

	"downsub/internal/config"
	"downsub/internal/jobs"
	"downsub/internal/youtube"
	"downsub/internal/ytdlp"

	"github.com/spf13/cobra"
)

type commandContext struct {
	fetcher   string
	ytdlpPath string
	timeout   time.Duration
}

func (c *commandContext) newFetcher() (jobs.MediaFetcher, error) {
	switch c.fetcher {
	case config.FetcherYouTube:
		return youtube.NewClient(), nil
	case config.FetcherYtDlp:
		client := ytdlp.NewClient(c.ytdlpPath)
		if err := client.CheckBinary(); err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown fetcher %q (want %s or %s)", c.fetcher, config.FetcherYouTube, config.FetcherYtDlp)
	}
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "caption",
		Short:         "Inspect, download and normalize video captions",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.fetcher, "fetcher", config.FetcherYouTube, "Media backend: youtube or ytdlp")
	rootCmd.PersistentFlags().StringVar(&ctx.ytdlpPath, "ytdlp-path", ytdlp.DefaultBinary, "Path to the yt-dlp binary")
	rootCmd.PersistentFlags().DurationVar(&ctx.timeout, "timeout", jobs.DefaultFetchTimeout, "Timeout for each remote call")

	rootCmd.AddCommand(newTracksCommand(ctx))
	rootCmd.AddCommand(newFetchCommand(ctx))
	rootCmd.AddCommand(newNormalizeCommand())

	return rootCmd
}

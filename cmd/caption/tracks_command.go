package main

import (
	"context"
	"fmt"

	"downsub/internal/models"

	"github.com/spf13/cobra"
)

func newTracksCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tracks <url>",
		Short: "List the caption languages a video offers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher, err := ctx.newFetcher()
			if err != nil {
				return err
			}

			callCtx, cancel := context.WithTimeout(cmd.Context(), ctx.timeout)
			defer cancel()
			probe, err := fetcher.Probe(callCtx, args[0])
			if err != nil {
				return fmt.Errorf("probe %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Video ID: %s\n", probe.VideoID)
			if len(probe.Languages()) == 0 {
				fmt.Fprintf(out, "Title:    %s\nNo captions available\n", probe.Title)
				return nil
			}
			fmt.Fprintln(out, renderTracks(probe.Title, trackRows(probe)))
			return nil
		},
	}
}

func trackRows(probe *models.Probe) [][]string {
	rows := make([][]string, 0, len(probe.Authored)+len(probe.Automatic))
	for _, lang := range probe.Authored {
		rows = append(rows, []string{lang, "authored"})
	}
	for _, lang := range probe.Automatic {
		rows = append(rows, []string{lang, "automatic"})
	}
	return rows
}

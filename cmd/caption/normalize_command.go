package main

import (
	"fmt"
	"io"
	"os"

	"downsub/internal/captions"

	"github.com/spf13/cobra"
)

func newNormalizeCommand() *cobra.Command {
	var paragraph int

	cmd := &cobra.Command{
		Use:   "normalize <file|->",
		Short: "Turn a WebVTT or SRT caption file into plain paragraphs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read captions: %w", err)
			}

			text := captions.Normalize(string(data), captions.Options{ParagraphSize: paragraph})
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}

	cmd.Flags().IntVar(&paragraph, "paragraph", captions.DefaultParagraphSize, "Lines per paragraph (0 disables grouping)")
	return cmd
}

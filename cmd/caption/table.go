package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// renderTracks draws the caption tracks of one video, titled with the video
// and footed with the track count
func renderTracks(title string, rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Title.Align = text.AlignCenter
	if title != "" {
		tw.SetTitle(title)
	}

	tw.AppendHeader(table.Row{"#", "Language", "Kind"})
	for i, row := range rows {
		r := table.Row{i + 1, "", ""}
		for j := 0; j < len(row) && j < 2; j++ {
			r[j+1] = row[j]
		}
		tw.AppendRow(r)
	}
	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d tracks", len(rows)), ""})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignRight},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}

package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sitesCmd)
}

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Prints the supported sites and their product URL patterns.",
	Run: func(cmd *cobra.Command, args []string) {
		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Site", "URL pattern", "Frame", "Timezone"})

		for _, p := range registry.Profiles() {
			info := p.Info()
			frame := "-"
			if info.InFrame {
				frame = p.Layout.Frame
			}
			t.AppendRow(table.Row{info.Name, info.Pattern, frame, info.Timezone})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}

package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/reviewharvest/harvest"
	"github.com/use-agent/reviewharvest/models"
	"github.com/use-agent/reviewharvest/sites"
	"github.com/use-agent/reviewharvest/snapshot"
)

var (
	replaySite     string
	replayMax      int
	replayOutput   string
	replayDump     string
	replayPreview  int
	replayNoExport bool
)

func init() {
	replayCmd.Flags().StringVar(&replaySite, "site", "", "Site profile used to read the pages. Required.")
	replayCmd.Flags().IntVar(&replayMax, "max", 0, "Reviews to collect (default $HARVEST_DEFAULT_MAX).")
	replayCmd.Flags().StringVarP(&replayOutput, "output", "o", "", "Output directory (default $HARVEST_OUTPUT_DIR or ./output).")
	replayCmd.Flags().StringVar(&replayDump, "dump", "", "Write the final document, markers included, to this file.")
	replayCmd.Flags().IntVar(&replayPreview, "preview", 5, "Print the first N reviews as a table; 0 disables.")
	replayCmd.Flags().BoolVar(&replayNoExport, "no-export", false, "Skip writing the CSV file.")
	_ = replayCmd.MarkFlagRequired("site")
	rootCmd.AddCommand(replayCmd)
}

var replayCmd = &cobra.Command{
	Use:   "replay --site <name> <page.html>...",
	Short: "Runs the extraction loop over saved review pages, one page per load-more.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, ok := registry.Lookup(replaySite)
		if !ok {
			return models.NewHarvestError(models.ErrCodeUnsupportedSource,
				fmt.Sprintf("unknown site %q", replaySite), nil)
		}

		maxCount := replayMax
		if maxCount == 0 {
			maxCount = cfg.Harvest.DefaultMaxCount
		}

		panel, err := snapshot.Open(profile.Layout, cfg.Harvest.Marker, args...)
		if err != nil {
			return err
		}

		h := harvest.New(panel, profile.Extractor(),
			harvest.WithLogger(slog.With("site", profile.Name, "mode", "replay")),
			harvest.WithMaxStalls(cfg.Harvest.MaxStalls),
		)
		res := h.Run(cmd.Context(), maxCount)

		if replayDump != "" {
			if err := writeDump(replayDump, panel); err != nil {
				return err
			}
		}

		return finish(cmd, runSummary{
			match:    &sites.Match{Profile: profile, URL: args[0]},
			maxCount: maxCount,
			result:   res,
			outDir:   outputDir(replayOutput),
			export:   !replayNoExport,
			preview:  replayPreview,
		})
	},
}

// writeDump renders r into a new file at path.
func writeDump(path string, r interface{ Render(io.Writer) error }) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dump file: %w", err)
	}
	if err := r.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to render dump: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close dump file: %w", err)
	}
	return nil
}

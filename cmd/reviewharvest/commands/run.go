package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/use-agent/reviewharvest/models"
	"github.com/use-agent/reviewharvest/scraper"
	"github.com/use-agent/reviewharvest/webhook"
)

var (
	runOutput   string
	runPreview  int
	runHeadful  bool
	runNoExport bool
)

func init() {
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Output directory (default $HARVEST_OUTPUT_DIR or ./output).")
	runCmd.Flags().IntVar(&runPreview, "preview", 5, "Print the first N reviews as a table; 0 disables.")
	runCmd.Flags().BoolVar(&runHeadful, "headful", false, "Show the browser window.")
	runCmd.Flags().BoolVar(&runNoExport, "no-export", false, "Skip writing the CSV file.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run <product-url> [max-count]",
	Short: "Harvests reviews from a product page and writes them to a CSV file.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		maxCount, err := parseMaxCount(args[1:], cfg.Harvest.DefaultMaxCount)
		if err != nil {
			return err
		}

		// Unsupported URLs fail here, before a browser is started.
		match, err := registry.Resolve(args[0])
		if err != nil {
			return err
		}
		slog.Info("harvest starting",
			"site", match.Profile.Name,
			"product_id", match.ProductID,
			"max_count", maxCount,
		)

		outDir := outputDir(runOutput)
		if runHeadful {
			cfg.Browser.Headless = false
		}
		cfg.Browser.MaxPages = 1

		sc, err := scraper.NewScraper(cfg.Browser, cfg.Scraper, cfg.Harvest)
		if err != nil {
			return err
		}
		defer sc.Close()
		if cfg.Export.Screenshots {
			sc.SetScreenshotDir(filepath.Join(outDir, "screenshots"))
		}

		res, err := sc.Harvest(cmd.Context(), match, maxCount)
		if err != nil {
			var detail *models.ErrorDetail
			var herr *models.HarvestError
			if errors.As(err, &herr) {
				detail = herr.ToDetail()
			}
			notify(webhook.EventHarvestFailed, "", webhook.Summary{
				Site:      match.Profile.Name,
				ProductID: match.ProductID,
				URL:       match.URL,
				MaxCount:  maxCount,
				Error:     detail,
			})
			return err
		}

		return finish(cmd, runSummary{
			match:    match,
			maxCount: maxCount,
			result:   res,
			outDir:   outDir,
			export:   !runNoExport,
			preview:  runPreview,
		})
	},
}

// parseMaxCount reads the optional count argument.
func parseMaxCount(args []string, fallback int) (int, error) {
	if len(args) == 0 {
		return fallback, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, models.NewHarvestError(models.ErrCodeInvalidInput,
			fmt.Sprintf("max-count must be a positive integer, got %q", args[0]), err)
	}
	return n, nil
}

// outputDir picks the flag value, falling back to configuration.
func outputDir(flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.Export.OutputDir
}

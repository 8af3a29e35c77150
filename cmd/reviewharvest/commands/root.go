package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/use-agent/reviewharvest/config"
	"github.com/use-agent/reviewharvest/logging"
	"github.com/use-agent/reviewharvest/sites"
)

var (
	cfg      *config.Config
	registry *sites.Registry

	envFile string
)

var rootCmd = &cobra.Command{
	Use:           "reviewharvest",
	Short:         "reviewharvest collects product reviews from shop review panels into CSV files.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnv(envFile); err != nil {
			return err
		}
		cfg = config.Load()
		logging.Init(cfg.Log)

		reg, err := sites.Load(cfg.ProfilesPath)
		if err != nil {
			return err
		}
		registry = reg
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before reading HARVEST_* settings.")
}

// loadEnv loads path if it exists. Variables already set win.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	slog.Debug("environment file loaded", "path", path)
	return nil
}

// ExecuteContext runs the command tree with ctx, printing any error and
// exiting non-zero on failure.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

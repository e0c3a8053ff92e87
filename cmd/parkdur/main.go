package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"parkdur/internal/config"
	"parkdur/internal/ingest"
	"parkdur/internal/logging"
	"parkdur/internal/publish"
	"parkdur/internal/reconcile"
	"parkdur/internal/report"
	"parkdur/internal/storage"
	"parkdur/internal/summary"
)

var (
	configPath      string
	sourceFolder    string
	outputFile      string
	timestampFormat string
	recursive       bool
)

var rootCmd = &cobra.Command{
	Use:   "parkdur",
	Short: "Aggregate parking durations by licence plate from ENTRY/EXIT exports",
	Long: `parkdur reads ENTRY/EXIT events from Excel and CSV exports, pairs them
into stay intervals per licence plate, flags sequences that cannot be
cleanly paired, and writes per-plate monthly totals to an Excel report.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to the YAML/JSON configuration file")
	rootCmd.Flags().StringVar(&sourceFolder, "source-folder", "", "override source folder containing the export files")
	rootCmd.Flags().StringVar(&outputFile, "output-file", "", "override destination Excel file for aggregated results")
	rootCmd.Flags().StringVar(&timestampFormat, "timestamp-format", "", "override timestamp layout (Go reference time)")
	rootCmd.Flags().BoolVar(&recursive, "recursive", false, "recursively search the source folder")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyOverrides(cmd, cfg)
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.LogLevel, os.Stderr)
	ctx := context.Background()

	files, err := ingest.DiscoverFiles(cfg.SourceFolder, cfg.Recursive)
	if err != nil {
		return fmt.Errorf("discover input files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no input files found in %s; check the source folder in the configuration", cfg.SourceFolder)
	}

	events, stats := ingest.LoadEvents(files, cfg, logger)
	logger.Info("load finished",
		"files_read", stats.FilesRead,
		"files_skipped", stats.FilesSkipped,
		"rows_loaded", stats.RowsLoaded,
		"rows_dropped", stats.RowsDropped,
	)
	if len(events) == 0 {
		return errors.New("no valid events could be read from the input files")
	}

	intervals, anomalies, err := reconcile.Reconcile(events)
	if err != nil {
		return fmt.Errorf("reconcile events: %w", err)
	}
	monthly := summary.Summarize(intervals)
	logger.Info("reconciliation finished",
		"events", len(events),
		"intervals", len(intervals),
		"anomalies", len(anomalies),
		"monthly_rows", len(monthly),
	)

	if err := report.Write(cfg.OutputFile, intervals, monthly, anomalies); err != nil {
		return err
	}

	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		if err := store.Init(ctx); err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		if err := store.SaveIntervals(ctx, intervals); err != nil {
			return fmt.Errorf("persist intervals: %w", err)
		}
		if err := store.SaveSummaries(ctx, monthly); err != nil {
			return fmt.Errorf("persist monthly totals: %w", err)
		}
		if err := store.SaveAnomalies(ctx, anomalies); err != nil {
			return fmt.Errorf("persist anomalies: %w", err)
		}
		logger.Info("results persisted", "driver", cfg.Storage.Driver)
	}

	if err := publish.Anomalies(ctx, cfg.Publish, anomalies, logger); err != nil {
		return fmt.Errorf("publish anomalies: %w", err)
	}

	fmt.Printf("Saved aggregated results to %s\n", cfg.OutputFile)
	return nil
}

// loadConfig reads the config file. A missing file is only fatal when the
// user pointed at it explicitly; otherwise flags over defaults suffice.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err == nil {
		return cfg, nil
	}
	if os.IsNotExist(err) && !cmd.Flags().Changed("config") {
		cfg = config.DefaultConfig()
		config.ApplyDefaults(cfg)
		return cfg, nil
	}
	return nil, fmt.Errorf("load config %s: %w", configPath, err)
}

func applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	if sourceFolder != "" {
		cfg.SourceFolder = sourceFolder
	}
	if outputFile != "" {
		cfg.OutputFile = outputFile
	}
	if timestampFormat != "" {
		cfg.TimestampFormat = timestampFormat
	}
	if cmd.Flags().Changed("recursive") {
		cfg.Recursive = recursive
	}
}

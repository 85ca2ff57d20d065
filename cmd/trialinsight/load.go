package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Josconicme/trial-insight/internal/metrics"
	"github.com/Josconicme/trial-insight/internal/transport/registry"
	loaduc "github.com/Josconicme/trial-insight/internal/usecase/load"
	pipelineuc "github.com/Josconicme/trial-insight/internal/usecase/pipeline"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Fetch all studies from the registry and reload the store",
	Long: `Load pages through the registry, normalizes every study and replaces the
stored trials in batches. Nothing is written when the registry returns no
usable study.`,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().Int("max-pages", -1, "stop after this many registry pages (default: registry.max_pages)")
	loadCmd.Flags().Int("batch-size", 0, "trials per store write (default: pipeline.batch_size)")

	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, _ []string) error {
	cfg := cli.cfg
	if n, _ := cmd.Flags().GetInt("max-pages"); n >= 0 {
		cfg.Registry.MaxPages = n
	}
	if n, _ := cmd.Flags().GetInt("batch-size"); n > 0 {
		cfg.Pipeline.BatchSize = n
	}

	metrics.RegisterPipelineMetrics()

	fetcher := registry.New(&registry.Config{
		BaseURL:    cfg.Registry.BaseURL,
		PageSize:   cfg.Registry.PageSize,
		MaxPages:   cfg.Registry.MaxPages,
		MaxRetries: cfg.Registry.MaxRetries,
		RetryDelay: cfg.Registry.RetryDelay(),
		Timeout:    cfg.Registry.Timeout(),
		Logger:     cli.logger,
	})
	loader := loaduc.New(cli.repo, cfg.Pipeline.BatchSize)

	res, err := pipelineuc.New(fetcher, loader, cli.logger).Run(cmd.Context())
	if err != nil {
		cli.logger.Error("Pipeline failed", zap.String("run_id", res.RunID), zap.Error(err))
		return fmt.Errorf("pipeline: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"run %s: fetched %d, normalized %d, skipped %d, loaded %d in %s\n",
		res.RunID, res.Fetched, res.Normalized, res.Skipped(), res.Loaded, res.Duration.Round(time.Millisecond),
	)
	return nil
}

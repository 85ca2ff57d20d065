package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Josconicme/trial-insight/internal/domain"
	"github.com/Josconicme/trial-insight/internal/metrics"
	budgetrepo "github.com/Josconicme/trial-insight/internal/repository/budget"
	"github.com/Josconicme/trial-insight/internal/repository/embcache"
	"github.com/Josconicme/trial-insight/internal/transport/google"
	openaiTransport "github.com/Josconicme/trial-insight/internal/transport/openai"
	aiuc "github.com/Josconicme/trial-insight/internal/usecase/ai"
	augmentuc "github.com/Josconicme/trial-insight/internal/usecase/augment"
)

var (
	embedCmd = &cobra.Command{
		Use:   "embed",
		Short: "Compute embeddings for trials that have none",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newAugmenter(cmd)
			if err != nil {
				return err
			}
			emb, err := buildEmbedder(cmd.Context())
			if err != nil {
				return err
			}
			return report(cmd, svc.WithEmbedder(emb).Embed)
		},
	}

	summarizeCmd = &cobra.Command{
		Use:   "summarize",
		Short: "Generate plain-language summaries for trials that have none",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newAugmenter(cmd)
			if err != nil {
				return err
			}
			sum, err := buildSummarizer(cmd.Context())
			if err != nil {
				return err
			}
			return report(cmd, svc.WithSummarizer(sum).Summarize)
		},
	}

	geocodeCmd = &cobra.Command{
		Use:   "geocode",
		Short: "Resolve coordinates for trial sites that have none",
		Long: `Geocode resolves every site address that still lacks coordinates. Results
are cached in memory for the run, so sites shared between trials cost one
lookup. Requires geocoding.api_key.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newAugmenter(cmd)
			if err != nil {
				return err
			}
			geo, err := buildGeocoder()
			if err != nil {
				return err
			}
			return report(cmd, svc.WithGeocoder(geo).Geocode)
		},
	}
)

func init() {
	for _, c := range []*cobra.Command{embedCmd, summarizeCmd, geocodeCmd} {
		c.Flags().Int("limit", 0, "process at most this many pending trials (0 = all)")
		rootCmd.AddCommand(c)
	}
}

func newAugmenter(cmd *cobra.Command) (*augmentuc.Service, error) {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 0 {
		return nil, fmt.Errorf("--limit must not be negative")
	}
	metrics.RegisterPipelineMetrics()
	metrics.RegisterAIMetrics()

	return augmentuc.New(cli.repo, augmentuc.Options{
		CallDelay:    cli.cfg.AI.CallDelay(),
		GeocodeDelay: cli.cfg.Geocoding.Delay(),
		Limit:        limit,
	}, cli.logger), nil
}

func report(cmd *cobra.Command, run func(context.Context) (augmentuc.Report, error)) error {
	rep, err := run(cmd.Context())
	fmt.Fprintf(cmd.OutOrStdout(), "%s: pending %d, ok %d, failed %d, skipped %d\n",
		rep.Step, rep.Pending, rep.OK, rep.Failed, rep.Skipped)
	if err != nil {
		if errors.Is(err, domain.ErrTokenBudgetExceeded) {
			cli.logger.Warn("Stopped on token budget; rerun once the budget resets")
		}
		return err
	}
	return nil
}

func aiConfig(model string, dims int) *openaiTransport.Config {
	return &openaiTransport.Config{
		APIKey:     cli.cfg.AI.APIKey,
		BaseURL:    cli.cfg.AI.BaseURL,
		Model:      model,
		Dimensions: dims,
		Provider:   cli.cfg.AI.Provider,
		Logger:     cli.logger,
	}
}

// buildBudget returns a nil interface, not a typed nil pointer, when no
// limit is configured.
func buildBudget(ctx context.Context) aiuc.BudgetChecker {
	b := cli.cfg.AI.Budget
	if !b.Enabled() {
		return nil
	}
	action := aiuc.BudgetActionWarn
	if b.Action == "reject" {
		action = aiuc.BudgetActionReject
	}
	return aiuc.NewBudgetTracker(cli.cfg.AI.Provider, b.DailyTokenLimit, b.MonthlyTokenLimit, action, cli.logger).
		WithStore(ctx, newBudgetStore())
}

func newBudgetStore() *budgetrepo.Store {
	return budgetrepo.New(cli.store, 0, 0)
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
func buildEmbedder(ctx context.Context) (domain.Embedder, error) {
	ai := cli.cfg.AI
	if ai.APIKey == "" {
		return nil, fmt.Errorf("ai.api_key is not set")
	}
	base := openaiTransport.NewEmbedder(aiConfig(ai.Embedding.Model, ai.Embedding.Dimensions))
	if err := base.HealthCheck(ctx); err != nil {
		cli.logger.Warn("Embedding provider health check failed", zap.Error(err))
	}

	cached := embcache.New(base, cli.store, embcache.Options{
		Model: ai.Embedding.Model,
		TTL:   ai.CacheTTL(),
	}, metrics.EmbeddingCacheTotal, cli.logger)

	return aiuc.NewInstrumentedEmbedder(cached, ai.Provider, ai.Embedding.Model, buildBudget(ctx), cli.logger), nil
}

func buildSummarizer(ctx context.Context) (domain.Summarizer, error) {
	ai := cli.cfg.AI
	if ai.APIKey == "" {
		return nil, fmt.Errorf("ai.api_key is not set")
	}
	base := openaiTransport.NewSummarizer(aiConfig(ai.Summary.Model, 0))
	return aiuc.NewInstrumentedSummarizer(base, ai.Provider, ai.Summary.Model, buildBudget(ctx), cli.logger), nil
}

func buildGeocoder() (domain.Geocoder, error) {
	g := cli.cfg.Geocoding
	if g.APIKey == "" {
		return nil, fmt.Errorf("geocoding.api_key is not set; refusing to mark sites as unresolvable")
	}
	base := google.NewGeocoder(&google.Config{
		APIKey:  g.APIKey,
		BaseURL: g.BaseURL,
		Timeout: g.Timeout(),
		Logger:  cli.logger,
	})
	cached, err := google.NewCachedGeocoder(base, g.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("geocode cache: %w", err)
	}
	return cached, nil
}

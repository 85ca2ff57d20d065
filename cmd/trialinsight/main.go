// Package main is the entry point for the trialinsight pipeline CLI: a full
// registry refresh plus the embedding, summary and geocoding backfills.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Josconicme/trial-insight/internal/config"
	"github.com/Josconicme/trial-insight/internal/db"
	dbRedis "github.com/Josconicme/trial-insight/internal/db/redis"
	logpkg "github.com/Josconicme/trial-insight/internal/logger"
	trialrepo "github.com/Josconicme/trial-insight/internal/repository/trial"
	"github.com/Josconicme/trial-insight/internal/version"
)

// app holds what every subcommand shares. It is built in PersistentPreRunE
// and torn down in PersistentPostRun.
type app struct {
	env    string
	cfg    config.Config
	logger *zap.Logger
	store  db.Store
	repo   *trialrepo.Repo
}

var cli app

var rootCmd = &cobra.Command{
	Use:   "trialinsight",
	Short: "Clinical-trial ETL and augmentation pipeline",
	Long: `trialinsight refreshes the trial store from the public registry and
backfills the AI-derived fields.

  load       fetch every study, normalize it and reload the store
  embed      compute embeddings for trials that have none
  summarize  generate plain-language summaries for trials that have none
  geocode    resolve coordinates for trial sites that have none

Each backfill only touches pending records, so an interrupted run can simply
be started again.`,
	Version:           version.String(),
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { cli.close() },
}

func init() {
	rootCmd.PersistentFlags().String("env", "", "config environment: local, dev, prod (default: $ENV or local)")
	rootCmd.PersistentFlags().String("log-level", "", "override logging.level")
}

func setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "help" || (cmd.HasParent() && cmd.Parent().Name() == "completion") {
		return nil
	}
	env, _ := cmd.Flags().GetString("env")
	if env == "" {
		env = config.GetEnv()
	}
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logpkg.NewLogger(env, "pipeline", level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	logger = logger.With(zap.String("command", cmd.Name()))

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		return fmt.Errorf("create database store: %w", err)
	}
	if err := store.WaitForReady(cmd.Context(), time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return fmt.Errorf("database not ready: %w", err)
	}

	cli = app{
		env:    env,
		cfg:    cfg,
		logger: logger,
		store:  store,
		repo: trialrepo.New(store, trialrepo.IndexConfig{
			VectorDim: cfg.Index.VectorDim,
			HNSW:      trialrepo.HNSWConfig{M: cfg.Index.HNSWM, EFConstruct: cfg.Index.HNSWEFConstruct},
		}),
	}
	cmd.SetContext(logpkg.ContextWithLogger(cmd.Context(), logger))
	logger.Info("Connected to database", zap.String("env", env), zap.Strings("db_addrs", cfg.Database.Addrs))
	return nil
}

// close releases the store and flushes the logger. It is safe to call more
// than once; cobra skips PersistentPostRun when RunE fails, so main calls it too.
func (a *app) close() {
	if a.store != nil {
		a.store.Close()
		a.store = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cli.close()
		stop()
		os.Exit(1)
	}
}

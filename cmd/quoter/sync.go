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

	"whirlpoolQuote/internal/chain"
	"whirlpoolQuote/internal/config"
	"whirlpoolQuote/internal/snapshot"
	"whirlpoolQuote/internal/storage/postgres"
)

func syncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Capture a pool snapshot over RPC",
		RunE:  runSync,
	}
	fs := cmd.Flags()
	fs.String("rpc", "", "Solana RPC URL")
	fs.String("commitment", "confirmed", "RPC commitment level")
	fs.String("program-id", chain.DefaultProgramID, "Whirlpool program id")
	fs.Int("max-retries", 5, "maximum retry attempts")
	fs.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	fs.String("pool", "", "whirlpool address")
	fs.String("out", "", "snapshot JSON output path")
	fs.String("pg-dsn", "", "Postgres DSN to store the snapshot in")
	fs.Bool("migrate", false, "create the Postgres tables before writing")
	fs.Int("radius", 3, "tick arrays captured on each side of the current one")
	fs.StringSlice("position", nil, "position addresses to capture (comma-separated)")
	logFlags(fs)
	return cmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSync(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher, client, err := openFetcher(ctx, cfg.Source, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	snap, err := fetcher.Sync(ctx, cfg.Pool, chain.SyncOptions{Radius: cfg.Radius, Positions: cfg.Positions})
	if err != nil {
		return fmt.Errorf("sync pool %s: %w", cfg.Pool, err)
	}

	if cfg.Out != "" {
		if err := snapshot.Save(cfg.Out, snap); err != nil {
			return err
		}
		logger.Info("snapshot written", zap.String("path", cfg.Out))
	}

	if cfg.Source.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.Source.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if cfg.Migrate {
			if err := store.Migrate(ctx); err != nil {
				return err
			}
		}
		if err := store.SaveSnapshot(ctx, snap); err != nil {
			return err
		}
		logger.Info("snapshot stored", zap.String("pg_dsn", redactDSN(cfg.Source.PGDSN)))
	}
	return nil
}

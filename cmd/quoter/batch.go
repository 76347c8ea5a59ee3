package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"whirlpoolQuote/internal/config"
	"whirlpoolQuote/internal/quoter"
	"whirlpoolQuote/internal/storage"
	"whirlpoolQuote/internal/storage/postgres"
)

func batchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Quote JSONL requests concurrently",
		RunE:  runBatch,
	}
	sourceFlags(cmd.Flags())
	cmd.Flags().String("in", "", "input requests JSONL (default stdin)")
	cmd.Flags().String("out", "", "output quotes JSONL (default stdout)")
	cmd.Flags().String("errors", "", "failed requests JSONL (default: same as out)")
	cmd.Flags().Int("workers", 4, "concurrent quotes")
	cmd.Flags().Int("chunk-size", 256, "requests per output batch")
	return cmd
}

func runBatch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadBatch(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var in io.Reader = os.Stdin
	if cfg.In != "" {
		f, err := os.Open(cfg.In)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}
	requests, err := storage.ReadRequests(in)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, closeSource, err := openSource(ctx, cfg.Source, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	var out storage.QuoteSink = storage.NewJsonlWriter(os.Stdout)
	if cfg.Out != "" {
		out = storage.NewJsonlStorage(cfg.Out)
	}
	// Quotes served from Postgres are logged next to the snapshot they used.
	if store, ok := source.(*postgres.Store); ok {
		out = storage.MultiSink{out, store}
	}
	var errs storage.QuoteSink
	if cfg.Errors != "" {
		errs = storage.NewJsonlStorage(cfg.Errors)
	}

	logger.Info("batch start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.Int("requests", len(requests)),
		zap.Int("workers", cfg.Workers),
		zap.Int("chunk_size", cfg.ChunkSize),
	)

	runner := quoter.NewRunner(quoter.BatchConfig{
		Workers:   cfg.Workers,
		ChunkSize: cfg.ChunkSize,
	}, quoter.New(source, logger), out, errs, logger)

	stats, err := runner.Run(ctx, requests)
	logger.Info("batch done",
		zap.Int("total", stats.Total),
		zap.Int("quoted", stats.Quoted),
		zap.Int("failed", stats.Failed),
	)
	return err
}

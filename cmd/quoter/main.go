package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"whirlpoolQuote/internal/chain"
	"whirlpoolQuote/internal/config"
	"whirlpoolQuote/internal/quoter"
	"whirlpoolQuote/internal/snapshot"
	"whirlpoolQuote/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "quoter",
		Short:        "Orca Whirlpool swap and liquidity quoter",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	root.AddCommand(
		swapCommand(),
		addLiquidityCommand(),
		removeLiquidityCommand(),
		openPositionCommand(),
		closePositionCommand(),
		poolCommand(),
		batchCommand(),
		syncCommand(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func sourceFlags(fs *pflag.FlagSet) {
	fs.String("snapshot", "", "snapshot JSON file")
	fs.String("pg-dsn", "", "Postgres DSN")
	fs.String("rpc", "", "Solana RPC URL")
	fs.String("commitment", "confirmed", "RPC commitment level")
	fs.String("program-id", chain.DefaultProgramID, "Whirlpool program id")
	fs.Int("max-retries", 5, "maximum retry attempts")
	fs.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	logFlags(fs)
}

func logFlags(fs *pflag.FlagSet) {
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-file", "", "also write logs to this file, rotated")
}

func newLogger(level, file string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if file == "" {
		return cfg.Build()
	}

	rotating := zapcore.AddSync(&lumberjack.Logger{
		Filename:   file,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(cfg.EncoderConfig), rotating, cfg.Level)
	return cfg.Build(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	}))
}

// openSource builds the quote source selected by cfg. The returned close
// function releases its connections.
func openSource(ctx context.Context, cfg config.SourceConfig, logger *zap.Logger) (quoter.Source, func(), error) {
	kind, err := cfg.Kind()
	if err != nil {
		return nil, nil, err
	}

	switch kind {
	case config.SourceSnapshot:
		snap, err := snapshot.Load(cfg.Snapshot)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("snapshot loaded",
			zap.String("path", cfg.Snapshot),
			zap.String("pool", snap.Pool.Address),
			zap.Uint64("slot", snap.Slot),
			zap.Int("tick_arrays", len(snap.TickArrays)),
		)
		return snapshot.NewMemory(snap), func() {}, nil

	case config.SourcePostgres:
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		logger.Info("postgres source", zap.String("pg_dsn", redactDSN(cfg.PGDSN)))
		return store, store.Close, nil

	default:
		fetcher, client, err := openFetcher(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return fetcher, client.Close, nil
	}
}

func openFetcher(ctx context.Context, cfg config.SourceConfig, logger *zap.Logger) (*chain.Fetcher, *chain.Client, error) {
	var program chain.PublicKey
	if cfg.ProgramID != "" {
		var err error
		if program, err = chain.ParsePublicKey(cfg.ProgramID); err != nil {
			return nil, nil, fmt.Errorf("program id: %w", err)
		}
	}
	client, err := chain.NewClient(ctx, cfg.RPCURL, cfg.Commitment)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rpc: %w", err)
	}
	logger.Info("rpc source", zap.String("rpc", cfg.RPCURL), zap.String("commitment", cfg.Commitment))
	fetcher := chain.NewFetcher(client, chain.FetcherOptions{
		ProgramID:  program,
		MaxRetries: cfg.MaxRetries,
		Backoff:    cfg.RetryBackoff,
		Logger:     logger,
	})
	return fetcher, client, nil
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}

package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"whirlpoolQuote/internal/config"
	"whirlpoolQuote/internal/model"
	"whirlpoolQuote/internal/quoter"
	"whirlpoolQuote/internal/storage"
)

func quoteCommand(use, short string, kind string, flags func(*cobra.Command)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuote(cmd, kind)
		},
	}
	sourceFlags(cmd.Flags())
	cmd.Flags().String("pool", "", "whirlpool address (optional with a single-pool snapshot)")
	cmd.Flags().String("slippage", "", "slippage tolerance, e.g. 0.01 or 1% (required)")
	flags(cmd)
	return cmd
}

func swapCommand() *cobra.Command {
	return quoteCommand("swap", "Quote a swap", model.KindSwap, func(cmd *cobra.Command) {
		cmd.Flags().String("mint", "", "mint of the specified amount")
		cmd.Flags().String("amount", "", "amount in base units")
		cmd.Flags().Bool("output", false, "amount is the output instead of the input")
	})
}

func addLiquidityCommand() *cobra.Command {
	return quoteCommand("add-liquidity", "Quote a deposit into a tick range or position", model.KindAddLiquidity, func(cmd *cobra.Command) {
		cmd.Flags().String("position", "", "existing position address")
		cmd.Flags().Int32("tick-lower", 0, "lower tick index")
		cmd.Flags().Int32("tick-upper", 0, "upper tick index")
		cmd.Flags().String("mint", "", "mint of the deposited amount")
		cmd.Flags().String("amount", "", "amount in base units")
	})
}

func removeLiquidityCommand() *cobra.Command {
	return quoteCommand("remove-liquidity", "Quote a withdrawal from a tick range or position", model.KindRemoveLiquidity, func(cmd *cobra.Command) {
		cmd.Flags().String("position", "", "existing position address")
		cmd.Flags().Int32("tick-lower", 0, "lower tick index")
		cmd.Flags().Int32("tick-upper", 0, "upper tick index")
		cmd.Flags().String("liquidity", "", "liquidity to withdraw")
	})
}

func openPositionCommand() *cobra.Command {
	return quoteCommand("open-position", "Quote opening a position over a price range", model.KindOpenPosition, func(cmd *cobra.Command) {
		cmd.Flags().String("price-lower", "", "lower price of token A in token B")
		cmd.Flags().String("price-upper", "", "upper price of token A in token B")
		cmd.Flags().String("mint", "", "mint of the deposited amount")
		cmd.Flags().String("amount", "", "amount in base units")
	})
}

func closePositionCommand() *cobra.Command {
	return quoteCommand("close-position", "Quote withdrawing all of a position's liquidity", model.KindClosePosition, func(cmd *cobra.Command) {
		cmd.Flags().String("position", "", "position address")
	})
}

// requestFromFlags collects the request fields registered on cmd; flags a
// command does not define are left empty.
func requestFromFlags(cmd *cobra.Command, kind string, cfg config.QuoteConfig) model.QuoteRequest {
	fs := cmd.Flags()
	str := func(name string) string {
		if fs.Lookup(name) == nil {
			return ""
		}
		v, _ := fs.GetString(name)
		return v
	}
	tick := func(name string) *int32 {
		if !fs.Changed(name) {
			return nil
		}
		v, _ := fs.GetInt32(name)
		return &v
	}

	req := model.QuoteRequest{
		ID:         "cli",
		Kind:       kind,
		Pool:       cfg.Pool,
		Position:   str("position"),
		Mint:       str("mint"),
		Amount:     str("amount"),
		TickLower:  tick("tick-lower"),
		TickUpper:  tick("tick-upper"),
		PriceLower: str("price-lower"),
		PriceUpper: str("price-upper"),
		Liquidity:  str("liquidity"),
		Slippage:   cfg.Slippage.Decimal().String(),
	}
	if fs.Lookup("output") != nil {
		req.IsOutput, _ = fs.GetBool("output")
	}
	return req
}

func runQuote(cmd *cobra.Command, kind string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
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

	source, closeSource, err := openSource(ctx, cfg.Source, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	req := requestFromFlags(cmd, kind, cfg)
	rec, err := quoter.New(source, logger).Quote(ctx, req)
	if err != nil {
		logger.Error("quote failed", zap.String("kind", kind), zap.Error(err))
		return err
	}
	return storage.NewJsonlWriter(os.Stdout).PutQuotes(ctx, []model.QuoteRecord{rec})
}

func poolCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Show a pool's price, fees and vault balances",
		RunE:  runPool,
	}
	sourceFlags(cmd.Flags())
	cmd.Flags().String("pool", "", "whirlpool address (optional with a single-pool snapshot)")
	return cmd
}

func runPool(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPool(cfgFile, cmd.Flags())
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

	source, closeSource, err := openSource(ctx, cfg.Source, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	summary, err := quoter.New(source, logger).PoolSummary(ctx, cfg.Pool)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

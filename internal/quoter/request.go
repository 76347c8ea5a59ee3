package quoter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"lukechampine.com/uint128"

	"whirlpoolQuote/internal/model"
)

func parseAmount(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("amount is required")
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return v, nil
}

func parseTick(name string, v *int32) (int32, error) {
	if v == nil {
		return 0, fmt.Errorf("%s is required", name)
	}
	return *v, nil
}

func parsePrice(name, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("%s is required", name)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse %s %q: %w", name, s, err)
	}
	return d, nil
}

// Quote answers one batch request and returns its flat record. Request-level
// failures are returned as errors; the caller decides how to report them.
func (s *Service) Quote(ctx context.Context, req model.QuoteRequest) (model.QuoteRecord, error) {
	slippage, err := model.ParsePercentage(req.Slippage)
	if err != nil {
		return model.QuoteRecord{}, err
	}

	var rec model.QuoteRecord
	switch req.Kind {
	case model.KindSwap:
		amount, err := parseAmount(req.Amount)
		if err != nil {
			return model.QuoteRecord{}, err
		}
		quote, err := s.Swap(ctx, SwapRequest{Pool: req.Pool, Mint: req.Mint, Amount: amount, IsOutput: req.IsOutput, Slippage: slippage})
		if err != nil {
			return model.QuoteRecord{}, err
		}
		rec = quote.Record()

	case model.KindAddLiquidity:
		amount, err := parseAmount(req.Amount)
		if err != nil {
			return model.QuoteRecord{}, err
		}
		add := AddLiquidityRequest{Pool: req.Pool, Position: req.Position, Mint: req.Mint, Amount: amount, Slippage: slippage}
		if req.Position == "" {
			if add.TickLowerIndex, err = parseTick("tick_lower", req.TickLower); err != nil {
				return model.QuoteRecord{}, err
			}
			if add.TickUpperIndex, err = parseTick("tick_upper", req.TickUpper); err != nil {
				return model.QuoteRecord{}, err
			}
		}
		quote, err := s.AddLiquidity(ctx, add)
		if err != nil {
			return model.QuoteRecord{}, err
		}
		rec = quote.Record()

	case model.KindOpenPosition:
		amount, err := parseAmount(req.Amount)
		if err != nil {
			return model.QuoteRecord{}, err
		}
		open := OpenPositionRequest{Pool: req.Pool, Mint: req.Mint, Amount: amount, Slippage: slippage}
		if open.PriceLower, err = parsePrice("price_lower", req.PriceLower); err != nil {
			return model.QuoteRecord{}, err
		}
		if open.PriceUpper, err = parsePrice("price_upper", req.PriceUpper); err != nil {
			return model.QuoteRecord{}, err
		}
		quote, err := s.OpenPosition(ctx, open)
		if err != nil {
			return model.QuoteRecord{}, err
		}
		rec = quote.Record()
		rec.Kind = model.KindOpenPosition

	case model.KindRemoveLiquidity:
		remove := RemoveLiquidityRequest{Pool: req.Pool, Position: req.Position, Slippage: slippage}
		if remove.Liquidity, err = uint128.FromString(req.Liquidity); err != nil {
			return model.QuoteRecord{}, fmt.Errorf("parse liquidity %q: %w", req.Liquidity, err)
		}
		if req.Position == "" {
			if remove.TickLowerIndex, err = parseTick("tick_lower", req.TickLower); err != nil {
				return model.QuoteRecord{}, err
			}
			if remove.TickUpperIndex, err = parseTick("tick_upper", req.TickUpper); err != nil {
				return model.QuoteRecord{}, err
			}
		}
		quote, err := s.RemoveLiquidity(ctx, remove)
		if err != nil {
			return model.QuoteRecord{}, err
		}
		rec = quote.Record()

	case model.KindClosePosition:
		if req.Position == "" {
			return model.QuoteRecord{}, fmt.Errorf("position is required")
		}
		quote, err := s.ClosePosition(ctx, req.Position, slippage)
		if err != nil {
			return model.QuoteRecord{}, err
		}
		rec = quote.Record()
		rec.Kind = model.KindClosePosition

	default:
		return model.QuoteRecord{}, fmt.Errorf("unknown quote kind %q", req.Kind)
	}

	stamp(&rec, req)
	return rec, nil
}

func stamp(rec *model.QuoteRecord, req model.QuoteRequest) {
	rec.RequestID = req.ID
	rec.Pool = req.Pool
	rec.Position = req.Position
	rec.Slippage = req.Slippage
	rec.QuotedAt = time.Now().UTC()
}

// ErrorRecord reports a failed request in the same shape as a quote.
func ErrorRecord(req model.QuoteRequest, err error) model.QuoteRecord {
	rec := model.QuoteRecord{Kind: req.Kind, Error: err.Error()}
	stamp(&rec, req)
	return rec
}

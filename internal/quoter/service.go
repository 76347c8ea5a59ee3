// Package quoter answers swap and liquidity quote requests against a pool
// snapshot source.
package quoter

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"lukechampine.com/uint128"

	"whirlpoolQuote/internal/liquidity"
	"whirlpoolQuote/internal/model"
	"whirlpoolQuote/internal/swap"
	"whirlpoolQuote/internal/tickarray"
	"whirlpoolQuote/internal/tickmath"
)

// Source provides consistent pool state. snapshot.Memory, postgres.Store and
// chain.Fetcher implement it.
type Source interface {
	Pool(ctx context.Context, address string) (model.Pool, error)
	Position(ctx context.Context, address string) (model.Position, error)
	MintDecimals(ctx context.Context, mint string) (uint8, error)
	TokenAmount(ctx context.Context, account string) (uint64, error)
	TickArrays(pool model.Pool) tickarray.Fetcher
}

// swapPrefetcher is implemented by sources that can load a swap's tick
// arrays in one round trip.
type swapPrefetcher interface {
	PrefetchSwapArrays(ctx context.Context, pool model.Pool, dir model.Direction) (int, error)
}

// Service quotes against a Source. It is safe for concurrent use when the
// Source is.
type Service struct {
	source Source
	logger *zap.Logger
}

func New(source Source, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, logger: logger}
}

// SwapRequest quotes a swap where Amount of Mint is either paid in or, when
// IsOutput is set, received.
type SwapRequest struct {
	Pool     string
	Mint     string
	Amount   uint64
	IsOutput bool
	Slippage model.Percentage
}

// Swap simulates a swap against the pool's current state.
func (s *Service) Swap(ctx context.Context, req SwapRequest) (model.SwapQuote, error) {
	pool, err := s.source.Pool(ctx, req.Pool)
	if err != nil {
		return model.SwapQuote{}, err
	}
	token, err := pool.Token(req.Mint)
	if err != nil {
		return model.SwapQuote{}, err
	}
	specified := model.Input
	if req.IsOutput {
		specified = model.Output
	}
	dir := model.SwapDirectionFor(token, specified)

	if p, ok := s.source.(swapPrefetcher); ok && req.Amount > 0 {
		if _, err := p.PrefetchSwapArrays(ctx, pool, dir); err != nil {
			s.logger.Warn("prefetch swap tick arrays failed", zap.String("pool", pool.Address), zap.Error(err))
		}
	}

	traverser := tickarray.NewTraverser(s.source.TickArrays(pool), pool.TickSpacing, tickmath.MinTick, tickmath.MaxTick)
	quote, err := swap.Simulate(ctx, swap.ParamsFromPool(pool, dir, specified, req.Amount, req.Slippage), traverser)
	if err != nil {
		return model.SwapQuote{}, fmt.Errorf("simulate swap on %s: %w", pool.Address, err)
	}
	s.logger.Debug("swap quoted",
		zap.String("pool", pool.Address),
		zap.Stringer("direction", dir),
		zap.Uint64("amount_in", quote.AmountIn),
		zap.Uint64("amount_out", quote.AmountOut),
		zap.Int("ticks_crossed", quote.TicksCrossed),
	)
	return quote, nil
}

// AddLiquidityRequest sizes a deposit of Amount of Mint. When Position is
// set its pool and range are used instead of Pool and the tick fields.
type AddLiquidityRequest struct {
	Pool           string
	Position       string
	TickLowerIndex int32
	TickUpperIndex int32
	Mint           string
	Amount         uint64
	Slippage       model.Percentage
}

func (s *Service) AddLiquidity(ctx context.Context, req AddLiquidityRequest) (model.AddLiquidityQuote, error) {
	poolAddress, lower, upper := req.Pool, req.TickLowerIndex, req.TickUpperIndex
	if req.Position != "" {
		position, err := s.source.Position(ctx, req.Position)
		if err != nil {
			return model.AddLiquidityQuote{}, err
		}
		poolAddress, lower, upper = position.Whirlpool, position.TickLowerIndex, position.TickUpperIndex
	}
	pool, err := s.source.Pool(ctx, poolAddress)
	if err != nil {
		return model.AddLiquidityQuote{}, err
	}
	token, err := pool.Token(req.Mint)
	if err != nil {
		return model.AddLiquidityQuote{}, err
	}
	return liquidity.QuoteAdd(pool, liquidity.AddParams{
		TickLowerIndex: lower,
		TickUpperIndex: upper,
		Token:          token,
		Amount:         req.Amount,
		Slippage:       req.Slippage,
	})
}

// OpenPositionRequest sizes a new position over a UI price range.
type OpenPositionRequest struct {
	Pool       string
	PriceLower decimal.Decimal
	PriceUpper decimal.Decimal
	Mint       string
	Amount     uint64
	Slippage   model.Percentage
}

// OpenPosition maps the price range to initializable ticks and quotes the
// deposit.
func (s *Service) OpenPosition(ctx context.Context, req OpenPositionRequest) (model.AddLiquidityQuote, error) {
	pool, err := s.source.Pool(ctx, req.Pool)
	if err != nil {
		return model.AddLiquidityQuote{}, err
	}
	token, err := pool.Token(req.Mint)
	if err != nil {
		return model.AddLiquidityQuote{}, err
	}
	lower, upper, err := s.priceRangeTicks(ctx, pool, req.PriceLower, req.PriceUpper)
	if err != nil {
		return model.AddLiquidityQuote{}, err
	}
	return liquidity.QuoteAdd(pool, liquidity.AddParams{
		TickLowerIndex: lower,
		TickUpperIndex: upper,
		Token:          token,
		Amount:         req.Amount,
		Slippage:       req.Slippage,
	})
}

func (s *Service) priceRangeTicks(ctx context.Context, pool model.Pool, priceLower, priceUpper decimal.Decimal) (int32, int32, error) {
	if priceLower.GreaterThanOrEqual(priceUpper) {
		return 0, 0, fmt.Errorf("price range [%s, %s]: %w", priceLower, priceUpper, model.ErrInvalidRange)
	}
	decimalsA, decimalsB, err := s.decimals(ctx, pool)
	if err != nil {
		return 0, 0, err
	}
	lower, err := tickmath.PriceToInitializableTick(priceLower, decimalsA, decimalsB, pool.TickSpacing)
	if err != nil {
		return 0, 0, fmt.Errorf("lower price: %w", err)
	}
	upper, err := tickmath.PriceToInitializableTick(priceUpper, decimalsA, decimalsB, pool.TickSpacing)
	if err != nil {
		return 0, 0, fmt.Errorf("upper price: %w", err)
	}
	if lower >= upper {
		return 0, 0, fmt.Errorf("price range [%s, %s] collapses to tick %d: %w", priceLower, priceUpper, lower, model.ErrInvalidRange)
	}
	return lower, upper, nil
}

func (s *Service) decimals(ctx context.Context, pool model.Pool) (uint8, uint8, error) {
	decimalsA, err := s.source.MintDecimals(ctx, pool.TokenMintA)
	if err != nil {
		return 0, 0, err
	}
	decimalsB, err := s.source.MintDecimals(ctx, pool.TokenMintB)
	if err != nil {
		return 0, 0, err
	}
	return decimalsA, decimalsB, nil
}

// RemoveLiquidityRequest withdraws Liquidity from a position, or from a bare
// range of Pool when Position is empty.
type RemoveLiquidityRequest struct {
	Pool           string
	Position       string
	TickLowerIndex int32
	TickUpperIndex int32
	Liquidity      uint128.Uint128
	Slippage       model.Percentage
}

func (s *Service) RemoveLiquidity(ctx context.Context, req RemoveLiquidityRequest) (model.RemoveLiquidityQuote, error) {
	if req.Position == "" {
		pool, err := s.source.Pool(ctx, req.Pool)
		if err != nil {
			return model.RemoveLiquidityQuote{}, err
		}
		return liquidity.QuoteRemove(pool, liquidity.RemoveParams{
			TickLowerIndex: req.TickLowerIndex,
			TickUpperIndex: req.TickUpperIndex,
			Liquidity:      req.Liquidity,
			Slippage:       req.Slippage,
		})
	}
	position, pool, err := s.position(ctx, req.Position)
	if err != nil {
		return model.RemoveLiquidityQuote{}, err
	}
	return liquidity.QuoteRemovePosition(pool, position, req.Liquidity, req.Slippage)
}

// ClosePosition quotes withdrawing all of a position's liquidity.
func (s *Service) ClosePosition(ctx context.Context, address string, slippage model.Percentage) (model.RemoveLiquidityQuote, error) {
	position, pool, err := s.position(ctx, address)
	if err != nil {
		return model.RemoveLiquidityQuote{}, err
	}
	return liquidity.QuoteRemovePosition(pool, position, position.Liquidity, slippage)
}

func (s *Service) position(ctx context.Context, address string) (model.Position, model.Pool, error) {
	position, err := s.source.Position(ctx, address)
	if err != nil {
		return model.Position{}, model.Pool{}, err
	}
	pool, err := s.source.Pool(ctx, position.Whirlpool)
	if err != nil {
		return model.Position{}, model.Pool{}, err
	}
	return position, pool, nil
}

// PoolSummary reports the pool's price, fee rates and vault balances in UI
// units.
func (s *Service) PoolSummary(ctx context.Context, address string) (model.PoolSummary, error) {
	pool, err := s.source.Pool(ctx, address)
	if err != nil {
		return model.PoolSummary{}, err
	}
	decimalsA, decimalsB, err := s.decimals(ctx, pool)
	if err != nil {
		return model.PoolSummary{}, err
	}
	vaultA, err := s.source.TokenAmount(ctx, pool.TokenVaultA)
	if err != nil {
		return model.PoolSummary{}, err
	}
	vaultB, err := s.source.TokenAmount(ctx, pool.TokenVaultB)
	if err != nil {
		return model.PoolSummary{}, err
	}
	return model.PoolSummary{
		Address:          pool.Address,
		TokenMintA:       pool.TokenMintA,
		TokenMintB:       pool.TokenMintB,
		TickSpacing:      pool.TickSpacing,
		TickCurrentIndex: pool.TickCurrentIndex,
		SqrtPrice:        pool.SqrtPrice.String(),
		Liquidity:        pool.Liquidity.String(),
		Price:            tickmath.SqrtPriceToPrice(pool.SqrtPrice, decimalsA, decimalsB),
		FeeRate:          pool.FeeRateDecimal(),
		ProtocolFeeRate:  pool.ProtocolFeeRateDecimal(),
		VaultAmountA:     model.UIAmount(vaultA, decimalsA),
		VaultAmountB:     model.UIAmount(vaultB, decimalsB),
		ProtocolFeeOwedA: model.UIAmount(pool.ProtocolFeeOwedA, decimalsA),
		ProtocolFeeOwedB: model.UIAmount(pool.ProtocolFeeOwedB, decimalsB),
	}, nil
}

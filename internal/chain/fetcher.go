package chain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"whirlpoolQuote/internal/model"
	"whirlpoolQuote/internal/snapshot"
	"whirlpoolQuote/internal/tickarray"
	"whirlpoolQuote/internal/tickmath"
)

// AccountReader is the part of Client the Fetcher depends on.
type AccountReader interface {
	GetAccountInfo(ctx context.Context, key PublicKey) (*Account, uint64, error)
	GetMultipleAccounts(ctx context.Context, keys []PublicKey) ([]*Account, uint64, error)
}

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	ProgramID  PublicKey
	MaxRetries int
	Backoff    time.Duration
	Logger     *zap.Logger
}

// Fetcher loads pools, positions and tick arrays over RPC. Tick arrays are
// cached per pool for the lifetime of the Fetcher.
type Fetcher struct {
	reader     AccountReader
	program    PublicKey
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger

	mu     sync.Mutex
	caches map[string]*tickarray.Cache
}

func NewFetcher(reader AccountReader, opts FetcherOptions) *Fetcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	program := opts.ProgramID
	if program.IsZero() {
		program = MustPublicKey(DefaultProgramID)
	}
	return &Fetcher{
		reader:     reader,
		program:    program,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		logger:     logger,
		caches:     make(map[string]*tickarray.Cache),
	}
}

func (f *Fetcher) account(ctx context.Context, key PublicKey) (*Account, uint64, error) {
	var (
		acc  *Account
		slot uint64
	)
	attempt := 0
	err := withRetry(ctx, f.maxRetries, f.backoff, func(ctx context.Context) error {
		attempt++
		var err error
		acc, slot, err = f.reader.GetAccountInfo(ctx, key)
		if err != nil && !permanent(err) {
			f.logger.Warn("get account failed", zap.String("account", key.String()), zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	})
	return acc, slot, err
}

func (f *Fetcher) accounts(ctx context.Context, keys []PublicKey) ([]*Account, uint64, error) {
	var (
		accs []*Account
		slot uint64
	)
	attempt := 0
	err := withRetry(ctx, f.maxRetries, f.backoff, func(ctx context.Context) error {
		attempt++
		var err error
		accs, slot, err = f.reader.GetMultipleAccounts(ctx, keys)
		if err != nil && !permanent(err) {
			f.logger.Warn("get multiple accounts failed", zap.Int("keys", len(keys)), zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	})
	return accs, slot, err
}

// Pool loads and decodes a whirlpool account.
func (f *Fetcher) Pool(ctx context.Context, address string) (model.Pool, error) {
	key, err := ParsePublicKey(address)
	if err != nil {
		return model.Pool{}, err
	}
	acc, _, err := f.account(ctx, key)
	if err != nil {
		return model.Pool{}, fmt.Errorf("fetch pool: %w", err)
	}
	return DecodeWhirlpool(key, acc.Data)
}

// Position loads and decodes a position account.
func (f *Fetcher) Position(ctx context.Context, address string) (model.Position, error) {
	key, err := ParsePublicKey(address)
	if err != nil {
		return model.Position{}, err
	}
	acc, _, err := f.account(ctx, key)
	if err != nil {
		return model.Position{}, fmt.Errorf("fetch position: %w", err)
	}
	return DecodePosition(key, acc.Data)
}

func (f *Fetcher) MintDecimals(ctx context.Context, mint string) (uint8, error) {
	key, err := ParsePublicKey(mint)
	if err != nil {
		return 0, err
	}
	acc, _, err := f.account(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("fetch mint: %w", err)
	}
	return DecodeMintDecimals(acc.Data)
}

func (f *Fetcher) TokenAmount(ctx context.Context, account string) (uint64, error) {
	key, err := ParsePublicKey(account)
	if err != nil {
		return 0, err
	}
	acc, _, err := f.account(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("fetch token account: %w", err)
	}
	_, amount, err := DecodeTokenAmount(acc.Data)
	return amount, err
}

// TickArrays returns the cached tick array fetcher of pool.
func (f *Fetcher) TickArrays(pool model.Pool) tickarray.Fetcher {
	return f.cache(pool)
}

func (f *Fetcher) cache(pool model.Pool) *tickarray.Cache {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.caches[pool.Address]
	if !ok {
		c = tickarray.NewCache(tickarray.FetcherFunc(func(ctx context.Context, tickIndex int32) (*model.TickArray, error) {
			return f.fetchTickArray(ctx, pool, tickIndex)
		}), pool.TickSpacing)
		f.caches[pool.Address] = c
	}
	return c
}

func (f *Fetcher) tickArrayKey(pool model.Pool, start int32) (PublicKey, error) {
	whirlpool, err := ParsePublicKey(pool.Address)
	if err != nil {
		return PublicKey{}, err
	}
	return TickArrayAddress(f.program, whirlpool, start)
}

func (f *Fetcher) fetchTickArray(ctx context.Context, pool model.Pool, tickIndex int32) (*model.TickArray, error) {
	start := tickarray.StartIndex(tickIndex, pool.TickSpacing)
	key, err := f.tickArrayKey(pool, start)
	if err != nil {
		return nil, err
	}
	acc, _, err := f.account(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("fetch tick array %d: %w", start, err)
	}
	array, err := DecodeTickArray(acc.Data)
	if err != nil {
		return nil, err
	}
	if array.Whirlpool != pool.Address {
		return nil, fmt.Errorf("tick array %s belongs to %s: %w", key, array.Whirlpool, model.ErrInconsistentSnapshot)
	}
	return array, nil
}

// loadTickArrays fetches the arrays at starts in one batch and returns the
// ones that exist, keyed by start, with their addresses.
func (f *Fetcher) loadTickArrays(ctx context.Context, pool model.Pool, starts []int32) (map[int32]*model.TickArray, map[int32]string, uint64, error) {
	keys := make([]PublicKey, len(starts))
	for i, start := range starts {
		key, err := f.tickArrayKey(pool, start)
		if err != nil {
			return nil, nil, 0, err
		}
		keys[i] = key
	}
	accs, slot, err := f.accounts(ctx, keys)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("fetch tick arrays: %w", err)
	}
	arrays := make(map[int32]*model.TickArray, len(starts))
	addresses := make(map[int32]string, len(starts))
	for i, acc := range accs {
		if acc == nil {
			continue
		}
		array, err := DecodeTickArray(acc.Data)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("tick array %s: %w", keys[i], err)
		}
		if array.StartTickIndex != starts[i] || array.Whirlpool != pool.Address {
			return nil, nil, 0, fmt.Errorf("tick array %s does not match start %d: %w", keys[i], starts[i], model.ErrInconsistentSnapshot)
		}
		arrays[starts[i]] = array
		addresses[starts[i]] = keys[i].String()
	}
	return arrays, addresses, slot, nil
}

// PrefetchSwapArrays loads the tick arrays a swap in dir would reference
// into the pool's cache with a single call.
func (f *Fetcher) PrefetchSwapArrays(ctx context.Context, pool model.Pool, dir model.Direction) (int, error) {
	starts, err := tickarray.SwapArrayStarts(pool.TickCurrentIndex, pool.TickSpacing, dir, tickarray.MaxSwapTickArrays, tickmath.MinTick, tickmath.MaxTick)
	if err != nil {
		return 0, err
	}
	arrays, _, _, err := f.loadTickArrays(ctx, pool, starts)
	if err != nil {
		return 0, err
	}
	c := f.cache(pool)
	for _, array := range arrays {
		c.Set(array)
	}
	f.logger.Debug("prefetched swap tick arrays", zap.String("pool", pool.Address), zap.Stringer("direction", dir), zap.Int("arrays", len(arrays)))
	return len(arrays), nil
}

// SyncOptions selects what Sync captures besides the pool.
type SyncOptions struct {
	// Radius is the number of tick arrays captured on each side of the
	// current one.
	Radius    int
	Positions []string
}

// Sync captures a snapshot of a pool, the tick arrays around its current
// tick, its mints, vault balances and the given positions. The snapshot is
// not marked complete.
func (f *Fetcher) Sync(ctx context.Context, poolAddress string, opts SyncOptions) (*snapshot.Snapshot, error) {
	key, err := ParsePublicKey(poolAddress)
	if err != nil {
		return nil, err
	}
	acc, slot, err := f.account(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("fetch pool: %w", err)
	}
	pool, err := DecodeWhirlpool(key, acc.Data)
	if err != nil {
		return nil, err
	}

	radius := opts.Radius
	if radius < 0 {
		radius = 0
	}
	span := int64(tickarray.Span(pool.TickSpacing))
	current := int64(tickarray.StartIndex(pool.TickCurrentIndex, pool.TickSpacing))
	from := current - int64(radius)*span
	to := current + int64(radius+1)*span - 1
	if from < int64(tickmath.MinTick) {
		from = int64(tickmath.MinTick)
	}
	if to > int64(tickmath.MaxTick) {
		to = int64(tickmath.MaxTick)
	}
	starts, err := tickarray.SplitRange(int32(from), int32(to), pool.TickSpacing)
	if err != nil {
		return nil, err
	}

	s := snapshot.New(pool)
	s.Slot = slot
	s.FetchedAt = time.Now().UTC()
	arrays, addresses, _, err := f.loadTickArrays(ctx, pool, starts)
	if err != nil {
		return nil, err
	}
	s.TickArrays = arrays
	s.ArrayAddress = addresses

	mintKeys := []PublicKey{MustPublicKey(pool.TokenMintA), MustPublicKey(pool.TokenMintB), MustPublicKey(pool.TokenVaultA), MustPublicKey(pool.TokenVaultB)}
	accs, _, err := f.accounts(ctx, mintKeys)
	if err != nil {
		return nil, fmt.Errorf("fetch mints and vaults: %w", err)
	}
	for i, acc := range accs {
		if acc == nil {
			return nil, fmt.Errorf("account %s: %w", mintKeys[i], model.ErrNotFound)
		}
		if i < 2 {
			decimals, err := DecodeMintDecimals(acc.Data)
			if err != nil {
				return nil, err
			}
			s.Mints[mintKeys[i].String()] = decimals
			continue
		}
		_, amount, err := DecodeTokenAmount(acc.Data)
		if err != nil {
			return nil, err
		}
		s.TokenAccounts[mintKeys[i].String()] = amount
	}

	for _, address := range opts.Positions {
		position, err := f.Position(ctx, address)
		if err != nil {
			return nil, err
		}
		s.Positions = append(s.Positions, position)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	f.logger.Info("pool synced",
		zap.String("pool", pool.Address),
		zap.Uint64("slot", slot),
		zap.Int("tick_arrays", len(arrays)),
		zap.Int("positions", len(s.Positions)),
	)
	return s, nil
}

package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"whirlpoolQuote/internal/model"
	"whirlpoolQuote/internal/snapshot"
	"whirlpoolQuote/internal/tickarray"
)

//go:embed schema.sql
var schema string

// Store persists pool snapshots and quote logs in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, model.ErrNotFound)
	}
	return fmt.Errorf("query %s: %w", what, err)
}

// SaveSnapshot writes a snapshot in one transaction.
func (s *Store) SaveSnapshot(ctx context.Context, snap *snapshot.Snapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := upsertPool(ctx, tx, snap.Pool, snap.Slot, snap.Complete); err != nil {
		return err
	}
	arrays := make([]*model.TickArray, 0, len(snap.TickArrays))
	for _, array := range snap.TickArrays {
		arrays = append(arrays, array)
	}
	if err := upsertTickArrays(ctx, tx, snap.Pool, arrays, snap.ArrayAddress, snap.Slot); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, p := range snap.Positions {
		batch.Queue(`
			INSERT INTO positions (address, pool_address, record, slot, updated_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (address) DO UPDATE SET
				pool_address = EXCLUDED.pool_address,
				record = EXCLUDED.record,
				slot = EXCLUDED.slot,
				updated_at = now()
		`, p.Address, p.Whirlpool, snapshot.NewPositionRecord(p), int64(snap.Slot))
	}
	for mint, decimals := range snap.Mints {
		batch.Queue(`
			INSERT INTO mints (address, decimals, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (address) DO UPDATE SET decimals = EXCLUDED.decimals, updated_at = now()
		`, mint, int16(decimals))
	}
	for account, amount := range snap.TokenAccounts {
		batch.Queue(`
			INSERT INTO token_accounts (address, amount, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (address) DO UPDATE SET amount = EXCLUDED.amount, updated_at = now()
		`, account, strconv.FormatUint(amount, 10))
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("upsert snapshot accounts: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// UpsertPool inserts or updates one pool.
func (s *Store) UpsertPool(ctx context.Context, pool model.Pool, slot uint64) error {
	return upsertPool(ctx, s.pool, pool, slot, false)
}

// UpsertTickArrays inserts or updates tick arrays of pool.
func (s *Store) UpsertTickArrays(ctx context.Context, pool model.Pool, arrays []*model.TickArray, slot uint64) error {
	return upsertTickArrays(ctx, s.pool, pool, arrays, nil, slot)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

func upsertPool(ctx context.Context, db querier, pool model.Pool, slot uint64, complete bool) error {
	_, err := db.Exec(ctx, `
		INSERT INTO pools (
			address, token_mint_a, token_mint_b, tick_spacing, tick_current_index,
			sqrt_price, liquidity, complete, slot, record, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (address)
		DO UPDATE SET
			token_mint_a = EXCLUDED.token_mint_a,
			token_mint_b = EXCLUDED.token_mint_b,
			tick_spacing = EXCLUDED.tick_spacing,
			tick_current_index = EXCLUDED.tick_current_index,
			sqrt_price = EXCLUDED.sqrt_price,
			liquidity = EXCLUDED.liquidity,
			complete = EXCLUDED.complete,
			slot = EXCLUDED.slot,
			record = EXCLUDED.record,
			updated_at = now()
	`,
		pool.Address,
		pool.TokenMintA,
		pool.TokenMintB,
		int32(pool.TickSpacing),
		pool.TickCurrentIndex,
		pool.SqrtPrice.String(),
		pool.Liquidity.String(),
		complete,
		int64(slot),
		snapshot.NewPoolRecord(pool),
	)
	if err != nil {
		return fmt.Errorf("upsert pool %s: %w", pool.Address, err)
	}
	return nil
}

func upsertTickArrays(ctx context.Context, db querier, pool model.Pool, arrays []*model.TickArray, addresses map[int32]string, slot uint64) error {
	if len(arrays) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, array := range arrays {
		rec := snapshot.NewTickArrayRecord(addresses[array.StartTickIndex], array, pool.TickSpacing)
		batch.Queue(`
			INSERT INTO tick_arrays (pool_address, start_tick_index, address, ticks, slot, updated_at)
			VALUES ($1, $2, $3, $4, $5, now())
			ON CONFLICT (pool_address, start_tick_index)
			DO UPDATE SET
				address = EXCLUDED.address,
				ticks = EXCLUDED.ticks,
				slot = EXCLUDED.slot,
				updated_at = now()
		`,
			pool.Address,
			array.StartTickIndex,
			rec.Address,
			rec.Ticks,
			int64(slot),
		)
	}

	br := db.SendBatch(ctx, batch)
	defer br.Close()

	for range arrays {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert tick arrays of %s: %w", pool.Address, err)
		}
	}
	return nil
}

// Pool loads a pool by address.
func (s *Store) Pool(ctx context.Context, address string) (model.Pool, error) {
	if address == "" {
		return model.Pool{}, fmt.Errorf("pool address required")
	}
	var rec snapshot.PoolRecord
	row := s.pool.QueryRow(ctx, `SELECT record FROM pools WHERE address = $1`, address)
	if err := row.Scan(&rec); err != nil {
		return model.Pool{}, notFound(err, "pool "+address)
	}
	return rec.Model()
}

func (s *Store) Position(ctx context.Context, address string) (model.Position, error) {
	var rec snapshot.PositionRecord
	row := s.pool.QueryRow(ctx, `SELECT record FROM positions WHERE address = $1`, address)
	if err := row.Scan(&rec); err != nil {
		return model.Position{}, notFound(err, "position "+address)
	}
	return rec.Model()
}

func (s *Store) MintDecimals(ctx context.Context, mint string) (uint8, error) {
	var decimals int16
	row := s.pool.QueryRow(ctx, `SELECT decimals FROM mints WHERE address = $1`, mint)
	if err := row.Scan(&decimals); err != nil {
		return 0, notFound(err, "mint "+mint)
	}
	return uint8(decimals), nil
}

func (s *Store) TokenAmount(ctx context.Context, account string) (uint64, error) {
	var amount string
	row := s.pool.QueryRow(ctx, `SELECT amount::text FROM token_accounts WHERE address = $1`, account)
	if err := row.Scan(&amount); err != nil {
		return 0, notFound(err, "token account "+account)
	}
	return strconv.ParseUint(amount, 10, 64)
}

// TickArrays returns a fetcher over the stored arrays of pool. Arrays that
// were never stored are reported missing.
func (s *Store) TickArrays(pool model.Pool) tickarray.Fetcher {
	return tickarray.FetcherFunc(func(ctx context.Context, tickIndex int32) (*model.TickArray, error) {
		start := tickarray.StartIndex(tickIndex, pool.TickSpacing)
		rec := snapshot.TickArrayRecord{StartTickIndex: start}
		row := s.pool.QueryRow(ctx, `
			SELECT address, ticks FROM tick_arrays WHERE pool_address = $1 AND start_tick_index = $2
		`, pool.Address, start)
		if err := row.Scan(&rec.Address, &rec.Ticks); err != nil {
			return nil, notFound(err, fmt.Sprintf("tick array %d of pool %s", start, pool.Address))
		}
		return rec.Model(pool.Address, pool.TickSpacing)
	})
}

// InsertQuotes appends quote records to the quote log.
func (s *Store) InsertQuotes(ctx context.Context, records []model.QuoteRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO quotes (request_id, kind, pool, position, slippage, error, quoted_at, record)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, r.RequestID, r.Kind, r.Pool, r.Position, r.Slippage, r.Error, r.QuotedAt, r)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert quote: %w", err)
		}
	}
	return nil
}

// PutQuotes makes Store a storage.QuoteSink.
func (s *Store) PutQuotes(ctx context.Context, records []model.QuoteRecord) error {
	return s.InsertQuotes(ctx, records)
}

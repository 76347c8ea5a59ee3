package snapshot

import (
	"context"
	"fmt"
	"sync"

	"whirlpoolQuote/internal/model"
	"whirlpoolQuote/internal/tickarray"
)

// Memory serves pools, positions and tick arrays from loaded snapshots.
type Memory struct {
	mu        sync.RWMutex
	pools     map[string]*Snapshot
	positions map[string]model.Position
	mints     map[string]uint8
	tokens    map[string]uint64
}

func NewMemory(snapshots ...*Snapshot) *Memory {
	m := &Memory{
		pools:     make(map[string]*Snapshot),
		positions: make(map[string]model.Position),
		mints:     make(map[string]uint8),
		tokens:    make(map[string]uint64),
	}
	for _, s := range snapshots {
		m.Add(s)
	}
	return m
}

// Add registers a snapshot, replacing any earlier one for the same pool.
func (m *Memory) Add(s *Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pools[s.Pool.Address] = s
	for _, p := range s.Positions {
		m.positions[p.Address] = p
	}
	for mint, decimals := range s.Mints {
		m.mints[mint] = decimals
	}
	for account, amount := range s.TokenAccounts {
		m.tokens[account] = amount
	}
}

func (m *Memory) snapshot(address string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if address == "" && len(m.pools) == 1 {
		for _, s := range m.pools {
			return s, nil
		}
	}
	s, ok := m.pools[address]
	if !ok {
		return nil, fmt.Errorf("pool %q: %w", address, model.ErrNotFound)
	}
	return s, nil
}

// Pool returns the pool; an empty address selects the only loaded pool.
func (m *Memory) Pool(_ context.Context, address string) (model.Pool, error) {
	s, err := m.snapshot(address)
	if err != nil {
		return model.Pool{}, err
	}
	return s.Pool, nil
}

func (m *Memory) Position(_ context.Context, address string) (model.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.positions[address]
	if !ok {
		return model.Position{}, fmt.Errorf("position %q: %w", address, model.ErrNotFound)
	}
	return p, nil
}

func (m *Memory) MintDecimals(_ context.Context, mint string) (uint8, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.mints[mint]
	if !ok {
		return 0, fmt.Errorf("mint %q: %w", mint, model.ErrNotFound)
	}
	return d, nil
}

func (m *Memory) TokenAmount(_ context.Context, account string) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	amount, ok := m.tokens[account]
	if !ok {
		return 0, fmt.Errorf("token account %q: %w", account, model.ErrNotFound)
	}
	return amount, nil
}

// TickArrays returns a fetcher over the pool's stored arrays. In a complete
// snapshot an array that was never stored holds no initialized tick and is
// served empty; otherwise it is reported missing.
func (m *Memory) TickArrays(pool model.Pool) tickarray.Fetcher {
	return tickarray.FetcherFunc(func(_ context.Context, tickIndex int32) (*model.TickArray, error) {
		s, err := m.snapshot(pool.Address)
		if err != nil {
			return nil, err
		}
		start := tickarray.StartIndex(tickIndex, s.Pool.TickSpacing)
		if array, ok := s.TickArrays[start]; ok {
			return array, nil
		}
		if s.Complete {
			return &model.TickArray{Whirlpool: s.Pool.Address, StartTickIndex: start}, nil
		}
		return nil, fmt.Errorf("tick array %d of pool %s: %w", start, s.Pool.Address, model.ErrNotFound)
	})
}

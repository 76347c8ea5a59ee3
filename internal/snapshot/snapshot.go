// Package snapshot stores consistent pool snapshots on disk and serves them
// from memory.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"whirlpoolQuote/internal/model"
	"whirlpoolQuote/internal/tickmath"
)

// Snapshot is a consistent view of one pool and the accounts quoting needs.
type Snapshot struct {
	Slot      uint64
	FetchedAt time.Time
	// Complete marks a snapshot that holds every initialized tick of the pool.
	Complete      bool
	Pool          model.Pool
	TickArrays    map[int32]*model.TickArray
	ArrayAddress  map[int32]string
	Positions     []model.Position
	Mints         map[string]uint8
	TokenAccounts map[string]uint64
}

// New returns an empty snapshot for pool.
func New(pool model.Pool) *Snapshot {
	return &Snapshot{
		Pool:          pool,
		TickArrays:    make(map[int32]*model.TickArray),
		ArrayAddress:  make(map[int32]string),
		Mints:         make(map[string]uint8),
		TokenAccounts: make(map[string]uint64),
	}
}

// Validate checks the pool fields, tick array alignment, the tick/price
// invariant and, for complete snapshots, that liquidity nets sum to zero.
func (s *Snapshot) Validate() error {
	if err := s.Pool.Validate(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInconsistentSnapshot, err)
	}
	lower, err := tickmath.SqrtPriceAtTick(s.Pool.TickCurrentIndex)
	if err != nil {
		return fmt.Errorf("pool tick: %w", err)
	}
	if s.Pool.SqrtPrice.Cmp(lower) < 0 {
		return fmt.Errorf("sqrt price %s below tick %d: %w", s.Pool.SqrtPrice, s.Pool.TickCurrentIndex, model.ErrInconsistentSnapshot)
	}
	if s.Pool.TickCurrentIndex < tickmath.MaxTick {
		upper := tickmath.MustSqrtPriceAtTick(s.Pool.TickCurrentIndex + 1)
		if s.Pool.SqrtPrice.Cmp(upper) >= 0 {
			return fmt.Errorf("sqrt price %s above tick %d: %w", s.Pool.SqrtPrice, s.Pool.TickCurrentIndex, model.ErrInconsistentSnapshot)
		}
	}

	span := int32(s.Pool.TickSpacing) * model.TickArraySize
	arrays := make([]*model.TickArray, 0, len(s.TickArrays))
	for start, array := range s.TickArrays {
		if array.StartTickIndex != start || start%span != 0 {
			return fmt.Errorf("tick array %d misaligned: %w", start, model.ErrInconsistentSnapshot)
		}
		if array.Whirlpool != "" && array.Whirlpool != s.Pool.Address {
			return fmt.Errorf("tick array %d belongs to %s: %w", start, array.Whirlpool, model.ErrInconsistentSnapshot)
		}
		arrays = append(arrays, array)
	}
	if s.Complete {
		if err := model.CheckLiquidityNet(arrays); err != nil {
			return err
		}
	}
	for _, p := range s.Positions {
		if p.Whirlpool != s.Pool.Address {
			return fmt.Errorf("position %s belongs to %s: %w", p.Address, p.Whirlpool, model.ErrInconsistentSnapshot)
		}
	}
	return nil
}

// Decode converts the JSON form into a validated Snapshot.
func Decode(f File) (*Snapshot, error) {
	pool, err := f.Pool.Model()
	if err != nil {
		return nil, err
	}
	s := New(pool)
	s.Slot = f.Slot
	s.FetchedAt = f.FetchedAt
	s.Complete = f.Complete
	for _, rec := range f.TickArrays {
		array, err := rec.Model(pool.Address, pool.TickSpacing)
		if err != nil {
			return nil, err
		}
		if _, dup := s.TickArrays[array.StartTickIndex]; dup {
			return nil, fmt.Errorf("duplicate tick array %d: %w", array.StartTickIndex, model.ErrInconsistentSnapshot)
		}
		s.TickArrays[array.StartTickIndex] = array
		if rec.Address != "" {
			s.ArrayAddress[array.StartTickIndex] = rec.Address
		}
	}
	for _, rec := range f.Positions {
		position, err := rec.Model()
		if err != nil {
			return nil, err
		}
		s.Positions = append(s.Positions, position)
	}
	for _, m := range f.Mints {
		s.Mints[m.Address] = m.Decimals
	}
	for _, t := range f.TokenAccounts {
		s.TokenAccounts[t.Address] = t.Amount
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Encode converts a Snapshot into its JSON form with arrays in start order.
func Encode(s *Snapshot) File {
	f := File{
		Slot:       s.Slot,
		FetchedAt:  s.FetchedAt,
		Complete:   s.Complete,
		Pool:       NewPoolRecord(s.Pool),
		TickArrays: make([]TickArrayRecord, 0, len(s.TickArrays)),
	}
	starts := make([]int32, 0, len(s.TickArrays))
	for start := range s.TickArrays {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })
	for _, start := range starts {
		f.TickArrays = append(f.TickArrays, NewTickArrayRecord(s.ArrayAddress[start], s.TickArrays[start], s.Pool.TickSpacing))
	}
	for _, p := range s.Positions {
		f.Positions = append(f.Positions, NewPositionRecord(p))
	}
	for _, addr := range sortedKeys(s.Mints) {
		f.Mints = append(f.Mints, MintRecord{Address: addr, Decimals: s.Mints[addr]})
	}
	for _, addr := range sortedKeys(s.TokenAccounts) {
		f.TokenAccounts = append(f.TokenAccounts, TokenAccountRecord{Address: addr, Amount: s.TokenAccounts[addr]})
	}
	return f
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load reads and validates a snapshot file.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("snapshot %s: %w", path, model.ErrNotFound)
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return s, nil
}

// Save writes the snapshot atomically.
func Save(path string, s *Snapshot) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(Encode(s), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot tmp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

package tickarray

import (
	"context"
	"fmt"

	"whirlpoolQuote/internal/model"
)

// Fetcher returns the tick array that covers tickIndex. Implementations fail
// with an error wrapping model.ErrNotFound when no such array exists.
type Fetcher interface {
	FetchTickArray(ctx context.Context, tickIndex int32) (*model.TickArray, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, tickIndex int32) (*model.TickArray, error)

func (f FetcherFunc) FetchTickArray(ctx context.Context, tickIndex int32) (*model.TickArray, error) {
	return f(ctx, tickIndex)
}

// Traverser walks initialized ticks of one pool across array boundaries.
// It memoizes fetched arrays and is meant to live for a single quote.
type Traverser struct {
	fetcher Fetcher
	spacing uint16
	minTick int32
	maxTick int32
	fetched map[int32]*model.TickArray
}

// NewTraverser builds a Traverser bounded by [minTick, maxTick].
func NewTraverser(fetcher Fetcher, spacing uint16, minTick, maxTick int32) *Traverser {
	return &Traverser{
		fetcher: fetcher,
		spacing: spacing,
		minTick: minTick,
		maxTick: maxTick,
		fetched: make(map[int32]*model.TickArray),
	}
}

// FetchTickArray returns the array covering tickIndex.
func (t *Traverser) FetchTickArray(ctx context.Context, tickIndex int32) (*model.TickArray, error) {
	if t.spacing == 0 {
		return nil, fmt.Errorf("tick spacing must be greater than zero")
	}
	start := StartIndex(tickIndex, t.spacing)
	if array, ok := t.fetched[start]; ok {
		return array, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	array, err := t.fetcher.FetchTickArray(ctx, tickIndex)
	if err != nil {
		return nil, err
	}
	if array == nil {
		return nil, fmt.Errorf("tick array at %d: %w", start, model.ErrNotFound)
	}
	if array.StartTickIndex != start {
		return nil, fmt.Errorf("tick array for tick %d starts at %d, want %d: %w", tickIndex, array.StartTickIndex, start, model.ErrInconsistentSnapshot)
	}
	t.fetched[start] = array
	return array, nil
}

// FetchTick returns the tick slot at tickIndex.
func (t *Traverser) FetchTick(ctx context.Context, tickIndex int32) (*model.Tick, error) {
	array, err := t.FetchTickArray(ctx, tickIndex)
	if err != nil {
		return nil, err
	}
	return GetTick(array, tickIndex, t.spacing)
}

// PrevInitializedTickIndex returns the greatest initialized tick < from.
func (t *Traverser) PrevInitializedTickIndex(ctx context.Context, from int32) (int32, error) {
	return t.walk(ctx, from, Left)
}

// NextInitializedTickIndex returns the least initialized tick > from.
func (t *Traverser) NextInitializedTickIndex(ctx context.Context, from int32) (int32, error) {
	return t.walk(ctx, from, Right)
}

func (t *Traverser) walk(ctx context.Context, from int32, dir Direction) (int32, error) {
	if t.spacing == 0 {
		return 0, fmt.Errorf("tick spacing must be greater than zero")
	}
	// boundary is the array the search just left, if any.
	var boundary error
	for {
		candidate := FirstCandidate(from, t.spacing, dir)
		if candidate < t.minTick || candidate > t.maxTick {
			return 0, fmt.Errorf("no initialized tick %s of %d: %w", dir, from, model.ErrInsufficientLiquidity)
		}
		array, err := t.FetchTickArray(ctx, candidate)
		if err != nil {
			if boundary != nil {
				return 0, fmt.Errorf("continue past %w: %w", boundary, err)
			}
			return 0, err
		}
		search, err := FindInitializedTick(array, from, t.spacing, dir)
		if err != nil {
			return 0, err
		}
		if search.Outcome == Found {
			return search.TickIndex, nil
		}
		boundary = search.Err()
		from = search.Resume()
	}
}

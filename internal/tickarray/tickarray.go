// Package tickarray locates ticks inside fixed-size tick arrays and walks
// initialized ticks across array boundaries.
package tickarray

import (
	"fmt"

	"whirlpoolQuote/internal/model"
)

// Direction is the scan direction of an initialized-tick search.
type Direction int

const (
	Left Direction = iota
	Right
)

func (d Direction) String() string {
	if d == Left {
		return "left"
	}
	return "right"
}

// Span is the number of tick indexes one array covers.
func Span(spacing uint16) int32 {
	return int32(spacing) * model.TickArraySize
}

// StartIndex returns the start tick of the array containing tick.
func StartIndex(tick int32, spacing uint16) int32 {
	span := Span(spacing)
	return floorDiv(tick, span) * span
}

// Bounds returns [start, end) for an array.
func Bounds(array *model.TickArray, spacing uint16) (int32, int32) {
	return array.StartTickIndex, array.StartTickIndex + Span(spacing)
}

// GetTick returns the slot for tickIndex, which must be a multiple of
// spacing inside the array.
func GetTick(array *model.TickArray, tickIndex int32, spacing uint16) (*model.Tick, error) {
	if spacing == 0 {
		return nil, fmt.Errorf("tick spacing is zero: %w", model.ErrOutOfBounds)
	}
	start, end := Bounds(array, spacing)
	if tickIndex < start || tickIndex >= end || tickIndex%int32(spacing) != 0 {
		return nil, fmt.Errorf("tick %d in array [%d, %d) spacing %d: %w", tickIndex, start, end, spacing, model.ErrOutOfBounds)
	}
	return &array.Ticks[(tickIndex-start)/int32(spacing)], nil
}

// Outcome enumerates how an in-array search ended.
type Outcome int

const (
	Found Outcome = iota
	BoundaryExceeded
)

// Search is the result of FindInitializedTick.
type Search struct {
	Outcome   Outcome
	Direction Direction
	TickIndex int32 // set when Found
	Start     int32
	End       int32 // exclusive
}

// Err is nil when a tick was found, a *model.BoundaryError otherwise.
func (s Search) Err() error {
	if s.Outcome == Found {
		return nil
	}
	return &model.BoundaryError{Start: s.Start, End: s.End}
}

// Resume is the from index that continues the search in the adjacent array.
func (s Search) Resume() int32 {
	if s.Direction == Left {
		return s.Start
	}
	return s.End - 1
}

// FirstCandidate is the nearest multiple of spacing strictly past from.
func FirstCandidate(from int32, spacing uint16, dir Direction) int32 {
	s := int32(spacing)
	if dir == Left {
		return floorDiv(from-1, s) * s
	}
	return floorDiv(from, s)*s + s
}

// FindInitializedTick scans the array in steps of spacing strictly away from
// from. It never leaves the array: when the scan runs off an edge the result
// is BoundaryExceeded and the caller continues from Resume in the next array.
func FindInitializedTick(array *model.TickArray, from int32, spacing uint16, dir Direction) (Search, error) {
	if spacing == 0 {
		return Search{}, fmt.Errorf("tick spacing is zero: %w", model.ErrOutOfBounds)
	}
	start, end := Bounds(array, spacing)
	result := Search{Outcome: BoundaryExceeded, Direction: dir, Start: start, End: end}

	s := int32(spacing)
	candidate := FirstCandidate(from, spacing, dir)
	step := s
	if dir == Left {
		step = -s
		if candidate >= end {
			return Search{}, fmt.Errorf("search left from %d in array [%d, %d): %w", from, start, end, model.ErrOutOfBounds)
		}
	} else if candidate < start {
		return Search{}, fmt.Errorf("search right from %d in array [%d, %d): %w", from, start, end, model.ErrOutOfBounds)
	}

	for ; candidate >= start && candidate < end; candidate += step {
		if array.Ticks[(candidate-start)/s].Initialized {
			result.Outcome = Found
			result.TickIndex = candidate
			return result, nil
		}
	}
	return result, nil
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

package tickarray

import (
	"fmt"

	"whirlpoolQuote/internal/model"
)

// MaxSwapTickArrays is how many arrays a single on-chain swap may touch.
const MaxSwapTickArrays = 3

// SplitRange returns the start index of every array that covers a tick in
// [fromTick, toTick], in ascending order.
func SplitRange(fromTick, toTick int32, spacing uint16) ([]int32, error) {
	if spacing == 0 {
		return nil, fmt.Errorf("tick spacing must be greater than zero")
	}
	if toTick < fromTick {
		return nil, fmt.Errorf("to tick must be >= from tick")
	}

	span := Span(spacing)
	starts := make([]int32, 0)
	for start := StartIndex(fromTick, spacing); start <= toTick; start += span {
		starts = append(starts, start)
	}
	return starts, nil
}

// SwapArrayStarts returns the arrays a swap starting at tickCurrent walks
// through, current array first, limited to count and to arrays that hold a
// tick inside [MinTick, MaxTick].
func SwapArrayStarts(tickCurrent int32, spacing uint16, dir model.Direction, count int, minTick, maxTick int32) ([]int32, error) {
	if spacing == 0 {
		return nil, fmt.Errorf("tick spacing must be greater than zero")
	}
	if count <= 0 {
		return nil, fmt.Errorf("array count must be greater than zero")
	}

	span := Span(spacing)
	// A b-to-a swap sitting on the last slot of an array starts in the next one.
	shift := int32(0)
	if dir == model.BtoA {
		shift = int32(spacing)
	}
	start := StartIndex(tickCurrent+shift, spacing)

	starts := make([]int32, 0, count)
	for len(starts) < count {
		if start+span <= minTick || start > maxTick {
			break
		}
		starts = append(starts, start)
		if dir == model.AtoB {
			start -= span
		} else {
			start += span
		}
	}
	return starts, nil
}

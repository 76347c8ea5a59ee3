package tickarray

import (
	"reflect"
	"testing"

	"whirlpoolQuote/internal/model"
)

const (
	minTick = -443636
	maxTick = 443636
)

func TestSplitRange(t *testing.T) {
	got, err := SplitRange(-6400, 6400, 64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int32{-11264, -5632, 0, 5632}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("starts mismatch: %v != %v", got, want)
	}
}

func TestSplitRangeSingle(t *testing.T) {
	got, err := SplitRange(5, 5, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int32{0}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("starts mismatch: %v != %v", got, want)
	}
}

func TestSplitRangeInvalid(t *testing.T) {
	if _, err := SplitRange(10, 9, 1); err == nil {
		t.Fatalf("expected error for invalid range")
	}
	if _, err := SplitRange(1, 10, 0); err == nil {
		t.Fatalf("expected error for zero spacing")
	}
}

func TestSwapArrayStarts(t *testing.T) {
	cases := []struct {
		name string
		tick int32
		dir  model.Direction
		want []int32
	}{
		{name: "a to b", tick: 10, dir: model.AtoB, want: []int32{0, -5632, -11264}},
		{name: "b to a", tick: 10, dir: model.BtoA, want: []int32{0, 5632, 11264}},
		{name: "b to a last slot", tick: 5600, dir: model.BtoA, want: []int32{5632, 11264, 16896}},
		{name: "a to b last slot", tick: 5600, dir: model.AtoB, want: []int32{0, -5632, -11264}},
		{name: "upper edge", tick: 443600, dir: model.BtoA, want: []int32{439296}},
		{name: "lower edge", tick: -443600, dir: model.AtoB, want: []int32{-444928}},
	}
	for _, tc := range cases {
		got, err := SwapArrayStarts(tc.tick, 64, tc.dir, MaxSwapTickArrays, minTick, maxTick)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: starts mismatch: %v != %v", tc.name, got, tc.want)
		}
	}
}

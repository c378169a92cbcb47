package strategy

import (
	"math"
	"testing"
)

func TestEvaluateRange(t *testing.T) {
	types := []SignalType{
		SignalNone, SignalLongShort, SignalLong, SignalLongInv, SignalLongAny,
		SignalShort, SignalShortInv, SignalShortAny,
		SignalLongExit, SignalLongExitInv, SignalLongExitAny,
		SignalShortExit, SignalShortExitInv, SignalShortExitAny,
	}
	values := []float64{-2, -0.5, 0, 0.5, 2, math.NaN()}

	for _, typ := range types {
		for _, v := range values {
			got := Evaluate(v, typ)
			if got < -1 || got > 1 {
				t.Errorf("Evaluate(%v, %v) = %d outside {-1,0,1}", v, typ, got)
			}
			if (v == 0 || math.IsNaN(v)) && got != 0 {
				t.Errorf("Evaluate(%v, %v) = %d, want 0", v, typ, got)
			}
		}
	}
}

func TestEvaluateDirections(t *testing.T) {
	cases := []struct {
		typ  SignalType
		v    float64
		want int
	}{
		{SignalLongShort, 1, 1},
		{SignalLongShort, -1, -1},
		{SignalLong, 1, 1},
		{SignalLong, -1, 0},
		{SignalLongInv, -1, 1},
		{SignalLongInv, 1, 0},
		{SignalLongAny, -3, 1},
		{SignalLongAny, 3, 1},
		{SignalShort, -1, -1},
		{SignalShort, 1, 0},
		{SignalShortInv, 1, -1},
		{SignalShortAny, 0.1, -1},
		{SignalLongExit, -1, 1},
		{SignalLongExit, 1, 0},
		{SignalLongExitInv, 1, 1},
		{SignalLongExitAny, -1, 1},
		{SignalShortExit, 1, -1},
		{SignalShortExitInv, -1, -1},
		{SignalShortExitAny, 2, -1},
		{SignalNone, 5, 0},
	}
	for _, c := range cases {
		if got := Evaluate(c.v, c.typ); got != c.want {
			t.Errorf("Evaluate(%v, %v) = %d, want %d", c.v, c.typ, got, c.want)
		}
	}
}

// constLine is a fixed-value signal line for tests.
type constLine float64

func (c constLine) Get(int) float64 { return float64(c) }

func TestGroupAggregation(t *testing.T) {
	var g Group
	g.Add(constLine(1), SignalLong)
	g.Add(constLine(0), SignalShort)

	if !g.HasLongEntry() {
		t.Error("expected long entry")
	}
	if g.HasShortEntry() {
		t.Error("unexpected short entry")
	}

	g.Add(constLine(-1), SignalShort)
	if !g.HasShortEntry() {
		t.Error("expected short entry after adding firing signal")
	}

	if g.HasLongExit() || g.HasShortExit() {
		t.Error("no exit signals registered")
	}
	g.Add(constLine(-1), SignalLongExit)
	if !g.HasLongExit() {
		t.Error("expected long exit")
	}
}

func TestGroupLongShortBothSides(t *testing.T) {
	var g Group
	g.Add(constLine(-2), SignalLongShort)
	if g.HasLongEntry() {
		t.Error("negative long/short should not signal long")
	}
	if !g.HasShortEntry() {
		t.Error("negative long/short should signal short")
	}
}

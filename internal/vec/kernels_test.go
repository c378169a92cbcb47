package vec

import (
	"math"
	"testing"
)

// closePrices is a 20-bar sample series used across kernel tests.
var closePrices = []float64{
	100, 101, 102, 101, 103, 104.5, 105, 104, 106, 107.5,
	108, 107, 109, 110.5, 111, 110, 112, 113.5, 114, 113,
}

func TestSlidingSumIncrementalEqualsReaggregation(t *testing.T) {
	for _, window := range []int{1, 2, 5, 7, 20} {
		dst := make([]float64, len(closePrices))
		SlidingSum(closePrices, dst, window)

		for i := range closePrices {
			if i < window-1 {
				if !math.IsNaN(dst[i]) {
					t.Errorf("window %d: dst[%d] = %v, want NaN", window, i, dst[i])
				}
				continue
			}
			want := Sum(closePrices[i-window+1 : i+1])
			if !almostEqual(dst[i], want, 1e-10) {
				t.Errorf("window %d: dst[%d] = %v, want %v", window, i, dst[i], want)
			}
		}
	}
}

func TestSlidingMean(t *testing.T) {
	dst := make([]float64, len(closePrices))
	SlidingMean(closePrices, dst, 5)

	for i := 0; i < 4; i++ {
		if !math.IsNaN(dst[i]) {
			t.Errorf("dst[%d] = %v, want NaN", i, dst[i])
		}
	}
	if !almostEqual(dst[4], 101.4, 1e-10) {
		t.Errorf("dst[4] = %v, want 101.4", dst[4])
	}
	if !almostEqual(dst[19], 112.5, 1e-10) {
		t.Errorf("dst[19] = %v, want 112.5", dst[19])
	}
}

func TestSlidingMaxMin(t *testing.T) {
	dst := make([]float64, len(closePrices))
	SlidingMax(closePrices, dst, 4)
	for i := 3; i < len(closePrices); i++ {
		want := Max(closePrices[i-3 : i+1])
		if dst[i] != want {
			t.Errorf("SlidingMax dst[%d] = %v, want %v", i, dst[i], want)
		}
	}

	SlidingMin(closePrices, dst, 4)
	for i := 3; i < len(closePrices); i++ {
		want := Min(closePrices[i-3 : i+1])
		if dst[i] != want {
			t.Errorf("SlidingMin dst[%d] = %v, want %v", i, dst[i], want)
		}
	}
	for i := 0; i < 3; i++ {
		if !math.IsNaN(dst[i]) {
			t.Errorf("SlidingMin dst[%d] = %v, want NaN", i, dst[i])
		}
	}
}

func TestEMASeedAndRecursion(t *testing.T) {
	const period = 5
	dst := make([]float64, len(closePrices))
	EMA(closePrices, dst, period)

	for i := 0; i < period-1; i++ {
		if !math.IsNaN(dst[i]) {
			t.Errorf("dst[%d] = %v, want NaN", i, dst[i])
		}
	}

	// Seed is the SMA of the first period values.
	if !almostEqual(dst[period-1], 101.4, 1e-10) {
		t.Errorf("seed = %v, want 101.4", dst[period-1])
	}

	// Serial recursion as the reference.
	alpha := 2.0 / float64(period+1)
	prev := 101.4
	for i := period; i < len(closePrices); i++ {
		prev = alpha*closePrices[i] + (1-alpha)*prev
		if !almostEqual(dst[i], prev, 1e-10) {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], prev)
		}
	}
}

func TestRSIEdgeRules(t *testing.T) {
	// Strictly rising series: no losses, RSI pins at 100.
	rising := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	dst := make([]float64, len(rising))
	RSI(rising, dst, 3)
	for i := 0; i < 3; i++ {
		if !math.IsNaN(dst[i]) {
			t.Errorf("rising dst[%d] = %v, want NaN", i, dst[i])
		}
	}
	for i := 3; i < len(rising); i++ {
		if dst[i] != 100 {
			t.Errorf("rising dst[%d] = %v, want 100", i, dst[i])
		}
	}

	// Strictly falling series: no gains, RSI pins at 0.
	falling := []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	RSI(falling, dst, 3)
	for i := 3; i < len(falling); i++ {
		if dst[i] != 0 {
			t.Errorf("falling dst[%d] = %v, want 0", i, dst[i])
		}
	}
}

func TestRSIBounded(t *testing.T) {
	dst := make([]float64, len(closePrices))
	RSI(closePrices, dst, 14)
	for i := 14; i < len(closePrices); i++ {
		if dst[i] < 0 || dst[i] > 100 {
			t.Errorf("dst[%d] = %v outside [0, 100]", i, dst[i])
		}
	}
}

func TestMACDNaNPrefix(t *testing.T) {
	n := 120
	data := make([]float64, n)
	for i := range data {
		data[i] = 100 + 10*math.Sin(float64(i)/7)
	}

	const fast, slow, signal = 12, 26, 9
	macd := make([]float64, n)
	sig := make([]float64, n)
	hist := make([]float64, n)
	MACD(data, macd, sig, hist, fast, slow, signal)

	firstHist := slow + signal - 2
	for i := 0; i < firstHist; i++ {
		if !math.IsNaN(hist[i]) {
			t.Errorf("hist[%d] = %v, want NaN", i, hist[i])
		}
	}
	for i := firstHist; i < n; i++ {
		if math.IsNaN(hist[i]) {
			t.Errorf("hist[%d] is NaN past warm-up", i)
		}
		if !almostEqual(hist[i], macd[i]-sig[i], 1e-10) {
			t.Errorf("hist[%d] = %v, want macd-signal = %v", i, hist[i], macd[i]-sig[i])
		}
	}
}

func TestBollingerBands(t *testing.T) {
	n := len(closePrices)
	mid := make([]float64, n)
	top := make([]float64, n)
	bot := make([]float64, n)
	Bollinger(closePrices, mid, top, bot, 5, 2.0)

	for i := 4; i < n; i++ {
		if !(top[i] >= mid[i] && mid[i] >= bot[i]) {
			t.Errorf("band ordering violated at %d: top %v mid %v bot %v", i, top[i], mid[i], bot[i])
		}
	}

	// Constant input collapses the bands onto the middle.
	flat := []float64{5, 5, 5, 5, 5, 5}
	m := make([]float64, 6)
	u := make([]float64, 6)
	l := make([]float64, 6)
	Bollinger(flat, m, u, l, 3, 2.0)
	for i := 2; i < 6; i++ {
		if u[i] != 5 || l[i] != 5 || m[i] != 5 {
			t.Errorf("flat bands at %d: top %v mid %v bot %v, want all 5", i, u[i], m[i], l[i])
		}
	}
}

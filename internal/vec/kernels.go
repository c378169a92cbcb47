package vec

import "math"

// SlidingSum writes the rolling sum over window into dst. Entries before
// window-1 are NaN. The computation is incremental: one subtraction and one
// addition per step after the first window.
func SlidingSum(data, dst []float64, window int) {
	n := len(data)
	if n == 0 || window <= 0 {
		return
	}
	for i := 0; i < window-1 && i < n; i++ {
		dst[i] = math.NaN()
	}
	if n < window {
		return
	}
	sum := Sum(data[:window])
	dst[window-1] = sum
	for i := window; i < n; i++ {
		sum += data[i] - data[i-window]
		dst[i] = sum
	}
}

// SlidingMean writes the rolling mean over window into dst with the same
// NaN-prefix contract as SlidingSum.
func SlidingMean(data, dst []float64, window int) {
	SlidingSum(data, dst, window)
	inv := 1.0 / float64(window)
	for i := window - 1; i < len(data); i++ {
		dst[i] *= inv
	}
}

// SlidingMax writes the rolling maximum over window into dst using a
// monotonically decreasing index deque: amortized O(1) per step.
func SlidingMax(data, dst []float64, window int) {
	slidingExtreme(data, dst, window, func(a, b float64) bool { return a >= b })
}

// SlidingMin writes the rolling minimum over window into dst.
func SlidingMin(data, dst []float64, window int) {
	slidingExtreme(data, dst, window, func(a, b float64) bool { return a <= b })
}

// slidingExtreme keeps a deque of candidate indices whose values are
// monotone under better: the front is always the window extreme.
func slidingExtreme(data, dst []float64, window int, better func(a, b float64) bool) {
	n := len(data)
	if n == 0 || window <= 0 {
		return
	}
	deque := make([]int, 0, window)
	for i := 0; i < n; i++ {
		for len(deque) > 0 && deque[0] <= i-window {
			deque = deque[1:]
		}
		for len(deque) > 0 && better(data[i], data[deque[len(deque)-1]]) {
			deque = deque[:len(deque)-1]
		}
		deque = append(deque, i)
		if i < window-1 {
			dst[i] = math.NaN()
		} else {
			dst[i] = data[deque[0]]
		}
	}
}

// EMA writes an exponential moving average into dst. The first defined slot
// at period-1 is seeded with the SMA of the first period values; after that
// dst[i] = alpha*data[i] + (1-alpha)*dst[i-1] with alpha = 2/(period+1).
func EMA(data, dst []float64, period int) {
	emaAlpha(data, dst, period, 2.0/(float64(period)+1.0))
}

// WilderEMA is EMA with alpha = 1/period (Wilder smoothing, used by RSI).
func WilderEMA(data, dst []float64, period int) {
	emaAlpha(data, dst, period, 1.0/float64(period))
}

func emaAlpha(data, dst []float64, period int, alpha float64) {
	n := len(data)
	if n == 0 || period <= 0 {
		return
	}
	for i := 0; i < period-1 && i < n; i++ {
		dst[i] = math.NaN()
	}
	if n < period {
		return
	}
	dst[period-1] = Sum(data[:period]) / float64(period)
	oneMinus := 1.0 - alpha
	for i := period; i < n; i++ {
		dst[i] = alpha*data[i] + oneMinus*dst[i-1]
	}
}

// RSI writes the Wilder relative strength index into dst. One-step price
// differences are split into gains and losses, each smoothed with Wilder's
// alpha = 1/period after an SMA seed. The first defined output sits at index
// period (the differencing consumes one bar). A zero average loss yields
// 100; a zero average gain yields 0.
func RSI(data, dst []float64, period int) {
	n := len(data)
	if n < 2 || period <= 0 {
		for i := range dst[:n] {
			dst[i] = math.NaN()
		}
		return
	}

	gains := make([]float64, n-1)
	losses := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		change := data[i+1] - data[i]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	avgGain := make([]float64, n-1)
	avgLoss := make([]float64, n-1)
	WilderEMA(gains, avgGain, period)
	WilderEMA(losses, avgLoss, period)

	for i := 0; i < period && i < n; i++ {
		dst[i] = math.NaN()
	}
	for i := period; i < n; i++ {
		ag := avgGain[i-1]
		al := avgLoss[i-1]
		switch {
		case al == 0:
			dst[i] = 100.0
		case ag == 0:
			dst[i] = 0.0
		default:
			rs := ag / al
			dst[i] = 100.0 - 100.0/(1.0+rs)
		}
	}
}

// MACD writes the MACD line (fast EMA - slow EMA), its signal EMA, and the
// histogram into the three destination slices. The signal EMA runs over the
// first-valid-forward slice of the MACD line. The MACD line is NaN before
// index slow-1; the signal and histogram are NaN before slow+signal-2.
func MACD(data, macdDst, signalDst, histDst []float64, fast, slow, signal int) {
	n := len(data)
	if n < slow {
		for i := 0; i < n; i++ {
			macdDst[i] = math.NaN()
			signalDst[i] = math.NaN()
			histDst[i] = math.NaN()
		}
		return
	}

	fastEMA := make([]float64, n)
	slowEMA := make([]float64, n)
	EMA(data, fastEMA, fast)
	EMA(data, slowEMA, slow)

	firstValid := slow - 1
	for i := 0; i < n; i++ {
		if math.IsNaN(fastEMA[i]) || math.IsNaN(slowEMA[i]) {
			macdDst[i] = math.NaN()
		} else {
			macdDst[i] = fastEMA[i] - slowEMA[i]
		}
	}

	for i := range signalDst[:n] {
		signalDst[i] = math.NaN()
	}
	if firstValid+signal <= n {
		valid := make([]float64, n-firstValid)
		out := make([]float64, n-firstValid)
		copy(valid, macdDst[firstValid:])
		EMA(valid, out, signal)
		copy(signalDst[firstValid:], out)
	}

	for i := 0; i < n; i++ {
		if math.IsNaN(macdDst[i]) || math.IsNaN(signalDst[i]) {
			histDst[i] = math.NaN()
		} else {
			histDst[i] = macdDst[i] - signalDst[i]
		}
	}
}

// Bollinger writes the middle band (SMA), upper band (mid + dev*sigma), and
// lower band (mid - dev*sigma) into the destination slices. Sigma is the
// population standard deviation over the window, so a constant window yields
// bands collapsed onto the middle.
func Bollinger(data, midDst, topDst, botDst []float64, period int, dev float64) {
	n := len(data)
	if n < period {
		for i := 0; i < n; i++ {
			midDst[i] = math.NaN()
			topDst[i] = math.NaN()
			botDst[i] = math.NaN()
		}
		return
	}

	SlidingMean(data, midDst, period)
	for i := 0; i < period-1; i++ {
		topDst[i] = math.NaN()
		botDst[i] = math.NaN()
	}
	for i := period - 1; i < n; i++ {
		window := data[i-period+1 : i+1]
		sigma := StdDev(window, midDst[i])
		topDst[i] = midDst[i] + dev*sigma
		botDst[i] = midDst[i] - dev*sigma
	}
}

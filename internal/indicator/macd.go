package indicator

import (
	"altair/internal/lines"
	"altair/internal/vec"
)

// MACD line indices.
const (
	MACDLineMACD = iota
	MACDLineSignal
	MACDLineHist
)

// MACD is the moving average convergence/divergence: fast EMA minus slow
// EMA, a signal EMA over the valid MACD values, and their difference as the
// histogram. The MACD line is NaN before index slow-1; the signal and
// histogram are NaN before slow+signal-2.
type MACD struct {
	Base
	fast   int
	slow   int
	signal int

	emaFast *EMA
	emaSlow *EMA

	sigAlpha float64
	sigSeen  int
	sigSum   float64
	sigPrev  float64
	sigInit  bool
}

// Compile-time interface check.
var _ Indicator = (*MACD)(nil)

// NewMACD creates a MACD over the given source line.
func NewMACD(src *lines.Buffer, fast, slow, signal int) *MACD {
	m := &MACD{
		Base:     NewBase(src, "macd", "signal", "histogram"),
		fast:     fast,
		slow:     slow,
		signal:   signal,
		emaFast:  NewEMA(src, fast),
		emaSlow:  NewEMA(src, slow),
		sigAlpha: 2.0 / (float64(signal) + 1.0),
	}
	m.setOwnPeriod(slow + signal - 1)
	return m
}

// Value returns the MACD line at signed offset k.
func (m *MACD) Value(k int) float64 { return m.out.Line(MACDLineMACD).Get(k) }

// Signal returns the signal line at signed offset k.
func (m *MACD) Signal(k int) float64 { return m.out.Line(MACDLineSignal).Get(k) }

// Histogram returns the histogram at signed offset k.
func (m *MACD) Histogram(k int) float64 { return m.out.Line(MACDLineHist).Get(k) }

// Next implements Indicator.
func (m *MACD) Next() {
	m.emaFast.Next()
	m.emaSlow.Next()

	fast := m.emaFast.Value(0)
	slow := m.emaSlow.Value(0)
	if isNaN(fast) || isNaN(slow) {
		m.push(lines.NaN, lines.NaN, lines.NaN)
		return
	}
	macd := fast - slow

	// The signal EMA runs over the valid MACD values only, seeded with the
	// SMA of the first `signal` of them.
	var sig float64 = lines.NaN
	if !m.sigInit {
		m.sigSeen++
		m.sigSum += macd
		if m.sigSeen == m.signal {
			m.sigPrev = m.sigSum / float64(m.signal)
			m.sigInit = true
			sig = m.sigPrev
		}
	} else {
		m.sigPrev = m.sigAlpha*macd + (1.0-m.sigAlpha)*m.sigPrev
		sig = m.sigPrev
	}

	if isNaN(sig) {
		m.push(macd, lines.NaN, lines.NaN)
		return
	}
	m.push(macd, sig, macd-sig)
}

// Once implements Indicator via the MACD kernel.
func (m *MACD) Once(start, end int) {
	data := m.srcValues()
	if data == nil {
		onceByNext(m, m.src, start, end)
		return
	}
	n := len(data)
	macd := make([]float64, n)
	sig := make([]float64, n)
	hist := make([]float64, n)
	vec.MACD(data, macd, sig, hist, m.fast, m.slow, m.signal)
	m.pushAll(MACDLineMACD, macd[start:end])
	m.pushAll(MACDLineSignal, sig[start:end])
	m.pushAll(MACDLineHist, hist[start:end])
}

func isNaN(v float64) bool { return v != v }

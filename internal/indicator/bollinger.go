package indicator

import (
	"altair/internal/lines"
	"altair/internal/vec"
)

// Bollinger line indices.
const (
	BollLineMid = iota
	BollLineTop
	BollLineBot
)

// Bollinger computes Bollinger bands: an SMA middle band and upper/lower
// bands k population standard deviations away.
type Bollinger struct {
	Base
	period int
	dev    float64

	sma *SMA
	std *StdDev
}

// Compile-time interface check.
var _ Indicator = (*Bollinger)(nil)

// NewBollinger creates Bollinger bands over the given source line.
func NewBollinger(src *lines.Buffer, period int, dev float64) *Bollinger {
	b := &Bollinger{
		Base:   NewBase(src, "mid", "top", "bot"),
		period: period,
		dev:    dev,
		sma:    NewSMA(src, period),
		std:    NewStdDev(src, period),
	}
	b.setOwnPeriod(period)
	return b
}

// Mid returns the middle band at signed offset k.
func (b *Bollinger) Mid(k int) float64 { return b.out.Line(BollLineMid).Get(k) }

// Top returns the upper band at signed offset k.
func (b *Bollinger) Top(k int) float64 { return b.out.Line(BollLineTop).Get(k) }

// Bot returns the lower band at signed offset k.
func (b *Bollinger) Bot(k int) float64 { return b.out.Line(BollLineBot).Get(k) }

// PercentB returns the position of price within the bands: 0 at the lower
// band, 1 at the upper. Collapsed bands (top == bottom) define it as 0.5.
func (b *Bollinger) PercentB(price float64, k int) float64 {
	top := b.Top(k)
	bot := b.Bot(k)
	if top == bot {
		return 0.5
	}
	return (price - bot) / (top - bot)
}

// Bandwidth returns (top-bot)/mid, or 0 when the middle band is 0.
func (b *Bollinger) Bandwidth(k int) float64 {
	mid := b.Mid(k)
	if mid == 0 {
		return 0
	}
	return (b.Top(k) - b.Bot(k)) / mid
}

// Next implements Indicator.
func (b *Bollinger) Next() {
	b.sma.Next()
	b.std.Next()

	mid := b.sma.Value(0)
	sd := b.std.Value(0)
	b.push(mid, mid+b.dev*sd, mid-b.dev*sd)
}

// Once implements Indicator via the Bollinger kernel.
func (b *Bollinger) Once(start, end int) {
	data := b.srcValues()
	if data == nil {
		onceByNext(b, b.src, start, end)
		return
	}
	n := len(data)
	mid := make([]float64, n)
	top := make([]float64, n)
	bot := make([]float64, n)
	vec.Bollinger(data, mid, top, bot, b.period, b.dev)
	b.pushAll(BollLineMid, mid[start:end])
	b.pushAll(BollLineTop, top[start:end])
	b.pushAll(BollLineBot, bot[start:end])
}

package broker

import (
	"math"

	"altair/internal/domain"
)

// SlippageConfig shifts execution prices against the trader.
type SlippageConfig struct {
	Perc  float64 // slippage as a fraction of price
	Fixed float64 // fixed slippage amount (used when Perc is zero)

	SlipOpen  bool // apply to fills at the bar open (market orders)
	SlipMatch bool // apply to fills matched against high/low (stops)
	SlipLimit bool // apply to limit fills
	SlipOut   bool // allow shifted prices outside the bar range
}

// amount returns the absolute shift at price.
func (s SlippageConfig) amount(price float64) float64 {
	if s.Perc > 0 {
		return price * s.Perc
	}
	return s.Fixed
}

// Apply shifts price against the trader (up for buys, down for sells) and,
// unless SlipOut is set, clamps the result into [low, high].
func (s SlippageConfig) Apply(price float64, isBuy bool, low, high float64) float64 {
	shift := s.amount(price)
	if shift == 0 {
		return price
	}
	if isBuy {
		price += shift
	} else {
		price -= shift
	}
	if !s.SlipOut {
		price = math.Min(math.Max(price, low), high)
	}
	return price
}

// VolumeFiller bounds how much of an order a single bar can fill.
type VolumeFiller interface {
	// Fill returns the size fillable for the order at price given the
	// bar's volume. The order's remaining size is the natural upper bound.
	Fill(o *domain.Order, price, volume float64) float64
}

// DefaultFiller fills the entire remaining size regardless of volume.
type DefaultFiller struct{}

// Compile-time interface check.
var _ VolumeFiller = DefaultFiller{}

// Fill implements VolumeFiller.
func (DefaultFiller) Fill(o *domain.Order, _, _ float64) float64 {
	return o.Remaining()
}

// BarVolumeFiller fills at most a percentage of the bar's volume.
type BarVolumeFiller struct {
	MaxPercent float64 // e.g. 50 fills at most half the bar volume
}

// Compile-time interface check.
var _ VolumeFiller = BarVolumeFiller{}

// Fill implements VolumeFiller.
func (f BarVolumeFiller) Fill(o *domain.Order, _, volume float64) float64 {
	maxFill := math.Floor(volume * f.MaxPercent / 100.0)
	return math.Min(o.Remaining(), maxFill)
}

// FixedVolumeFiller fills at most a fixed size per bar.
type FixedVolumeFiller struct {
	MaxSize float64
}

// Compile-time interface check.
var _ VolumeFiller = FixedVolumeFiller{}

// Fill implements VolumeFiller.
func (f FixedVolumeFiller) Fill(o *domain.Order, _, _ float64) float64 {
	return math.Min(o.Remaining(), f.MaxSize)
}

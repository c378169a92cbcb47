package feed

import "time"

// MemoryFeed holds bars assembled in memory. It is the feed used by tests
// and by callers that embed the engine with already-materialized data.
type MemoryFeed struct {
	*Series
}

// Compile-time interface check.
var _ Feed = (*MemoryFeed)(nil)

// NewMemoryFeed creates an empty in-memory feed.
func NewMemoryFeed(name string) *MemoryFeed {
	return &MemoryFeed{Series: NewSeries(name, nil)}
}

// NewMemoryFeedFromBars creates a feed pre-populated with bars (sorted by
// timestamp before insertion).
func NewMemoryFeedFromBars(name string, bars []Bar) *MemoryFeed {
	f := NewMemoryFeed(name)
	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sortBars(sorted)
	f.AppendBars(sorted)
	return f
}

// NewMemoryFeedFromCloses builds a daily feed from a close series, starting
// at start and synthesizing open/high/low around each close. Convenient for
// tests and examples that only care about the close line.
func NewMemoryFeedFromCloses(name string, start time.Time, closes []float64) *MemoryFeed {
	bars := make([]Bar, len(closes))
	prev := closes[0]
	for i, c := range closes {
		o := prev
		h := o
		if c > h {
			h = c
		}
		l := o
		if c < l {
			l = c
		}
		bars[i] = Bar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      o,
			High:      h,
			Low:       l,
			Close:     c,
			Volume:    1e6,
		}
		prev = c
	}
	return NewMemoryFeedFromBars(name, bars)
}

// Add appends a single bar.
func (f *MemoryFeed) Add(b Bar) { f.AppendBars([]Bar{b}) }

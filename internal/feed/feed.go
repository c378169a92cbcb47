// Package feed defines the data-feed contract consumed by the engine and
// provides in-memory, Parquet, and SQLite backed implementations. A feed
// exposes an OHLCV line series plus a datetime line encoded as days since
// the Unix epoch, populated in strictly increasing datetime order.
package feed

import (
	"fmt"
	"sort"
	"time"

	"altair/internal/lines"
)

// Bar is one OHLCV record as produced by a loader.
type Bar struct {
	Timestamp    time.Time
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       float64
	OpenInterest float64
}

// Feed is the boundary between loaders and the engine. The broker keys
// positions and commission schemes by Name.
type Feed interface {
	// Name returns the unique identifier of this feed.
	Name() string

	// Load populates the lines in strictly increasing datetime order.
	Load() error

	// Length returns the total number of bars.
	Length() int

	// Lines returns the OHLCV+datetime series.
	Lines() *lines.Data
}

// secondsPerDay converts between days-since-epoch and time.Time.
const secondsPerDay = 86400.0

// TimeToNum encodes t as days since the Unix epoch; the sub-day fraction
// carries the time of day. The encoding is time-zone naive (UTC).
func TimeToNum(t time.Time) float64 {
	return float64(t.UnixNano()) / (secondsPerDay * 1e9)
}

// NumToTime decodes a days-since-epoch value back into a UTC time.
func NumToTime(num float64) time.Time {
	return time.Unix(0, int64(num*secondsPerDay*1e9)).UTC()
}

// Series is the common feed implementation backing every loader: a named
// data series filled by a load function.
type Series struct {
	name   string
	data   *lines.Data
	loaded bool
	loader func() ([]Bar, error)
}

// Compile-time interface check.
var _ Feed = (*Series)(nil)

// NewSeries creates a feed with the given bar loader. A nil loader makes an
// always-empty feed.
func NewSeries(name string, loader func() ([]Bar, error)) *Series {
	return &Series{name: name, data: lines.NewData(), loader: loader}
}

// Name returns the feed identifier.
func (s *Series) Name() string { return s.name }

// Lines returns the underlying series.
func (s *Series) Lines() *lines.Data { return s.data }

// Length returns the total number of loaded bars.
func (s *Series) Length() int { return s.data.Len() }

// Load fetches bars from the loader and appends them to the lines. Bars
// that do not advance the datetime are dropped (bad rows are skipped, the
// load continues). Load is idempotent: a second call is a no-op.
func (s *Series) Load() error {
	if s.loaded {
		return nil
	}
	if s.loader != nil {
		bars, err := s.loader()
		if err != nil {
			return fmt.Errorf("feed %s: %w", s.name, err)
		}
		s.AppendBars(bars)
	}
	s.loaded = true
	return nil
}

// View returns a feed sharing this feed's loaded data with independent
// cursors. Optimization workers read the same preloaded bars through views
// so no cursor state crosses goroutines.
func (s *Series) View() *Series {
	return &Series{name: s.name, data: s.data.View(), loaded: true}
}

// AppendBars pushes bars onto the lines, enforcing strictly increasing
// datetimes by dropping violating rows.
func (s *Series) AppendBars(bars []Bar) {
	lastDT := lines.NaN
	if s.data.Len() > 0 {
		lastDT = s.data.Datetime().Last()
	}
	for _, b := range bars {
		dt := TimeToNum(b.Timestamp)
		if dt <= lastDT {
			continue
		}
		s.data.AddBar(dt, b.Open, b.High, b.Low, b.Close, b.Volume, b.OpenInterest)
		lastDT = dt
	}
}

// sortBars orders bars by timestamp ascending (stable).
func sortBars(bars []Bar) {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
}

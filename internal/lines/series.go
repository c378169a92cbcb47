package lines

import "fmt"

// Series is a fixed set of named buffers sharing a cursor. Cursor movement
// fans out to every line; the series' minimum period is the maximum over
// its lines.
type Series struct {
	names  []string
	lines  []*Buffer
	byName map[string]int
}

// NewSeries creates a series with one unbounded buffer per name.
func NewSeries(names ...string) *Series {
	s := &Series{byName: make(map[string]int, len(names))}
	for _, n := range names {
		s.addLine(n)
	}
	return s
}

func (s *Series) addLine(name string) *Buffer {
	b := NewBuffer()
	s.byName[name] = len(s.lines)
	s.names = append(s.names, name)
	s.lines = append(s.lines, b)
	return b
}

// AddLine appends a new named line and returns its buffer.
func (s *Series) AddLine(name string) *Buffer { return s.addLine(name) }

// NumLines returns the number of lines.
func (s *Series) NumLines() int { return len(s.lines) }

// Line returns the buffer at index i.
func (s *Series) Line(i int) *Buffer { return s.lines[i] }

// LineName returns the name of the line at index i.
func (s *Series) LineName(i int) string { return s.names[i] }

// LineByName resolves a line by name.
func (s *Series) LineByName(name string) (*Buffer, error) {
	i, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("lines: no line named %q", name)
	}
	return s.lines[i], nil
}

// Advance moves every line's cursor one bar forward.
func (s *Series) Advance() {
	for _, l := range s.lines {
		l.Advance()
	}
}

// Rewind moves every line's cursor one bar back.
func (s *Series) Rewind() {
	for _, l := range s.lines {
		l.Rewind()
	}
}

// Home resets every line's cursor to the first bar.
func (s *Series) Home() {
	for _, l := range s.lines {
		l.Home()
	}
}

// Seek positions every line's cursor at absolute index i.
func (s *Series) Seek(i int) {
	for _, l := range s.lines {
		l.Seek(i)
	}
}

// Position returns the shared cursor position (taken from line 0).
func (s *Series) Position() int {
	if len(s.lines) == 0 {
		return 0
	}
	return s.lines[0].Position()
}

// Size returns the retained length of line 0.
func (s *Series) Size() int {
	if len(s.lines) == 0 {
		return 0
	}
	return s.lines[0].Size()
}

// Len returns the total pushed length of line 0.
func (s *Series) Len() int {
	if len(s.lines) == 0 {
		return 0
	}
	return s.lines[0].Len()
}

// MinPeriod returns the maximum minimum period over all lines.
func (s *Series) MinPeriod() int {
	mp := 1
	for _, l := range s.lines {
		if l.MinPeriod() > mp {
			mp = l.MinPeriod()
		}
	}
	return mp
}

// UpdateMinPeriod raises the minimum period of every line.
func (s *Series) UpdateMinPeriod(mp int) {
	for _, l := range s.lines {
		l.UpdateMinPeriod(mp)
	}
}

// Reset clears every line and returns the cursors home.
func (s *Series) Reset() {
	for _, l := range s.lines {
		l.Reset()
	}
}

// Standard line indices of an OHLCV series.
const (
	LineOpen = iota
	LineHigh
	LineLow
	LineClose
	LineVolume
	LineOpenInterest
)

// OHLCV is the six-line bar specialization: open, high, low, close, volume,
// openinterest.
type OHLCV struct {
	*Series
}

// NewOHLCV creates an empty OHLCV series.
func NewOHLCV() *OHLCV {
	return &OHLCV{Series: NewSeries("open", "high", "low", "close", "volume", "openinterest")}
}

// Open returns the open line.
func (s *OHLCV) Open() *Buffer { return s.Line(LineOpen) }

// High returns the high line.
func (s *OHLCV) High() *Buffer { return s.Line(LineHigh) }

// Low returns the low line.
func (s *OHLCV) Low() *Buffer { return s.Line(LineLow) }

// Close returns the close line.
func (s *OHLCV) Close() *Buffer { return s.Line(LineClose) }

// Volume returns the volume line.
func (s *OHLCV) Volume() *Buffer { return s.Line(LineVolume) }

// OpenInterest returns the open-interest line.
func (s *OHLCV) OpenInterest() *Buffer { return s.Line(LineOpenInterest) }

// AddBar appends one value to each of the six standard lines.
func (s *OHLCV) AddBar(o, h, l, c, v, oi float64) {
	s.Open().Push(o)
	s.High().Push(h)
	s.Low().Push(l)
	s.Close().Push(c)
	s.Volume().Push(v)
	s.OpenInterest().Push(oi)
}

// Data is the data-feed specialization: OHLCV plus a datetime line encoded
// as days since the Unix epoch (the sub-day fraction carries time of day).
// The datetime line is pushed in lockstep with every bar.
type Data struct {
	*OHLCV
	datetime *Buffer
}

// NewData creates an empty data series.
func NewData() *Data {
	d := &Data{OHLCV: NewOHLCV()}
	d.datetime = d.AddLine("datetime")
	return d
}

// Datetime returns the datetime line.
func (d *Data) Datetime() *Buffer { return d.datetime }

// AddBar appends one bar across all seven lines.
func (d *Data) AddBar(dt, o, h, l, c, v, oi float64) {
	d.datetime.Push(dt)
	d.OHLCV.AddBar(o, h, l, c, v, oi)
}

package lines

import (
	"math"
	"testing"
)

func TestSeriesCursorFanOut(t *testing.T) {
	s := NewSeries("a", "b")
	s.Line(0).Extend([]float64{1, 2, 3})
	s.Line(1).Extend([]float64{10, 20, 30})

	s.Advance()
	if got := s.Line(0).Get(0); got != 2 {
		t.Errorf("line a Get(0) = %v, want 2", got)
	}
	if got := s.Line(1).Get(0); got != 20 {
		t.Errorf("line b Get(0) = %v, want 20", got)
	}

	s.Home()
	if s.Position() != 0 {
		t.Errorf("Position() after Home = %d, want 0", s.Position())
	}
}

func TestSeriesLineByName(t *testing.T) {
	s := NewSeries("alpha", "beta")
	if _, err := s.LineByName("alpha"); err != nil {
		t.Errorf("LineByName(alpha) returned error: %v", err)
	}
	if _, err := s.LineByName("gamma"); err == nil {
		t.Error("LineByName(gamma) should fail")
	}
}

func TestSeriesMinPeriodIsMax(t *testing.T) {
	s := NewSeries("a", "b", "c")
	s.Line(0).SetMinPeriod(3)
	s.Line(1).SetMinPeriod(7)
	s.Line(2).SetMinPeriod(5)

	if got := s.MinPeriod(); got != 7 {
		t.Errorf("MinPeriod() = %d, want 7", got)
	}
}

func TestOHLCVAddBar(t *testing.T) {
	s := NewOHLCV()
	s.AddBar(10, 12, 9, 11, 1000, 0)
	s.AddBar(11, 13, 10, 12, 1100, 0)

	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}

	s.Seek(1)
	if got := s.Open().Get(0); got != 11 {
		t.Errorf("Open().Get(0) = %v, want 11", got)
	}
	if got := s.Close().Get(1); got != 11 {
		t.Errorf("Close().Get(1) = %v, want 11", got)
	}
	if got := s.High().Get(0); got != 13 {
		t.Errorf("High().Get(0) = %v, want 13", got)
	}
	if got := s.Volume().Get(0); got != 1100 {
		t.Errorf("Volume().Get(0) = %v, want 1100", got)
	}
}

func TestDataSeriesDatetimeLockstep(t *testing.T) {
	d := NewData()
	d.AddBar(19700.5, 10, 12, 9, 11, 1000, 0)

	if d.Datetime().Len() != d.Close().Len() {
		t.Errorf("datetime length %d != close length %d", d.Datetime().Len(), d.Close().Len())
	}
	if got := d.Datetime().Get(0); got != 19700.5 {
		t.Errorf("Datetime().Get(0) = %v, want 19700.5", got)
	}
	if got := d.Datetime().Get(1); !math.IsNaN(got) {
		t.Errorf("Datetime().Get(1) = %v, want NaN", got)
	}
}

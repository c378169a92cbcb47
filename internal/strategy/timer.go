package strategy

import "time"

// TimeOfDay is a wall-clock trigger time.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// Minutes returns the minutes elapsed since midnight.
func (t TimeOfDay) Minutes() int { return t.Hour*60 + t.Minute }

// Timer fires at a time of day (plus an offset) on filtered weekdays and
// month days, optionally repeating within the day. A cheat timer fires
// before bar processing instead of after.
type Timer struct {
	ID            int
	When          TimeOfDay
	OffsetMinutes int
	RepeatMinutes int
	Weekdays      []time.Weekday // empty means every weekday
	MonthDays     []int          // empty means every day of month
	Cheat         bool

	triggered   bool
	nextMinutes int
	lastDay     int
}

func (t *Timer) weekdayAllowed(d time.Weekday) bool {
	if len(t.Weekdays) == 0 {
		return true
	}
	for _, w := range t.Weekdays {
		if w == d {
			return true
		}
	}
	return false
}

func (t *Timer) monthDayAllowed(day int) bool {
	if len(t.MonthDays) == 0 {
		return true
	}
	for _, d := range t.MonthDays {
		if d == day {
			return true
		}
	}
	return false
}

// Check reports whether the timer fires at dt. The internal triggered flag
// resets on a new calendar day.
func (t *Timer) Check(dt time.Time) bool {
	if day := dt.YearDay() + dt.Year()*1000; day != t.lastDay {
		t.triggered = false
		t.nextMinutes = 0
		t.lastDay = day
	}

	if !t.weekdayAllowed(dt.Weekday()) || !t.monthDayAllowed(dt.Day()) {
		return false
	}

	trigger := t.When.Minutes() + t.OffsetMinutes
	current := dt.Hour()*60 + dt.Minute()

	if !t.triggered {
		if current >= trigger {
			t.triggered = true
			if t.RepeatMinutes > 0 {
				t.nextMinutes = trigger + t.RepeatMinutes
			}
			return true
		}
		return false
	}

	if t.RepeatMinutes > 0 && current >= t.nextMinutes {
		t.nextMinutes += t.RepeatMinutes
		return true
	}
	return false
}

// TimerManager owns a strategy's timers and enumerates the ones that fire
// on each bar.
type TimerManager struct {
	timers []*Timer
	nextID int
}

// Add registers a timer and returns its assigned id.
func (m *TimerManager) Add(t Timer) int {
	t.ID = m.nextID
	m.nextID++
	m.timers = append(m.timers, &t)
	return t.ID
}

// Remove deletes a timer by id.
func (m *TimerManager) Remove(id int) bool {
	for i, t := range m.timers {
		if t.ID == id {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns a timer by id, or nil.
func (m *TimerManager) Get(id int) *Timer {
	for _, t := range m.timers {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Len returns the number of timers.
func (m *TimerManager) Len() int { return len(m.timers) }

// Check returns the timers that fire at dt in the given phase (cheat
// timers fire in the pre-bar phase).
func (m *TimerManager) Check(dt time.Time, cheatPhase bool) []*Timer {
	var fired []*Timer
	for _, t := range m.timers {
		if t.Cheat != cheatPhase {
			continue
		}
		if t.Check(dt) {
			fired = append(fired, t)
		}
	}
	return fired
}

// ---------------------------------------------------------------------------
// Schedule presets
// ---------------------------------------------------------------------------

// MarketOpenTimer fires at 9:30 plus an offset.
func MarketOpenTimer(offsetMinutes int) Timer {
	return Timer{When: TimeOfDay{Hour: 9, Minute: 30}, OffsetMinutes: offsetMinutes}
}

// MarketCloseTimer fires at 16:00 plus an offset.
func MarketCloseTimer(offsetMinutes int) Timer {
	return Timer{When: TimeOfDay{Hour: 16}, OffsetMinutes: offsetMinutes}
}

// MonthStartTimer fires on the first days of each month; several days are
// listed so a weekend first still triggers.
func MonthStartTimer(when TimeOfDay) Timer {
	return Timer{When: when, MonthDays: []int{1, 2, 3}}
}

// WeekdayTimer fires on one weekday at the given time.
func WeekdayTimer(day time.Weekday, when TimeOfDay) Timer {
	return Timer{When: when, Weekdays: []time.Weekday{day}}
}

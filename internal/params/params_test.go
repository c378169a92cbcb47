package params

import "testing"

func TestGetMissingFails(t *testing.T) {
	p := New()
	if _, err := p.Get("period"); err == nil {
		t.Error("Get on missing key should fail")
	}

	p.Set("period", Int(14))
	v, err := p.Get("period")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if v.Int() != 14 {
		t.Errorf("Int() = %d, want 14", v.Int())
	}
}

func TestDefaults(t *testing.T) {
	p := New()
	if got := p.Int("period", 30); got != 30 {
		t.Errorf("Int default = %d, want 30", got)
	}
	if got := p.Float("devfactor", 2.0); got != 2.0 {
		t.Errorf("Float default = %v, want 2.0", got)
	}
	if got := p.Bool("percabs", true); !got {
		t.Error("Bool default = false, want true")
	}
	if got := p.Str("name", "sma"); got != "sma" {
		t.Errorf("Str default = %q, want %q", got, "sma")
	}
}

func TestNumericCoercion(t *testing.T) {
	p := New()
	p.Set("fast", Int(12))
	p.Set("dev", Float(2.5))

	if got := p.Float("fast", 0); got != 12.0 {
		t.Errorf("Float of int value = %v, want 12", got)
	}
	if got := p.Int("dev", 0); got != 2 {
		t.Errorf("Int of float value = %d, want 2", got)
	}
}

func TestMergeKeepsExisting(t *testing.T) {
	p := New()
	p.Set("period", Int(10))

	defaults := New()
	defaults.Set("period", Int(30))
	defaults.Set("devfactor", Float(2.0))

	p.Merge(defaults)
	if got := p.Int("period", 0); got != 10 {
		t.Errorf("period after Merge = %d, want 10", got)
	}
	if got := p.Float("devfactor", 0); got != 2.0 {
		t.Errorf("devfactor after Merge = %v, want 2.0", got)
	}
}

func TestOverrideWritesThrough(t *testing.T) {
	p := New()
	p.Set("period", Int(10))

	assignment := New()
	assignment.Set("period", Int(20))
	p.Override(assignment)

	if got := p.Int("period", 0); got != 20 {
		t.Errorf("period after Override = %d, want 20", got)
	}
}

func TestKeysSorted(t *testing.T) {
	p := New()
	p.Set("slow", Int(26))
	p.Set("fast", Int(12))
	p.Set("signal", Int(9))

	keys := p.Keys()
	want := []string{"fast", "signal", "slow"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() length = %d, want %d", len(keys), len(want))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p := New()
	p.Set("period", Int(10))
	c := p.Clone()
	c.Set("period", Int(99))

	if got := p.Int("period", 0); got != 10 {
		t.Errorf("original mutated by clone: period = %d, want 10", got)
	}
}

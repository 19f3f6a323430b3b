package htn

import (
	"sync"
	"testing"
)

func TestIntervalFactoryQualifiers(t *testing.T) {
	f := NewIntervalFactory()

	tests := []struct {
		name      string
		make      func() TemporalInterval
		start     string
		end       string
		qualifier string
	}{
		{"default", f.Default, "__d__0", "__d__1", ""},
		{"at start", f.AtStart, "__s__2", "__s__3", "at-start "},
		{"at end", f.AtEnd, "__e__4", "__e__5", "at-end "},
		{"over all", f.OverAll, "__s__6", "__e__7", "over-all "},
	}
	for _, tt := range tests {
		i := tt.make()
		if i.Start.Base() != tt.start || i.End.Base() != tt.end {
			t.Errorf("%s: got [%s, %s], want [%s, %s]", tt.name, i.Start.Base(), i.End.Base(), tt.start, tt.end)
		}
		if got := i.String(); got != tt.qualifier {
			t.Errorf("%s: String() = %q, want %q", tt.name, got, tt.qualifier)
		}
	}
	if got := f.Counter(); got != 8 {
		t.Errorf("Counter() = %d, want 8", got)
	}
}

func TestIntervalStringFallsBackToBounds(t *testing.T) {
	ts, te := NewVariableTimepoint("?ts"), NewVariableTimepoint("?te")
	if got := NewInterval(ts, te).String(); got != "[?ts, ?te] " {
		t.Errorf("String() = %q", got)
	}
	if got := NewInterval(NewConstantTimepoint(0), NewConstantTimepoint(5)).String(); got != "[0, 5] " {
		t.Errorf("String() = %q", got)
	}
	// A constant bound disables qualifier recovery.
	f := NewIntervalFactory()
	mixed := NewInterval(f.Default().Start, Zero)
	if got := mixed.String(); got != "[__d__0, 0] " {
		t.Errorf("String() = %q", got)
	}
}

func TestIntervalShift(t *testing.T) {
	f := NewIntervalFactory()
	i := f.AtEnd()
	shifted := i.Shift(Epsilon)

	if shifted.Equal(i) {
		t.Fatal("shifted interval should differ")
	}
	if !shifted.Sub(Epsilon).Equal(i) {
		t.Error("Sub should undo Shift")
	}
	if shifted.String() != "at-end " {
		t.Errorf("qualifier lost after shift: %q", shifted.String())
	}
}

func TestIntervalShiftKeepsUnsetBounds(t *testing.T) {
	half := TemporalInterval{Start: NewVariableTimepoint("?ts")}
	shifted := half.Shift(Epsilon)
	if shifted.End != nil || shifted.Complete() {
		t.Errorf("unset end should stay unset: %s", shifted.Key())
	}
	if shifted.Start.Offset().Cmp(Epsilon) != 0 {
		t.Errorf("start offset = %s, want epsilon", shifted.Start.Offset())
	}
	if zero := (TemporalInterval{}).Sub(Epsilon); !zero.IsZero() {
		t.Errorf("zero interval shifted to %s", zero.Key())
	}
}

func TestIntervalFactoriesAreIndependent(t *testing.T) {
	a, b := NewIntervalFactory(), NewIntervalFactory()
	a.Default()
	if got := b.Default().Start.Base(); got != "__d__0" {
		t.Errorf("second factory started at %q", got)
	}
}

func TestIntervalFactoryConcurrentUse(t *testing.T) {
	f := NewIntervalFactory()
	const workers, per = 8, 50

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < per; i++ {
				iv := f.OverAll()
				mu.Lock()
				seen[iv.Start.Base()] = true
				seen[iv.End.Base()] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*per*2 {
		t.Errorf("got %d distinct timepoints, want %d", len(seen), workers*per*2)
	}
}

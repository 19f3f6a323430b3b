package htn

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Synthetic timepoint prefixes minted by IntervalFactory.
const (
	defaultPrefix = "__d__"
	startPrefix   = "__s__"
	endPrefix     = "__e__"
)

// TemporalInterval is a pair of timepoints bounding validity, e.g. [2, 5].
type TemporalInterval struct {
	Start Timepoint
	End   Timepoint
}

// Bounded is anything with a temporal extent: intervals, tasks, methods.
type Bounded interface {
	Span() TemporalInterval
}

// NewInterval creates the interval [start, end].
func NewInterval(start, end Timepoint) TemporalInterval {
	return TemporalInterval{Start: start, End: end}
}

// Span returns i itself so an interval is Bounded.
func (i TemporalInterval) Span() TemporalInterval { return i }

// IsZero reports whether neither bound is set.
func (i TemporalInterval) IsZero() bool {
	return i.Start == nil && i.End == nil
}

// Complete reports whether both bounds are set.
func (i TemporalInterval) Complete() bool {
	return i.Start != nil && i.End != nil
}

// Shift delays both bounds by d. Unset bounds stay unset.
func (i TemporalInterval) Shift(d Delay) TemporalInterval {
	return TemporalInterval{Start: shift(i.Start, d), End: shift(i.End, d)}
}

// Sub advances both bounds by d.
func (i TemporalInterval) Sub(d Delay) TemporalInterval {
	return i.Shift(d.Neg())
}

func (i TemporalInterval) Key() string {
	var s, e string
	if i.Start != nil {
		s = i.Start.Key()
	}
	if i.End != nil {
		e = i.End.Key()
	}
	return "[" + s + ";" + e + "]"
}

// Equal compares both bounds structurally.
func (i TemporalInterval) Equal(other TemporalInterval) bool {
	return i.Key() == other.Key()
}

// String renders the PDDL-style qualifier recovered from synthetic
// timepoint names ("", "at-start ", "at-end ", "over-all "), or
// "[start, end] " for any other interval.
func (i TemporalInterval) String() string {
	if i.IsZero() {
		return ""
	}
	if i.Start == nil || i.End == nil {
		return fmt.Sprintf("[%v, %v] ", i.Start, i.End)
	}
	def := fmt.Sprintf("[%s, %s] ", i.Start, i.End)
	_, startConst := i.Start.(ConstantTimepoint)
	_, endConst := i.End.(ConstantTimepoint)
	if startConst || endConst {
		return def
	}
	s, e := i.Start.Base(), i.End.Base()
	switch {
	case strings.HasPrefix(s, defaultPrefix) && strings.HasPrefix(e, defaultPrefix):
		return ""
	case strings.HasPrefix(s, startPrefix) && strings.HasPrefix(e, startPrefix):
		return "at-start "
	case strings.HasPrefix(s, endPrefix) && strings.HasPrefix(e, endPrefix):
		return "at-end "
	case strings.HasPrefix(s, startPrefix) && strings.HasPrefix(e, endPrefix):
		return "over-all "
	}
	return def
}

// IntervalFactory mints intervals whose bounds are synthetic timepoints with
// identifiers unique to the factory. Each call consumes two ticks of a
// monotonically increasing counter. It is safe for concurrent use.
type IntervalFactory struct {
	counter atomic.Int64
}

// NewIntervalFactory creates a factory starting at 0.
func NewIntervalFactory() *IntervalFactory {
	return &IntervalFactory{}
}

// Counter returns the number of ticks consumed so far.
func (f *IntervalFactory) Counter() int64 {
	return f.counter.Load()
}

func (f *IntervalFactory) make(startPfx, endPfx string) TemporalInterval {
	n := f.counter.Add(2)
	return TemporalInterval{
		Start: NewVariableTimepoint(fmt.Sprintf("%s%d", startPfx, n-2)),
		End:   NewVariableTimepoint(fmt.Sprintf("%s%d", endPfx, n-1)),
	}
}

// Default returns a fresh unqualified interval, typical of sequential
// problems.
func (f *IntervalFactory) Default() TemporalInterval {
	return f.make(defaultPrefix, defaultPrefix)
}

// AtStart returns a fresh interval equivalent to PDDL "at start".
func (f *IntervalFactory) AtStart() TemporalInterval {
	return f.make(startPrefix, startPrefix)
}

// AtEnd returns a fresh interval equivalent to PDDL "at end".
func (f *IntervalFactory) AtEnd() TemporalInterval {
	return f.make(endPrefix, endPrefix)
}

// OverAll returns a fresh interval equivalent to PDDL "over all".
func (f *IntervalFactory) OverAll() TemporalInterval {
	return f.make(startPrefix, endPrefix)
}

package htn

import (
	"fmt"
	"sync/atomic"
)

// Session owns the counters used while authoring one or more problems: the
// interval factory and the method namer. Independent sessions may be used
// from different goroutines; a single session is also safe for concurrent
// use.
type Session struct {
	intervals *IntervalFactory
	methods   atomic.Int64
}

func NewSession() *Session {
	return &Session{intervals: NewIntervalFactory()}
}

// Intervals returns the session's interval factory.
func (s *Session) Intervals() *IntervalFactory { return s.intervals }

// MethodSymbol mints the next method symbol: method_0, method_1, ...
func (s *Session) MethodSymbol() Symbol {
	n := s.methods.Add(1) - 1
	return NewMethodSymbol(fmt.Sprintf("method_%d", n))
}

// Condition builds a condition over a fresh default interval.
func (s *Session) Condition(sv StateVariable, value TypedObject) Condition {
	return NewCondition(sv, value, s.intervals.Default())
}

// Effect builds an effect over a fresh default interval.
func (s *Session) Effect(sv StateVariable, value TypedObject) Effect {
	return NewEffect(sv, value, s.intervals.Default())
}

// PrimitiveTask builds an action over a fresh default interval.
func (s *Session) PrimitiveTask(symbol Symbol, params []TypedObject, constraints []Constraint, conditions []Condition, effects []Effect) PrimitiveTask {
	return PrimitiveTask{
		Symbol:      symbol,
		Params:      params,
		Interval:    s.intervals.Default(),
		Constraints: constraints,
		Conditions:  conditions,
		Effects:     effects,
	}
}

// CompoundTask builds an abstract task over a fresh default interval.
func (s *Session) CompoundTask(symbol Symbol, params ...TypedObject) CompoundTask {
	return CompoundTask{Symbol: symbol, Params: params, Interval: s.intervals.Default()}
}

// Method builds and validates a method. A zero symbol is replaced by the
// next method symbol of the session.
func (s *Session) Method(symbol Symbol, task CompoundTask, network TaskNetwork, constraints []Constraint, conditions []Condition) (Method, error) {
	if symbol.Name == "" {
		symbol = s.MethodSymbol()
	}
	return NewMethod(symbol, task, network, constraints, conditions)
}

// DiracAtStart toggles sv at the start of a fresh at-start interval.
func (s *Session) DiracAtStart(sv StateVariable, value Constant) (before, after Effect, err error) {
	return Dirac(sv, value, s.intervals.AtStart())
}

// DiracAtEnd toggles sv Epsilon after the end boundary, so the new value
// holds from the end of the task on.
func (s *Session) DiracAtEnd(sv StateVariable, value Constant) (before, after Effect, err error) {
	return Dirac(sv, value, s.intervals.AtEnd().Shift(Epsilon))
}

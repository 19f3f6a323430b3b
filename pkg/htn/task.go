package htn

import "strings"

// Task is a PrimitiveTask or a CompoundTask.
type Task interface {
	TemporalParametric
	// Arguments returns the explicit parameters only.
	Arguments() []TypedObject
	Start() Timepoint
	End() Timepoint
	Key() string
	String() string
	isTask()
}

// PrimitiveTask is an action, e.g. "[2, 5] pick(?p, ?r)". Constraints,
// conditions and effects describe its applicability and outcome.
type PrimitiveTask struct {
	Symbol      Symbol
	Params      []TypedObject
	Interval    TemporalInterval
	Constraints []Constraint
	Conditions  []Condition
	Effects     []Effect
}

// CompoundTask is an abstract task to be decomposed by methods, e.g.
// "[0, 10] transfer(?p, L2)".
type CompoundTask struct {
	Symbol   Symbol
	Params   []TypedObject
	Interval TemporalInterval
}

func (PrimitiveTask) isTask() {}
func (CompoundTask) isTask()  {}

func (t PrimitiveTask) Head() Symbol { return t.Symbol }
func (t CompoundTask) Head() Symbol  { return t.Symbol }

func (t PrimitiveTask) Arguments() []TypedObject { return append([]TypedObject(nil), t.Params...) }
func (t CompoundTask) Arguments() []TypedObject  { return append([]TypedObject(nil), t.Params...) }

func (t PrimitiveTask) Span() TemporalInterval { return t.Interval }
func (t CompoundTask) Span() TemporalInterval  { return t.Interval }

func (t PrimitiveTask) Start() Timepoint { return t.Interval.Start }
func (t PrimitiveTask) End() Timepoint   { return t.Interval.End }
func (t CompoundTask) Start() Timepoint  { return t.Interval.Start }
func (t CompoundTask) End() Timepoint    { return t.Interval.End }

// StateVariables returns the state variables of the conditions followed by
// those of the effects, without duplicates.
func (t PrimitiveTask) StateVariables() []StateVariable {
	seen := make(map[string]bool)
	var out []StateVariable
	add := func(sv StateVariable) {
		if k := sv.Key(); !seen[k] {
			seen[k] = true
			out = append(out, sv)
		}
	}
	for _, c := range t.Conditions {
		add(c.SV)
	}
	for _, e := range t.Effects {
		add(e.SV)
	}
	return out
}

// AllParams returns the explicit parameters followed by the parameters of
// its state variables that are not already present.
func (t PrimitiveTask) AllParams() []TypedObject {
	seen := make(map[string]bool, len(t.Params))
	for _, p := range t.Params {
		seen[valueKey(p)] = true
	}
	out := append([]TypedObject(nil), t.Params...)
	for _, sv := range t.StateVariables() {
		out = appendUnique(out, seen, sv.Params...)
	}
	return out
}

func (t CompoundTask) AllParams() []TypedObject { return t.Arguments() }

func (t PrimitiveTask) Key() string {
	var b strings.Builder
	b.WriteString("pt|")
	b.WriteString(t.Symbol.Name)
	b.WriteString("(" + objectKeys(t.Params) + ")|")
	b.WriteString(t.Interval.Key())
	for _, c := range t.Constraints {
		b.WriteString("|" + c.Key())
	}
	for _, c := range t.Conditions {
		b.WriteString("|" + c.Key())
	}
	for _, e := range t.Effects {
		b.WriteString("|" + e.Key())
	}
	return b.String()
}

func (t CompoundTask) Key() string {
	return "ct|" + t.Symbol.Name + "(" + objectKeys(t.Params) + ")|" + t.Interval.Key()
}

func (t PrimitiveTask) Equal(other PrimitiveTask) bool { return t.Key() == other.Key() }
func (t CompoundTask) Equal(other CompoundTask) bool   { return t.Key() == other.Key() }

func (t PrimitiveTask) String() string {
	return t.Interval.String() + t.Symbol.Name + "(" + objectStrings(t.Params) + ")"
}

func (t CompoundTask) String() string {
	return t.Interval.String() + t.Symbol.Name + "(" + objectStrings(t.Params) + ")"
}

func (t PrimitiveTask) Constants() []TypedObject { return ConstantsOf(t.AllParams()) }
func (t PrimitiveTask) Variables() []TypedObject { return VariablesOf(t.AllParams()) }
func (t CompoundTask) Constants() []TypedObject  { return ConstantsOf(t.Params) }
func (t CompoundTask) Variables() []TypedObject  { return VariablesOf(t.Params) }

// IsPrimitive reports whether t is a PrimitiveTask.
func IsPrimitive(t Task) bool {
	_, ok := t.(PrimitiveTask)
	return ok
}

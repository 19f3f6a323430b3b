package htn

import "strings"

// Method decomposes a compound task into a task network, e.g.
// "transfer ==> {go, pick, go, drop}". Symbol identifies the method and
// must be unique within a domain; Session.Method mints one when omitted.
type Method struct {
	Task        CompoundTask
	Network     TaskNetwork
	Constraints []Constraint
	Conditions  []Condition
	Symbol      Symbol
}

// NewMethod builds and validates a method with an explicit symbol.
func NewMethod(symbol Symbol, task CompoundTask, network TaskNetwork, constraints []Constraint, conditions []Condition) (Method, error) {
	m := Method{
		Task:        task,
		Network:     network,
		Constraints: constraints,
		Conditions:  conditions,
		Symbol:      symbol,
	}
	if err := m.Validate(); err != nil {
		return Method{}, err
	}
	return m, nil
}

// Validate checks the method symbol, the task symbol and the network.
func (m Method) Validate() error {
	if m.Symbol.Name == "" {
		return argumentf(ErrInvalidMethod, "method symbol is empty")
	}
	if m.Task.Symbol.Name == "" {
		return argumentf(ErrInvalidMethod, "method %s has no compound task", m.Symbol)
	}
	return m.Network.Validate()
}

func (m Method) Head() Symbol { return m.Symbol }

// Span is the interval of the decomposed task.
func (m Method) Span() TemporalInterval { return m.Task.Interval }

func (m Method) Start() Timepoint { return m.Task.Interval.Start }
func (m Method) End() Timepoint   { return m.Task.Interval.End }

// StateVariables returns the state variables of the method's conditions.
func (m Method) StateVariables() []StateVariable {
	seen := make(map[string]bool)
	var out []StateVariable
	for _, c := range m.Conditions {
		if k := c.SV.Key(); !seen[k] {
			seen[k] = true
			out = append(out, c.SV)
		}
	}
	return out
}

// Params returns the explicit parameters of the task and of each subtask,
// de-duplicated in first-seen order.
func (m Method) Params() []TypedObject {
	seen := make(map[string]bool)
	out := appendUnique(nil, seen, m.Task.Params...)
	for _, t := range m.Network.Tasks() {
		out = appendUnique(out, seen, t.Arguments()...)
	}
	return out
}

// AllParams returns every parameter reachable from the method: the task's,
// each subtask's AllParams, then those of the condition state variables.
func (m Method) AllParams() []TypedObject {
	seen := make(map[string]bool)
	out := appendUnique(nil, seen, m.Task.AllParams()...)
	for _, t := range m.Network.Tasks() {
		out = appendUnique(out, seen, t.AllParams()...)
	}
	for _, sv := range m.StateVariables() {
		out = appendUnique(out, seen, sv.Params...)
	}
	return out
}

func (m Method) Key() string {
	var b strings.Builder
	b.WriteString("m|")
	b.WriteString(m.Symbol.Name)
	b.WriteString("|" + m.Task.Key())
	b.WriteString("|" + m.Network.Key())
	for _, c := range m.Constraints {
		b.WriteString("|" + c.Key())
	}
	for _, c := range m.Conditions {
		b.WriteString("|" + c.Key())
	}
	return b.String()
}

func (m Method) Equal(other Method) bool { return m.Key() == other.Key() }

func (m Method) String() string {
	return m.Task.Interval.String() + m.Symbol.Name + "(" + objectStrings(m.Params()) + ")"
}

// Describe renders the method with its task and its decomposition.
func (m Method) Describe() string {
	return m.String() + "\n\t--> " + m.Task.String() + "\n\t==> {" + m.Network.String() + "}"
}

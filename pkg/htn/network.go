package htn

import "strings"

// LabelMappingPair binds a label to one task occurrence inside a network.
type LabelMappingPair struct {
	Label Label
	Task  Task
}

// NewLabelMappingPair fails with ErrInvalidLabelMapping on an empty label or
// a nil task.
func NewLabelMappingPair(label Label, task Task) (LabelMappingPair, error) {
	p := LabelMappingPair{Label: label, Task: task}
	if err := p.Validate(); err != nil {
		return LabelMappingPair{}, err
	}
	return p, nil
}

// Validate checks that p holds a label and a task.
func (p LabelMappingPair) Validate() error {
	if p.Label.IsZero() {
		return argumentf(ErrInvalidLabelMapping, "label is empty")
	}
	if p.Task == nil {
		return argumentf(ErrInvalidLabelMapping, "label %s has no task", p.Label)
	}
	return nil
}

func (p LabelMappingPair) Key() string {
	var task string
	if p.Task != nil {
		task = p.Task.Key()
	}
	return "lmp|" + p.Label.Key() + "|" + task
}

// TaskNetwork is a set of labelled tasks plus temporal constraints between
// them. Mapping order is irrelevant to its meaning but is kept for
// rendering.
type TaskNetwork struct {
	Mapping     []LabelMappingPair
	Constraints []TemporalConstraint
}

// NewTaskNetwork builds and validates a network.
func NewTaskNetwork(mapping []LabelMappingPair, constraints ...TemporalConstraint) (TaskNetwork, error) {
	tn := TaskNetwork{Mapping: mapping, Constraints: constraints}
	if err := tn.Validate(); err != nil {
		return TaskNetwork{}, err
	}
	return tn, nil
}

// Validate checks every pair, rejects duplicate labels, and requires every
// non-empty constraint label to name an occurrence of the network.
func (tn TaskNetwork) Validate() error {
	seen := make(map[Label]bool, len(tn.Mapping))
	for _, p := range tn.Mapping {
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.Label] {
			return argumentf(ErrDuplicateLabel, "label %s is used twice", p.Label)
		}
		seen[p.Label] = true
	}
	for _, c := range tn.Constraints {
		for _, l := range []Label{c.LeftLabel, c.RightLabel} {
			if !l.IsZero() && !seen[l] {
				return argumentf(ErrInvalidLabelMapping, "constraint label %s names no task of the network", l)
			}
		}
	}
	return nil
}

// Tasks returns the tasks in mapping order.
func (tn TaskNetwork) Tasks() []Task {
	out := make([]Task, 0, len(tn.Mapping))
	for _, p := range tn.Mapping {
		out = append(out, p.Task)
	}
	return out
}

// Labels returns the labels in mapping order.
func (tn TaskNetwork) Labels() []Label {
	out := make([]Label, 0, len(tn.Mapping))
	for _, p := range tn.Mapping {
		out = append(out, p.Label)
	}
	return out
}

// Lookup returns the task mapped to label.
func (tn TaskNetwork) Lookup(label Label) (Task, bool) {
	for _, p := range tn.Mapping {
		if p.Label == label {
			return p.Task, true
		}
	}
	return nil, false
}

func (tn TaskNetwork) IsEmpty() bool { return len(tn.Mapping) == 0 }

func (tn TaskNetwork) cloneAny() any {
	return TaskNetwork{
		Mapping:     append([]LabelMappingPair(nil), tn.Mapping...),
		Constraints: append([]TemporalConstraint(nil), tn.Constraints...),
	}
}

func (tn TaskNetwork) Key() string {
	var b strings.Builder
	b.WriteString("tn")
	for _, p := range tn.Mapping {
		b.WriteString("|" + p.Key())
	}
	b.WriteString("#")
	for _, c := range tn.Constraints {
		b.WriteString("|" + c.Key())
	}
	return b.String()
}

func (tn TaskNetwork) String() string {
	parts := make([]string, 0, len(tn.Mapping))
	for _, t := range tn.Tasks() {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, ", ")
}

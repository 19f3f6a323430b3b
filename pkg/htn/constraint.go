package htn

// Relation is a binary comparison between two typed objects.
type Relation string

const (
	RelEq  Relation = "=="
	RelNeq Relation = "!="
	RelLt  Relation = "<"
	RelLe  Relation = "<="
	RelGt  Relation = ">"
	RelGe  Relation = ">="
)

// Valid reports whether r is one of the six supported relations.
func (r Relation) Valid() bool {
	switch r {
	case RelEq, RelNeq, RelLt, RelLe, RelGt, RelGe:
		return true
	}
	return false
}

// Constraint is either a BasicConstraint or a TemporalConstraint.
type Constraint interface {
	Operands() (left, right TypedObject)
	Rel() Relation
	Key() string
	String() string
	isConstraint()
}

// BasicConstraint relates two non-temporal objects, e.g. "?l1 != ?l2".
type BasicConstraint struct {
	Left     TypedObject
	Right    TypedObject
	Relation Relation
}

// TemporalConstraint relates two timepoints. Labels, when set, name the
// task-network occurrence each timepoint belongs to.
type TemporalConstraint struct {
	Left       Timepoint
	Right      Timepoint
	Relation   Relation
	LeftLabel  Label
	RightLabel Label
}

func (BasicConstraint) isConstraint()    {}
func (TemporalConstraint) isConstraint() {}

func (c BasicConstraint) Operands() (TypedObject, TypedObject) { return c.Left, c.Right }
func (c TemporalConstraint) Operands() (TypedObject, TypedObject) {
	return c.Left, c.Right
}

func (c BasicConstraint) Rel() Relation    { return c.Relation }
func (c TemporalConstraint) Rel() Relation { return c.Relation }

func (c BasicConstraint) Key() string {
	return "bc|" + valueKey(c.Left) + "|" + string(c.Relation) + "|" + valueKey(c.Right)
}

func (c TemporalConstraint) Key() string {
	return "tc|" + c.LeftLabel.Key() + "|" + valueKey(c.Left) + "|" + string(c.Relation) +
		"|" + c.RightLabel.Key() + "|" + valueKey(c.Right)
}

func (c BasicConstraint) String() string {
	return valueRaw(c.Left) + " " + string(c.Relation) + " " + valueRaw(c.Right)
}

func (c TemporalConstraint) String() string {
	return labelPrefix(c.LeftLabel) + valueString(c.Left) + " " + string(c.Relation) + " " +
		labelPrefix(c.RightLabel) + valueString(c.Right)
}

func labelPrefix(l Label) string {
	if l.IsZero() {
		return ""
	}
	return string(l) + "_"
}

// NewConstraint builds a constraint between left and right. Two timepoints
// yield a TemporalConstraint, optionally labelled with up to two labels
// (left, then right). Mixing a timepoint with a non-timepoint, or labelling a
// non-temporal constraint, fails with ErrConstraintArgument.
func NewConstraint(left, right TypedObject, rel Relation, labels ...Label) (Constraint, error) {
	if left == nil || right == nil {
		return nil, argumentf(ErrConstraintArgument, "operands must not be nil")
	}
	if !rel.Valid() {
		return nil, argumentf(ErrConstraintArgument, "unknown relation %q", rel)
	}
	if len(labels) > 2 {
		return nil, argumentf(ErrConstraintArgument, "at most two labels, got %d", len(labels))
	}
	var leftLabel, rightLabel Label
	if len(labels) > 0 {
		leftLabel = labels[0]
	}
	if len(labels) > 1 {
		rightLabel = labels[1]
	}

	lt, leftIsTP := left.(Timepoint)
	rt, rightIsTP := right.(Timepoint)
	switch {
	case leftIsTP && rightIsTP:
		return TemporalConstraint{Left: lt, Right: rt, Relation: rel, LeftLabel: leftLabel, RightLabel: rightLabel}, nil
	case leftIsTP:
		return nil, argumentf(ErrConstraintArgument, "left is a timepoint but right is not")
	case rightIsTP:
		return nil, argumentf(ErrConstraintArgument, "right is a timepoint but left is not")
	}
	if !leftLabel.IsZero() {
		return nil, argumentf(ErrConstraintArgument, "left label on a non-temporal constraint")
	}
	if !rightLabel.IsZero() {
		return nil, argumentf(ErrConstraintArgument, "right label on a non-temporal constraint")
	}
	return BasicConstraint{Left: left, Right: right, Relation: rel}, nil
}

func Eq(left, right TypedObject, labels ...Label) (Constraint, error) {
	return NewConstraint(left, right, RelEq, labels...)
}

func Neq(left, right TypedObject, labels ...Label) (Constraint, error) {
	return NewConstraint(left, right, RelNeq, labels...)
}

func Gt(left, right TypedObject, labels ...Label) (Constraint, error) {
	return NewConstraint(left, right, RelGt, labels...)
}

func Ge(left, right TypedObject, labels ...Label) (Constraint, error) {
	return NewConstraint(left, right, RelGe, labels...)
}

func Lt(left, right TypedObject, labels ...Label) (Constraint, error) {
	return NewConstraint(left, right, RelLt, labels...)
}

func Le(left, right TypedObject, labels ...Label) (Constraint, error) {
	return NewConstraint(left, right, RelLe, labels...)
}

// Duration fixes the duration of b: end == start + d.
func Duration(b Bounded, d Delay, label Label) TemporalConstraint {
	span := b.Span()
	return TemporalConstraint{
		Left: span.End, Right: shift(span.Start, d), Relation: RelEq,
		LeftLabel: label, RightLabel: label,
	}
}

// DurationEps fixes the duration of b to Epsilon.
func DurationEps(b Bounded, label Label) TemporalConstraint {
	return Duration(b, Epsilon, label)
}

// MinDuration bounds the duration of b from below: end >= start + d.
func MinDuration(b Bounded, d Delay, label Label) TemporalConstraint {
	span := b.Span()
	return TemporalConstraint{
		Left: span.End, Right: shift(span.Start, d), Relation: RelGe,
		LeftLabel: label, RightLabel: label,
	}
}

// MinDurationEps requires b to last at least Epsilon.
func MinDurationEps(b Bounded, label Label) TemporalConstraint {
	return MinDuration(b, Epsilon, label)
}

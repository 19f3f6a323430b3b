package htn

// Condition asserts the value of a state variable over an interval, e.g.
// "[0, 5] at(?r, ?l) = True".
type Condition struct {
	SV       StateVariable
	Value    TypedObject
	Interval TemporalInterval
}

// Effect sets the value of a state variable over an interval, e.g.
// "[0, 5] at(?r, ?l) <-- False".
type Effect struct {
	SV       StateVariable
	Value    TypedObject
	Interval TemporalInterval
}

// NewCondition builds a condition. A nil value means True.
func NewCondition(sv StateVariable, value TypedObject, interval TemporalInterval) Condition {
	if value == nil {
		value = True
	}
	return Condition{SV: sv, Value: value, Interval: interval}
}

// NewEffect builds an effect.
func NewEffect(sv StateVariable, value TypedObject, interval TemporalInterval) Effect {
	return Effect{SV: sv, Value: value, Interval: interval}
}

func (c Condition) Span() TemporalInterval { return c.Interval }
func (e Effect) Span() TemporalInterval    { return e.Interval }

func (c Condition) Key() string {
	return "cond|" + c.SV.Key() + "|" + valueKey(c.Value) + "|" + c.Interval.Key()
}

func (e Effect) Key() string {
	return "eff|" + e.SV.Key() + "|" + valueKey(e.Value) + "|" + e.Interval.Key()
}

func (c Condition) Equal(other Condition) bool { return c.Key() == other.Key() }
func (e Effect) Equal(other Effect) bool       { return e.Key() == other.Key() }

func (c Condition) String() string {
	return c.Interval.String() + c.SV.String() + " = " + valueString(c.Value)
}

func (e Effect) String() string {
	return e.Interval.String() + e.SV.String() + " <-- " + valueString(e.Value)
}

func valueKey(o TypedObject) string {
	if o == nil {
		return ""
	}
	return o.Key()
}

func valueRaw(o TypedObject) string {
	if o == nil {
		return ""
	}
	return o.Raw()
}

func valueString(o TypedObject) string {
	if o == nil {
		return ""
	}
	return o.String()
}

// Dirac models an instantaneous toggle of a boolean state variable around
// the end of interval. before holds value on interval shifted by -Epsilon;
// after holds the negation of value on interval itself.
func Dirac(sv StateVariable, value Constant, interval TemporalInterval) (before, after Effect, err error) {
	if !sv.ValueType().Equal(BooleanType) {
		return Effect{}, Effect{}, argumentf(ErrDiracNonBoolean, "%s has type %s", sv, sv.ValueType())
	}
	if !value.Type.Equal(BooleanType) {
		return Effect{}, Effect{}, argumentf(ErrDiracNonBoolean, "value %s has type %s", value.Value, value.Type)
	}
	if !interval.Complete() {
		return Effect{}, Effect{}, argumentf(ErrMissingInterval, "dirac on %s needs both bounds", sv)
	}
	before = Effect{SV: sv, Value: value, Interval: interval.Sub(Epsilon)}
	after = Effect{SV: sv, Value: Bool(value.Equal(False)), Interval: interval}
	return before, after, nil
}

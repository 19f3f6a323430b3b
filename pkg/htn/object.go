package htn

import (
	"math/big"
	"strconv"
)

// ObjectKind discriminates the TypedObject variants.
type ObjectKind int

const (
	KindVariable ObjectKind = iota + 1
	KindConstant
	KindVariableTimepoint
	KindConstantTimepoint
)

func (k ObjectKind) String() string {
	switch k {
	case KindVariable:
		return "variable"
	case KindConstant:
		return "constant"
	case KindVariableTimepoint:
		return "variable-timepoint"
	case KindConstantTimepoint:
		return "constant-timepoint"
	default:
		return "unknown"
	}
}

// TypedObject is a typed value of the planning problem. It is a closed sum
// type: Variable, Constant, VariableTimepoint or ConstantTimepoint.
type TypedObject interface {
	Kind() ObjectKind
	ObjectType() *Type
	// Raw is the bare value without its type, e.g. "?loc", "L0" or "True".
	Raw() string
	Key() string
	String() string
	isTypedObject()
}

// Timepoint is a TypedObject carrying a time value with a delay offset.
type Timepoint interface {
	TypedObject
	// Base is the timepoint's name or constant value, without the delay.
	Base() string
	Offset() Delay
	// Shift returns the same timepoint delayed by d.
	Shift(d Delay) Timepoint
}

// Variable is a free variable, e.g. "?l - location".
type Variable struct {
	Name string
	Type *Type
}

// Constant is a ground constant, e.g. "L0 - location".
type Constant struct {
	Value string
	Type  *Type
}

// VariableTimepoint is a named timepoint, e.g. "?ts".
type VariableTimepoint struct {
	Name  string
	Type  *Type
	Delay Delay
}

// ConstantTimepoint is an absolute timepoint, e.g. "5".
type ConstantTimepoint struct {
	Value int64
	Type  *Type
	Delay Delay
}

// Builtin constants.
var (
	True  = Constant{Value: "True", Type: BooleanType}
	False = Constant{Value: "False", Type: BooleanType}
	// Zero is the origin of time. Use Zero.Shift(d) for a constant time d.
	Zero = ConstantTimepoint{Value: 0, Type: TimepointType}
)

// NewVariable creates a variable of type t.
func NewVariable(name string, t *Type) Variable {
	return Variable{Name: name, Type: t}
}

// NewConstant creates a constant of type t.
func NewConstant(value string, t *Type) Constant {
	return Constant{Value: value, Type: t}
}

// IntConstant creates an integer constant.
func IntConstant(n int64) Constant {
	return Constant{Value: strconv.FormatInt(n, 10), Type: IntegerType}
}

// Bool returns True or False.
func Bool(b bool) Constant {
	if b {
		return True
	}
	return False
}

// NewVariableTimepoint creates a timepoint variable with no delay.
func NewVariableTimepoint(name string) VariableTimepoint {
	return VariableTimepoint{Name: name, Type: TimepointType}
}

// NewConstantTimepoint creates an absolute timepoint with no delay.
func NewConstantTimepoint(value int64) ConstantTimepoint {
	return ConstantTimepoint{Value: value, Type: TimepointType}
}

func (Variable) isTypedObject()          {}
func (Constant) isTypedObject()          {}
func (VariableTimepoint) isTypedObject() {}
func (ConstantTimepoint) isTypedObject() {}

func (Variable) Kind() ObjectKind          { return KindVariable }
func (Constant) Kind() ObjectKind          { return KindConstant }
func (VariableTimepoint) Kind() ObjectKind { return KindVariableTimepoint }
func (ConstantTimepoint) Kind() ObjectKind { return KindConstantTimepoint }

func (v Variable) ObjectType() *Type { return v.Type }
func (c Constant) ObjectType() *Type { return c.Type }

func (t VariableTimepoint) ObjectType() *Type {
	if t.Type == nil {
		return TimepointType
	}
	return t.Type
}

func (t ConstantTimepoint) ObjectType() *Type {
	if t.Type == nil {
		return TimepointType
	}
	return t.Type
}

func (v Variable) Raw() string          { return v.Name }
func (c Constant) Raw() string          { return c.Value }
func (t VariableTimepoint) Raw() string { return t.Name }
func (t ConstantTimepoint) Raw() string { return t.Base() }

func (v Variable) Key() string { return "v|" + v.Name + "|" + v.Type.Key() }
func (c Constant) Key() string { return "c|" + c.Value + "|" + c.Type.Key() }

func (t VariableTimepoint) Key() string {
	return "vt|" + t.Name + "|" + t.ObjectType().Key() + "|" + t.Delay.String()
}

func (t ConstantTimepoint) Key() string {
	return "ct|" + t.Base() + "|" + t.ObjectType().Key() + "|" + t.Delay.String()
}

// Equal compares constants structurally.
func (c Constant) Equal(other Constant) bool { return c.Key() == other.Key() }

func (v Variable) String() string { return v.Name + " - " + v.Type.String() }

func (c Constant) String() string {
	if c.Type.Equal(BooleanType) {
		return c.Value
	}
	return c.Value + " - " + c.Type.String()
}

func (t VariableTimepoint) String() string {
	if t.Delay.IsZero() {
		return t.Name
	}
	return t.Name + " + " + t.Delay.Decimal()
}

func (t ConstantTimepoint) String() string {
	if t.Delay.IsZero() {
		return t.Base()
	}
	sum := new(big.Rat).Add(new(big.Rat).SetInt64(t.Value), t.Delay.rat())
	return decimalString(sum)
}

func (t VariableTimepoint) Base() string { return t.Name }
func (t ConstantTimepoint) Base() string { return strconv.FormatInt(t.Value, 10) }

func (t VariableTimepoint) Offset() Delay { return t.Delay }
func (t ConstantTimepoint) Offset() Delay { return t.Delay }

func (t VariableTimepoint) Shift(d Delay) Timepoint {
	t.Delay = t.Delay.Add(d)
	return t
}

func (t ConstantTimepoint) Shift(d Delay) Timepoint {
	t.Delay = t.Delay.Add(d)
	return t
}

// Sub returns tp delayed by -d.
func Sub(tp Timepoint, d Delay) Timepoint {
	return shift(tp, d.Neg())
}

// shift is tp.Shift(d) with a nil timepoint left unset.
func shift(tp Timepoint, d Delay) Timepoint {
	if tp == nil {
		return nil
	}
	return tp.Shift(d)
}

// IsTimepoint reports whether o is a timepoint.
func IsTimepoint(o TypedObject) bool {
	_, ok := o.(Timepoint)
	return ok
}

// IsConstant reports whether o is a ground value (constant or constant
// timepoint).
func IsConstant(o TypedObject) bool {
	switch o.(type) {
	case Constant, ConstantTimepoint:
		return true
	}
	return false
}

// IsVariable reports whether o is a variable (plain or timepoint).
func IsVariable(o TypedObject) bool {
	switch o.(type) {
	case Variable, VariableTimepoint:
		return true
	}
	return false
}

// EqualObjects compares two typed objects structurally. Nil only equals nil.
func EqualObjects(a, b TypedObject) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Key() == b.Key()
}

// ConstantsOf returns the ground values among params, in order.
func ConstantsOf(params []TypedObject) []TypedObject {
	var out []TypedObject
	for _, p := range params {
		if IsConstant(p) {
			out = append(out, p)
		}
	}
	return out
}

// VariablesOf returns the variables among params, in order.
func VariablesOf(params []TypedObject) []TypedObject {
	var out []TypedObject
	for _, p := range params {
		if IsVariable(p) {
			out = append(out, p)
		}
	}
	return out
}

// TimepointsOf returns the timepoints among params, in order.
func TimepointsOf(params []TypedObject) []Timepoint {
	var out []Timepoint
	for _, p := range params {
		if tp, ok := p.(Timepoint); ok {
			out = append(out, tp)
		}
	}
	return out
}

func objectKeys(objs []TypedObject) string {
	var b []byte
	for i, o := range objs {
		if i > 0 {
			b = append(b, ',')
		}
		if o != nil {
			b = append(b, o.Key()...)
		}
	}
	return string(b)
}

func objectStrings(objs []TypedObject) string {
	var b []byte
	for i, o := range objs {
		if i > 0 {
			b = append(b, ", "...)
		}
		if o != nil {
			b = append(b, o.String()...)
		}
	}
	return string(b)
}

// appendUnique appends the objects of src not already in dst, keeping
// first-seen order.
func appendUnique(dst []TypedObject, seen map[string]bool, src ...TypedObject) []TypedObject {
	for _, o := range src {
		if o == nil || seen[o.Key()] {
			continue
		}
		seen[o.Key()] = true
		dst = append(dst, o)
	}
	return dst
}

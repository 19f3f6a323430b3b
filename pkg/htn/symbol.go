package htn

// SymbolKind tells what a Symbol names.
type SymbolKind int

const (
	StateVariableSymbol SymbolKind = iota + 1
	PrimitiveTaskSymbol
	CompoundTaskSymbol
	MethodSymbol
)

func (k SymbolKind) String() string {
	switch k {
	case StateVariableSymbol:
		return "state-variable"
	case PrimitiveTaskSymbol:
		return "primitive-task"
	case CompoundTaskSymbol:
		return "compound-task"
	case MethodSymbol:
		return "method"
	default:
		return "unknown"
	}
}

// Symbol names a state variable, a primitive task, a compound task or a
// method. Symbols are identified by name only.
type Symbol struct {
	Name string
	Kind SymbolKind
}

func NewStateVariableSymbol(name string) Symbol {
	return Symbol{Name: name, Kind: StateVariableSymbol}
}

func NewPrimitiveTaskSymbol(name string) Symbol {
	return Symbol{Name: name, Kind: PrimitiveTaskSymbol}
}

func NewCompoundTaskSymbol(name string) Symbol {
	return Symbol{Name: name, Kind: CompoundTaskSymbol}
}

func NewMethodSymbol(name string) Symbol {
	return Symbol{Name: name, Kind: MethodSymbol}
}

func (s Symbol) Key() string    { return s.Name }
func (s Symbol) String() string { return s.Name }

// Equal compares names only.
func (s Symbol) Equal(other Symbol) bool { return s.Name == other.Name }

// IsTask reports whether s names a primitive or compound task.
func (s Symbol) IsTask() bool {
	return s.Kind == PrimitiveTaskSymbol || s.Kind == CompoundTaskSymbol
}

// Label identifies one task occurrence inside a task network, e.g. "l1".
type Label string

func (l Label) Key() string    { return string(l) }
func (l Label) String() string { return string(l) }

// IsZero reports whether l is the empty (absent) label.
func (l Label) IsZero() bool { return l == "" }

// Parametric is a symbol applied to an ordered list of parameters.
type Parametric interface {
	Head() Symbol
	// AllParams includes parameters only implied by state variables.
	AllParams() []TypedObject
}

// TemporalParametric is a Parametric with an interval.
type TemporalParametric interface {
	Parametric
	Bounded
}

// StateVariable is a parameterised attribute of the world, e.g.
// at(?r, ?l). Type is the value type and defaults to BooleanType.
type StateVariable struct {
	Symbol Symbol
	Params []TypedObject
	Type   *Type
}

// NewStateVariable creates a boolean state variable.
func NewStateVariable(symbol Symbol, params ...TypedObject) StateVariable {
	return StateVariable{Symbol: symbol, Params: params, Type: BooleanType}
}

// ValueType returns the declared value type, BooleanType if unset.
func (sv StateVariable) ValueType() *Type {
	if sv.Type == nil {
		return BooleanType
	}
	return sv.Type
}

func (sv StateVariable) Head() Symbol { return sv.Symbol }

func (sv StateVariable) AllParams() []TypedObject {
	return append([]TypedObject(nil), sv.Params...)
}

// Key is order-sensitive over parameters, matching signature rendering.
func (sv StateVariable) Key() string {
	return "sv|" + sv.Symbol.Name + "(" + objectKeys(sv.Params) + ")|" + sv.ValueType().Key()
}

func (sv StateVariable) Equal(other StateVariable) bool {
	return sv.Key() == other.Key()
}

func (sv StateVariable) String() string {
	return sv.Symbol.Name + "(" + objectStrings(sv.Params) + ")"
}

func (sv StateVariable) Constants() []TypedObject { return ConstantsOf(sv.Params) }
func (sv StateVariable) Variables() []TypedObject { return VariablesOf(sv.Params) }
func (sv StateVariable) Timepoints() []Timepoint  { return TimepointsOf(sv.Params) }

// IsGround reports whether sv has no variable parameters.
func (sv StateVariable) IsGround() bool { return len(sv.Variables()) == 0 }

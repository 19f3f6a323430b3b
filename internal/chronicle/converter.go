// Package chronicle lowers a temporal HTN problem into the flat,
// symbol-table based chronicle form consumed by an external solver.
//
// Conversion goes through fixed phases: vocabulary (types, constants,
// variables, symbols), symbol-table freeze, state-variable declarations,
// context creation, then content (actions, methods, goal, initial state).
// Every Add operation is idempotent.
package chronicle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/valter-silva-au/temporal-htn/pkg/htn"
)

// DefaultOutputDir is where plans go when no output file is given.
const DefaultOutputDir = "output"

// SymbolKind is the chronicle category a symbol is declared under.
type SymbolKind int

const (
	SymbolAction SymbolKind = iota + 1
	SymbolConstant
	SymbolMethod
	SymbolPredicate
	SymbolFunction
	SymbolTask
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolAction:
		return "action"
	case SymbolConstant:
		return "constant"
	case SymbolMethod:
		return "method"
	case SymbolPredicate:
		return "predicate"
	case SymbolFunction:
		return "function"
	case SymbolTask:
		return "task"
	default:
		return "unknown"
	}
}

// Option configures a Converter.
type Option func(*Converter)

// WithOutputDir sets the directory of the default plan file.
func WithOutputDir(dir string) Option {
	return func(c *Converter) {
		if dir != "" {
			c.planFile = filepath.Join(dir, c.name+".plan")
		}
	}
}

// Converter drives a Builder through the conversion phases. It is not safe
// for concurrent use; convert independent problems with independent
// converters.
type Converter struct {
	name     string
	planFile string
	builder  Builder

	symbolTableCreated bool
	contextCreated     bool

	types          map[string]bool
	symbols        map[string]bool
	constants      htn.Set[htn.TypedObject]
	variables      htn.Set[htn.TypedObject]
	stateVariables htn.Set[htn.StateVariable]
	actions        htn.Set[htn.PrimitiveTask]
	methods        htn.Set[htn.Method]
	initialEffects htn.Set[htn.Effect]
	goals          htn.Set[htn.TaskNetwork]
}

// NewConverter creates a converter for the problem called name.
func NewConverter(name string, b Builder, opts ...Option) *Converter {
	c := &Converter{
		name:           name,
		planFile:       filepath.Join(DefaultOutputDir, name+".plan"),
		builder:        b,
		types:          make(map[string]bool),
		symbols:        make(map[string]bool),
		constants:      htn.NewSet[htn.TypedObject](),
		variables:      htn.NewSet[htn.TypedObject](),
		stateVariables: htn.NewSet[htn.StateVariable](),
		actions:        htn.NewSet[htn.PrimitiveTask](),
		methods:        htn.NewSet[htn.Method](),
		initialEffects: htn.NewSet[htn.Effect](),
		goals:          htn.NewSet[htn.TaskNetwork](),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Converter) Name() string             { return c.name }
func (c *Converter) PlanFile() string         { return c.planFile }
func (c *Converter) Builder() Builder         { return c.builder }
func (c *Converter) SymbolTableCreated() bool { return c.symbolTableCreated }
func (c *Converter) ContextCreated() bool     { return c.contextCreated }

// vocabularyOpen fails once the symbol table is frozen.
func (c *Converter) vocabularyOpen(what string) error {
	if c.symbolTableCreated {
		return conversionf(ErrPhaseClosed, "cannot add %s after the symbol table is created", what)
	}
	return nil
}

// AddType registers t and, recursively, its parents.
func (c *Converter) AddType(t *htn.Type) error {
	if t == nil || c.types[t.Key()] {
		return nil
	}
	if err := c.vocabularyOpen("type " + t.Name); err != nil {
		return err
	}
	var parent string
	if t.Parent != nil {
		parent = t.Parent.Name
	}
	if err := c.builder.AddType(t.Name, parent); err != nil {
		return fmt.Errorf("adding type %s: %w", t.Name, err)
	}
	c.types[t.Key()] = true
	return c.AddType(t.Parent)
}

// AddConstant registers a constant (or constant timepoint), its type and
// its constant symbol.
func (c *Converter) AddConstant(o htn.TypedObject) error {
	if c.constants.Has(o) {
		return nil
	}
	if err := c.vocabularyOpen("constant " + o.Raw()); err != nil {
		return err
	}
	if err := c.AddType(o.ObjectType()); err != nil {
		return err
	}
	if err := c.AddSymbol(htn.Symbol{Name: o.Raw()}, SymbolConstant, o.ObjectType()); err != nil {
		return err
	}
	c.constants.Add(o)
	return nil
}

// AddVariable registers a variable and its type.
func (c *Converter) AddVariable(o htn.TypedObject) error {
	if c.variables.Has(o) {
		return nil
	}
	if err := c.vocabularyOpen("variable " + o.Raw()); err != nil {
		return err
	}
	if err := c.AddType(o.ObjectType()); err != nil {
		return err
	}
	c.variables.Add(o)
	return nil
}

// AddSymbol declares sym under kind. typ is required for constants.
func (c *Converter) AddSymbol(sym htn.Symbol, kind SymbolKind, typ *htn.Type) error {
	if c.symbols[sym.Name] {
		return nil
	}
	if err := c.vocabularyOpen("symbol " + sym.Name); err != nil {
		return err
	}
	var err error
	switch kind {
	case SymbolAction:
		err = c.builder.AddActionSymbol(sym.Name)
	case SymbolConstant:
		if typ == nil {
			return conversionf(ErrMissingConstantType, "constant %s", sym.Name)
		}
		err = c.builder.AddConstantSymbol(sym.Name, typ.Name)
	case SymbolMethod:
		err = c.builder.AddMethodSymbol(sym.Name)
	case SymbolPredicate:
		err = c.builder.AddPredicateSymbol(sym.Name)
	case SymbolFunction:
		err = c.builder.AddFunctionSymbol(sym.Name)
	case SymbolTask:
		err = c.builder.AddTaskSymbol(sym.Name)
	default:
		return fmt.Errorf("symbol %s: unhandled symbol kind %d", sym.Name, kind)
	}
	if err != nil {
		return fmt.Errorf("adding %s symbol %s: %w", kind, sym.Name, err)
	}
	c.symbols[sym.Name] = true
	return nil
}

// CreateSymbolTable closes the vocabulary phase.
func (c *Converter) CreateSymbolTable() error {
	if c.symbolTableCreated {
		return conversionf(ErrPhaseClosed, "symbol table already created")
	}
	if err := c.builder.CreateSymbolTable(); err != nil {
		return fmt.Errorf("creating symbol table: %w", err)
	}
	c.symbolTableCreated = true
	return nil
}

// AddStateVariable declares sv as a predicate (boolean) or a function
// (integer).
func (c *Converter) AddStateVariable(sv htn.StateVariable) error {
	if c.stateVariables.Has(sv) {
		return nil
	}
	if err := c.CheckSymbol(sv.Symbol); err != nil {
		return err
	}
	if c.contextCreated {
		return conversionf(ErrPhaseClosed, "cannot declare %s after the context is created", sv)
	}
	sig, err := c.Signature(sv)
	if err != nil {
		return err
	}
	switch typ := sv.ValueType(); {
	case typ.Equal(htn.BooleanType):
		err = c.builder.AddPredicate(sig)
	case typ.Equal(htn.IntegerType):
		err = c.builder.AddFunction(sig)
	default:
		return conversionf(ErrUnsupportedType, "%s has type %s; only booleans and integers are supported", sv, typ)
	}
	if err != nil {
		return fmt.Errorf("declaring %s: %w", sv, err)
	}
	c.stateVariables.Add(sv)
	return nil
}

// CreateContext closes the declaration phase and opens the content phase.
func (c *Converter) CreateContext() error {
	if err := c.CheckSymbolTable(); err != nil {
		return err
	}
	if c.contextCreated {
		return conversionf(ErrPhaseClosed, "context already created")
	}
	if err := c.builder.CreateContext(); err != nil {
		return fmt.Errorf("creating context: %w", err)
	}
	c.contextCreated = true
	return nil
}

// AddAction lowers a primitive task. An action with at least one effect
// also gets a minimal duration of Epsilon.
func (c *Converter) AddAction(a htn.PrimitiveTask) error {
	if c.actions.Has(a) {
		return nil
	}
	if err := c.CheckSymbol(a.Symbol); err != nil {
		return err
	}
	if err := c.CheckContext(); err != nil {
		return err
	}

	sig, err := c.TemporalSignature(a, "")
	if err != nil {
		return err
	}
	constraints, err := renderConstraints(a.Constraints)
	if err != nil {
		return fmt.Errorf("action %s: %w", a.Symbol, err)
	}
	conditions := make([]Signature, 0, len(a.Conditions))
	for _, cond := range a.Conditions {
		s, err := c.condition(cond.SV, cond.Value, cond.Interval)
		if err != nil {
			return err
		}
		conditions = append(conditions, s)
	}
	effects := make([]Signature, 0, len(a.Effects))
	for _, eff := range a.Effects {
		s, err := c.condition(eff.SV, eff.Value, eff.Interval)
		if err != nil {
			return err
		}
		effects = append(effects, s)
	}
	if len(effects) > 0 {
		constraints = append(constraints, RenderConstraint(htn.MinDurationEps(a, "")))
	}

	if err := c.builder.AddAction(sig, constraints, conditions, effects); err != nil {
		return fmt.Errorf("adding action %s: %w", a.Symbol, err)
	}
	c.actions.Add(a)
	return nil
}

// AddMethod lowers a method. Subtasks are rendered with their network
// label so repeated occurrences stay distinct.
func (c *Converter) AddMethod(m htn.Method) error {
	if c.methods.Has(m) {
		return nil
	}
	if err := c.CheckSymbol(m.Symbol); err != nil {
		return err
	}
	if err := c.CheckContext(); err != nil {
		return err
	}

	sig, err := c.TemporalSignature(m, "")
	if err != nil {
		return err
	}
	constraints, err := renderConstraints(m.Constraints)
	if err != nil {
		return fmt.Errorf("method %s: %w", m.Symbol, err)
	}
	conditions := make([]Signature, 0, len(m.Conditions))
	for _, cond := range m.Conditions {
		s, err := c.condition(cond.SV, cond.Value, cond.Interval)
		if err != nil {
			return err
		}
		conditions = append(conditions, s)
	}
	task, err := c.Signature(m.Task)
	if err != nil {
		return err
	}
	subtasks, err := c.labelledTasks(m.Network)
	if err != nil {
		return err
	}
	subtaskConstraints, err := renderConstraints(m.Network.Constraints)
	if err != nil {
		return fmt.Errorf("method %s network: %w", m.Symbol, err)
	}

	if err := c.builder.AddMethod(sig, constraints, conditions, task, subtasks, subtaskConstraints); err != nil {
		return fmt.Errorf("adding method %s: %w", m.Symbol, err)
	}
	c.methods.Add(m)
	return nil
}

// SetGoal lowers the initial task network. A nil network is a no-op.
func (c *Converter) SetGoal(tn *htn.TaskNetwork) error {
	if tn == nil || c.goals.Has(*tn) {
		return nil
	}
	if err := c.CheckSymbolTable(); err != nil {
		return err
	}
	if err := c.CheckContext(); err != nil {
		return err
	}
	tasks, err := c.labelledTasks(*tn)
	if err != nil {
		return err
	}
	constraints, err := renderConstraints(tn.Constraints)
	if err != nil {
		return fmt.Errorf("goal: %w", err)
	}
	if err := c.builder.AddGoal(tasks, constraints); err != nil {
		return fmt.Errorf("adding goal: %w", err)
	}
	c.goals.Add(*tn)
	return nil
}

// AddInitialEffect lowers one effect of the initial state.
func (c *Converter) AddInitialEffect(e htn.Effect) error {
	if c.initialEffects.Has(e) {
		return nil
	}
	if err := c.CheckSymbol(e.SV.Symbol); err != nil {
		return err
	}
	if err := c.CheckContext(); err != nil {
		return err
	}
	sig, err := c.condition(e.SV, e.Value, e.Interval)
	if err != nil {
		return err
	}
	if err := c.builder.AddInitialEffect(sig); err != nil {
		return fmt.Errorf("adding initial effect %s: %w", e, err)
	}
	c.initialEffects.Add(e)
	return nil
}

func (c *Converter) labelledTasks(tn htn.TaskNetwork) ([]Signature, error) {
	out := make([]Signature, 0, len(tn.Mapping))
	for _, p := range tn.Mapping {
		s, err := c.TemporalSignature(p.Task, p.Label)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// condition renders a condition or an effect: the state variable's
// signature, the raw value, then the unlabelled interval.
func (c *Converter) condition(sv htn.StateVariable, value htn.TypedObject, iv htn.TemporalInterval) (Signature, error) {
	sig, err := c.Signature(sv)
	if err != nil {
		return nil, err
	}
	raw := htn.True.Raw()
	if value != nil {
		raw = value.Raw()
	}
	if !iv.Complete() {
		return nil, conversionf(ErrMissingInterval, "%s", sv.Symbol.Name)
	}
	sig = append(sig, raw)
	return append(sig, RenderInterval(iv, "")...), nil
}

// Signature returns [symbol, rendered params...] for x.
func (c *Converter) Signature(x htn.Parametric) (Signature, error) {
	if err := c.CheckSymbol(x.Head()); err != nil {
		return nil, err
	}
	params := x.AllParams()
	sig := make(Signature, 0, len(params)+3)
	sig = append(sig, x.Head().Name)
	for _, p := range params {
		sig = append(sig, RenderObject(p))
	}
	return sig, nil
}

// TemporalSignature is Signature followed by the rendered interval of x,
// each timepoint suffixed with label.
func (c *Converter) TemporalSignature(x htn.TemporalParametric, label htn.Label) (Signature, error) {
	sig, err := c.Signature(x)
	if err != nil {
		return nil, err
	}
	span := x.Span()
	if !span.Complete() {
		return nil, conversionf(ErrMissingInterval, "%s", x.Head().Name)
	}
	return append(sig, RenderInterval(span, label)...), nil
}

// CheckSymbol fails unless the symbol table exists and sym is registered.
func (c *Converter) CheckSymbol(sym htn.Symbol) error {
	if err := c.CheckSymbolTable(); err != nil {
		return err
	}
	if !c.symbols[sym.Name] {
		return conversionf(ErrUnregisteredSymbol, "%s", sym.Name)
	}
	return nil
}

// CheckSymbolTable fails unless the symbol table has been created.
func (c *Converter) CheckSymbolTable() error {
	if !c.symbolTableCreated {
		return &ConversionError{Kind: ErrUncreatedSymbolTable}
	}
	return nil
}

// CheckContext fails unless the context has been created.
func (c *Converter) CheckContext() error {
	if !c.contextCreated {
		return &ConversionError{Kind: ErrUncreatedContext}
	}
	return nil
}

// Solve asks the builder for a plan written to outputFile, or to the
// converter's default plan file when outputFile is empty. The parent
// directory is created as needed. A missing plan yields *NoSolutionError.
func (c *Converter) Solve(ctx context.Context, outputFile string, verbose bool) error {
	if outputFile != "" {
		c.planFile = outputFile
	}
	if err := os.MkdirAll(filepath.Dir(c.planFile), 0o755); err != nil {
		return fmt.Errorf("creating plan directory: %w", err)
	}
	solved, err := c.builder.Solve(ctx, c.planFile, verbose)
	if err != nil {
		return fmt.Errorf("solving %s: %w", c.name, err)
	}
	if !solved {
		return &NoSolutionError{Converter: c}
	}
	return nil
}

// Stats counts what the converter has registered so far.
type Stats struct {
	Types          int `json:"types" yaml:"types"`
	Symbols        int `json:"symbols" yaml:"symbols"`
	Constants      int `json:"constants" yaml:"constants"`
	Variables      int `json:"variables" yaml:"variables"`
	StateVariables int `json:"state_variables" yaml:"state_variables"`
	Actions        int `json:"actions" yaml:"actions"`
	Methods        int `json:"methods" yaml:"methods"`
	Goals          int `json:"goals" yaml:"goals"`
	InitialEffects int `json:"initial_effects" yaml:"initial_effects"`
}

func (c *Converter) Stats() Stats {
	return Stats{
		Types:          len(c.types),
		Symbols:        len(c.symbols),
		Constants:      c.constants.Len(),
		Variables:      c.variables.Len(),
		StateVariables: c.stateVariables.Len(),
		Actions:        c.actions.Len(),
		Methods:        c.methods.Len(),
		Goals:          c.goals.Len(),
		InitialEffects: c.initialEffects.Len(),
	}
}

// HasSymbol reports whether a symbol called name has been registered.
func (c *Converter) HasSymbol(name string) bool { return c.symbols[name] }

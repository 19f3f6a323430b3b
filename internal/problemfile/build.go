package problemfile

import (
	"fmt"
	"strconv"

	"github.com/valter-silva-au/temporal-htn/pkg/htn"
)

var builtinTypes = map[string]*htn.Type{
	"boolean":              htn.BooleanType,
	"integer":              htn.IntegerType,
	"timepoint":            htn.TimepointType,
	htn.BooleanType.Name:   htn.BooleanType,
	htn.IntegerType.Name:   htn.IntegerType,
	htn.TimepointType.Name: htn.TimepointType,
}

type compound struct {
	symbol htn.Symbol
	params []htn.TypedObject
}

type builder struct {
	session   *htn.Session
	types     map[string]*htn.Type
	objects   map[string]htn.TypedObject
	svTypes   map[string]*htn.Type
	actions   map[string]htn.PrimitiveTask
	compounds map[string]compound
}

// Build turns f into a problem, minting intervals and method symbols from
// s. A nil session gets a fresh one.
func (f *File) Build(s *htn.Session) (*htn.Problem, error) {
	if s == nil {
		s = htn.NewSession()
	}
	b := &builder{
		session:   s,
		types:     make(map[string]*htn.Type),
		objects:   make(map[string]htn.TypedObject),
		svTypes:   make(map[string]*htn.Type),
		actions:   make(map[string]htn.PrimitiveTask),
		compounds: make(map[string]compound),
	}

	if err := b.declare(f); err != nil {
		return nil, err
	}

	d := htn.NewDomain(f.Domain)
	for _, decl := range f.Actions {
		a, err := b.action(decl)
		if err != nil {
			return nil, fmt.Errorf("action %s: %w", decl.Name, err)
		}
		if err := d.AddTask(a); err != nil {
			return nil, err
		}
	}
	for _, decl := range f.Tasks {
		t, err := b.compoundTask(decl)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", decl.Name, err)
		}
		if err := d.AddTask(t); err != nil {
			return nil, err
		}
	}
	for i, decl := range f.Methods {
		m, err := b.method(decl)
		if err != nil {
			return nil, fmt.Errorf("method %d (%s): %w", i, decl.Task, err)
		}
		if err := d.AddMethod(m); err != nil {
			return nil, err
		}
	}

	p := htn.NewProblem(f.Name, d)
	for _, a := range f.InitialState {
		e, err := b.effect(a, scope{})
		if err != nil {
			return nil, fmt.Errorf("initial state: %w", err)
		}
		if err := p.AddInitialEffect(e); err != nil {
			return nil, err
		}
	}
	if f.Goal != nil {
		tn, err := b.network(*f.Goal, nil)
		if err != nil {
			return nil, fmt.Errorf("goal: %w", err)
		}
		if err := p.SetGoal(tn); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// declare registers types, objects and state-variable symbols. Parents must
// be declared before their children.
func (b *builder) declare(f *File) error {
	for _, t := range f.Types {
		if _, dup := b.types[t.Name]; dup {
			return malformed("type %s declared twice", t.Name)
		}
		var parent *htn.Type
		if t.Parent != "" {
			p, err := b.typ(t.Parent)
			if err != nil {
				return fmt.Errorf("type %s: %w", t.Name, err)
			}
			parent = p
		}
		b.types[t.Name] = htn.NewType(t.Name, parent)
	}

	add := func(name string, o htn.TypedObject) error {
		if _, dup := b.objects[name]; dup {
			return malformed("object %s declared twice", name)
		}
		b.objects[name] = o
		return nil
	}
	for _, v := range f.Variables {
		t, err := b.typ(v.Type)
		if err != nil {
			return fmt.Errorf("variable %s: %w", v.Name, err)
		}
		if err := add(v.Name, htn.NewVariable(v.Name, t)); err != nil {
			return err
		}
	}
	for _, name := range f.Timepoints {
		if err := add(name, htn.NewVariableTimepoint(name)); err != nil {
			return err
		}
	}
	for _, c := range f.Constants {
		t, err := b.typ(c.Type)
		if err != nil {
			return fmt.Errorf("constant %s: %w", c.Name, err)
		}
		if err := add(c.Name, htn.NewConstant(c.Name, t)); err != nil {
			return err
		}
	}

	for _, sv := range f.StateVariables {
		t := htn.BooleanType
		if sv.Type != "" {
			var err error
			if t, err = b.typ(sv.Type); err != nil {
				return fmt.Errorf("state variable %s: %w", sv.Name, err)
			}
		}
		b.svTypes[sv.Name] = t
	}
	return nil
}

func (b *builder) typ(name string) (*htn.Type, error) {
	if t, ok := b.types[name]; ok {
		return t, nil
	}
	if t, ok := builtinTypes[name]; ok {
		return t, nil
	}
	return nil, unknown("type", name)
}

func (b *builder) object(name string) (htn.TypedObject, error) {
	if o, ok := b.objects[name]; ok {
		return o, nil
	}
	return nil, unknown("object", name)
}

// value resolves an assertion value: True, False, an integer literal or a
// declared object. Empty means True.
func (b *builder) value(s string) (htn.TypedObject, error) {
	switch s {
	case "", htn.True.Raw():
		return htn.True, nil
	case htn.False.Raw():
		return htn.False, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return htn.IntConstant(n), nil
	}
	return b.object(s)
}

func (b *builder) params(names []string) ([]htn.TypedObject, error) {
	out := make([]htn.TypedObject, 0, len(names))
	for _, n := range names {
		o, err := b.object(n)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (b *builder) stateVariable(term string) (htn.StateVariable, error) {
	head, args, err := parseTerm(term)
	if err != nil {
		return htn.StateVariable{}, err
	}
	t, ok := b.svTypes[head]
	if !ok {
		return htn.StateVariable{}, unknown("state variable", head)
	}
	params, err := b.params(args)
	if err != nil {
		return htn.StateVariable{}, fmt.Errorf("%s: %w", term, err)
	}
	return htn.StateVariable{Symbol: htn.NewStateVariableSymbol(head), Params: params, Type: t}, nil
}

func (b *builder) condition(a Assertion, sc scope) (htn.Condition, error) {
	sv, err := b.stateVariable(a.SV)
	if err != nil {
		return htn.Condition{}, err
	}
	v, err := b.value(a.Value)
	if err != nil {
		return htn.Condition{}, err
	}
	iv, err := b.interval(a.Start, a.End, sc)
	if err != nil {
		return htn.Condition{}, fmt.Errorf("%s: %w", a.SV, err)
	}
	return htn.NewCondition(sv, v, iv), nil
}

func (b *builder) effect(a Assertion, sc scope) (htn.Effect, error) {
	c, err := b.condition(a, sc)
	if err != nil {
		return htn.Effect{}, err
	}
	return htn.NewEffect(c.SV, c.Value, c.Interval), nil
}

type diracFunc func(sv htn.StateVariable, value htn.Constant) (before, after htn.Effect, err error)

func (b *builder) dirac(a Assertion, toggle diracFunc) ([]htn.Effect, error) {
	sv, err := b.stateVariable(a.SV)
	if err != nil {
		return nil, err
	}
	v, err := b.value(a.Value)
	if err != nil {
		return nil, err
	}
	c, ok := v.(htn.Constant)
	if !ok {
		return nil, malformed("dirac value of %s must be a constant", a.SV)
	}
	before, after, err := toggle(sv, c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.SV, err)
	}
	return []htn.Effect{before, after}, nil
}

func (b *builder) action(decl ActionDecl) (htn.PrimitiveTask, error) {
	if _, dup := b.actions[decl.Name]; dup {
		return htn.PrimitiveTask{}, malformed("action %s declared twice", decl.Name)
	}
	params, err := b.params(decl.Params)
	if err != nil {
		return htn.PrimitiveTask{}, err
	}
	iv := b.session.Intervals().Default()
	sc := scope{own: &iv}

	a := htn.PrimitiveTask{Symbol: htn.NewPrimitiveTaskSymbol(decl.Name), Params: params, Interval: iv}
	for _, s := range decl.Constraints {
		c, err := b.constraint(s, sc)
		if err != nil {
			return htn.PrimitiveTask{}, err
		}
		a.Constraints = append(a.Constraints, c)
	}
	for _, dur := range []struct {
		delay string
		fn    func(htn.Bounded, htn.Delay, htn.Label) htn.TemporalConstraint
	}{{decl.Duration, htn.Duration}, {decl.MinDuration, htn.MinDuration}} {
		if dur.delay == "" {
			continue
		}
		d, err := htn.ParseDelay(dur.delay)
		if err != nil {
			return htn.PrimitiveTask{}, malformed("%v", err)
		}
		a.Constraints = append(a.Constraints, dur.fn(iv, d, ""))
	}
	for _, s := range decl.Conditions {
		c, err := b.condition(s, sc)
		if err != nil {
			return htn.PrimitiveTask{}, err
		}
		a.Conditions = append(a.Conditions, c)
	}
	for _, s := range decl.Effects {
		e, err := b.effect(s, sc)
		if err != nil {
			return htn.PrimitiveTask{}, err
		}
		a.Effects = append(a.Effects, e)
	}
	for _, s := range decl.DiracAtStart {
		effs, err := b.dirac(s, b.session.DiracAtStart)
		if err != nil {
			return htn.PrimitiveTask{}, err
		}
		a.Effects = append(a.Effects, effs...)
	}
	for _, s := range decl.DiracAtEnd {
		effs, err := b.dirac(s, b.session.DiracAtEnd)
		if err != nil {
			return htn.PrimitiveTask{}, err
		}
		a.Effects = append(a.Effects, effs...)
	}

	b.actions[decl.Name] = a
	return a, nil
}

func (b *builder) compoundTask(decl TaskDecl) (htn.CompoundTask, error) {
	if _, dup := b.compounds[decl.Name]; dup {
		return htn.CompoundTask{}, malformed("task %s declared twice", decl.Name)
	}
	params, err := b.params(decl.Params)
	if err != nil {
		return htn.CompoundTask{}, err
	}
	sym := htn.NewCompoundTaskSymbol(decl.Name)
	b.compounds[decl.Name] = compound{symbol: sym, params: params}
	return b.session.CompoundTask(sym, params...), nil
}

// checkArgs verifies arity and that every argument fits its parameter's
// type.
func checkArgs(name string, params, args []htn.TypedObject) error {
	if len(params) != len(args) {
		return malformed("%s takes %d arguments, got %d", name, len(params), len(args))
	}
	for i, p := range params {
		if pt, at := p.ObjectType(), args[i].ObjectType(); pt != nil && !at.IsSubtypeOf(pt) {
			return malformed("argument %d of %s has type %s, want %s", i+1, name, at, pt)
		}
	}
	return nil
}

// task resolves a task term. Compound tasks get a fresh interval; actions
// are re-parameterised with the given arguments.
func (b *builder) task(term string) (htn.Task, error) {
	head, names, err := parseTerm(term)
	if err != nil {
		return nil, err
	}
	args, err := b.params(names)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", term, err)
	}
	if c, ok := b.compounds[head]; ok {
		if err := checkArgs(head, c.params, args); err != nil {
			return nil, err
		}
		return b.session.CompoundTask(c.symbol, args...), nil
	}
	if a, ok := b.actions[head]; ok {
		if err := checkArgs(head, a.Params, args); err != nil {
			return nil, err
		}
		return bind(a, args)
	}
	return nil, unknown("task", head)
}

func (b *builder) method(decl MethodDecl) (htn.Method, error) {
	t, err := b.task(decl.Task)
	if err != nil {
		return htn.Method{}, err
	}
	task, ok := t.(htn.CompoundTask)
	if !ok {
		return htn.Method{}, malformed("%s is not a compound task", decl.Task)
	}
	tn, err := b.network(decl.Subtasks, &task.Interval)
	if err != nil {
		return htn.Method{}, err
	}
	sc := scope{own: &task.Interval, labels: labelsOf(tn)}
	var constraints []htn.Constraint
	for _, s := range decl.Constraints {
		c, err := b.constraint(s, sc)
		if err != nil {
			return htn.Method{}, err
		}
		constraints = append(constraints, c)
	}
	var conditions []htn.Condition
	for _, a := range decl.Conditions {
		c, err := b.condition(a, scope{own: &task.Interval})
		if err != nil {
			return htn.Method{}, err
		}
		conditions = append(conditions, c)
	}
	var sym htn.Symbol
	if decl.Name != "" {
		sym = htn.NewMethodSymbol(decl.Name)
	}
	return b.session.Method(sym, task, tn, constraints, conditions)
}

func labelsOf(tn htn.TaskNetwork) map[htn.Label]htn.Task {
	out := make(map[htn.Label]htn.Task, len(tn.Mapping))
	for _, p := range tn.Mapping {
		out[p.Label] = p.Task
	}
	return out
}

// network builds a labelled network. own is the interval start and end
// refer to inside its constraints; nil for the goal.
func (b *builder) network(decl NetworkDecl, own *htn.TemporalInterval) (htn.TaskNetwork, error) {
	mapping := make([]htn.LabelMappingPair, 0, len(decl.Tasks))
	for _, st := range decl.Tasks {
		t, err := b.task(st.Task)
		if err != nil {
			return htn.TaskNetwork{}, fmt.Errorf("subtask %s: %w", st.Label, err)
		}
		pair, err := htn.NewLabelMappingPair(htn.Label(st.Label), t)
		if err != nil {
			return htn.TaskNetwork{}, err
		}
		mapping = append(mapping, pair)
	}
	sc := scope{own: own, labels: labelsOf(htn.TaskNetwork{Mapping: mapping})}
	constraints := make([]htn.TemporalConstraint, 0, len(decl.Constraints))
	for _, s := range decl.Constraints {
		c, err := b.temporalConstraint(s, sc)
		if err != nil {
			return htn.TaskNetwork{}, err
		}
		constraints = append(constraints, c)
	}
	return htn.NewTaskNetwork(mapping, constraints...)
}

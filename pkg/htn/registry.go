package htn

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Language is the vocabulary of a domain: every variable, constant,
// state-variable symbol, task symbol and label reachable from its tasks
// and methods. It only grows.
type Language struct {
	Vars   Set[TypedObject]
	Csts   Set[TypedObject]
	StVars Set[Symbol]
	Prims  Set[Symbol]
	Comps  Set[Symbol]
	Labs   Set[Label]
}

func NewLanguage() *Language {
	return &Language{
		Vars:   NewSet[TypedObject](),
		Csts:   NewSet[TypedObject](),
		StVars: NewSet[Symbol](),
		Prims:  NewSet[Symbol](),
		Comps:  NewSet[Symbol](),
		Labs:   NewSet[Label](),
	}
}

// Merge adds the vocabulary of other to l.
func (l *Language) Merge(other *Language) {
	if other == nil {
		return
	}
	l.Vars.Merge(other.Vars)
	l.Csts.Merge(other.Csts)
	l.StVars.Merge(other.StVars)
	l.Prims.Merge(other.Prims)
	l.Comps.Merge(other.Comps)
	l.Labs.Merge(other.Labs)
}

// AddTypedObject registers a constant or a variable. A nil object is
// rejected.
func (l *Language) AddTypedObject(o TypedObject) error {
	switch {
	case IsConstant(o):
		l.Csts.Add(o)
	case IsVariable(o):
		l.Vars.Add(o)
	default:
		return fmt.Errorf("cannot add %v to a language", o)
	}
	return nil
}

// addObjects registers every object of objs. Nil entries are skipped.
func (l *Language) addObjects(objs []TypedObject) error {
	for _, o := range objs {
		if o == nil {
			continue
		}
		if err := l.AddTypedObject(o); err != nil {
			return err
		}
	}
	return nil
}

// AddTask registers the symbol and the parameters of t, including the
// state-variable symbols and hidden parameters of a primitive task.
func (l *Language) AddTask(t Task) error {
	if err := l.addObjects(t.AllParams()); err != nil {
		return fmt.Errorf("task %s: %w", t.Head(), err)
	}
	switch task := t.(type) {
	case PrimitiveTask:
		l.Prims.Add(task.Symbol)
		for _, sv := range task.StateVariables() {
			l.StVars.Add(sv.Symbol)
		}
	case CompoundTask:
		l.Comps.Add(task.Symbol)
	}
	return nil
}

// AddMethod registers the method's task, its condition state variables,
// and every labelled subtask.
func (l *Language) AddMethod(m Method) error {
	if err := l.AddTask(m.Task); err != nil {
		return err
	}
	for _, sv := range m.StateVariables() {
		l.StVars.Add(sv.Symbol)
		if err := l.addObjects(sv.Params); err != nil {
			return fmt.Errorf("method %s: %w", m.Symbol, err)
		}
	}
	for _, p := range m.Network.Mapping {
		l.Labs.Add(p.Label)
		if err := l.AddTask(p.Task); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns an independent copy of l.
func (l *Language) Clone() *Language {
	return &Language{
		Vars:   l.Vars.Clone(),
		Csts:   l.Csts.Clone(),
		StVars: l.StVars.Clone(),
		Prims:  l.Prims.Clone(),
		Comps:  l.Comps.Clone(),
		Labs:   l.Labs.Clone(),
	}
}

func (l *Language) cloneAny() any { return l.Clone() }

func (l *Language) unionAny(v any) (any, bool) {
	other, ok := v.(*Language)
	if !ok {
		return nil, false
	}
	out := l.Clone()
	out.Merge(other)
	return out, true
}

func (l *Language) String() string {
	var b strings.Builder
	b.WriteString("---- Language ----\n")
	writeSection(&b, "Vars", l.Vars.Items())
	writeSection(&b, "Csts", l.Csts.Items())
	writeSection(&b, "StVars", l.StVars.Items())
	writeSection(&b, "Prims", l.Prims.Items())
	writeSection(&b, "Comps", l.Comps.Items())
	writeSection(&b, "Labs", l.Labs.Items())
	b.WriteString("--------\n")
	return b.String()
}

func writeSection[T fmt.Stringer](b *strings.Builder, name string, items []T) {
	b.WriteString(name + ":\n")
	for _, it := range items {
		b.WriteString("\t" + it.String() + "\n")
	}
}

// Domain holds the tasks and methods of a planning domain together with
// their language.
type Domain struct {
	L    *Language
	Tp   Set[PrimitiveTask]
	Tc   Set[CompoundTask]
	M    Set[Method]
	Name string
}

// NewDomain creates an empty domain. An empty name becomes
// "domain_<uuid>".
func NewDomain(name string) *Domain {
	if name == "" {
		name = "domain_" + uuid.NewString()
	}
	return &Domain{
		L:    NewLanguage(),
		Tp:   NewSet[PrimitiveTask](),
		Tc:   NewSet[CompoundTask](),
		M:    NewSet[Method](),
		Name: name,
	}
}

// AddTask registers t and its vocabulary.
func (d *Domain) AddTask(t Task) error {
	if err := d.L.AddTask(t); err != nil {
		return fmt.Errorf("adding task to domain %s: %w", d.Name, err)
	}
	switch task := t.(type) {
	case PrimitiveTask:
		d.Tp.Add(task)
	case CompoundTask:
		d.Tc.Add(task)
	}
	return nil
}

// AddMethod validates m, then registers it, its task, every subtask and
// their vocabulary.
func (d *Domain) AddMethod(m Method) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("adding method to domain %s: %w", d.Name, err)
	}
	if err := d.L.AddMethod(m); err != nil {
		return fmt.Errorf("adding method to domain %s: %w", d.Name, err)
	}
	d.M.Add(m)
	d.Tc.Add(m.Task)
	for _, p := range m.Network.Mapping {
		if err := d.AddTask(p.Task); err != nil {
			return err
		}
	}
	return nil
}

// Merge adds the content of other to d.
func (d *Domain) Merge(other *Domain) {
	if other == nil {
		return
	}
	d.L.Merge(other.L)
	d.Tp.Merge(other.Tp)
	d.Tc.Merge(other.Tc)
	d.M.Merge(other.M)
}

// StateVariables returns every state variable used by the primitive tasks
// and the method conditions of d.
func (d *Domain) StateVariables() Set[StateVariable] {
	out := NewSet[StateVariable]()
	for _, t := range d.Tp.Items() {
		out.Add(t.StateVariables()...)
	}
	for _, m := range d.M.Items() {
		out.Add(m.StateVariables()...)
	}
	return out
}

// Clone returns an independent copy of d.
func (d *Domain) Clone() *Domain {
	l := NewLanguage()
	if d.L != nil {
		l = d.L.Clone()
	}
	return &Domain{L: l, Tp: d.Tp.Clone(), Tc: d.Tc.Clone(), M: d.M.Clone(), Name: d.Name}
}

func (d *Domain) cloneAny() any { return d.Clone() }

func (d *Domain) unionAny(v any) (any, bool) {
	other, ok := v.(*Domain)
	if !ok {
		return nil, false
	}
	out := d.Clone()
	out.Merge(other)
	return out, true
}

func (d *Domain) String() string {
	var b strings.Builder
	b.WriteString("---- Domain ----\n")
	b.WriteString("L:\n" + d.L.String())
	writeSection(&b, "Tp", d.Tp.Items())
	writeSection(&b, "Tc", d.Tc.Items())
	b.WriteString("M:\n")
	for _, m := range d.M.Items() {
		b.WriteString("\t" + m.Describe() + "\n")
	}
	b.WriteString("name: " + d.Name + "\n--------\n")
	return b.String()
}

// Problem is a domain with an initial state and an optional goal network.
type Problem struct {
	D    *Domain
	SI   Set[Effect]
	TnI  *TaskNetwork
	Name string
}

// NewProblem creates a problem over d. An empty name becomes
// "problem_<uuid>"; a nil domain becomes an empty one.
func NewProblem(name string, d *Domain) *Problem {
	if name == "" {
		name = "problem_" + uuid.NewString()
	}
	if d == nil {
		d = NewDomain("")
	}
	return &Problem{D: d, SI: NewSet[Effect](), Name: name}
}

// AddInitialEffect adds e to the initial state and registers its state
// variable symbol and ground values in the language.
func (p *Problem) AddInitialEffect(e Effect) error {
	if err := p.D.L.addObjects(e.SV.Params); err != nil {
		return fmt.Errorf("initial effect of %s: %w", p.Name, err)
	}
	p.SI.Add(e)
	p.D.L.StVars.Add(e.SV.Symbol)
	return nil
}

// SetGoal validates tn and makes it the initial task network. Its tasks
// are registered in the domain.
func (p *Problem) SetGoal(tn TaskNetwork) error {
	if err := tn.Validate(); err != nil {
		return fmt.Errorf("setting goal of %s: %w", p.Name, err)
	}
	for _, lmp := range tn.Mapping {
		if err := p.D.AddTask(lmp.Task); err != nil {
			return fmt.Errorf("setting goal of %s: %w", p.Name, err)
		}
		p.D.L.Labs.Add(lmp.Label)
	}
	p.TnI = &tn
	return nil
}

// StateVariables returns the domain's state variables and those of the
// initial effects.
func (p *Problem) StateVariables() Set[StateVariable] {
	out := p.D.StateVariables()
	for _, e := range p.SI.Items() {
		out.Add(e.SV)
	}
	return out
}

// Clone returns an independent copy of p.
func (p *Problem) Clone() *Problem {
	out := &Problem{D: p.D.Clone(), SI: p.SI.Clone(), Name: p.Name}
	if p.TnI != nil {
		tn := p.TnI.cloneAny().(TaskNetwork)
		out.TnI = &tn
	}
	return out
}

func (p *Problem) cloneAny() any { return p.Clone() }

func (p *Problem) String() string {
	var b strings.Builder
	b.WriteString("---- Problem ----\n")
	b.WriteString("D:\n" + p.D.String())
	writeSection(&b, "s_I", p.SI.Items())
	b.WriteString("tn_I:\n")
	if p.TnI != nil {
		b.WriteString("\t" + p.TnI.String() + "\n")
	}
	b.WriteString("name: " + p.Name + "\n--------\n")
	return b.String()
}

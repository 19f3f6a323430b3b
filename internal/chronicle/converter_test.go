package chronicle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/temporal-htn/pkg/htn"
	"github.com/valter-silva-au/temporal-htn/pkg/htn/htntest"
)

func convertMove(t *testing.T) (*htntest.Move, *Recorder, *Converter) {
	t.Helper()
	m, err := htntest.NewMove()
	if err != nil {
		t.Fatalf("NewMove: %v", err)
	}
	rec := NewRecorder(m.Problem.Name, nil)
	c, err := FromHTN(m.Problem, rec)
	if err != nil {
		t.Fatalf("FromHTN: %v", err)
	}
	return m, rec, c
}

func TestFromHTNMoveDomain(t *testing.T) {
	_, rec, c := convertMove(t)
	doc := rec.Chronicle()

	if len(doc.Actions) != 1 || doc.Actions[0].Signature[0] != "move" {
		t.Fatalf("actions = %+v, want exactly one move", doc.Actions)
	}
	if len(doc.Goals) != 1 || len(doc.Goals[0].Tasks) != 1 || doc.Goals[0].Tasks[0][0] != "go" {
		t.Fatalf("goals = %+v, want one go task", doc.Goals)
	}
	if len(doc.Methods) != 1 {
		t.Fatalf("methods = %d, want 1", len(doc.Methods))
	}
	if len(doc.Predicates) != 3 {
		t.Errorf("predicates = %v, want at(?r, ?from), at(?r, ?to), at(R, L0)", doc.Predicates)
	}
	if len(doc.InitialEffects) != 1 {
		t.Errorf("initial effects = %d, want 1", len(doc.InitialEffects))
	}
	if len(doc.Types) != 3 {
		t.Errorf("types = %+v, want object, location, robot", doc.Types)
	}

	kinds := make(map[string]string)
	for _, s := range doc.Symbols {
		kinds[s.Name] = s.Kind
	}
	wantKinds := map[string]string{
		"R": "constant", "L0": "constant", "L1": "constant",
		"at": "predicate", "move": "action", "go": "task", "method_0": "method",
	}
	for name, kind := range wantKinds {
		if kinds[name] != kind {
			t.Errorf("symbol %s kind = %q, want %q", name, kinds[name], kind)
		}
	}
	if !c.SymbolTableCreated() || !c.ContextCreated() {
		t.Error("both phase gates should be closed after FromHTN")
	}
}

func TestFromHTNActionLowering(t *testing.T) {
	_, rec, _ := convertMove(t)
	a := rec.Chronicle().Actions[0]

	wantPrefix := Signature{"move", "?r - robot", "?from - location", "?to - location"}
	if len(a.Signature) != 6 || !equalSignature(a.Signature[:4], wantPrefix) {
		t.Fatalf("signature = %v", a.Signature)
	}
	for _, tp := range a.Signature[4:] {
		if !strings.HasPrefix(tp, "__d__") || !strings.HasSuffix(tp, " + 0 - __timepoint__") {
			t.Errorf("timepoint %q is not an unlabelled synthetic timepoint", tp)
		}
	}

	if len(a.Constraints) != 2 {
		t.Fatalf("constraints = %v, want the declared one plus min duration", a.Constraints)
	}
	minDur := a.Constraints[1]
	if minDur[0] != a.Signature[5] || minDur[1] != ">=" {
		t.Errorf("min duration = %v", minDur)
	}
	if want := strings.Replace(a.Signature[4], " + 0 ", " + 1 ", 1); minDur[2] != want {
		t.Errorf("min duration right = %q, want %q", minDur[2], want)
	}

	if len(a.Conditions) != 1 || len(a.Effects) != 2 {
		t.Fatalf("conditions = %v, effects = %v", a.Conditions, a.Effects)
	}
	cond := a.Conditions[0]
	if len(cond) != 6 || cond[0] != "at" || cond[3] != "True" {
		t.Errorf("condition = %v", cond)
	}
	if a.Effects[0][3] != "False" || a.Effects[1][3] != "True" {
		t.Errorf("effect values = %s, %s", a.Effects[0][3], a.Effects[1][3])
	}
}

func TestFromHTNMethodAndGoalLowering(t *testing.T) {
	_, rec, _ := convertMove(t)
	doc := rec.Chronicle()

	m := doc.Methods[0]
	if m.Signature[0] != "method_0" {
		t.Errorf("method signature = %v", m.Signature)
	}
	if !equalSignature(m.Task, Signature{"go", "?r - robot", "?to - location"}) {
		t.Errorf("method task = %v", m.Task)
	}
	if len(m.Subtasks) != 1 {
		t.Fatalf("subtasks = %v", m.Subtasks)
	}
	sub := m.Subtasks[0]
	for _, tp := range sub[len(sub)-2:] {
		if !strings.Contains(tp, "l1 + 0 - ") {
			t.Errorf("subtask timepoint %q lacks its label", tp)
		}
	}
	for _, tp := range m.Signature[len(m.Signature)-2:] {
		if strings.Contains(tp, "l1") {
			t.Errorf("method timepoint %q must not be labelled", tp)
		}
	}

	goal := doc.Goals[0].Tasks[0]
	if goal[1] != "R - robot" || goal[2] != "L1 - location" {
		t.Errorf("goal = %v", goal)
	}
	if !strings.Contains(goal[3], "g0 + 0 - ") {
		t.Errorf("goal timepoint %q lacks its label", goal[3])
	}

	init := doc.InitialEffects[0]
	if !equalSignature(init[:4], Signature{"at", "R - robot", "L0 - location", "True"}) {
		t.Errorf("initial effect = %v", init)
	}
}

func TestFromHTNIsReproducible(t *testing.T) {
	_, a, _ := convertMove(t)
	_, b, _ := convertMove(t)

	var x, y strings.Builder
	if err := a.Chronicle().WriteYAML(&x); err != nil {
		t.Fatal(err)
	}
	if err := b.Chronicle().WriteYAML(&y); err != nil {
		t.Fatal(err)
	}
	if x.String() != y.String() {
		t.Error("two conversions of the same problem differ")
	}
	if !strings.Contains(x.String(), "name: move-R-L1") {
		t.Errorf("YAML lacks the problem name:\n%s", x.String())
	}
}

func TestConverterIdempotence(t *testing.T) {
	m, rec, c := convertMove(t)
	before := c.Stats()
	symbols := len(rec.Chronicle().Symbols)
	types := len(rec.Chronicle().Types)

	steps := []struct {
		name string
		fn   func() error
	}{
		{"type", func() error { return c.AddType(m.Location) }},
		{"constant", func() error { return c.AddConstant(m.L0) }},
		{"variable", func() error { return c.AddVariable(m.From) }},
		{"symbol", func() error { return c.AddSymbol(m.MoveSym, SymbolAction, nil) }},
		{"state variable", func() error { return c.AddStateVariable(htn.NewStateVariable(m.At, m.R, m.From)) }},
		{"action", func() error { return c.AddAction(m.Action) }},
		{"method", func() error { return c.AddMethod(m.GoMethod) }},
		{"goal", func() error { return c.SetGoal(m.Problem.TnI) }},
		{"initial effect", func() error { return c.AddInitialEffect(m.Problem.SI.Items()[0]) }},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			t.Errorf("re-adding %s: %v", s.name, err)
		}
	}

	if after := c.Stats(); after != before {
		t.Errorf("stats changed: %+v -> %+v", before, after)
	}
	doc := rec.Chronicle()
	if len(doc.Symbols) != symbols || len(doc.Types) != types {
		t.Error("builder received duplicate vocabulary")
	}
	if len(doc.Actions) != 1 || len(doc.Methods) != 1 || len(doc.Goals) != 1 || len(doc.InitialEffects) != 1 {
		t.Error("builder received duplicate content")
	}
}

func TestConverterOrdering(t *testing.T) {
	m, err := htntest.NewMove()
	if err != nil {
		t.Fatal(err)
	}

	c := NewConverter("p", NewRecorder("p", nil))
	if err := c.CreateContext(); !errors.Is(err, ErrUncreatedSymbolTable) {
		t.Errorf("context before table: err = %v", err)
	}
	if err := c.AddAction(m.Action); !errors.Is(err, ErrUncreatedSymbolTable) {
		t.Errorf("action before table: err = %v", err)
	}
	if _, err := c.Signature(htn.NewStateVariable(m.At, m.R)); !errors.Is(err, ErrUncreatedSymbolTable) {
		t.Errorf("signature before table: err = %v", err)
	}

	for _, sym := range []htn.Symbol{m.At, m.MoveSym} {
		kind := SymbolAction
		if sym == m.At {
			kind = SymbolPredicate
		}
		if err := c.AddSymbol(sym, kind, nil); err != nil {
			t.Fatalf("AddSymbol(%s): %v", sym, err)
		}
	}
	if err := c.AddType(m.Location); err != nil {
		t.Fatalf("AddType: %v", err)
	}
	if err := c.CreateSymbolTable(); err != nil {
		t.Fatalf("CreateSymbolTable: %v", err)
	}
	if err := c.CreateSymbolTable(); !errors.Is(err, ErrPhaseClosed) {
		t.Errorf("second freeze: err = %v", err)
	}
	if err := c.AddType(htn.NewType("vehicle", nil)); !errors.Is(err, ErrPhaseClosed) {
		t.Errorf("new type after freeze: err = %v", err)
	}
	if err := c.AddType(m.Location); err != nil {
		t.Errorf("known type after freeze: err = %v", err)
	}
	if err := c.AddAction(m.Action); !errors.Is(err, ErrUncreatedContext) {
		t.Errorf("action before context: err = %v", err)
	}
	if err := c.SetGoal(m.Problem.TnI); !errors.Is(err, ErrUncreatedContext) {
		t.Errorf("goal before context: err = %v", err)
	}

	if err := c.AddStateVariable(htn.NewStateVariable(m.At, m.R, m.From)); err != nil {
		t.Fatalf("AddStateVariable: %v", err)
	}
	if err := c.CreateContext(); err != nil {
		t.Fatalf("CreateContext: %v", err)
	}
	if err := c.AddStateVariable(htn.NewStateVariable(m.At, m.R, m.To)); !errors.Is(err, ErrPhaseClosed) {
		t.Errorf("state variable after context: err = %v", err)
	}
	if err := c.AddAction(m.Action); err != nil {
		t.Errorf("action in order: %v", err)
	}
	if err := c.AddMethod(m.GoMethod); !errors.Is(err, ErrUnregisteredSymbol) {
		t.Errorf("unregistered method: err = %v", err)
	}

	var convErr *ConversionError
	if err := c.AddMethod(m.GoMethod); !errors.As(err, &convErr) || convErr.Msg != m.GoMethod.Symbol.Name {
		t.Errorf("ConversionError = %v", err)
	}
}

func TestConverterErrorsOnUnsupportedModel(t *testing.T) {
	m, err := htntest.NewMove()
	if err != nil {
		t.Fatal(err)
	}
	fuel := htn.StateVariable{Symbol: htn.NewStateVariableSymbol("fuel"), Params: []htn.TypedObject{m.RobotR}, Type: m.Location}
	m.Problem.AddInitialEffect(htn.NewEffect(fuel, m.L0, m.Session.Intervals().Default()))

	_, err = FromHTN(m.Problem, NewRecorder("p", nil))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("err = %v, want ErrUnsupportedType", err)
	}

	c := NewConverter("p", NewRecorder("p", nil))
	if err := c.AddSymbol(htn.Symbol{Name: "L9"}, SymbolConstant, nil); !errors.Is(err, ErrMissingConstantType) {
		t.Errorf("constant without type: err = %v", err)
	}
}

func TestFromHTNIntegerStateVariable(t *testing.T) {
	m, err := htntest.NewMove()
	if err != nil {
		t.Fatal(err)
	}
	fuel := htn.StateVariable{Symbol: htn.NewStateVariableSymbol("fuel"), Params: []htn.TypedObject{m.RobotR}, Type: htn.IntegerType}
	m.Problem.AddInitialEffect(htn.NewEffect(fuel, htn.IntConstant(10), m.Session.Intervals().Default()))

	rec := NewRecorder("p", nil)
	if _, err := FromHTN(m.Problem, rec); err != nil {
		t.Fatalf("FromHTN: %v", err)
	}
	doc := rec.Chronicle()
	if len(doc.Functions) != 1 || doc.Functions[0][0] != "fuel" {
		t.Errorf("functions = %v", doc.Functions)
	}
	found := false
	for _, e := range doc.InitialEffects {
		if e[0] == "fuel" && e[2] == "10" {
			found = true
		}
	}
	if !found {
		t.Errorf("fuel initial effect missing: %v", doc.InitialEffects)
	}
}

func TestLabelDisambiguation(t *testing.T) {
	m, err := htntest.NewMove()
	if err != nil {
		t.Fatal(err)
	}
	s := m.Session
	grounded, err := htn.CopyWith(m.Action, htn.Attrs{"Params": []htn.TypedObject{m.RobotR, m.L0, m.L1}})
	if err != nil {
		t.Fatal(err)
	}
	order, err := htn.Lt(grounded.End(), grounded.Start(), "first", "second")
	if err != nil {
		t.Fatal(err)
	}
	tn, err := htn.NewTaskNetwork([]htn.LabelMappingPair{
		{Label: "first", Task: grounded},
		{Label: "second", Task: grounded},
	}, order.(htn.TemporalConstraint))
	if err != nil {
		t.Fatal(err)
	}
	twice, err := s.Method(htn.Symbol{}, s.CompoundTask(m.GoSym, m.RobotR, m.L1), tn, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Problem.D.AddMethod(twice); err != nil {
		t.Fatal(err)
	}

	rec := NewRecorder("p", nil)
	if _, err := FromHTN(m.Problem, rec); err != nil {
		t.Fatalf("FromHTN: %v", err)
	}
	var decl *MethodDecl
	for i := range rec.Chronicle().Methods {
		if len(rec.Chronicle().Methods[i].Subtasks) == 2 {
			decl = &rec.Chronicle().Methods[i]
		}
	}
	if decl == nil {
		t.Fatal("method with two subtasks not lowered")
	}

	a, b := decl.Subtasks[0], decl.Subtasks[1]
	if len(a) != len(b) {
		t.Fatalf("subtask signatures differ in length: %v / %v", a, b)
	}
	n := len(a)
	if !equalSignature(a[:n-2], b[:n-2]) {
		t.Errorf("subtask heads differ: %v / %v", a, b)
	}
	for i := n - 2; i < n; i++ {
		if a[i] == b[i] {
			t.Errorf("timepoints collide: %q", a[i])
		}
		if strings.Replace(a[i], "first + ", "second + ", 1) != b[i] {
			t.Errorf("timepoints differ beyond their label: %q / %q", a[i], b[i])
		}
	}

	c := decl.SubtaskConstraints[0]
	if !strings.Contains(c[0], "first + ") || !strings.Contains(c[2], "second + ") {
		t.Errorf("subtask constraint labels = %v", c)
	}
}

func TestConverterSolve(t *testing.T) {
	m, err := htntest.NewMove()
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()

	var gotPath string
	solved := true
	rec := NewRecorder(m.Problem.Name, SolverFunc(func(ctx context.Context, doc *Chronicle, out string, verbose bool) (bool, error) {
		gotPath = out
		return solved, nil
	}))
	c, err := FromHTN(m.Problem, rec, WithOutputDir(filepath.Join(dir, "plans")))
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "plans", "move-R-L1.plan"); c.PlanFile() != want {
		t.Errorf("PlanFile() = %q, want %q", c.PlanFile(), want)
	}

	if err := c.Solve(context.Background(), "", false); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if gotPath != c.PlanFile() {
		t.Errorf("solver got %q", gotPath)
	}
	if _, err := os.Stat(filepath.Join(dir, "plans")); err != nil {
		t.Errorf("plan directory not created: %v", err)
	}

	solved = false
	custom := filepath.Join(dir, "other", "p.plan")
	err = c.Solve(context.Background(), custom, false)
	if !errors.Is(err, ErrNoSolution) {
		t.Fatalf("err = %v, want ErrNoSolution", err)
	}
	var noSol *NoSolutionError
	if !errors.As(err, &noSol) || noSol.Converter != c {
		t.Errorf("NoSolutionError does not carry the converter: %v", err)
	}
	if c.PlanFile() != custom {
		t.Errorf("PlanFile() = %q, want %q", c.PlanFile(), custom)
	}
}

func TestSolveWithoutSolver(t *testing.T) {
	c := NewConverter("p", NewRecorder("p", nil), WithOutputDir(t.TempDir()))
	if err := c.Solve(context.Background(), "", false); !errors.Is(err, ErrNoSolver) {
		t.Fatalf("err = %v, want ErrNoSolver", err)
	}
	if got := NewConverter("p", nil).PlanFile(); got != filepath.Join("output", "p.plan") {
		t.Errorf("default PlanFile() = %q", got)
	}
}

func TestFromHTNRejectsMissingIntervals(t *testing.T) {
	tests := []struct {
		name  string
		build func(m *htntest.Move) (*htn.Problem, error)
	}{
		{
			name: "action without interval",
			build: func(m *htntest.Move) (*htn.Problem, error) {
				at := htn.NewStateVariable(m.At, m.R, m.To)
				d := htn.NewDomain("bare")
				err := d.AddTask(htn.PrimitiveTask{
					Symbol:  m.MoveSym,
					Params:  []htn.TypedObject{m.R, m.From, m.To},
					Effects: []htn.Effect{m.Session.Effect(at, htn.True)},
				})
				return htn.NewProblem("bare", d), err
			},
		},
		{
			name: "condition without interval",
			build: func(m *htntest.Move) (*htn.Problem, error) {
				at := htn.NewStateVariable(m.At, m.R, m.From)
				d := htn.NewDomain("bare")
				err := d.AddTask(m.Session.PrimitiveTask(m.MoveSym, []htn.TypedObject{m.R, m.From, m.To}, nil,
					[]htn.Condition{{SV: at, Value: htn.True}}, nil))
				return htn.NewProblem("bare", d), err
			},
		},
		{
			name: "initial effect without interval",
			build: func(m *htntest.Move) (*htn.Problem, error) {
				err := m.Problem.AddInitialEffect(htn.Effect{SV: htn.NewStateVariable(m.At, m.RobotR, m.L1), Value: htn.False})
				return m.Problem, err
			},
		},
		{
			name: "goal task without interval",
			build: func(m *htntest.Move) (*htn.Problem, error) {
				p := htn.NewProblem("p", m.Problem.D)
				goal := htn.CompoundTask{Symbol: m.GoSym, Params: []htn.TypedObject{m.RobotR, m.L1}}
				tn, err := htn.NewTaskNetwork([]htn.LabelMappingPair{{Label: "g0", Task: goal}})
				if err != nil {
					return nil, err
				}
				return p, p.SetGoal(tn)
			},
		},
		{
			name: "goal constraint with an unset bound",
			build: func(m *htntest.Move) (*htn.Problem, error) {
				p := htn.NewProblem("p", m.Problem.D)
				open := htn.TemporalConstraint{Left: m.Goal.Start(), Relation: htn.RelLt}
				tn, err := htn.NewTaskNetwork([]htn.LabelMappingPair{{Label: "g0", Task: m.Goal}}, open)
				if err != nil {
					return nil, err
				}
				return p, p.SetGoal(tn)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := htntest.NewMove()
			if err != nil {
				t.Fatal(err)
			}
			p, err := tt.build(m)
			if err != nil {
				t.Fatalf("building problem: %v", err)
			}

			_, err = FromHTN(p, NewRecorder(p.Name, nil))
			if !errors.Is(err, ErrMissingInterval) {
				t.Fatalf("err = %v, want ErrMissingInterval", err)
			}
			var convErr *ConversionError
			if !errors.As(err, &convErr) {
				t.Errorf("err = %T, want a *ConversionError in the chain", err)
			}
		})
	}
}

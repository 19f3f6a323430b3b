package chronicle

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// TypeDecl declares a type and its optional parent.
type TypeDecl struct {
	Name   string `yaml:"name" json:"name"`
	Parent string `yaml:"parent,omitempty" json:"parent,omitempty"`
}

// SymbolDecl declares a symbol. Type is set for constants only.
type SymbolDecl struct {
	Name string `yaml:"name" json:"name"`
	Kind string `yaml:"kind" json:"kind"`
	Type string `yaml:"type,omitempty" json:"type,omitempty"`
}

// Action is a lowered primitive task.
type Action struct {
	Signature   Signature   `yaml:"signature" json:"signature"`
	Constraints []Signature `yaml:"constraints,omitempty" json:"constraints,omitempty"`
	Conditions  []Signature `yaml:"conditions,omitempty" json:"conditions,omitempty"`
	Effects     []Signature `yaml:"effects,omitempty" json:"effects,omitempty"`
}

// MethodDecl is a lowered method.
type MethodDecl struct {
	Signature          Signature   `yaml:"signature" json:"signature"`
	Constraints        []Signature `yaml:"constraints,omitempty" json:"constraints,omitempty"`
	Conditions         []Signature `yaml:"conditions,omitempty" json:"conditions,omitempty"`
	Task               Signature   `yaml:"task" json:"task"`
	Subtasks           []Signature `yaml:"subtasks,omitempty" json:"subtasks,omitempty"`
	SubtaskConstraints []Signature `yaml:"subtask_constraints,omitempty" json:"subtask_constraints,omitempty"`
}

// Goal is a lowered initial task network.
type Goal struct {
	Tasks       []Signature `yaml:"tasks" json:"tasks"`
	Constraints []Signature `yaml:"constraints,omitempty" json:"constraints,omitempty"`
}

// Chronicle is the complete lowered problem, in the order it was built.
type Chronicle struct {
	Name           string       `yaml:"name" json:"name"`
	Types          []TypeDecl   `yaml:"types" json:"types"`
	Symbols        []SymbolDecl `yaml:"symbols" json:"symbols"`
	Predicates     []Signature  `yaml:"predicates,omitempty" json:"predicates,omitempty"`
	Functions      []Signature  `yaml:"functions,omitempty" json:"functions,omitempty"`
	Actions        []Action     `yaml:"actions,omitempty" json:"actions,omitempty"`
	Methods        []MethodDecl `yaml:"methods,omitempty" json:"methods,omitempty"`
	Goals          []Goal       `yaml:"goals,omitempty" json:"goals,omitempty"`
	InitialEffects []Signature  `yaml:"initial_effects,omitempty" json:"initial_effects,omitempty"`
}

// WriteYAML encodes c as YAML.
func (c *Chronicle) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding chronicle: %w", err)
	}
	return enc.Close()
}

// SignatureCount returns the number of top-level lowered elements.
func (c *Chronicle) SignatureCount() int {
	n := len(c.Predicates) + len(c.Functions) + len(c.Actions) + len(c.Methods) + len(c.InitialEffects)
	for _, g := range c.Goals {
		n += len(g.Tasks)
	}
	return n
}

// Solver finds a plan for a recorded chronicle.
type Solver interface {
	Solve(ctx context.Context, doc *Chronicle, outputPath string, verbose bool) (bool, error)
}

// SolverFunc adapts a function to Solver.
type SolverFunc func(ctx context.Context, doc *Chronicle, outputPath string, verbose bool) (bool, error)

func (f SolverFunc) Solve(ctx context.Context, doc *Chronicle, outputPath string, verbose bool) (bool, error) {
	return f(ctx, doc, outputPath, verbose)
}

// Recorder is an in-memory Builder. It records every call into a Chronicle
// and hands the result to a Solver on Solve.
type Recorder struct {
	doc                Chronicle
	solver             Solver
	symbolTableCreated bool
	contextCreated     bool
}

// NewRecorder creates a recorder for the problem called name. solver may
// be nil, in which case Solve fails with ErrNoSolver.
func NewRecorder(name string, solver Solver) *Recorder {
	return &Recorder{doc: Chronicle{Name: name}, solver: solver}
}

// Chronicle returns the document recorded so far.
func (r *Recorder) Chronicle() *Chronicle { return &r.doc }

func (r *Recorder) requireTable(op string) error {
	if !r.symbolTableCreated {
		return fmt.Errorf("%s: %w", op, ErrUncreatedSymbolTable)
	}
	return nil
}

func (r *Recorder) requireContext(op string) error {
	if !r.contextCreated {
		return fmt.Errorf("%s: %w", op, ErrUncreatedContext)
	}
	return nil
}

func (r *Recorder) AddType(name, parent string) error {
	r.doc.Types = append(r.doc.Types, TypeDecl{Name: name, Parent: parent})
	return nil
}

func (r *Recorder) addSymbol(name string, kind SymbolKind, typ string) error {
	if r.symbolTableCreated {
		return fmt.Errorf("symbol %s: %w", name, ErrPhaseClosed)
	}
	r.doc.Symbols = append(r.doc.Symbols, SymbolDecl{Name: name, Kind: kind.String(), Type: typ})
	return nil
}

func (r *Recorder) AddConstantSymbol(name, typ string) error {
	return r.addSymbol(name, SymbolConstant, typ)
}

func (r *Recorder) AddActionSymbol(name string) error    { return r.addSymbol(name, SymbolAction, "") }
func (r *Recorder) AddMethodSymbol(name string) error    { return r.addSymbol(name, SymbolMethod, "") }
func (r *Recorder) AddPredicateSymbol(name string) error { return r.addSymbol(name, SymbolPredicate, "") }
func (r *Recorder) AddFunctionSymbol(name string) error  { return r.addSymbol(name, SymbolFunction, "") }
func (r *Recorder) AddTaskSymbol(name string) error      { return r.addSymbol(name, SymbolTask, "") }

func (r *Recorder) CreateSymbolTable() error {
	r.symbolTableCreated = true
	return nil
}

func (r *Recorder) AddPredicate(sig Signature) error {
	if err := r.requireTable("predicate"); err != nil {
		return err
	}
	r.doc.Predicates = append(r.doc.Predicates, sig)
	return nil
}

func (r *Recorder) AddFunction(sig Signature) error {
	if err := r.requireTable("function"); err != nil {
		return err
	}
	r.doc.Functions = append(r.doc.Functions, sig)
	return nil
}

func (r *Recorder) CreateContext() error {
	if err := r.requireTable("context"); err != nil {
		return err
	}
	r.contextCreated = true
	return nil
}

func (r *Recorder) AddAction(sig Signature, constraints, conditions, effects []Signature) error {
	if err := r.requireContext("action"); err != nil {
		return err
	}
	r.doc.Actions = append(r.doc.Actions, Action{
		Signature:   sig,
		Constraints: constraints,
		Conditions:  conditions,
		Effects:     effects,
	})
	return nil
}

func (r *Recorder) AddMethod(sig Signature, constraints, conditions []Signature, task Signature, subtasks, subtaskConstraints []Signature) error {
	if err := r.requireContext("method"); err != nil {
		return err
	}
	r.doc.Methods = append(r.doc.Methods, MethodDecl{
		Signature:          sig,
		Constraints:        constraints,
		Conditions:         conditions,
		Task:               task,
		Subtasks:           subtasks,
		SubtaskConstraints: subtaskConstraints,
	})
	return nil
}

func (r *Recorder) AddGoal(tasks, constraints []Signature) error {
	if err := r.requireContext("goal"); err != nil {
		return err
	}
	r.doc.Goals = append(r.doc.Goals, Goal{Tasks: tasks, Constraints: constraints})
	return nil
}

func (r *Recorder) AddInitialEffect(sig Signature) error {
	if err := r.requireContext("initial effect"); err != nil {
		return err
	}
	r.doc.InitialEffects = append(r.doc.InitialEffects, sig)
	return nil
}

// Solve hands the recorded chronicle to the configured solver.
func (r *Recorder) Solve(ctx context.Context, outputPath string, verbose bool) (bool, error) {
	if r.solver == nil {
		return false, ErrNoSolver
	}
	return r.solver.Solve(ctx, &r.doc, outputPath, verbose)
}

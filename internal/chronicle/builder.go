package chronicle

import "context"

// Builder is the chronicle solver's construction interface. The Converter
// calls it in phase order and never registers the same element twice.
type Builder interface {
	AddType(name, parent string) error

	AddConstantSymbol(name, typ string) error
	AddActionSymbol(name string) error
	AddMethodSymbol(name string) error
	AddPredicateSymbol(name string) error
	AddFunctionSymbol(name string) error
	AddTaskSymbol(name string) error

	CreateSymbolTable() error

	AddPredicate(sig Signature) error
	AddFunction(sig Signature) error

	CreateContext() error

	AddAction(sig Signature, constraints, conditions, effects []Signature) error
	AddMethod(sig Signature, constraints, conditions []Signature, task Signature, subtasks, subtaskConstraints []Signature) error
	AddGoal(tasks, constraints []Signature) error
	AddInitialEffect(sig Signature) error

	// Solve searches for a plan and writes it to outputPath. It reports
	// false when the problem has no solution.
	Solve(ctx context.Context, outputPath string, verbose bool) (bool, error)
}

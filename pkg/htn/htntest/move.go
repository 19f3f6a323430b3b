// Package htntest builds small reference problems for tests.
package htntest

import (
	"fmt"

	"github.com/valter-silva-au/temporal-htn/pkg/htn"
)

// Move is a two-location robot domain: a boolean state variable at(robot,
// location), an action move(?r, ?from, ?to), a compound task go(?r, ?to)
// decomposed into move, and a goal go(R, L1) from the initial state
// at(R, L0).
type Move struct {
	Session *htn.Session

	Object   *htn.Type
	Location *htn.Type
	Robot    *htn.Type

	R    htn.Variable
	From htn.Variable
	To   htn.Variable

	RobotR htn.Constant
	L0     htn.Constant
	L1     htn.Constant

	At       htn.Symbol
	MoveSym  htn.Symbol
	GoSym    htn.Symbol
	Action   htn.PrimitiveTask
	GoTask   htn.CompoundTask
	GoMethod htn.Method
	Goal     htn.CompoundTask

	Problem *htn.Problem
}

// NewMove builds the move problem with a fresh session.
func NewMove() (*Move, error) {
	m := &Move{Session: htn.NewSession()}
	s := m.Session

	m.Object = htn.NewType("object", nil)
	m.Location = htn.NewType("location", m.Object)
	m.Robot = htn.NewType("robot", m.Object)

	m.R = htn.NewVariable("?r", m.Robot)
	m.From = htn.NewVariable("?from", m.Location)
	m.To = htn.NewVariable("?to", m.Location)
	m.RobotR = htn.NewConstant("R", m.Robot)
	m.L0 = htn.NewConstant("L0", m.Location)
	m.L1 = htn.NewConstant("L1", m.Location)

	m.At = htn.NewStateVariableSymbol("at")
	m.MoveSym = htn.NewPrimitiveTaskSymbol("move")
	m.GoSym = htn.NewCompoundTaskSymbol("go")

	atFrom := htn.NewStateVariable(m.At, m.R, m.From)
	atTo := htn.NewStateVariable(m.At, m.R, m.To)

	differ, err := htn.Neq(m.From, m.To)
	if err != nil {
		return nil, fmt.Errorf("building move constraint: %w", err)
	}
	m.Action = s.PrimitiveTask(m.MoveSym,
		[]htn.TypedObject{m.R, m.From, m.To},
		[]htn.Constraint{differ},
		[]htn.Condition{s.Condition(atFrom, htn.True)},
		[]htn.Effect{s.Effect(atFrom, htn.False), s.Effect(atTo, htn.True)},
	)

	m.GoTask = s.CompoundTask(m.GoSym, m.R, m.To)
	pair, err := htn.NewLabelMappingPair("l1", m.Action)
	if err != nil {
		return nil, err
	}
	network, err := htn.NewTaskNetwork([]htn.LabelMappingPair{pair})
	if err != nil {
		return nil, err
	}
	m.GoMethod, err = s.Method(htn.Symbol{}, m.GoTask, network, nil, nil)
	if err != nil {
		return nil, err
	}

	d := htn.NewDomain("move")
	if err := d.AddTask(m.Action); err != nil {
		return nil, err
	}
	if err := d.AddMethod(m.GoMethod); err != nil {
		return nil, err
	}

	m.Problem = htn.NewProblem("move-R-L1", d)
	if err := m.Problem.AddInitialEffect(s.Effect(htn.NewStateVariable(m.At, m.RobotR, m.L0), htn.True)); err != nil {
		return nil, err
	}

	m.Goal = s.CompoundTask(m.GoSym, m.RobotR, m.L1)
	goalPair, err := htn.NewLabelMappingPair("g0", m.Goal)
	if err != nil {
		return nil, err
	}
	goal, err := htn.NewTaskNetwork([]htn.LabelMappingPair{goalPair})
	if err != nil {
		return nil, err
	}
	if err := m.Problem.SetGoal(goal); err != nil {
		return nil, err
	}
	return m, nil
}

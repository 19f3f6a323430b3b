package chronicle

import (
	"fmt"

	"github.com/valter-silva-au/temporal-htn/pkg/htn"
)

// FromHTN converts p through b. The order is fixed: constants, variables,
// state-variable symbols actually used by the problem, action symbols, task
// symbols, method symbols, symbol table, state variables, context, actions,
// methods, goal, initial state. Sets are walked in key order so the output
// is reproducible.
func FromHTN(p *htn.Problem, b Builder, opts ...Option) (*Converter, error) {
	c := NewConverter(p.Name, b, opts...)
	l := p.D.L

	used := p.StateVariables().Items()
	svTypes := make(map[string]*htn.Type, len(used))
	for _, sv := range used {
		if _, ok := svTypes[sv.Symbol.Name]; !ok {
			svTypes[sv.Symbol.Name] = sv.ValueType()
		}
	}

	for _, cst := range l.Csts.Items() {
		if err := c.AddConstant(cst); err != nil {
			return c, err
		}
	}
	for _, v := range l.Vars.Items() {
		if err := c.AddVariable(v); err != nil {
			return c, err
		}
	}
	// The language may declare state variables the problem never uses.
	for _, sym := range l.StVars.Items() {
		typ, ok := svTypes[sym.Name]
		if !ok {
			continue
		}
		var err error
		switch {
		case typ.Equal(htn.BooleanType):
			err = c.AddSymbol(sym, SymbolPredicate, nil)
		case typ.Equal(htn.IntegerType):
			err = c.AddSymbol(sym, SymbolFunction, nil)
		default:
			err = conversionf(ErrUnsupportedType, "state variable %s has type %s", sym, typ)
		}
		if err != nil {
			return c, err
		}
	}
	for _, sym := range l.Prims.Items() {
		if err := c.AddSymbol(sym, SymbolAction, nil); err != nil {
			return c, err
		}
	}
	for _, sym := range l.Comps.Items() {
		if err := c.AddSymbol(sym, SymbolTask, nil); err != nil {
			return c, err
		}
	}
	methods := p.D.M.Items()
	for _, m := range methods {
		if err := c.AddSymbol(m.Symbol, SymbolMethod, nil); err != nil {
			return c, err
		}
	}

	if err := c.CreateSymbolTable(); err != nil {
		return c, err
	}
	for _, sv := range used {
		if err := c.AddStateVariable(sv); err != nil {
			return c, err
		}
	}
	if err := c.CreateContext(); err != nil {
		return c, err
	}

	for _, a := range p.D.Tp.Items() {
		if err := c.AddAction(a); err != nil {
			return c, err
		}
	}
	for _, m := range methods {
		if err := c.AddMethod(m); err != nil {
			return c, err
		}
	}
	if err := c.SetGoal(p.TnI); err != nil {
		return c, fmt.Errorf("problem %s: %w", p.Name, err)
	}
	for _, e := range p.SI.Items() {
		if err := c.AddInitialEffect(e); err != nil {
			return c, err
		}
	}
	return c, nil
}

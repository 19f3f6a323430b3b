package problemfile

import (
	"github.com/valter-silva-au/temporal-htn/pkg/htn"
)

// bind re-parameterises action a: every occurrence of a declared parameter
// in its params, conditions, effects and basic constraints is replaced by
// the matching argument. The interval is kept.
func bind(a htn.PrimitiveTask, args []htn.TypedObject) (htn.PrimitiveTask, error) {
	sub := make(map[string]htn.TypedObject, len(a.Params))
	changed := false
	for i, p := range a.Params {
		sub[p.Key()] = args[i]
		if !htn.EqualObjects(p, args[i]) {
			changed = true
		}
	}
	if !changed {
		return a, nil
	}

	replace := func(o htn.TypedObject) htn.TypedObject {
		if o == nil {
			return nil
		}
		if r, ok := sub[o.Key()]; ok {
			return r
		}
		return o
	}
	replaceAll := func(objs []htn.TypedObject) []htn.TypedObject {
		out := make([]htn.TypedObject, len(objs))
		for i, o := range objs {
			out[i] = replace(o)
		}
		return out
	}
	sv := func(s htn.StateVariable) htn.StateVariable {
		s.Params = replaceAll(s.Params)
		return s
	}

	conditions := make([]htn.Condition, len(a.Conditions))
	for i, c := range a.Conditions {
		conditions[i] = htn.NewCondition(sv(c.SV), replace(c.Value), c.Interval)
	}
	effects := make([]htn.Effect, len(a.Effects))
	for i, e := range a.Effects {
		effects[i] = htn.NewEffect(sv(e.SV), replace(e.Value), e.Interval)
	}
	constraints := make([]htn.Constraint, len(a.Constraints))
	for i, c := range a.Constraints {
		if bc, ok := c.(htn.BasicConstraint); ok {
			bc.Left, bc.Right = replace(bc.Left), replace(bc.Right)
			c = bc
		}
		constraints[i] = c
	}

	return htn.CopyWith(a, htn.Attrs{
		"Params":      replaceAll(a.Params),
		"Conditions":  conditions,
		"Effects":     effects,
		"Constraints": constraints,
	})
}

package chronicle

import (
	"fmt"

	"github.com/valter-silva-au/temporal-htn/pkg/htn"
)

// Signature is the flat form of a lowered element:
// [symbol, param..., start?, end?].
type Signature []string

// RenderTimepoint renders tp as "<base><label> + <scaled delay> - <type>".
func RenderTimepoint(tp htn.Timepoint, label htn.Label) string {
	return fmt.Sprintf("%s%s + %d - %s", tp.Base(), label, tp.Offset().Scaled(), tp.ObjectType())
}

// RenderObject renders o as "<value> - <type>". Timepoints are rendered
// with RenderTimepoint and no label.
func RenderObject(o htn.TypedObject) string {
	if tp, ok := o.(htn.Timepoint); ok {
		return RenderTimepoint(tp, "")
	}
	return o.Raw() + " - " + o.ObjectType().String()
}

// RenderInterval renders the start and end of iv, both suffixed with label.
func RenderInterval(iv htn.TemporalInterval, label htn.Label) Signature {
	return Signature{RenderTimepoint(iv.Start, label), RenderTimepoint(iv.End, label)}
}

// RenderConstraint renders c as [left, relation, right]. Temporal
// constraints carry their own labels.
func RenderConstraint(c htn.Constraint) Signature {
	if tc, ok := c.(htn.TemporalConstraint); ok {
		return Signature{
			RenderTimepoint(tc.Left, tc.LeftLabel),
			string(tc.Relation),
			RenderTimepoint(tc.Right, tc.RightLabel),
		}
	}
	left, right := c.Operands()
	return Signature{RenderObject(left), string(c.Rel()), RenderObject(right)}
}

// renderConstraints renders cs, failing on a constraint with an unset
// operand or timepoint.
func renderConstraints[C htn.Constraint](cs []C) ([]Signature, error) {
	out := make([]Signature, 0, len(cs))
	for i, c := range cs {
		left, right := c.Operands()
		if left == nil || right == nil {
			return nil, conversionf(ErrMissingInterval, "constraint %d (%s) has an unset operand", i, c.Rel())
		}
		out = append(out, RenderConstraint(c))
	}
	return out, nil
}

package problemfile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/valter-silva-au/temporal-htn/pkg/htn"
)

func unknown(kind, name string) error {
	return fmt.Errorf("%w: %s %q", ErrUnknownReference, kind, name)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// parseTerm splits "head(a, b)" into its head and arguments. A bare head
// has no arguments.
func parseTerm(s string) (string, []string, error) {
	s = strings.TrimSpace(s)
	head, rest, found := strings.Cut(s, "(")
	head = strings.TrimSpace(head)
	if head == "" {
		return "", nil, malformed("term %q has no head", s)
	}
	if !found {
		return head, nil, nil
	}
	inner, ok := strings.CutSuffix(rest, ")")
	if !ok || strings.ContainsAny(inner, "()") {
		return "", nil, malformed("term %q", s)
	}
	if strings.TrimSpace(inner) == "" {
		return head, nil, nil
	}
	parts := strings.Split(inner, ",")
	args := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return "", nil, malformed("term %q has an empty argument", s)
		}
		args = append(args, p)
	}
	return head, args, nil
}

var relations = map[string]htn.Relation{
	"==": htn.RelEq,
	"=":  htn.RelEq,
	"!=": htn.RelNeq,
	"<":  htn.RelLt,
	"<=": htn.RelLe,
	">":  htn.RelGt,
	">=": htn.RelGe,
}

// splitConstraint splits "<left> <rel> <right>". The relation must be a
// separate whitespace-delimited token.
func splitConstraint(s string) (left string, rel htn.Relation, right string, err error) {
	fields := strings.Fields(s)
	at := -1
	for i, f := range fields {
		if _, ok := relations[f]; ok {
			if at >= 0 {
				return "", "", "", malformed("constraint %q has more than one relation", s)
			}
			at = i
		}
	}
	if at <= 0 || at == len(fields)-1 {
		return "", "", "", malformed("constraint %q", s)
	}
	return strings.Join(fields[:at], " "), relations[fields[at]], strings.Join(fields[at+1:], " "), nil
}

// timeExpr is "<base>", "<base> + <delay>" or "<base> - <delay>".
type timeExpr struct {
	base     string
	delay    htn.Delay
	hasDelay bool
}

func parseTimeExpr(s string) (timeExpr, error) {
	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
		return timeExpr{base: fields[0]}, nil
	case 3:
		d, err := htn.ParseDelay(fields[2])
		if err != nil {
			return timeExpr{}, malformed("timepoint %q: %v", s, err)
		}
		switch fields[1] {
		case "+":
		case "-":
			d = d.Neg()
		default:
			return timeExpr{}, malformed("timepoint %q: expected + or -", s)
		}
		return timeExpr{base: fields[0], delay: d, hasDelay: true}, nil
	default:
		return timeExpr{}, malformed("timepoint %q", s)
	}
}

// scope resolves the timepoint names visible to an expression: start and
// end of the owning interval, and <label>.start / <label>.end of network
// occurrences.
type scope struct {
	own    *htn.TemporalInterval
	labels map[htn.Label]htn.Task
}

// operand is one resolved side of a constraint. Bare integers stay
// unresolved until the other side tells whether they are timepoints.
type operand struct {
	obj    htn.TypedObject
	label  htn.Label
	number *int64
}

func (o operand) temporal() bool {
	return o.obj != nil && htn.IsTimepoint(o.obj)
}

func (o operand) resolve(temporal bool) htn.TypedObject {
	if o.number == nil {
		return o.obj
	}
	if temporal {
		return htn.NewConstantTimepoint(*o.number)
	}
	return htn.IntConstant(*o.number)
}

// timepoint resolves the base of e, applying its delay. ok is false when
// the base is not a timepoint name.
func (b *builder) timepoint(e timeExpr, sc scope) (tp htn.Timepoint, label htn.Label, ok bool, err error) {
	switch base := e.base; {
	case base == "start" || base == "end":
		if sc.own == nil {
			return nil, "", false, unknown("timepoint", base)
		}
		tp = sc.own.Start
		if base == "end" {
			tp = sc.own.End
		}
	case strings.HasSuffix(base, ".start") || strings.HasSuffix(base, ".end"):
		name, which, _ := strings.Cut(base, ".")
		task, found := sc.labels[htn.Label(name)]
		if !found {
			return nil, "", false, unknown("label", name)
		}
		label = htn.Label(name)
		tp = task.Start()
		if which == "end" {
			tp = task.End()
		}
	default:
		if n, convErr := strconv.ParseInt(base, 10, 64); convErr == nil {
			tp = htn.NewConstantTimepoint(n)
			break
		}
		obj, found := b.objects[base]
		if !found || !htn.IsTimepoint(obj) {
			return nil, "", false, nil
		}
		tp = obj.(htn.Timepoint)
	}
	if e.hasDelay {
		tp = tp.Shift(e.delay)
	}
	return tp, label, true, nil
}

func (b *builder) operand(s string, sc scope) (operand, error) {
	e, err := parseTimeExpr(s)
	if err != nil {
		return operand{}, err
	}
	if !e.hasDelay {
		if n, convErr := strconv.ParseInt(e.base, 10, 64); convErr == nil {
			return operand{number: &n}, nil
		}
	}
	tp, label, ok, err := b.timepoint(e, sc)
	if err != nil {
		return operand{}, err
	}
	if ok {
		return operand{obj: tp, label: label}, nil
	}
	if e.hasDelay {
		return operand{}, malformed("%q is not a timepoint and cannot be shifted", e.base)
	}
	obj, err := b.object(e.base)
	if err != nil {
		return operand{}, err
	}
	return operand{obj: obj}, nil
}

// constraint parses "<left> <rel> <right>" within sc. Two timepoint sides
// give a temporal constraint carrying their labels.
func (b *builder) constraint(s string, sc scope) (htn.Constraint, error) {
	l, rel, r, err := splitConstraint(s)
	if err != nil {
		return nil, err
	}
	left, err := b.operand(l, sc)
	if err != nil {
		return nil, fmt.Errorf("constraint %q: %w", s, err)
	}
	right, err := b.operand(r, sc)
	if err != nil {
		return nil, fmt.Errorf("constraint %q: %w", s, err)
	}
	temporal := left.temporal() || right.temporal()
	c, err := htn.NewConstraint(left.resolve(temporal), right.resolve(temporal), rel, left.label, right.label)
	if err != nil {
		return nil, fmt.Errorf("constraint %q: %w", s, err)
	}
	return c, nil
}

// temporalConstraint is constraint restricted to timepoints.
func (b *builder) temporalConstraint(s string, sc scope) (htn.TemporalConstraint, error) {
	c, err := b.constraint(s, sc)
	if err != nil {
		return htn.TemporalConstraint{}, err
	}
	tc, ok := c.(htn.TemporalConstraint)
	if !ok {
		return htn.TemporalConstraint{}, malformed("network constraint %q does not relate timepoints", s)
	}
	return tc, nil
}

// interval resolves an optional [start, end] pair. Both empty yields a
// fresh interval; one empty repeats the other.
func (b *builder) interval(start, end string, sc scope) (htn.TemporalInterval, error) {
	if start == "" && end == "" {
		return b.session.Intervals().Default(), nil
	}
	if start == "" {
		start = end
	}
	if end == "" {
		end = start
	}
	resolve := func(s string) (htn.Timepoint, error) {
		e, err := parseTimeExpr(s)
		if err != nil {
			return nil, err
		}
		tp, _, ok, err := b.timepoint(e, sc)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, unknown("timepoint", e.base)
		}
		return tp, nil
	}
	s, err := resolve(start)
	if err != nil {
		return htn.TemporalInterval{}, err
	}
	e, err := resolve(end)
	if err != nil {
		return htn.TemporalInterval{}, err
	}
	return htn.NewInterval(s, e), nil
}

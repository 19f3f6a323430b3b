package htn

import (
	"errors"
	"testing"
)

func TestCopyWithReplacesFields(t *testing.T) {
	d := newDelivery()

	cp, err := CopyWith(d.move, Attrs{"Params": []TypedObject{d.r}})
	if err != nil {
		t.Fatalf("CopyWith: %v", err)
	}
	if got := len(cp.Params); got != 1 {
		t.Errorf("copy Params = %d, want 1", got)
	}
	if got := len(d.move.Params); got != 3 {
		t.Errorf("original Params = %d, want 3", got)
	}
	if cp.Symbol != d.move.Symbol || !cp.Interval.Equal(d.move.Interval) {
		t.Error("fields not mentioned must be preserved")
	}
}

func TestCopyWithDoesNotAlias(t *testing.T) {
	d := newDelivery()
	params := make([]TypedObject, 1, 4)
	params[0] = d.r
	task := PrimitiveTask{Symbol: d.move.Symbol, Params: params, Interval: d.move.Interval}

	cp, err := CopyAndExtendWith(task, Attrs{"Params": d.from})
	if err != nil {
		t.Fatalf("CopyAndExtendWith: %v", err)
	}
	if got := objectStrings(cp.Params); got != "?r - robot, ?from - location" {
		t.Errorf("copy Params = %q", got)
	}
	if spare := task.Params[:2][1]; spare != nil {
		t.Errorf("original backing array was written: %v", spare)
	}

	cp.Params[0] = d.to
	if !EqualObjects(task.Params[0], d.r) {
		t.Error("copy shares its slice with the original")
	}
}

func TestCopyAndExtendWithAppendsSlices(t *testing.T) {
	d := newDelivery()
	extra := d.s.Condition(NewStateVariable(d.at, d.r, d.to), False)

	cp, err := CopyAndExtendWith(d.move, Attrs{"Conditions": []Condition{extra}})
	if err != nil {
		t.Fatalf("CopyAndExtendWith: %v", err)
	}
	if got := len(cp.Conditions); got != 2 {
		t.Errorf("Conditions = %d, want 2", got)
	}
	if got := len(d.move.Conditions); got != 1 {
		t.Errorf("original Conditions = %d, want 1", got)
	}
	if got := len(cp.Effects); got != 2 {
		t.Errorf("Effects = %d, want 2", got)
	}
}

func TestCopyAndExtendWithUnionsSets(t *testing.T) {
	d := newDelivery()
	dom := NewDomain("delivery")
	dom.AddTask(d.move)

	other := NewLanguage()
	other.Prims.Add(NewPrimitiveTaskSymbol("pick"))

	cp, err := CopyAndExtendWith(dom, Attrs{
		"L":  other,
		"Tc": NewSet(d.s.CompoundTask(NewCompoundTaskSymbol("go"), d.r)),
	})
	if err != nil {
		t.Fatalf("CopyAndExtendWith: %v", err)
	}
	if cp == dom || cp.L == dom.L {
		t.Fatal("copy aliases the original")
	}
	if got := cp.L.Prims.Len(); got != 2 {
		t.Errorf("copy Prims = %d, want 2", got)
	}
	if got := dom.L.Prims.Len(); got != 1 {
		t.Errorf("original Prims = %d, want 1", got)
	}
	if cp.Tc.Len() != 1 || dom.Tc.Len() != 0 {
		t.Errorf("Tc: copy %d original %d", cp.Tc.Len(), dom.Tc.Len())
	}
	if !cp.Tp.Equal(dom.Tp) {
		t.Error("Tp must be preserved")
	}

	cp.Tp.Add(PrimitiveTask{Symbol: NewPrimitiveTaskSymbol("wait")})
	if dom.Tp.Len() != 1 {
		t.Error("copy shares Tp with the original")
	}
}

func TestCopyAndExtendWithSingleSetElement(t *testing.T) {
	l := NewLanguage()
	cp, err := CopyAndExtendWith(l, Attrs{"Labs": Label("l1")})
	if err != nil {
		t.Fatalf("CopyAndExtendWith: %v", err)
	}
	if !cp.Labs.Has("l1") || l.Labs.Has("l1") {
		t.Error("label should be added to the copy only")
	}
}

func TestCopyWithInterfaceEntity(t *testing.T) {
	d := newDelivery()
	var task Task = d.move

	cp, err := CopyWith(task, Attrs{"Params": []TypedObject{d.r}})
	if err != nil {
		t.Fatalf("CopyWith: %v", err)
	}
	if _, ok := cp.(PrimitiveTask); !ok {
		t.Fatalf("copy has type %T", cp)
	}
	if got := len(cp.Arguments()); got != 1 {
		t.Errorf("Arguments() = %d, want 1", got)
	}
}

func TestCopyWithErrors(t *testing.T) {
	d := newDelivery()
	tests := []struct {
		name  string
		attrs Attrs
	}{
		{"unknown field", Attrs{"Nope": 1}},
		{"wrong type", Attrs{"Params": "?r"}},
		{"nil non-nillable", Attrs{"Interval": nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CopyWith(d.move, tt.attrs); !errors.Is(err, ErrInvalidAttribute) {
				t.Errorf("err = %v, want ErrInvalidAttribute", err)
			}
		})
	}
	if _, err := CopyWith(42, Attrs{}); !errors.Is(err, ErrInvalidAttribute) {
		t.Errorf("non-struct: err = %v", err)
	}
	var nilDomain *Domain
	if _, err := CopyWith(nilDomain, Attrs{}); !errors.Is(err, ErrInvalidAttribute) {
		t.Errorf("nil pointer: err = %v", err)
	}
}

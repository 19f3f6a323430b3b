package htn

import (
	"errors"
	"testing"
)

func TestConditionAndEffectString(t *testing.T) {
	location, _, pkg, _ := deliveryTypes()
	at := NewStateVariable(NewStateVariableSymbol("at"), NewVariable("?p", pkg), NewVariable("?loc", location))
	iv := NewInterval(NewConstantTimepoint(0), NewConstantTimepoint(5))

	if got := at.String(); got != "at(?p - package, ?loc - location)" {
		t.Errorf("StateVariable.String() = %q", got)
	}
	if got := NewCondition(at, False, iv).String(); got != "[0, 5] at(?p - package, ?loc - location) = False" {
		t.Errorf("Condition.String() = %q", got)
	}
	if got := NewEffect(at, True, iv).String(); got != "[0, 5] at(?p - package, ?loc - location) <-- True" {
		t.Errorf("Effect.String() = %q", got)
	}
	if got := NewCondition(at, nil, iv).Value; !EqualObjects(got, True) {
		t.Errorf("default condition value = %v, want True", got)
	}
}

func TestDirac(t *testing.T) {
	_, _, _, robot := deliveryTypes()
	busy := NewStateVariable(NewStateVariableSymbol("busy"), NewVariable("?r", robot))
	iv := NewIntervalFactory().AtStart()

	before, after, err := Dirac(busy, True, iv)
	if err != nil {
		t.Fatalf("Dirac: %v", err)
	}
	if !EqualObjects(before.Value, True) || !EqualObjects(after.Value, False) {
		t.Errorf("values = %v, %v; want True, False", before.Value, after.Value)
	}
	if !before.Interval.Equal(iv.Sub(Epsilon)) {
		t.Errorf("before interval = %v", before.Interval.Key())
	}
	if !after.Interval.Equal(iv) {
		t.Errorf("after interval = %v", after.Interval.Key())
	}

	before, after, err = Dirac(busy, False, iv)
	if err != nil {
		t.Fatalf("Dirac: %v", err)
	}
	if !EqualObjects(before.Value, False) || !EqualObjects(after.Value, True) {
		t.Errorf("values = %v, %v; want False, True", before.Value, after.Value)
	}
}

func TestDiracShiftsWholeInterval(t *testing.T) {
	_, _, _, robot := deliveryTypes()
	busy := NewStateVariable(NewStateVariableSymbol("busy"), NewVariable("?r", robot))
	iv := NewIntervalFactory().Default()

	before, after, err := Dirac(busy, True, iv)
	if err != nil {
		t.Fatalf("Dirac: %v", err)
	}
	if before.Interval.Start.Base() != iv.Start.Base() || before.Interval.End.Base() != iv.End.Base() {
		t.Errorf("before interval %s does not keep the bounds of %s", before.Interval.Key(), iv.Key())
	}
	if before.Interval.Start.Offset().Cmp(Epsilon.Neg()) != 0 {
		t.Errorf("before start offset = %s, want -epsilon", before.Interval.Start.Offset())
	}
	if before.Interval.End.Offset().Cmp(Epsilon.Neg()) != 0 {
		t.Errorf("before end offset = %s, want -epsilon", before.Interval.End.Offset())
	}
	if !after.Interval.Start.Offset().IsZero() || !after.Interval.End.Offset().IsZero() {
		t.Errorf("after interval should be unshifted: %s", after.Interval.Key())
	}
}

func TestDiracRejectsMissingInterval(t *testing.T) {
	_, _, _, robot := deliveryTypes()
	busy := NewStateVariable(NewStateVariableSymbol("busy"), NewVariable("?r", robot))
	half := TemporalInterval{Start: NewVariableTimepoint("?ts")}

	for _, iv := range []TemporalInterval{{}, half} {
		if _, _, err := Dirac(busy, True, iv); !errors.Is(err, ErrMissingInterval) {
			t.Errorf("Dirac on %s: err = %v, want ErrMissingInterval", iv.Key(), err)
		}
	}
}

func TestDiracRejectsNonBoolean(t *testing.T) {
	_, _, _, robot := deliveryTypes()
	fuel := StateVariable{Symbol: NewStateVariableSymbol("fuel"), Params: []TypedObject{NewVariable("?r", robot)}, Type: IntegerType}

	_, _, err := Dirac(fuel, True, NewIntervalFactory().Default())
	if !errors.Is(err, ErrDiracNonBoolean) {
		t.Fatalf("err = %v, want ErrDiracNonBoolean", err)
	}
}

func TestSessionDirac(t *testing.T) {
	s := NewSession()
	_, _, _, robot := deliveryTypes()
	busy := NewStateVariable(NewStateVariableSymbol("busy"), NewVariable("?r", robot))

	before, after, err := s.DiracAtStart(busy, True)
	if err != nil {
		t.Fatalf("DiracAtStart: %v", err)
	}
	if after.Interval.String() != "at-start " || !after.Interval.Start.Offset().IsZero() {
		t.Errorf("at-start after interval = %q %s", after.Interval.String(), after.Interval.Start.Offset())
	}
	if before.Interval.Start.Offset().Cmp(Epsilon.Neg()) != 0 {
		t.Errorf("at-start before offset = %s", before.Interval.Start.Offset())
	}

	before, after, err = s.DiracAtEnd(busy, True)
	if err != nil {
		t.Fatalf("DiracAtEnd: %v", err)
	}
	if after.Interval.String() != "at-end " || after.Interval.End.Offset().Cmp(Epsilon) != 0 {
		t.Errorf("at-end after interval = %q %s", after.Interval.String(), after.Interval.End.Offset())
	}
	if !before.Interval.End.Offset().IsZero() {
		t.Errorf("at-end before offset = %s, want 0", before.Interval.End.Offset())
	}
}

package htn

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidLabelMapping = errors.New("invalid label mapping")
	ErrDuplicateLabel      = errors.New("duplicate label")
	ErrConstraintArgument  = errors.New("constraint argument")
	ErrDiracNonBoolean     = errors.New("dirac on non-boolean state variable")
	ErrInvalidAttribute    = errors.New("invalid attribute")
	ErrInvalidMethod       = errors.New("invalid method")
	ErrMissingInterval     = errors.New("missing interval bound")
)

// ArgumentError reports an entity that could not be constructed from the
// given arguments. Kind is one of the sentinel errors above.
type ArgumentError struct {
	Kind error
	Msg  string
}

func (e *ArgumentError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *ArgumentError) Unwrap() error { return e.Kind }

func argumentf(kind error, format string, args ...any) error {
	return &ArgumentError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

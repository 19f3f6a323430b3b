package chronicle

import (
	"errors"
	"fmt"
)

var (
	ErrUncreatedSymbolTable = errors.New("symbol table not created")
	ErrUncreatedContext     = errors.New("context not created")
	ErrPhaseClosed          = errors.New("conversion phase closed")
	ErrUnregisteredSymbol   = errors.New("unregistered symbol")
	ErrUnsupportedType      = errors.New("unsupported state variable type")
	ErrMissingConstantType  = errors.New("constant symbol without type")
	ErrMissingInterval      = errors.New("missing interval bound")
	ErrNoSolution           = errors.New("no solution found")
	ErrNoSolver             = errors.New("no solver configured")
)

// ConversionError reports a violation of the conversion protocol or an
// element the target solver cannot represent. Kind is one of the sentinel
// errors above, so callers can branch with errors.Is.
type ConversionError struct {
	Kind error
	Msg  string
}

func (e *ConversionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *ConversionError) Unwrap() error { return e.Kind }

func conversionf(kind error, format string, args ...any) error {
	return &ConversionError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// NoSolutionError is returned by Converter.Solve when the solver found no
// plan. It carries the converter for inspection.
type NoSolutionError struct {
	Converter *Converter
}

func (e *NoSolutionError) Error() string {
	if e == nil || e.Converter == nil {
		return ErrNoSolution.Error()
	}
	return fmt.Sprintf("%s for problem %s", ErrNoSolution.Error(), e.Converter.Name())
}

func (e *NoSolutionError) Unwrap() error { return ErrNoSolution }

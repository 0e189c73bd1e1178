package policy

import (
	"fmt"
)

// InputArityError: во входном векторе меньше значений, чем требует политика.
type InputArityError struct {
	Want int
	Got  int
}

func (e *InputArityError) Error() string {
	return fmt.Sprintf("input arity: policy requires %d values, got %d", e.Want, e.Got)
}

// InvalidPositionError: позиция, для которой формула не определена.
type InvalidPositionError struct {
	Field  string
	Value  float32
	Reason string
}

func (e *InvalidPositionError) Error() string {
	return fmt.Sprintf("invalid position: %s=%g %s", e.Field, e.Value, e.Reason)
}

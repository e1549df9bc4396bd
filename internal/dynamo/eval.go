package dynamo

import "fmt"

// Evaluate calls f and converts a panic or a result of the wrong length into
// an EvaluationError. step and stage only label the error.
func Evaluate(f DerivativeFunc, t float64, y State, p Params, step, stage int) (dy State, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &EvaluationError{Step: step, Stage: stage, Time: t, Wrapped: fmt.Errorf("panic: %v", r)}
		}
	}()

	dy = f(t, y, p)
	if len(dy) != len(y) {
		return nil, &EvaluationError{
			Step:    step,
			Stage:   stage,
			Time:    t,
			Wrapped: fmt.Errorf("%w: got %d components, want %d", ErrDimensionMismatch, len(dy), len(y)),
		}
	}
	return dy, nil
}

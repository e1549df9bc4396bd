package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrConfiguration indicates invalid simulation or sweep settings.
	ErrConfiguration = errors.New("dynamo: invalid configuration")

	// ErrEvaluation indicates the derivative function failed at runtime.
	ErrEvaluation = errors.New("dynamo: derivative evaluation failed")

	// ErrDimensionMismatch indicates a derivative of the wrong length.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and derivative")

	// ErrCanceled indicates the simulation was interrupted.
	ErrCanceled = errors.New("dynamo: simulation canceled by context")
)

// ConfigError reports a rejected setting before any integration happens.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("dynamo: invalid %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// Configf builds a ConfigError for field.
func Configf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// EvaluationError wraps a failure of the derivative function with the
// point of the integration where it happened. Stage is the RK stage
// (1-based) or 0 for a probe call outside a step.
type EvaluationError struct {
	Step    int
	Stage   int
	Time    float64
	Wrapped error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("dynamo: derivative failed at step %d stage %d (t=%.6g): %v", e.Step, e.Stage, e.Time, e.Wrapped)
}

func (e *EvaluationError) Unwrap() error {
	return e.Wrapped
}

func (e *EvaluationError) Is(target error) bool {
	return target == ErrEvaluation
}

// CanceledError carries the context error of an interrupted run so that both
// errors.Is(err, ErrCanceled) and errors.Is(err, context.Canceled) hold.
type CanceledError struct {
	Step  int
	Cause error
}

func (e *CanceledError) Error() string {
	return fmt.Sprintf("dynamo: simulation canceled at step %d: %v", e.Step, e.Cause)
}

func (e *CanceledError) Unwrap() error { return e.Cause }

func (e *CanceledError) Is(target error) bool { return target == ErrCanceled }

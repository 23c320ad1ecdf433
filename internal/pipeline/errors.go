package pipeline

import "fmt"

// ValidationError indicates a stage's required inputs are missing or
// malformed. It is never retried.
type ValidationError struct {
	Stage   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed in %s: %s", e.Stage, e.Message)
}

// TransientFetchError indicates an external fetch failed in a way that a
// later run may succeed at.
type TransientFetchError struct {
	Stage string
	URL   string
	Cause error
}

func (e *TransientFetchError) Error() string {
	return fmt.Sprintf("transient fetch failure in %s for %s: %v", e.Stage, e.URL, e.Cause)
}

func (e *TransientFetchError) Unwrap() error { return e.Cause }

// InferenceError indicates a model call failed or returned an unusable
// response.
type InferenceError struct {
	Stage string
	Cause error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failure in %s: %v", e.Stage, e.Cause)
}

func (e *InferenceError) Unwrap() error { return e.Cause }

// PersistenceError indicates results could not be written to storage.
type PersistenceError struct {
	Stage string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Stage, e.Cause)
}

func (e *PersistenceError) Unwrap() error { return e.Cause }

// AbortError wraps a stage failure that must stop the run even when the
// engine is configured to continue past errors.
type AbortError struct {
	Stage string
	Cause error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("pipeline aborted at %s: %v", e.Stage, e.Cause)
}

func (e *AbortError) Unwrap() error { return e.Cause }

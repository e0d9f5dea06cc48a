package tool

import "fmt"

// InvalidArgumentsError is returned when the model supplied malformed or
// out-of-range arguments. The model is expected to retry with fixed input.
type InvalidArgumentsError struct {
	Reason string
}

func (e *InvalidArgumentsError) Error() string {
	return "invalid arguments: " + e.Reason
}

func (e *InvalidArgumentsError) InvalidInput() bool { return true }

// InvalidArguments formats a new InvalidArgumentsError.
func InvalidArguments(format string, args ...any) error {
	return &InvalidArgumentsError{Reason: fmt.Sprintf(format, args...)}
}

// ExecutionFailedError is returned when a tool's downstream work failed.
type ExecutionFailedError struct {
	Tool   string
	Reason string
	Cause  error
}

func (e *ExecutionFailedError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Tool, e.Reason)
}

func (e *ExecutionFailedError) Unwrap() error { return e.Cause }

// UnknownToolError is returned by the registry for an unregistered name.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

func (e *UnknownToolError) InvalidInput() bool { return true }

// DuplicateToolError is returned when registering an already registered name.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q already registered", e.Name)
}

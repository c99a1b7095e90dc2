package tools

import "fmt"

// CompilationError reports source that does not parse or, for custom tools,
// defines no callable function. Raised at toolkit-build time, before the agent runs.
type CompilationError struct {
	Tool   string
	Reason string
	Err    error
}

func (e *CompilationError) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("compile %s: %s", e.Tool, e.Reason)
	}
	return "compile: " + e.Reason
}

func (e *CompilationError) Unwrap() error { return e.Err }

// ExecutionError is a runtime failure inside sandboxed code. The sandbox
// absorbs it and renders it as ordinary result text; it never reaches a caller.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string { return "execution failed: " + e.Err.Error() }

func (e *ExecutionError) Unwrap() error { return e.Err }

// SchemaValidationError reports tool arguments that do not satisfy the tool's
// input schema. The agent loop surfaces it to the model as a failed tool call.
type SchemaValidationError struct {
	Field  string
	Reason string
}

func (e *SchemaValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid arguments: %s: %s", e.Field, e.Reason)
	}
	return "invalid arguments: " + e.Reason
}

// RemoteAdapterError reports a failed upstream call or a malformed remote
// result. It propagates out of Invoke: it signals an infrastructure problem,
// not bad user code.
type RemoteAdapterError struct {
	Tool   string
	Reason string
	Err    error
}

func (e *RemoteAdapterError) Error() string {
	return fmt.Sprintf("remote tool %s: %s", e.Tool, e.Reason)
}

func (e *RemoteAdapterError) Unwrap() error { return e.Err }

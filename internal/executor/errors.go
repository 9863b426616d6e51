package executor

// CompileError reports a failed or timed-out compile stage. The diagnostic
// is surfaced verbatim to participants as the run's output.
type CompileError struct {
	Diagnostic string
}

func (e *CompileError) Error() string {
	return "Compilation failed: " + e.Diagnostic
}

// RuntimeError reports a failed or timed-out run stage.
type RuntimeError struct {
	Diagnostic string
}

func (e *RuntimeError) Error() string {
	return "Execution failed: " + e.Diagnostic
}

package exec

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/pressbuild/internal/errors"
	"github.com/felixgeelhaar/pressbuild/internal/plan"
)

// LeafActionFailure reports the action that stopped a run. Err is the
// underlying cause, so callers can also match rewrite or IO errors.
type LeafActionFailure struct {
	ActionID string
	Kind     plan.ActionKind
	ExitCode int
	Stderr   string
	Err      error
}

func (e *LeafActionFailure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "action %s failed", e.ActionID)
	if e.ExitCode != 0 {
		fmt.Fprintf(&b, " with exit code %d", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *LeafActionFailure) Unwrap() error {
	return e.Err
}

// ErrorCode implements errors.Coded. A coded cause, such as a missing tool
// or an ambiguous rewrite anchor, lends its code to the failure.
func (e *LeafActionFailure) ErrorCode() errors.ErrorCode {
	if code, ok := errors.CodeOf(e.Err); ok {
		return code
	}
	return errors.ErrCodeExecActionFailed
}

// ToolNotFoundError reports an external tool missing from PATH
type ToolNotFoundError struct {
	Tool string
	Err  error
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found: %v", e.Tool, e.Err)
}

func (e *ToolNotFoundError) Unwrap() error {
	return e.Err
}

// ErrorCode implements errors.Coded
func (e *ToolNotFoundError) ErrorCode() errors.ErrorCode {
	return errors.ErrCodeExecToolNotFound
}

// NoHandlerError reports an action kind the runner has no handler for
type NoHandlerError struct {
	Kind plan.ActionKind
}

func (e *NoHandlerError) Error() string {
	return fmt.Sprintf("no handler registered for action kind %q", e.Kind)
}

// ErrorCode implements errors.Coded
func (e *NoHandlerError) ErrorCode() errors.ErrorCode {
	return errors.ErrCodeExecNoHandler
}

// CancelledError reports a run stopped between actions by its context
type CancelledError struct {
	Completed int
	Remaining int
	Err       error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("run cancelled after %d actions (%d remaining): %v", e.Completed, e.Remaining, e.Err)
}

func (e *CancelledError) Unwrap() error {
	return e.Err
}

// ErrorCode implements errors.Coded
func (e *CancelledError) ErrorCode() errors.ErrorCode {
	return errors.ErrCodeExecCancelled
}

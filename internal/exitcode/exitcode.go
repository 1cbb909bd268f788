package exitcode

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/felixgeelhaar/pressbuild/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage or an unusable manifest
	UsageError = 2

	// ValidationError indicates a task graph or rewrite anchor problem
	ValidationError = 3

	// ActionFailed indicates a leaf action failed while running
	ActionFailed = 4

	// IOError indicates a file could not be read, written or locked
	IOError = 5

	// Interrupted indicates the run was cancelled by a signal
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	code := DetermineExitCode(err)
	Exit(code)
}

// Coder is implemented by errors that pick their own exit code
type Coder interface {
	ExitCode() int
}

// DetermineExitCode maps err to an exit code. An explicit Coder in the chain
// wins, then cancellation, then the category of the error code.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	var coder Coder
	if stderrors.As(err, &coder) {
		return coder.ExitCode()
	}

	if stderrors.Is(err, context.Canceled) {
		return Interrupted
	}

	if code, ok := errors.CodeOf(err); ok {
		if code == errors.ErrCodeExecCancelled {
			return Interrupted
		}
		switch code.Category() {
		case "TASK", "REWRITE":
			return ValidationError
		case "EXEC":
			return ActionFailed
		case "IO":
			return IOError
		case "CONFIG":
			return UsageError
		}
	}

	// cobra reports usage problems as plain errors
	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "unknown flag") || strings.Contains(errMsg, "unknown command") ||
		strings.Contains(errMsg, "unknown shorthand flag") || strings.Contains(errMsg, "accepts") ||
		strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "invalid argument") {
		return UsageError
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags, arguments or manifest)"
	case ValidationError:
		return "Validation error (task graph or rewrite anchors)"
	case ActionFailed:
		return "Leaf action failed"
	case IOError:
		return "File I/O error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}

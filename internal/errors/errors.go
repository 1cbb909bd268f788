package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Task graph errors (TASK-001 to TASK-099)
	ErrCodeTaskUnknown   ErrorCode = "TASK-001"
	ErrCodeTaskCycle     ErrorCode = "TASK-002"
	ErrCodeTaskInvalid   ErrorCode = "TASK-003"
	ErrCodeTaskDuplicate ErrorCode = "TASK-004"

	// Execution errors (EXEC-001 to EXEC-099)
	ErrCodeExecActionFailed ErrorCode = "EXEC-001"
	ErrCodeExecToolNotFound ErrorCode = "EXEC-002"
	ErrCodeExecNoHandler    ErrorCode = "EXEC-003"
	ErrCodeExecCancelled    ErrorCode = "EXEC-004"

	// Rewrite errors (REWRITE-001 to REWRITE-099)
	ErrCodeRewriteMissingAnchor  ErrorCode = "REWRITE-001"
	ErrCodeRewriteAmbiguousMatch ErrorCode = "REWRITE-002"
	ErrCodeRewriteInvalidRule    ErrorCode = "REWRITE-003"

	// Manifest errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigNotFound  ErrorCode = "CONFIG-001"
	ErrCodeConfigInvalid   ErrorCode = "CONFIG-002"
	ErrCodeConfigUnmarshal ErrorCode = "CONFIG-003"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
	ErrCodeDirectoryFailed ErrorCode = "IO-004"
	ErrCodeFileLocked      ErrorCode = "IO-007"
)

// Category returns the prefix of the code, e.g. "TASK" for "TASK-001".
func (c ErrorCode) Category() string {
	s := string(c)
	if i := strings.IndexByte(s, '-'); i > 0 {
		return s[:i]
	}
	return s
}

// Coded is implemented by domain errors that carry a stable error code.
type Coded interface {
	error
	ErrorCode() ErrorCode
}

// CodeOf returns the code of the first Coded error in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var coded Coded
	if stderrors.As(err, &coded) {
		return coded.ErrorCode(), true
	}
	return "", false
}

// BuildError represents an enhanced error with code, suggestions, and documentation
type BuildError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *BuildError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *BuildError) Unwrap() error {
	return e.Cause
}

// ErrorCode implements Coded
func (e *BuildError) ErrorCode() ErrorCode {
	return e.Code
}

// New creates a new BuildError
func New(code ErrorCode, message string) *BuildError {
	return &BuildError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new BuildError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *BuildError {
	return &BuildError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *BuildError) WithSuggestion(suggestion string) *BuildError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *BuildError) WithSuggestions(suggestions ...string) *BuildError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *BuildError) WithDocs(url string) *BuildError {
	e.DocsURL = url
	return e
}

// Describe converts err into a BuildError with suggestions suited to its code.
// Errors that are already BuildErrors are returned as is; errors without a
// code are returned as nil.
func Describe(err error) *BuildError {
	if err == nil {
		return nil
	}

	var be *BuildError
	if stderrors.As(err, &be) {
		return be
	}

	code, ok := CodeOf(err)
	if !ok {
		return nil
	}

	out := Wrap(code, describeMessage(code), err)
	switch code {
	case ErrCodeTaskUnknown:
		out.WithSuggestions(
			"Run 'pressbuild list-tasks' to see registered tasks",
			"Check the task and action names in pressbuild.yaml",
		)
	case ErrCodeTaskCycle:
		out.WithSuggestion("Remove one of the aliases on the reported path")
	case ErrCodeTaskInvalid, ErrCodeTaskDuplicate:
		out.WithSuggestion("Task and action names must be unique across the manifest")
	case ErrCodeExecActionFailed:
		out.WithSuggestions(
			"Inspect the tool output above",
			"Completed actions are not rolled back; re-run the task once fixed",
		)
	case ErrCodeExecToolNotFound:
		out.WithSuggestion("Install the tool or add it to PATH")
	case ErrCodeRewriteMissingAnchor:
		out.WithSuggestion("Make sure the document contains the marker the rule looks for")
	case ErrCodeRewriteAmbiguousMatch:
		out.WithSuggestion("Keep exactly one occurrence of the anchor in the document")
	case ErrCodeFileLocked:
		out.WithSuggestion("Another rewrite of the same file is in progress")
	case ErrCodeConfigNotFound:
		out.WithSuggestion("Create pressbuild.yaml or pass --manifest")
	}
	return out
}

func describeMessage(code ErrorCode) string {
	switch code.Category() {
	case "TASK":
		return "invalid task graph"
	case "EXEC":
		return "leaf action failed"
	case "REWRITE":
		return "rewrite rule failed"
	case "CONFIG":
		return "invalid manifest"
	case "IO":
		return "file operation failed"
	default:
		return "operation failed"
	}
}

// NewManifestNotFoundError creates a manifest not found error
func NewManifestNotFoundError(path string) *BuildError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("manifest not found: %s", path)).
		WithSuggestion("Create pressbuild.yaml in the plugin root").
		WithSuggestion("Pass --manifest or set PRESSBUILD_MANIFEST")
}

// NewManifestInvalidError creates a manifest validation error
func NewManifestInvalidError(details string) *BuildError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid manifest: %s", details)).
		WithSuggestion("Run 'pressbuild list-tasks' after fixing the manifest to verify it loads")
}

// NewManifestUnmarshalError creates a manifest parse error
func NewManifestUnmarshalError(path string, cause error) *BuildError {
	return Wrap(ErrCodeConfigUnmarshal, fmt.Sprintf("failed to parse manifest: %s", path), cause).
		WithSuggestion("Check the YAML syntax")
}

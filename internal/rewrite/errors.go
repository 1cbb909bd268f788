package rewrite

import (
	stderrors "errors"
	"fmt"

	"github.com/felixgeelhaar/pressbuild/internal/errors"
)

// ErrLocked is returned when a document is already held by another rewrite
var ErrLocked = stderrors.New("document is locked by another rewrite")

// MissingAnchorError reports that a mandatory rule found no anchor
type MissingAnchorError struct {
	Rule   string
	Anchor string
}

func (e *MissingAnchorError) Error() string {
	return fmt.Sprintf("rule %s: anchor %q not found", e.Rule, e.Anchor)
}

// ErrorCode implements errors.Coded
func (e *MissingAnchorError) ErrorCode() errors.ErrorCode {
	return errors.ErrCodeRewriteMissingAnchor
}

// AmbiguousMatchError reports that a rule expecting one anchor found several.
// Lines holds the 1-based line numbers of every match.
type AmbiguousMatchError struct {
	Rule   string
	Anchor string
	Lines  []int
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("rule %s: anchor %q matched %d times (lines %v), expected exactly one",
		e.Rule, e.Anchor, len(e.Lines), e.Lines)
}

// ErrorCode implements errors.Coded
func (e *AmbiguousMatchError) ErrorCode() errors.ErrorCode {
	return errors.ErrCodeRewriteAmbiguousMatch
}

// InvalidRuleError reports a rule that cannot be built from its configuration
type InvalidRuleError struct {
	Rule   string
	Reason string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("rule %s: %s", e.Rule, e.Reason)
}

// ErrorCode implements errors.Coded
func (e *InvalidRuleError) ErrorCode() errors.ErrorCode {
	return errors.ErrCodeRewriteInvalidRule
}

// IOError reports a failure to lock, read or write a document
type IOError struct {
	Op   string // "lock", "read" or "write"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ErrorCode implements errors.Coded
func (e *IOError) ErrorCode() errors.ErrorCode {
	switch e.Op {
	case "lock":
		return errors.ErrCodeFileLocked
	case "read":
		return errors.ErrCodeFileReadFailed
	default:
		return errors.ErrCodeFileWriteFailed
	}
}

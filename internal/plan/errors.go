package plan

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/pressbuild/internal/errors"
)

// UnknownTaskError reports a reference to a name that is neither a task nor
// an action
type UnknownTaskError struct {
	Name   string
	Parent string
}

func (e *UnknownTaskError) Error() string {
	if e.Parent == "" {
		return fmt.Sprintf("unknown task %q", e.Name)
	}
	return fmt.Sprintf("unknown task %q referenced by %q", e.Name, e.Parent)
}

// ErrorCode implements errors.Coded
func (e *UnknownTaskError) ErrorCode() errors.ErrorCode {
	return errors.ErrCodeTaskUnknown
}

// CycleError reports a task that references itself through its aliases.
// Path starts and ends with the same name.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular task reference detected: %s", strings.Join(e.Path, " -> "))
}

// ErrorCode implements errors.Coded
func (e *CycleError) ErrorCode() errors.ErrorCode {
	return errors.ErrCodeTaskCycle
}

// Contains reports whether name is on the cycle
func (e *CycleError) Contains(name string) bool {
	for _, n := range e.Path {
		if n == name {
			return true
		}
	}
	return false
}

// RegistryError reports an invalid or conflicting registry entry
type RegistryError struct {
	Name      string
	Reason    string
	Duplicate bool
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("registry entry %q: %s", e.Name, e.Reason)
}

// ErrorCode implements errors.Coded
func (e *RegistryError) ErrorCode() errors.ErrorCode {
	if e.Duplicate {
		return errors.ErrCodeTaskDuplicate
	}
	return errors.ErrCodeTaskInvalid
}

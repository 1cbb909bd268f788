package cmd

import (
	"github.com/felixgeelhaar/pressbuild/internal/errors"
)

// ExitError carries an explicit process exit code for an error whose code
// category would otherwise pick a different one
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit code to terminate with
func (e *ExitError) ExitCode() int {
	return e.Code
}

func noWatchEntriesError(path string) error {
	return errors.New(errors.ErrCodeConfigInvalid, "manifest has no watch entries").
		WithSuggestion("Add a watch section to " + path + " mapping file globs to tasks")
}

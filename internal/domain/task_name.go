package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// TaskName identifies a task alias or a leaf action in a registry.
// Names may carry colon-separated targets, e.g. "clean:build".
type TaskName string

var (
	taskNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.-]*(:[A-Za-z0-9_.-]+)*$`)

	maxTaskNameLength = 100
)

// NewTaskName creates a TaskName with validation
func NewTaskName(value string) (TaskName, error) {
	n := TaskName(value)
	if err := n.Validate(); err != nil {
		return "", err
	}
	return n, nil
}

// Validate checks if the task name is valid
func (n TaskName) Validate() error {
	s := string(n)

	if s == "" {
		return fmt.Errorf("task name cannot be empty")
	}

	if len(s) > maxTaskNameLength {
		return fmt.Errorf("task name %q exceeds maximum length of %d characters", s, maxTaskNameLength)
	}

	if !taskNamePattern.MatchString(s) {
		return fmt.Errorf("task name %q must start with a letter and contain only letters, digits, '_', '-', '.' and ':' separators", s)
	}

	return nil
}

// Base returns the part before the first colon ("clean" for "clean:build").
func (n TaskName) Base() string {
	s := string(n)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i]
	}
	return s
}

// Target returns the part after the first colon, or "" when there is none.
func (n TaskName) Target() string {
	s := string(n)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[i+1:]
	}
	return ""
}

// String returns the string representation
func (n TaskName) String() string {
	return string(n)
}

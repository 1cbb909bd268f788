package ux

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/pressbuild/internal/errors"
)

// FormatError renders err for the terminal. Coded errors get their code and
// the suggestions errors.Describe attaches; anything else is printed as is.
func FormatError(err error, s Styles) string {
	if err == nil {
		return ""
	}

	be := errors.Describe(err)
	if be == nil {
		return s.Error.Render("Error:") + " " + err.Error() + "\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\n", s.Error.Render("Error:"), s.Code.Render("["+string(be.Code)+"]"), describeCause(be))
	if len(be.Suggestions) > 0 {
		b.WriteString("\n")
		for _, sg := range be.Suggestions {
			fmt.Fprintf(&b, "  %s %s\n", s.Warning.Render("•"), sg)
		}
	}
	if be.DocsURL != "" {
		fmt.Fprintf(&b, "\n  %s %s\n", s.Muted.Render("Docs:"), be.DocsURL)
	}
	return b.String()
}

func describeCause(be *errors.BuildError) string {
	if be.Cause != nil {
		return be.Message + ": " + be.Cause.Error()
	}
	return be.Message
}

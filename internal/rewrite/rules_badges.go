package rewrite

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// DefaultBadgeHeading is the readme section badges are placed above
const DefaultBadgeHeading = "## Description ##"

// Badges inserts a line of badges, separated by a blank line, directly
// above Heading. The heading must occur exactly once. A document that
// already carries the same badge line above the heading is left unchanged.
type Badges struct {
	Heading   string
	Line      string
	Mandatory bool
}

// NewBadges renders each badge as a text/template (with sprig functions)
// against data and joins the results with a single space.
func NewBadges(heading string, badges []string, data any, mandatory bool) (*Badges, error) {
	if heading == "" {
		heading = DefaultBadgeHeading
	}

	rendered := make([]string, 0, len(badges))
	for i, b := range badges {
		out, err := RenderTemplate(fmt.Sprintf("badge%d", i), b, data)
		if err != nil {
			return nil, &InvalidRuleError{Rule: "badges", Reason: err.Error()}
		}
		if out = strings.TrimSpace(out); out != "" {
			rendered = append(rendered, out)
		}
	}

	return &Badges{
		Heading:   heading,
		Line:      strings.Join(rendered, " "),
		Mandatory: mandatory,
	}, nil
}

// Name implements Rule
func (*Badges) Name() string { return "badges" }

// Apply implements Rule
func (r *Badges) Apply(text string) (string, error) {
	starts := r.headingLines(text)
	switch {
	case len(starts) == 0:
		if r.Mandatory {
			return text, &MissingAnchorError{Rule: r.Name(), Anchor: r.Heading}
		}
		return text, nil
	case len(starts) > 1:
		lines := make([]int, len(starts))
		for i, off := range starts {
			lines[i] = lineOf(text, off)
		}
		return text, &AmbiguousMatchError{Rule: r.Name(), Anchor: r.Heading, Lines: lines}
	}

	if r.Line == "" {
		return text, nil
	}

	at := starts[0]
	if previousNonBlankLine(text, at) == r.Line {
		return text, nil
	}

	eol := lineEnding(text, lineEnd(text, at))
	return text[:at] + r.Line + "  " + eol + eol + text[at:], nil
}

// headingLines returns the start offsets of lines equal to the heading,
// ignoring trailing whitespace
func (r *Badges) headingLines(text string) []int {
	var starts []int
	off := 0
	for off <= len(text) {
		end := lineEnd(text, off)
		if strings.TrimRight(text[off:end], " \t\r") == r.Heading {
			starts = append(starts, off)
		}
		if end >= len(text) {
			break
		}
		off = end + 1
	}
	return starts
}

// lineEnd returns the offset of the '\n' ending the line that starts at off,
// or len(text) for the last line
func lineEnd(text string, off int) int {
	if i := strings.IndexByte(text[off:], '\n'); i >= 0 {
		return off + i
	}
	return len(text)
}

// previousNonBlankLine returns the trimmed last non-blank line before off
func previousNonBlankLine(text string, off int) string {
	lines := strings.Split(text[:off], "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

// RenderTemplate executes tmpl with sprig functions; missing keys are errors
func RenderTemplate(name, tmpl string, data any) (string, error) {
	t, err := template.New(name).Option("missingkey=error").Funcs(sprig.TxtFuncMap()).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}
